// Package redis comparte el limiter de login entre instancias.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Limiter es una ventana fija: INCR sobre la clave y EXPIRE al primer hit.
type Limiter struct {
	client *goredis.Client
	prefix string
	max    int64
	size   time.Duration
}

func New(client *goredis.Client, max int, size time.Duration) *Limiter {
	return &Limiter{client: client, prefix: "ratelimit:", max: int64(max), size: size}
}

// NewFromURL parsea redis://... y verifica la conexión.
func NewFromURL(ctx context.Context, url string, max int, size time.Duration) (*Limiter, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client, max, size), nil
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.size).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.max, nil
}

func (l *Limiter) Close() error { return l.client.Close() }
