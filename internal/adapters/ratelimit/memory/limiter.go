// Package memory es el limiter de login en proceso (una sola instancia).
package memory

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// Limiter cuenta intentos por clave en una ventana fija.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]window
	max       int
	size      time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func New(max int, size time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]window),
		max:     max,
		size:    size,
		now:     time.Now,
	}
}

func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow registra el intento y dice si está dentro del límite.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.size {
		l.windows[key] = window{count: 1, start: now}
		return l.max > 0, nil
	}
	if w.count >= l.max {
		return false, nil
	}
	w.count++
	l.windows[key] = w
	return true, nil
}

// sweep descarta ventanas vencidas, como mucho una vez por ventana.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.size {
		return
	}
	l.lastSweep = now
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.size {
			delete(l.windows, k)
		}
	}
}
