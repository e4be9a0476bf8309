// Package nats publica los eventos de dominio en NATS (subject = Event.Subject).
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/notify"
)

// Conn es lo que usamos de *nats.Conn.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	conn   Conn
	closer func()
	prefix string
	now    func() time.Time
}

var _ notify.Notifier = (*Publisher)(nil)

// Connect abre la conexión con reconexión automática.
func Connect(url, name string, log logger.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", map[string]any{"err": err})
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", map[string]any{"url": c.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	p := New(nc)
	p.closer = nc.Close
	return p, nil
}

func New(conn Conn) *Publisher {
	return &Publisher{conn: conn, now: time.Now}
}

// WithPrefix antepone un prefijo a los subjects ("pethealth." + subject).
func (p *Publisher) WithPrefix(prefix string) *Publisher {
	p.prefix = prefix
	return p
}

type message struct {
	Subject string         `json:"subject"`
	Text    string         `json:"text"`
	Payload map[string]any `json:"payload,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

func (p *Publisher) Notify(ctx context.Context, ev notify.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(message{
		Subject: ev.Subject,
		Text:    ev.Text,
		Payload: ev.Payload,
		SentAt:  p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.prefix+ev.Subject, body); err != nil {
		return fmt.Errorf("nats publish %s: %w", ev.Subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.closer != nil {
		p.closer()
	}
}
