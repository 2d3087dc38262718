package messaging

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"

	"postura/internal/errs"
	"postura/internal/ports"
)

// NATSPublisher delivers events over core NATS. Publish is fire-and-forget:
// the broker gives no delivery acknowledgment and none is wanted here.
type NATSPublisher struct {
	conn *nats.Conn
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("postura"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, payload any) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "marshal event payload")
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return errs.Wrapf(err, "publish %s", topic)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}
