package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/PratikDhanave/factory-events-service/internal/models"
)

const eventTypeAccepted = "factory.event.accepted"

// jetStreamPublisher is the subset of nats.JetStreamContext the sink uses.
type jetStreamPublisher interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSSink publishes accepted records to a JetStream subject.
type NATSSink struct {
	conn    *nats.Conn
	js      jetStreamPublisher
	subject string
}

// NewNATSSink connects to url and binds to JetStream.
func NewNATSSink(url, subject string, opts ...nats.Option) (*NATSSink, error) {
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSSink{conn: nc, js: js, subject: subject}, nil
}

func (n *NATSSink) Name() string {
	return "nats"
}

// Publish sends one message per record. JetStream's Nats-Msg-Id header is set
// to the event id and receivedTime so the stream itself drops exact replays.
func (n *NATSSink) Publish(ctx context.Context, batchID string, records []models.StoredRecord) error {
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", rec.EventID, err)
		}

		msg := nats.NewMsg(n.subject)
		msg.Data = data
		msg.Header.Set(nats.MsgIdHdr, fmt.Sprintf("%s@%d", rec.EventID, rec.ReceivedTime.UnixNano()))
		msg.Header.Set("Batch-Id", batchID)
		msg.Header.Set("Event-Type", eventTypeAccepted)

		if _, err := n.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
			return fmt.Errorf("publish event %s: %w", rec.EventID, err)
		}
	}
	return nil
}

// Ping reports whether the connection is usable.
func (n *NATSSink) Ping(context.Context) error {
	if n.conn == nil || !n.conn.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}

// Close drains the underlying NATS connection.
func (n *NATSSink) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
