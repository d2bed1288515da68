package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix namespaces every notification subject on the broker.
const SubjectPrefix = "ecoaceite.notify"

// Subject returns the broker subject for an event type.
func Subject(eventType string) string {
	return SubjectPrefix + "." + eventType
}

// Connect opens a NATS connection and makes sure the notification stream exists.
func Connect(url, stream string) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(url,
		nats.Name("ecoaceite"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to open jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(stream); err != nil {
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     stream,
			Subjects: []string{SubjectPrefix + ".>"},
			Storage:  nats.FileStorage,
			MaxAge:   7 * 24 * time.Hour,
		}); err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to create stream %s: %w", stream, err)
		}
	}

	return nc, js, nil
}

// Publisher is the subset of nats.JetStreamContext used to publish.
type Publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// JetStreamNotifier publishes events to JetStream.
type JetStreamNotifier struct {
	js Publisher
}

// NewJetStreamNotifier creates a Notifier backed by js.
func NewJetStreamNotifier(js Publisher) *JetStreamNotifier {
	return &JetStreamNotifier{js: js}
}

// Notify implements Notifier.
func (n *JetStreamNotifier) Notify(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := n.js.Publish(Subject(e.Type), data, nats.Context(ctx), nats.MsgId(e.Type+":"+e.ResourceID)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}
