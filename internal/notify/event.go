// Package notify carries back-office notifications from the API to the
// notifier worker, which delivers them as email.
package notify

import (
	"context"
	"time"

	"ecoaceite/internal/logger"
)

// Event types.
const (
	EventSignupCreated    = "signup.created"
	EventContactReceived  = "contact.received"
	EventSolicitudCreated = "solicitud.created"
	EventIngresoCobrada   = "ingreso.cobrada"
)

// Event is the payload published for every notification.
type Event struct {
	Type       string            `json:"type"`
	ResourceID string            `json:"resource_id"`
	Data       map[string]string `json:"data"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent stamps an event of type typ about resourceID.
func NewEvent(typ, resourceID string, data map[string]string) Event {
	return Event{Type: typ, ResourceID: resourceID, Data: data, OccurredAt: time.Now().UTC()}
}

// Notifier publishes events.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Dispatch publishes e and logs a failure instead of returning it. Writes that
// trigger a notification must succeed even when delivery does not.
func Dispatch(ctx context.Context, n Notifier, e Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, e); err != nil {
		logger.Get().Errorw("failed to publish notification",
			"error", err,
			"type", e.Type,
			"resource_id", e.ResourceID,
		)
	}
}

// LogNotifier only logs events. It is used when no broker is configured.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, e Event) error {
	logger.Named("notify").Infow("notification", "type", e.Type, "resource_id", e.ResourceID, "data", e.Data)
	return nil
}
