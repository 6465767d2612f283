package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/models"
)

const (
	OrderPlaced        = "order.placed"
	OrderPaid          = "order.paid"
	OrderPaymentFailed = "order.payment_failed"
	OrderExpired       = "order.expired"
	// OrderPaidOrphan reports a captured payment whose order no longer exists.
	OrderPaidOrphan = "order.paid_orphan"
)

// Event is an order lifecycle notification.
type Event struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId,omitempty"`
	Amount      float64            `json:"amount,omitempty"`
	PaymentType models.PaymentType `json:"paymentType,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// New stamps an event id and time.
func New(eventType, orderID, userID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// ForOrder builds an event carrying the order's amount and payment type.
func ForOrder(eventType string, order *models.Order) Event {
	ev := New(eventType, order.ID.Hex(), order.UserID)
	ev.Amount = order.Amount
	ev.PaymentType = order.PaymentType
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber streams events until the returned cancel func is called or ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}

// Multi fans an event out to every publisher. A failing publisher does not stop the others.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			log.Error().Err(err).Str("eventType", ev.Type).Str("orderId", ev.OrderID).Msg("publish event failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
