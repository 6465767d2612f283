package orders

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/events"
	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/payment"
)

// EventLedger records which webhook events were already applied.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// Reconciler applies verified payment notifications to orders and carts.
// All writes are absolute, so a replayed event leaves the same state behind.
type Reconciler struct {
	gateway payment.Gateway
	orders  OrderStore
	carts   CartClearer
	ledger  EventLedger
	events  events.Publisher
	now     func() time.Time
}

func NewReconciler(gateway payment.Gateway, orders OrderStore, carts CartClearer, ledger EventLedger, publisher events.Publisher) *Reconciler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Reconciler{
		gateway: gateway,
		orders:  orders,
		carts:   carts,
		ledger:  ledger,
		events:  publisher,
		now:     time.Now,
	}
}

// HandleWebhook verifies the signature before touching any state. A returned error of kind
// SignatureVerification means the request must be rejected; any other error means the event
// was not applied and should be redelivered.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := r.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	logger := log.With().Str("eventId", ev.ID).Str("eventType", ev.Type).Logger()

	if r.ledger != nil {
		seen, err := r.ledger.Seen(ctx, ev.ID)
		if err != nil {
			logger.Warn().Err(err).Msg("webhook ledger unavailable, applying event anyway")
		} else if seen {
			logger.Info().Msg("webhook event already processed")
			return nil
		}
	}

	switch ev.Type {
	case payment.EventPaymentSucceeded:
		err = r.paymentSucceeded(ctx, ev)
	case payment.EventPaymentFailed:
		err = r.paymentFailed(ctx, ev)
	default:
		logger.Debug().Msg("unhandled webhook event type")
		return nil
	}
	if err != nil {
		return err
	}

	if r.ledger != nil {
		if err := r.ledger.MarkProcessed(ctx, ev.ID); err != nil {
			logger.Warn().Err(err).Msg("failed to record webhook event")
		}
	}
	return nil
}

func (r *Reconciler) lookup(ctx context.Context, ev *payment.WebhookEvent) (*payment.SessionRef, error) {
	if ev.PaymentIntentID == "" {
		log.Warn().Str("eventId", ev.ID).Msg("payment event without payment intent")
		return nil, nil
	}
	ref, err := r.gateway.SessionForPaymentIntent(ctx, ev.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		log.Warn().Str("eventId", ev.ID).Str("paymentIntent", ev.PaymentIntentID).Msg("no checkout session for payment intent")
	}
	return ref, nil
}

func (r *Reconciler) paymentSucceeded(ctx context.Context, ev *payment.WebhookEvent) error {
	ref, err := r.lookup(ctx, ev)
	if err != nil || ref == nil {
		return err
	}

	found, err := r.orders.MarkPaid(ctx, ref.OrderID, r.now())
	if err != nil {
		return global.Internal("failed to mark order paid", err)
	}
	if !found {
		// Captured payment with no order behind it. The cart stays as it is.
		log.Error().Str("eventId", ev.ID).Str("orderId", ref.OrderID).Str("userId", ref.UserID).
			Str("paymentIntent", ev.PaymentIntentID).Msg("payment captured for an order that no longer exists")
		r.publish(ctx, events.New(events.OrderPaidOrphan, ref.OrderID, ref.UserID))
		return nil
	}

	order, err := r.orders.FindByID(ctx, ref.OrderID)
	if err != nil {
		log.Warn().Err(err).Str("orderId", ref.OrderID).Msg("failed to reload paid order")
	}

	userID := ref.UserID
	if userID == "" && order != nil {
		userID = order.UserID
	}
	if userID != "" {
		if err := r.carts.ClearCart(ctx, userID); err != nil {
			return global.Internal("failed to clear cart", err)
		}
	}

	log.Info().Str("orderId", ref.OrderID).Str("userId", userID).Msg("order paid")
	if order != nil {
		r.publish(ctx, events.ForOrder(events.OrderPaid, order))
	} else {
		r.publish(ctx, events.New(events.OrderPaid, ref.OrderID, userID))
	}
	return nil
}

func (r *Reconciler) paymentFailed(ctx context.Context, ev *payment.WebhookEvent) error {
	ref, err := r.lookup(ctx, ev)
	if err != nil || ref == nil {
		return err
	}

	deleted, err := r.orders.DeleteUnpaid(ctx, ref.OrderID)
	if err != nil {
		return global.Internal("failed to delete unpaid order", err)
	}
	if !deleted {
		log.Info().Str("orderId", ref.OrderID).Msg("failed payment for order that is paid or already gone")
		return nil
	}

	log.Info().Str("orderId", ref.OrderID).Str("userId", ref.UserID).Msg("unpaid order removed after failed payment")
	r.publish(ctx, events.New(events.OrderPaymentFailed, ref.OrderID, ref.UserID))
	return nil
}

func (r *Reconciler) publish(ctx context.Context, ev events.Event) {
	if err := r.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("eventType", ev.Type).Str("orderId", ev.OrderID).Msg("order event not delivered")
	}
}
