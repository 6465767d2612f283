package payment

import "context"

// Event types the reconciler acts on.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// LineItem is one checkout line. UnitAmount is in the currency's minor unit.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CheckoutRequest struct {
	OrderID    string
	UserID     string
	Lines      []LineItem
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// SessionRef is the correlation data stored on a checkout session.
type SessionRef struct {
	SessionID string
	OrderID   string
	UserID    string
}

// WebhookEvent is a verified gateway notification reduced to what reconciliation needs.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
}

// Gateway is the hosted checkout provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// SessionForPaymentIntent returns nil when no session references the payment intent.
	SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (*SessionRef, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
