package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"greencart.dev/storefront/pkg/global"
)

const (
	metadataOrderID = "orderId"
	metadataUserID  = "userId"
)

// Stripe accepts checkout session lifetimes between 30 minutes and 24 hours, measured from
// when it receives the request. The lower bound keeps a minute of headroom.
const (
	MinSessionTTL = 31 * time.Minute
	MaxSessionTTL = 24 * time.Hour
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
	SessionTTL    time.Duration
}

// Stripe implements Gateway with Stripe hosted checkout.
type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
	timeout       time.Duration
	sessionTTL    time.Duration
	now           func() time.Time
}

func NewStripe(cfg StripeConfig) *Stripe {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Stripe{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		timeout:       timeout,
		sessionTTL:    clampSessionTTL(cfg.SessionTTL),
		now:           time.Now,
	}
}

func clampSessionTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl < MinSessionTTL:
		return MinSessionTTL
	case ttl > MaxSessionTTL:
		return MaxSessionTTL
	}
	return ttl
}

// checkoutParams builds the session request. The session stops accepting payment at expiresAt.
func checkoutParams(req CheckoutRequest, currency string, expiresAt time.Time) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ExpiresAt:  stripe.Int64(expiresAt.Unix()),
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(line.UnitAmount),
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	params.AddMetadata(metadataOrderID, req.OrderID)
	params.AddMetadata(metadataUserID, req.UserID)
	return params
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := checkoutParams(req, s.currency, s.now().Add(s.sessionTTL))
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classify(ctx, "create checkout session", err)
	}
	log.Info().Str("orderId", req.OrderID).Str("sessionId", sess.ID).Msg("checkout session created")
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *Stripe) SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (*SessionRef, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionListParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Context = ctx

	it := s.api.CheckoutSessions.List(params)
	for it.Next() {
		sess := it.CheckoutSession()
		if ref := sessionRef(sess.ID, sess.Metadata); ref != nil {
			return ref, nil
		}
	}
	if err := it.Err(); err != nil {
		return nil, classify(ctx, "list checkout sessions", err)
	}
	return nil, nil
}

func sessionRef(sessionID string, metadata map[string]string) *SessionRef {
	orderID := metadata[metadataOrderID]
	if orderID == "" {
		return nil
	}
	return &SessionRef{SessionID: sessionID, OrderID: orderID, UserID: metadata[metadataUserID]}
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, global.NewError(global.KindSignatureVerification, "Webhook signature verification failed", err)
	}

	out := &WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data != nil && len(ev.Data.Raw) > 0 {
		var obj struct {
			ID     string `json:"id"`
			Object string `json:"object"`
		}
		// A signed event that cannot be decoded will never decode, so it is kept without a
		// payment intent and acknowledged rather than redelivered.
		if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
			log.Error().Err(err).Str("eventId", ev.ID).Str("eventType", out.Type).Msg("malformed webhook object")
			return out, nil
		}
		if obj.Object == "payment_intent" {
			out.PaymentIntentID = obj.ID
		}
	}
	return out, nil
}

// classify maps a gateway failure onto an error kind. Deadline expiry becomes GatewayTimeout.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return global.NewError(global.KindGatewayTimeout, "payment provider timed out", fmt.Errorf("%s: %w", op, err))
	}
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return global.NewError(global.KindUpstream, "payment provider error",
			fmt.Errorf("%s: %s (%s): %w", op, serr.Msg, serr.Code, err))
	}
	return global.NewError(global.KindUpstream, "payment provider unreachable", fmt.Errorf("%s: %w", op, err))
}
