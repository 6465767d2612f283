package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"greencart.dev/storefront/pkg/events"
	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
	"greencart.dev/storefront/pkg/payment"
)

type memCatalog map[string]models.Product

func (c memCatalog) ProductsByIDs(_ context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product)
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type memAddresses map[string]models.Address

func (a memAddresses) AddressesByIDs(_ context.Context, ids []string) (map[string]models.Address, error) {
	out := make(map[string]models.Address)
	for _, id := range ids {
		if addr, ok := a[id]; ok {
			out[id] = addr
		}
	}
	return out, nil
}

// memOrders mirrors the Mongo repository semantics in memory. A set sweepErr makes
// DeleteStaleUnpaid stop with that error after removing one order.
type memOrders struct {
	mu        sync.Mutex
	orders    map[string]models.Order
	failWrite error
	sweepErr  error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]models.Order{}}
}

func (m *memOrders) Insert(_ context.Context, order *models.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return "", m.failWrite
	}
	order.ID = bson.NewObjectID()
	m.orders[order.ID.Hex()] = *order
	return order.ID.Hex(), nil
}

func (m *memOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memOrders) FindVisible(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		if o.PaymentType == models.PaymentCOD || o.IsPaid {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) MarkPaid(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return false, m.failWrite
	}
	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	o.IsPaid = true
	o.PaidAt = &at
	o.UpdatedAt = at
	m.orders[id] = o
	return true, nil
}

func (m *memOrders) DeleteUnpaid(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return false, m.failWrite
	}
	o, ok := m.orders[id]
	if !ok || o.IsPaid {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

func (m *memOrders) DeleteStaleUnpaid(_ context.Context, before time.Time) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for id, o := range m.orders {
		if o.PaymentType == models.PaymentOnline && !o.IsPaid && o.CreatedAt.Before(before) {
			out = append(out, o)
			delete(m.orders, id)
			if m.sweepErr != nil {
				return out, m.sweepErr
			}
		}
	}
	return out, nil
}

func (m *memOrders) get(id string) (models.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

func (m *memOrders) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memCarts struct {
	carts   map[string]models.CartItems
	cleared []string
	err     error
}

func (c *memCarts) ClearCart(_ context.Context, userID string) error {
	if c.err != nil {
		return c.err
	}
	c.carts[userID] = models.CartItems{}
	c.cleared = append(c.cleared, userID)
	return nil
}

type memLedger struct {
	seen map[string]bool
}

func (l *memLedger) Seen(_ context.Context, id string) (bool, error) { return l.seen[id], nil }

func (l *memLedger) MarkProcessed(_ context.Context, id string) error {
	l.seen[id] = true
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

const validSignature = "sig_ok"

// fakeGateway stores sessions by payment intent and accepts events signed with validSignature.
type fakeGateway struct {
	mu        sync.Mutex
	requests  []payment.CheckoutRequest
	createErr error
	lookupErr error
	sessions  map[string]payment.SessionRef
	webhooks  map[string]payment.WebhookEvent
	lookups   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]payment.SessionRef{}, webhooks: map[string]payment.WebhookEvent{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &payment.CheckoutSession{ID: "cs_" + req.OrderID, URL: "https://checkout.test/" + req.OrderID}, nil
}

func (g *fakeGateway) SessionForPaymentIntent(_ context.Context, pi string) (*payment.SessionRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups++
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	ref, ok := g.sessions[pi]
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != validSignature {
		return nil, global.NewError(global.KindSignatureVerification, "Webhook signature verification failed", errors.New("bad signature"))
	}
	ev, ok := g.webhooks[string(payload)]
	if !ok {
		return nil, global.Validation("unknown payload")
	}
	return &ev, nil
}
