package orders

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/events"
	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
	"greencart.dev/storefront/pkg/payment"
)

type ProductCatalog interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
}

type AddressBook interface {
	AddressesByIDs(ctx context.Context, ids []string) (map[string]models.Address, error)
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) (string, error)
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	FindVisible(ctx context.Context, userID string) ([]models.Order, error)
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error)
	DeleteUnpaid(ctx context.Context, orderID string) (bool, error)
	DeleteStaleUnpaid(ctx context.Context, before time.Time) ([]models.Order, error)
}

type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

// PlaceOrderInput is a checkout request. UserID always comes from the auth token.
type PlaceOrderInput struct {
	UserID  string
	Items   []models.OrderItem
	Address string
}

type Service struct {
	products ProductCatalog
	orders   OrderStore
	gateway  payment.Gateway
	events   events.Publisher
	now      func() time.Time
}

func NewService(products ProductCatalog, orders OrderStore, gateway payment.Gateway, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		products: products,
		orders:   orders,
		gateway:  gateway,
		events:   publisher,
		now:      time.Now,
	}
}

func validateInput(in PlaceOrderInput) error {
	if in.Address == "" || len(in.Items) == 0 {
		return global.Validation("Invalid data")
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.Product) == "" {
			return global.Validation("Invalid data")
		}
		if item.Quantity <= 0 {
			return global.Validation("Invalid quantity for product %s", item.Product)
		}
	}
	return nil
}

// quote validates and prices the input against the live catalog.
func (s *Service) quote(ctx context.Context, in PlaceOrderInput) (Quote, error) {
	if err := validateInput(in); err != nil {
		return Quote{}, err
	}
	ids := make([]string, len(in.Items))
	for i, item := range in.Items {
		ids[i] = item.Product
	}
	products, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return Quote{}, global.Internal("failed to load products", err)
	}
	return Price(in.Items, products)
}

func (s *Service) newOrder(in PlaceOrderInput, q Quote, paymentType models.PaymentType) *models.Order {
	order := &models.Order{
		UserID:      in.UserID,
		Items:       in.Items,
		Amount:      q.Amount(),
		Address:     in.Address,
		Status:      models.OrderStatusPlaced,
		PaymentType: paymentType,
		IsPaid:      false,
	}
	order.SetTimestamps(s.now())
	return order
}

// PlaceCOD persists a cash on delivery order. It is visible in order history immediately.
func (s *Service) PlaceCOD(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	q, err := s.quote(ctx, in)
	if err != nil {
		return nil, err
	}
	order := s.newOrder(in, q, models.PaymentCOD)
	if _, err := s.orders.Insert(ctx, order); err != nil {
		return nil, global.Internal("failed to place order", err)
	}

	log.Info().Str("orderId", order.ID.Hex()).Str("userId", in.UserID).Float64("amount", order.Amount).Msg("COD order placed")
	s.publish(ctx, events.ForOrder(events.OrderPlaced, order))
	return order, nil
}

// PlaceOnline persists an unpaid online order and opens a hosted checkout session for it.
// The returned URL is where the client should redirect.
func (s *Service) PlaceOnline(ctx context.Context, in PlaceOrderInput, origin string) (string, error) {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return "", global.Validation("Missing origin")
	}
	q, err := s.quote(ctx, in)
	if err != nil {
		return "", err
	}
	if q.ChargeMinor() != q.AmountMinor() {
		log.Warn().
			Int64("amountMinor", q.AmountMinor()).
			Int64("chargeMinor", q.ChargeMinor()).
			Str("userId", in.UserID).
			Msg("gateway charge differs from stored order amount")
	}

	order := s.newOrder(in, q, models.PaymentOnline)
	orderID, err := s.orders.Insert(ctx, order)
	if err != nil {
		return "", global.Internal("failed to place order", err)
	}

	req := payment.CheckoutRequest{
		OrderID:    orderID,
		UserID:     in.UserID,
		SuccessURL: origin + "/loader?next=my-orders",
		CancelURL:  origin + "/cart",
	}
	for _, l := range q.Lines {
		req.Lines = append(req.Lines, payment.LineItem{Name: l.Name, UnitAmount: l.UnitCharge, Quantity: int64(l.Quantity)})
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.discard(ctx, orderID)
		return "", err
	}
	log.Info().Str("orderId", orderID).Str("userId", in.UserID).Str("sessionId", sess.ID).Msg("online order awaiting payment")
	return sess.URL, nil
}

// discard removes an order whose checkout never opened. Failures are left to the sweeper.
func (s *Service) discard(ctx context.Context, orderID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.orders.DeleteUnpaid(ctx, orderID); err != nil {
		log.Warn().Err(err).Str("orderId", orderID).Msg("failed to discard order after checkout error")
	}
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("eventType", ev.Type).Str("orderId", ev.OrderID).Msg("order event not delivered")
	}
}
