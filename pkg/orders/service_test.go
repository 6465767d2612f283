package orders

import (
	"context"
	"errors"
	"strings"
	"testing"

	"greencart.dev/storefront/pkg/events"
	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

type fixture struct {
	products memCatalog
	orders   *memOrders
	carts    *memCarts
	gateway  *fakeGateway
	ledger   *memLedger
	events   *recorder
	service  *Service
}

func newFixture() *fixture {
	f := &fixture{
		products: memCatalog{
			"p1": {Name: "Apples", OfferPrice: 10.00},
			"p2": {Name: "Milk", OfferPrice: 2.50},
		},
		orders:  newMemOrders(),
		carts:   &memCarts{carts: map[string]models.CartItems{}},
		gateway: newFakeGateway(),
		ledger:  &memLedger{seen: map[string]bool{}},
		events:  &recorder{},
	}
	f.service = NewService(f.products, f.orders, f.gateway, f.events)
	return f
}

func TestPlaceCODComputesAmountServerSide(t *testing.T) {
	f := newFixture()
	order, err := f.service.PlaceCOD(context.Background(), PlaceOrderInput{
		UserID:  "u1",
		Items:   []models.OrderItem{{Product: "p1", Quantity: 2}},
		Address: "a1",
	})
	if err != nil {
		t.Fatalf("PlaceCOD: %v", err)
	}
	if order.Amount != 20.40 {
		t.Errorf("amount = %v, want 20.40", order.Amount)
	}
	stored, ok := f.orders.get(order.ID.Hex())
	if !ok {
		t.Fatal("order not persisted")
	}
	if stored.PaymentType != models.PaymentCOD || stored.IsPaid || stored.Status != models.OrderStatusPlaced {
		t.Errorf("stored order = %+v", stored)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != events.OrderPlaced {
		t.Errorf("events = %v", got)
	}
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		in   PlaceOrderInput
		kind global.Kind
	}{
		{"no items", PlaceOrderInput{UserID: "u1", Address: "a1"}, global.KindValidation},
		{"no address", PlaceOrderInput{UserID: "u1", Items: []models.OrderItem{{Product: "p1", Quantity: 1}}}, global.KindValidation},
		{"zero quantity", PlaceOrderInput{UserID: "u1", Address: "a1", Items: []models.OrderItem{{Product: "p1", Quantity: 0}}}, global.KindValidation},
		{"blank product", PlaceOrderInput{UserID: "u1", Address: "a1", Items: []models.OrderItem{{Product: " ", Quantity: 1}}}, global.KindValidation},
		{"unknown product", PlaceOrderInput{UserID: "u1", Address: "a1", Items: []models.OrderItem{{Product: "nope", Quantity: 1}}}, global.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			if _, err := f.service.PlaceCOD(context.Background(), tc.in); global.KindOf(err) != tc.kind {
				t.Errorf("PlaceCOD err = %v, want kind %v", err, tc.kind)
			}
			if _, err := f.service.PlaceOnline(context.Background(), tc.in, "https://shop.test"); global.KindOf(err) != tc.kind {
				t.Errorf("PlaceOnline err = %v, want kind %v", err, tc.kind)
			}
			if f.orders.len() != 0 {
				t.Errorf("%d orders persisted, want none", f.orders.len())
			}
			if len(f.gateway.requests) != 0 {
				t.Error("gateway must not be called for invalid input")
			}
		})
	}
}

func TestPlaceOnlineOpensCheckoutSession(t *testing.T) {
	f := newFixture()
	url, err := f.service.PlaceOnline(context.Background(), PlaceOrderInput{
		UserID:  "u1",
		Items:   []models.OrderItem{{Product: "p1", Quantity: 2}, {Product: "p2", Quantity: 1}},
		Address: "a1",
	}, "https://shop.test/")
	if err != nil {
		t.Fatalf("PlaceOnline: %v", err)
	}
	if len(f.gateway.requests) != 1 {
		t.Fatalf("gateway calls = %d", len(f.gateway.requests))
	}
	req := f.gateway.requests[0]
	if url != "https://checkout.test/"+req.OrderID {
		t.Errorf("url = %q", url)
	}
	if req.SuccessURL != "https://shop.test/loader?next=my-orders" || req.CancelURL != "https://shop.test/cart" {
		t.Errorf("redirects = %q, %q", req.SuccessURL, req.CancelURL)
	}
	if req.UserID != "u1" || len(req.Lines) != 2 {
		t.Fatalf("request = %+v", req)
	}
	if req.Lines[0].UnitAmount != 1020 || req.Lines[0].Quantity != 2 || req.Lines[1].UnitAmount != 255 {
		t.Errorf("lines = %+v", req.Lines)
	}

	stored, ok := f.orders.get(req.OrderID)
	if !ok {
		t.Fatal("online order not persisted before checkout")
	}
	if stored.PaymentType != models.PaymentOnline || stored.IsPaid || stored.Amount != 22.95 {
		t.Errorf("stored order = %+v", stored)
	}
	if len(f.events.types()) != 0 {
		t.Errorf("unpaid online order must not announce itself, got %v", f.events.types())
	}
}

func TestPlaceOnlineDiscardsOrderWhenGatewayFails(t *testing.T) {
	f := newFixture()
	f.gateway.createErr = global.NewError(global.KindGatewayTimeout, "payment provider timed out", context.DeadlineExceeded)

	_, err := f.service.PlaceOnline(context.Background(), PlaceOrderInput{
		UserID:  "u1",
		Items:   []models.OrderItem{{Product: "p1", Quantity: 1}},
		Address: "a1",
	}, "https://shop.test")
	if !global.IsKind(err, global.KindGatewayTimeout) {
		t.Fatalf("err = %v, want gateway timeout", err)
	}
	if f.orders.len() != 0 {
		t.Fatalf("orphan order left behind")
	}
}

func TestPlaceOnlineRequiresOrigin(t *testing.T) {
	f := newFixture()
	_, err := f.service.PlaceOnline(context.Background(), PlaceOrderInput{
		UserID: "u1", Items: []models.OrderItem{{Product: "p1", Quantity: 1}}, Address: "a1",
	}, "")
	if !global.IsKind(err, global.KindValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestPlaceCODStorageFailureIsInternal(t *testing.T) {
	f := newFixture()
	f.orders.failWrite = errors.New("connection reset")
	_, err := f.service.PlaceCOD(context.Background(), PlaceOrderInput{
		UserID: "u1", Items: []models.OrderItem{{Product: "p1", Quantity: 1}}, Address: "a1",
	})
	if !global.IsKind(err, global.KindInternal) || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("err = %v", err)
	}
}
