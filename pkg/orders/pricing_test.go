package orders

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

func catalog(prices map[string]float64) map[string]models.Product {
	out := make(map[string]models.Product, len(prices))
	for id, price := range prices {
		out[id] = models.Product{ID: bson.NewObjectID(), Name: "product " + id, OfferPrice: price}
	}
	return out
}

func TestPrice(t *testing.T) {
	cases := []struct {
		name   string
		items  []models.OrderItem
		prices map[string]float64
		amount float64
		charge int64
	}{
		{
			name:   "two units at ten",
			items:  []models.OrderItem{{Product: "p1", Quantity: 2}},
			prices: map[string]float64{"p1": 10.00},
			amount: 20.40,
			charge: 2040,
		},
		{
			name:   "tax floors to the cent",
			items:  []models.OrderItem{{Product: "p1", Quantity: 1}},
			prices: map[string]float64{"p1": 9.99},
			amount: 10.18, // 9.99 + floor(0.1998)
			charge: 1018,
		},
		{
			name:   "per line and aggregate tax diverge",
			items:  []models.OrderItem{{Product: "a", Quantity: 1}, {Product: "b", Quantity: 1}},
			prices: map[string]float64{"a": 0.49, "b": 0.49},
			amount: 0.99, // 0.98 + floor(0.0196)
			charge: 98,   // each line floors its own tax to zero
		},
		{
			name:   "offer price without tax",
			items:  []models.OrderItem{{Product: "p1", Quantity: 3}},
			prices: map[string]float64{"p1": 0.10},
			amount: 0.30,
			charge: 30,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Price(tc.items, catalog(tc.prices))
			if err != nil {
				t.Fatalf("Price: %v", err)
			}
			if q.Amount() != tc.amount {
				t.Errorf("Amount() = %v, want %v", q.Amount(), tc.amount)
			}
			if q.ChargeMinor() != tc.charge {
				t.Errorf("ChargeMinor() = %d, want %d", q.ChargeMinor(), tc.charge)
			}
		})
	}
}

func TestPriceUnknownProduct(t *testing.T) {
	_, err := Price([]models.OrderItem{{Product: "ghost", Quantity: 1}}, catalog(nil))
	if !global.IsKind(err, global.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPriceKeepsItemOrder(t *testing.T) {
	items := []models.OrderItem{{Product: "b", Quantity: 1}, {Product: "a", Quantity: 4}}
	q, err := Price(items, catalog(map[string]float64{"a": 1, "b": 2}))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if q.Lines[0].ProductID != "b" || q.Lines[1].ProductID != "a" || q.Lines[1].Quantity != 4 {
		t.Fatalf("lines = %+v", q.Lines)
	}
	if q.AmountMinor() != 612 {
		t.Fatalf("AmountMinor() = %d, want 612", q.AmountMinor())
	}
}
