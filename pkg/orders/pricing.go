package orders

import (
	"github.com/shopspring/decimal"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

// TaxRate is the flat surcharge applied on top of the subtotal.
var TaxRate = decimal.RequireFromString("0.02")

// Line is a priced order item.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	Unit      decimal.Decimal
	// UnitCharge is the unit price plus its own floored tax, in minor units, as sent to the gateway.
	UnitCharge int64
}

// Quote is the server side price of an order.
type Quote struct {
	Lines    []Line
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Amount is the stored order amount.
func (q Quote) Amount() float64 {
	return q.Total.InexactFloat64()
}

// AmountMinor is the stored amount in minor units.
func (q Quote) AmountMinor() int64 {
	return q.Total.Shift(2).Round(0).IntPart()
}

// ChargeMinor is what the gateway will charge for the per-line breakdown.
func (q Quote) ChargeMinor() int64 {
	var total int64
	for _, l := range q.Lines {
		total += l.UnitCharge * int64(l.Quantity)
	}
	return total
}

func floorToCent(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(2)
}

// Price computes amount = subtotal + floor_to_cent(subtotal * TaxRate) using offer prices only.
func Price(items []models.OrderItem, products map[string]models.Product) (Quote, error) {
	var q Quote
	for _, item := range items {
		p, ok := products[item.Product]
		if !ok {
			return Quote{}, global.NewError(global.KindNotFound, "Product not found: "+item.Product, nil)
		}
		unit := decimal.NewFromFloat(p.OfferPrice)
		unitCharge := unit.Add(floorToCent(unit.Mul(TaxRate)))

		q.Lines = append(q.Lines, Line{
			ProductID:  item.Product,
			Name:       p.Name,
			Quantity:   item.Quantity,
			Unit:       unit,
			UnitCharge: unitCharge.Shift(2).Round(0).IntPart(),
		})
		q.Subtotal = q.Subtotal.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	q.Tax = floorToCent(q.Subtotal.Mul(TaxRate))
	q.Total = q.Subtotal.Add(q.Tax)
	return q, nil
}
