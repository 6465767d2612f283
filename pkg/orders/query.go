package orders

import (
	"context"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

// Query renders order history. Online orders only show up once paid.
type Query struct {
	orders    OrderStore
	products  ProductCatalog
	addresses AddressBook
}

func NewQuery(orders OrderStore, products ProductCatalog, addresses AddressBook) *Query {
	return &Query{orders: orders, products: products, addresses: addresses}
}

func (q *Query) UserOrders(ctx context.Context, userID string) ([]models.OrderView, error) {
	if userID == "" {
		return nil, global.NewError(global.KindNotAuthorized, "Not Authorized", nil)
	}
	return q.list(ctx, userID)
}

func (q *Query) AllOrders(ctx context.Context) ([]models.OrderView, error) {
	return q.list(ctx, "")
}

func (q *Query) list(ctx context.Context, userID string) ([]models.OrderView, error) {
	found, err := q.orders.FindVisible(ctx, userID)
	if err != nil {
		return nil, global.Internal("failed to load orders", err)
	}

	var productIDs, addressIDs []string
	for _, o := range found {
		for _, item := range o.Items {
			productIDs = append(productIDs, item.Product)
		}
		addressIDs = append(addressIDs, o.Address)
	}

	products, err := q.products.ProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, global.Internal("failed to load products", err)
	}
	addresses, err := q.addresses.AddressesByIDs(ctx, addressIDs)
	if err != nil {
		return nil, global.Internal("failed to load addresses", err)
	}

	views := make([]models.OrderView, 0, len(found))
	for i := range found {
		o := &found[i]
		if !o.Visible() {
			continue
		}
		views = append(views, view(o, products, addresses))
	}
	return views, nil
}

// view resolves references. A deleted product or address renders as null.
func view(o *models.Order, products map[string]models.Product, addresses map[string]models.Address) models.OrderView {
	v := models.OrderView{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       make([]models.OrderItemView, len(o.Items)),
		Amount:      o.Amount,
		Status:      o.Status,
		PaymentType: o.PaymentType,
		IsPaid:      o.IsPaid,
		PaidAt:      o.PaidAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for i, item := range o.Items {
		v.Items[i].Quantity = item.Quantity
		if p, ok := products[item.Product]; ok {
			v.Items[i].Product = &p
		}
	}
	if a, ok := addresses[o.Address]; ok {
		v.Address = &a
	}
	return v
}
