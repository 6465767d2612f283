// Package cart holds the shopper's cart on the client side, keeps the server copy in sync,
// and serves the server side of that sync.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

// Enqueuer receives a full snapshot of the cart after every mutation.
type Enqueuer interface {
	Enqueue(items models.CartItems)
}

// Store is the client held cart. Mutations apply locally first and are never rolled back by a
// failed sync.
type Store struct {
	mu    sync.Mutex
	items models.CartItems
	out   Enqueuer
}

func NewStore(initial models.CartItems) *Store {
	items, _ := initial.Normalize()
	return &Store{items: items}
}

// Attach starts pushing snapshots to out. It is what logging in does.
func (s *Store) Attach(out Enqueuer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = out
}

func (s *Store) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = nil
}

// Load replaces the cart with the server copy without pushing it back.
func (s *Store) Load(items models.CartItems) {
	normalized, _ := items.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalized
}

func (s *Store) Add(productID string) {
	s.mutate(func(items models.CartItems) { items.Add(productID) })
}

func (s *Store) SetQuantity(productID string, n int) error {
	if n <= 0 {
		return global.Validation("quantity must be positive, got %d", n)
	}
	s.mutate(func(items models.CartItems) { items.Set(productID, n) })
	return nil
}

func (s *Store) Remove(productID string) {
	s.mutate(func(items models.CartItems) { items.Remove(productID) })
}

// Clear empties the cart, e.g. after a COD order went through.
func (s *Store) Clear() {
	s.mutate(func(items models.CartItems) {
		for id := range items {
			delete(items, id)
		}
	})
}

func (s *Store) mutate(fn func(models.CartItems)) {
	s.mu.Lock()
	fn(s.items)
	snapshot := s.items.Clone()
	out := s.out
	s.mu.Unlock()

	if out != nil {
		out.Enqueue(snapshot)
	}
}

// Items returns a copy of the current mapping.
func (s *Store) Items() models.CartItems {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Count()
}

// Amount is the display total at the given offer prices, floored to the cent. Products
// without a price are skipped.
func (s *Store) Amount(prices map[string]float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for id, qty := range s.items {
		price, ok := prices[id]
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total.RoundFloor(2).InexactFloat64()
}
