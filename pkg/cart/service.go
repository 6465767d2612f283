package cart

import (
	"context"
	"sort"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

// Repository persists the cart on the user document.
type Repository interface {
	GetCart(ctx context.Context, userID string) (models.CartItems, int64, error)
	ReplaceCart(ctx context.Context, userID string, items models.CartItems, expected *int64) (int64, bool, error)
}

// Service is the server side of cart sync. The stored copy is a mirror of what the client
// last pushed.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, userID string) (models.CartItems, int64, error) {
	items, version, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, 0, classify("failed to load cart", err)
	}
	return items, version, nil
}

// Update overwrites the stored cart. With a version it only succeeds if nobody else wrote in
// between; otherwise the error carries a *ConflictError with the current version.
func (s *Service) Update(ctx context.Context, userID string, items models.CartItems, version *int64) (int64, error) {
	normalized, negative := items.Normalize()
	if len(negative) > 0 {
		sort.Strings(negative)
		return 0, global.Validation("Invalid quantity for product %s", negative[0])
	}

	newVersion, ok, err := s.repo.ReplaceCart(ctx, userID, normalized, version)
	if err != nil {
		return 0, classify("failed to update cart", err)
	}
	if !ok {
		return 0, global.NewError(global.KindConflict, "Cart was updated elsewhere", &ConflictError{Version: newVersion})
	}
	return newVersion, nil
}

func classify(message string, err error) error {
	if global.KindOf(err) != global.KindInternal {
		return err
	}
	return global.Internal(message, err)
}
