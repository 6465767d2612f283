package cart

import (
	"context"
	"errors"
	"testing"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

// memRepo applies the same version check as the Mongo repository.
type memRepo struct {
	items   map[string]models.CartItems
	version map[string]int64
	err     error
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]models.CartItems{}, version: map[string]int64{}}
}

func (r *memRepo) GetCart(_ context.Context, userID string) (models.CartItems, int64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.items[userID].Clone(), r.version[userID], nil
}

func (r *memRepo) ReplaceCart(_ context.Context, userID string, items models.CartItems, expected *int64) (int64, bool, error) {
	if r.err != nil {
		return 0, false, r.err
	}
	if expected != nil && *expected != r.version[userID] {
		return r.version[userID], false, nil
	}
	r.items[userID] = items
	r.version[userID]++
	return r.version[userID], true, nil
}

func TestServiceUpdateNormalizesAndVersions(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	v, err := svc.Update(context.Background(), "u1", models.CartItems{"p1": 2, "p2": 0}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v != 1 {
		t.Fatalf("version = %d", v)
	}
	items, version, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(items) != 1 || items["p1"] != 2 || version != 1 {
		t.Fatalf("stored %v at %d", items, version)
	}
}

func TestServiceUpdateRejectsNegativeQuantity(t *testing.T) {
	repo := newMemRepo()
	_, err := NewService(repo).Update(context.Background(), "u1", models.CartItems{"p1": -1}, nil)
	if !global.IsKind(err, global.KindValidation) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := repo.items["u1"]; ok {
		t.Fatal("rejected cart was stored")
	}
}

func TestServiceUpdateStaleVersionConflicts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	if _, err := svc.Update(context.Background(), "u1", models.CartItems{"p1": 1}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Update(context.Background(), "u1", models.CartItems{"p1": 2}, nil); err != nil {
		t.Fatal(err)
	}

	stale := int64(1)
	_, err := svc.Update(context.Background(), "u1", models.CartItems{"p9": 1}, &stale)
	if !global.IsKind(err, global.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Version != 2 {
		t.Fatalf("conflict = %+v", conflict)
	}
	if repo.items["u1"]["p1"] != 2 {
		t.Fatal("stale write landed")
	}

	current := int64(2)
	if v, err := svc.Update(context.Background(), "u1", models.CartItems{"p9": 1}, &current); err != nil || v != 3 {
		t.Fatalf("Update at current version: v=%d err=%v", v, err)
	}
}

func TestServiceKeepsRepositoryErrorKinds(t *testing.T) {
	repo := newMemRepo()
	repo.err = global.NewError(global.KindNotFound, "User not found", nil)
	if _, _, err := NewService(repo).Get(context.Background(), "ghost"); !global.IsKind(err, global.KindNotFound) {
		t.Fatalf("err = %v", err)
	}

	repo.err = errors.New("socket closed")
	if _, err := NewService(repo).Update(context.Background(), "u1", models.CartItems{}, nil); !global.IsKind(err, global.KindInternal) {
		t.Fatalf("err = %v", err)
	}
}
