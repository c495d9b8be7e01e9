package carts

import (
	"context"
	"testing"

	"github.com/marketrun/platform/internal/app/domain/catalog"
	"github.com/marketrun/platform/internal/app/services/catalogsvc"
	"github.com/marketrun/platform/internal/app/storage/memory"
	"github.com/marketrun/platform/internal/errors"
)

func newService(t *testing.T) (*Service, *catalogsvc.Service, catalog.Product) {
	t.Helper()
	store := memory.New()
	catalogSvc := catalogsvc.New(store, nil)
	p, err := catalogSvc.CreateProduct(context.Background(), catalogsvc.ProductInput{
		Name: "Honey Beans (paint)", BasePrice: 9500, InStock: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return New(store, catalogSvc, nil), catalogSvc, p
}

func TestAddMergesSameSelection(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	const user = "user-1"

	if _, err := svc.Add(ctx, user, AddInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	c, err := svc.Add(ctx, user, AddInput{ProductID: p.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(c.Items) != 1 {
		t.Fatalf("lines: got %d, want 1", len(c.Items))
	}
	if c.Items[0].Quantity != 3 {
		t.Fatalf("quantity: got %d, want 3", c.Items[0].Quantity)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "user-1", AddInput{ProductID: p.ID, Quantity: 0}); !errors.Is(err, errors.KindValidation) {
		t.Fatalf("zero quantity: %v", err)
	}
	if _, err := svc.Add(ctx, "user-1", AddInput{ProductID: "missing", Quantity: 1}); !errors.Is(err, errors.KindNotFound) {
		t.Fatalf("unknown product: %v", err)
	}
}

func TestAddRejectsOutOfStock(t *testing.T) {
	svc, catalogSvc, p := newService(t)
	ctx := context.Background()

	if _, err := catalogSvc.UpdateProduct(ctx, p.ID, catalogsvc.ProductInput{
		Name: p.Name, BasePrice: p.BasePrice, InStock: false,
	}); err != nil {
		t.Fatalf("update product: %v", err)
	}

	_, err := svc.Add(ctx, "user-1", AddInput{ProductID: p.ID, Quantity: 1})
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("out of stock add: %v", err)
	}
}

func TestUpdateItemQuantityZeroRemovesLine(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	const user = "user-1"

	c, err := svc.Add(ctx, user, AddInput{ProductID: p.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := c.Items[0].ID

	zero := 0
	c, err = svc.UpdateItem(ctx, user, itemID, UpdateInput{Quantity: &zero})
	if err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if !c.Empty() {
		t.Fatalf("cart should be empty, has %d lines", len(c.Items))
	}
}

func TestUpdateItemQuantityAndRequest(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	const user = "user-1"

	c, err := svc.Add(ctx, user, AddInput{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := c.Items[0].ID

	five := 5
	req := "  very ripe ones please  "
	c, err = svc.UpdateItem(ctx, user, itemID, UpdateInput{Quantity: &five, SpecialRequest: &req})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.Items[0].Quantity != 5 {
		t.Fatalf("quantity: %d", c.Items[0].Quantity)
	}
	if c.Items[0].SpecialRequest != "very ripe ones please" {
		t.Fatalf("special request: %q", c.Items[0].SpecialRequest)
	}

	negative := -1
	if _, err := svc.UpdateItem(ctx, user, itemID, UpdateInput{Quantity: &negative}); !errors.Is(err, errors.KindValidation) {
		t.Fatalf("negative quantity: %v", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	const user = "user-1"

	c, err := svc.Add(ctx, user, AddInput{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := svc.RemoveItem(ctx, user, "missing"); !errors.Is(err, errors.KindNotFound) {
		t.Fatalf("remove missing: %v", err)
	}
	c, err = svc.RemoveItem(ctx, user, c.Items[0].ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !c.Empty() {
		t.Fatal("cart should be empty after remove")
	}

	if _, err := svc.Add(ctx, user, AddInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if err := svc.Clear(ctx, user); err != nil {
		t.Fatalf("clear: %v", err)
	}
	c, err = svc.Get(ctx, user)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !c.Empty() {
		t.Fatal("cart should be empty after clear")
	}
}
