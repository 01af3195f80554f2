package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"procurement-hub/internal/adapters/storage/memory"
	"procurement-hub/internal/resource"
)

var (
	manager = resource.Actor{ID: 2, Role: resource.RoleManager}
	user    = resource.Actor{ID: 3, Role: resource.RoleUser}
)

func seededService(t *testing.T) *Service {
	t.Helper()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewStore[Item](), resource.Deps{Now: func() time.Time { return now }})
	if _, err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func TestLowStockFilterMatchesAlertList(t *testing.T) {
	ctx := context.Background()
	svc := seededService(t)

	alerts, err := LowStock(ctx, svc, user)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	page, err := svc.List(ctx, user, resource.Query{Filters: map[string]string{"lowStock": "true"}, Page: 1, Limit: 100})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != len(alerts) {
		t.Fatalf("filter total %d != alert count %d", page.Total, len(alerts))
	}

	all, _ := svc.All(ctx)
	want := 0
	for i := range all {
		if all[i].Quantity <= all[i].MinQuantity {
			want++
		}
	}
	if want == 0 || len(alerts) != want {
		t.Fatalf("expected %d low stock items, got %d", want, len(alerts))
	}
	for _, it := range alerts {
		if !it.LowStock() {
			t.Fatalf("item above minimum in alert list: %+v", it)
		}
	}
}

func TestLowStockSpansPages(t *testing.T) {
	ctx := context.Background()
	svc := seededService(t)
	before, err := LowStock(ctx, svc, user)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}

	extra := resource.MaxLimit + 20
	for i := range extra {
		_, err := svc.Create(ctx, manager, Item{SKU: fmt.Sprintf("LOW-%03d", i), Name: "Repuesto", Category: "materiales", Quantity: 1, MinQuantity: 5})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	alerts, err := LowStock(ctx, svc, user)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(alerts) != len(before)+extra {
		t.Fatalf("expected %d alerts, got %d", len(before)+extra, len(alerts))
	}
	seen := map[int64]bool{}
	for i, it := range alerts {
		if seen[it.ID] {
			t.Fatalf("item %d listed twice", it.ID)
		}
		seen[it.ID] = true
		if i > 0 && alerts[i-1].ID >= it.ID {
			t.Fatalf("alerts not in id order at %d", i)
		}
	}
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()
	svc := seededService(t)

	it, err := Adjust(ctx, svc, manager, 1, -20, "salida a obra")
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if it.Quantity != 300 || it.TotalValue != 300*7.5 || it.LastAdjustedBy != manager.ID || it.LastAdjustedAt == nil {
		t.Fatalf("unexpected item after adjust: %+v", it)
	}

	if _, err := Adjust(ctx, svc, manager, 1, -1000, ""); !errors.Is(err, resource.ErrValidation) {
		t.Fatalf("overdraw: expected ErrValidation, got %v", err)
	}
	if _, err := Adjust(ctx, svc, manager, 1, 0, ""); !errors.Is(err, resource.ErrValidation) {
		t.Fatalf("zero delta: expected ErrValidation, got %v", err)
	}
	if _, err := Adjust(ctx, svc, user, 1, 5, ""); !errors.Is(err, resource.ErrForbidden) {
		t.Fatalf("user adjust: expected ErrForbidden, got %v", err)
	}
	if _, err := Adjust(ctx, svc, manager, 999, 5, ""); !errors.Is(err, resource.ErrNotFound) {
		t.Fatalf("unknown item: expected ErrNotFound, got %v", err)
	}
}

func TestSKUNormalisedAndUnique(t *testing.T) {
	ctx := context.Background()
	svc := seededService(t)
	it, err := svc.Create(ctx, manager, Item{SKU: " new-01 ", Name: "Nuevo", Category: "materiales", Quantity: 1, UnitCost: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.SKU != "NEW-01" {
		t.Fatalf("sku not normalised: %q", it.SKU)
	}
	if _, err := svc.Create(ctx, manager, Item{SKU: "cem-025", Name: "Dup", Category: "materiales"}); !errors.Is(err, resource.ErrConflict) {
		t.Fatalf("duplicate sku: expected ErrConflict, got %v", err)
	}
}
