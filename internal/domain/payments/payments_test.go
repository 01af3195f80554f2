package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"procurement-hub/internal/adapters/storage/memory"
	"procurement-hub/internal/resource"
)

func TestCompleteStampsPaidAt(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewStore[Payment](), resource.Deps{Now: func() time.Time { return now }})
	manager := resource.Actor{ID: 2, Role: resource.RoleManager}
	admin := resource.Actor{ID: 1, Role: resource.RoleAdmin}

	p, err := svc.Create(ctx, manager, Payment{ProjectID: 1, Payee: "ACME", Concept: "Factura 1", Amount: 100, Method: "transfer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transition(ctx, manager, p.ID, "complete", ""); !errors.Is(err, resource.ErrInvalidTransition) {
		t.Fatalf("complete pending: expected ErrInvalidTransition, got %v", err)
	}
	_, _ = svc.Transition(ctx, manager, p.ID, "approve", "")
	done, err := svc.Transition(ctx, admin, p.ID, "complete", "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.PaidAt == nil || !done.PaidAt.Equal(now) || done.ProcessedBy != admin.ID {
		t.Fatalf("payment not stamped: %+v", done)
	}
	if err := svc.Delete(ctx, admin, p.ID); !errors.Is(err, resource.ErrConflict) {
		t.Fatalf("delete completed payment: expected ErrConflict, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(memory.NewStore[Payment](), resource.Deps{})
	manager := resource.Actor{ID: 2, Role: resource.RoleManager}
	user := resource.Actor{ID: 3, Role: resource.RoleUser}
	ok := Payment{ProjectID: 1, Payee: "ACME", Concept: "x", Amount: 10, Method: "cash"}

	if _, err := svc.Create(context.Background(), user, ok); !errors.Is(err, resource.ErrForbidden) {
		t.Fatalf("user create: expected ErrForbidden, got %v", err)
	}
	bad := ok
	bad.Method = "bitcoin"
	if _, err := svc.Create(context.Background(), manager, bad); !errors.Is(err, resource.ErrValidation) {
		t.Fatalf("bad method: expected ErrValidation, got %v", err)
	}
	bad = ok
	bad.Amount = 0
	if _, err := svc.Create(context.Background(), manager, bad); !errors.Is(err, resource.ErrValidation) {
		t.Fatalf("zero amount: expected ErrValidation, got %v", err)
	}
}
