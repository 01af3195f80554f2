package notifications

import (
	"context"
	"errors"
	"testing"

	"procurement-hub/internal/adapters/storage/memory"
	"procurement-hub/internal/resource"
)

var (
	admin = resource.Actor{ID: 1, Role: resource.RoleAdmin}
	mgr   = resource.Actor{ID: 2, Role: resource.RoleManager}
	lucia = resource.Actor{ID: 3, Role: resource.RoleUser}
)

func TestNotifierAndOwnerScope(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore[Notification](), resource.Deps{})
	notifier := NewNotifier(svc)

	for _, uid := range []int64{lucia.ID, mgr.ID, lucia.ID} {
		err := notifier.Notify(ctx, resource.Notice{UserID: uid, Title: "Budget approved", Message: "Budget #1 is now approved", Entity: "budgets", EntityID: 1})
		if err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	mine, err := svc.List(ctx, lucia, resource.Query{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if mine.Total != 2 {
		t.Fatalf("lucia should see 2 notifications, got %d", mine.Total)
	}
	all, _ := svc.List(ctx, admin, resource.Query{Page: 1, Limit: 20})
	if all.Total != 3 {
		t.Fatalf("admin should see all, got %d", all.Total)
	}

	// manager no tiene rol sobre notificaciones ajenas
	if _, err := svc.Get(ctx, mgr, mine.Items[0].ID); !errors.Is(err, resource.ErrForbidden) {
		t.Fatalf("manager reading lucia's notification: expected ErrForbidden, got %v", err)
	}
}

func TestReadAll(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore[Notification](), resource.Deps{})
	notifier := NewNotifier(svc)
	for i := 0; i < 3; i++ {
		_ = notifier.Notify(ctx, resource.Notice{UserID: lucia.ID, Title: "t", Message: "m"})
	}
	_ = notifier.Notify(ctx, resource.Notice{UserID: mgr.ID, Title: "t", Message: "m"})
	if _, err := svc.Transition(ctx, lucia, 1, "archive", ""); err != nil {
		t.Fatalf("archive: %v", err)
	}

	n, err := ReadAll(ctx, svc, lucia)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 marked read, got %d", n)
	}
	got, _ := svc.Get(ctx, admin, 4)
	if got.Status != StatusUnread {
		t.Fatalf("other users' notifications must stay unread: %+v", got)
	}
	if n, _ := ReadAll(ctx, svc, lucia); n != 0 {
		t.Fatalf("second read-all should be a no-op, got %d", n)
	}
	if _, err := svc.Transition(ctx, lucia, 2, "read", ""); !errors.Is(err, resource.ErrInvalidTransition) {
		t.Fatalf("read twice: expected ErrInvalidTransition, got %v", err)
	}
}

// racingStore ejecuta afterFind una vez, justo después de la lectura.
type racingStore struct {
	*memory.Store[Notification]
	afterFind func()
}

func (s *racingStore) Find(ctx context.Context) ([]Notification, error) {
	items, err := s.Store.Find(ctx)
	if fn := s.afterFind; fn != nil {
		s.afterFind = nil
		fn()
	}
	return items, err
}

func TestReadAllToleratesConcurrentChanges(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Store: memory.NewStore[Notification]()}
	svc := NewService(store, resource.Deps{})
	notifier := NewNotifier(svc)
	for i := 0; i < 4; i++ {
		_ = notifier.Notify(ctx, resource.Notice{UserID: lucia.ID, Title: "t", Message: "m"})
	}

	store.afterFind = func() {
		if _, err := svc.Transition(ctx, lucia, 1, "read", ""); err != nil {
			t.Errorf("concurrent read: %v", err)
		}
		if err := svc.Delete(ctx, lucia, 2); err != nil {
			t.Errorf("concurrent delete: %v", err)
		}
	}

	n, err := ReadAll(ctx, svc, lucia)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 marked read, got %d", n)
	}
	for _, id := range []int64{3, 4} {
		got, err := svc.Get(ctx, lucia, id)
		if err != nil || got.Status != StatusRead {
			t.Fatalf("notification %d: %+v %v", id, got, err)
		}
	}
}
