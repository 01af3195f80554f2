package resource

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"
)

func mustCreate(t *testing.T, svc *widgetService, actor Actor, w widget) widget {
	t.Helper()
	got, err := svc.Create(context.Background(), actor, w)
	if err != nil {
		t.Fatalf("create %q: %v", w.Name, err)
	}
	return got
}

func TestService_Create_DefaultsAndOwnership(t *testing.T) {
	svc, aud, _ := newWidgetService()

	got := mustCreate(t, svc, alice, widget{
		Base:       Base{ID: 99, Status: wApproved},
		Name:       "Bolt",
		Quantity:   3,
		UnitPrice:  2.5,
		OwnerID:    42,
		TotalValue: 1,
	})

	if got.ID != 1 {
		t.Fatalf("expected id 1, got %d", got.ID)
	}
	if got.Status != wDraft {
		t.Fatalf("expected default status draft, got %s", got.Status)
	}
	if got.OwnerID != alice.ID {
		t.Fatalf("owner must be the caller, got %d", got.OwnerID)
	}
	if got.TotalValue != 7.5 {
		t.Fatalf("expected derived totalValue 7.5, got %v", got.TotalValue)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("timestamps not stamped: %+v", got.Base)
	}
	if a := aud.actions(); len(a) != 1 || a[0] != "create" {
		t.Fatalf("expected one create audit event, got %v", a)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, aud, _ := newWidgetService()
	ctx := context.Background()

	cases := map[string]widget{
		"missing name":   {Quantity: 1},
		"negative qty":   {Name: "x", Quantity: -1},
		"check rejected": {Name: "Forbidden"},
	}
	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice, w)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	if _, err := svc.Create(ctx, anon, widget{Name: "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous create: expected ErrUnauthorized, got %v", err)
	}

	mustCreate(t, svc, alice, widget{Name: "Nut"})
	if _, err := svc.Create(ctx, bob, widget{Name: "nut"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate name: expected ErrConflict, got %v", err)
	}
	if len(aud.actions()) != 1 {
		t.Fatalf("failed creates must not be audited: %v", aud.actions())
	}
}

func TestService_Update_PartialPatch(t *testing.T) {
	svc, _, _ := newWidgetService()
	ctx := context.Background()
	w := mustCreate(t, svc, alice, widget{Name: "Bolt", Category: "hardware", Quantity: 2, UnitPrice: 10})

	got, err := svc.Update(ctx, alice, w.ID, []byte(`{"quantity": 5}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Bolt" || got.Category != "hardware" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.TotalValue != 50 {
		t.Fatalf("derived field not recomputed: %v", got.TotalValue)
	}
	if !got.UpdatedAt.After(w.UpdatedAt) || !got.CreatedAt.Equal(w.CreatedAt) {
		t.Fatalf("timestamps wrong: created %v->%v updated %v->%v", w.CreatedAt, got.CreatedAt, w.UpdatedAt, got.UpdatedAt)
	}

	for name, patch := range map[string]string{
		"immutable id":      `{"id": 7}`,
		"immutable status":  `{"status": "approved"}`,
		"immutable owner":   `{"ownerId": 9}`,
		"derived":           `{"totalValue": 1}`,
		"unknown field":     `{"colour": "red"}`,
		"wrong type":        `{"quantity": "many"}`,
		"empty":             `{}`,
		"not json":          `nope`,
		"validation failed": `{"name": ""}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(ctx, alice, w.ID, []byte(patch))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	after, _ := svc.Get(ctx, admin, w.ID)
	if after.Quantity != 5 || after.Name != "Bolt" {
		t.Fatalf("rejected patches must not change the record: %+v", after)
	}
}

func TestService_Update_Authorization(t *testing.T) {
	svc, _, _ := newWidgetService()
	ctx := context.Background()
	w := mustCreate(t, svc, alice, widget{Name: "Bolt"})

	if _, err := svc.Update(ctx, bob, w.ID, []byte(`{"quantity": 1}`)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner user: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, manager, w.ID, []byte(`{"quantity": 1}`)); err != nil {
		t.Fatalf("manager update: %v", err)
	}
	if _, err := svc.Update(ctx, anon, w.ID, []byte(`{"quantity": 1}`)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Update(ctx, admin, 404, []byte(`{"quantity": 1}`)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}
}

func TestService_Transition_GuardAndStamp(t *testing.T) {
	svc, aud, notif := newWidgetService()
	ctx := context.Background()
	w := mustCreate(t, svc, alice, widget{Name: "Bolt"})

	// approve desde draft no está permitido
	if _, err := svc.Transition(ctx, manager, w.ID, "approve", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve from draft: expected ErrInvalidTransition, got %v", err)
	}

	// el dueño puede enviar su propio registro
	if _, err := svc.Transition(ctx, alice, w.ID, "submit", ""); err != nil {
		t.Fatalf("owner submit: %v", err)
	}

	if _, err := svc.Transition(ctx, alice, w.ID, "approve", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user approve: expected ErrForbidden, got %v", err)
	}

	got, err := svc.Transition(ctx, manager, w.ID, "approve", "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != wApproved || got.ApprovedBy != manager.ID || got.ApprovedAt == nil {
		t.Fatalf("approve not stamped: %+v", got)
	}

	// segunda aprobación: estado ya no es pending
	if _, err := svc.Transition(ctx, manager, w.ID, "approve", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double approve: expected ErrInvalidTransition, got %v", err)
	}

	// bloqueado para update genérico
	if _, err := svc.Update(ctx, admin, w.ID, []byte(`{"quantity": 1}`)); !errors.Is(err, ErrConflict) {
		t.Fatalf("update approved: expected ErrConflict, got %v", err)
	}

	want := []string{"create", "submit", "approve"}
	if a := aud.actions(); len(a) != len(want) || a[1] != "submit" || a[2] != "approve" {
		t.Fatalf("audit trail: want %v got %v", want, a)
	}
	if len(notif.notices) != 1 || notif.notices[0].UserID != alice.ID {
		t.Fatalf("owner should be notified once (approve by manager), got %+v", notif.notices)
	}
}

func TestService_Transition_InternalAndUnknown(t *testing.T) {
	svc, _, _ := newWidgetService()
	ctx := context.Background()
	w := mustCreate(t, svc, alice, widget{Name: "Bolt"})
	_, _ = svc.Transition(ctx, alice, w.ID, "submit", "")
	got, err := svc.Transition(ctx, manager, w.ID, "reject", "  too expensive ")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Reason != "too expensive" {
		t.Fatalf("reason not stamped: %q", got.Reason)
	}

	if _, err := svc.Transition(ctx, admin, w.ID, "archive", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("internal transition by admin: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Transition(ctx, SystemActor, w.ID, "archive", ""); err != nil {
		t.Fatalf("internal transition by system: %v", err)
	}
	if _, err := svc.Transition(ctx, admin, w.ID, "explode", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown action: expected ErrNotFound, got %v", err)
	}
}

func TestService_Delete_ProtectedAndOwner(t *testing.T) {
	svc, aud, _ := newWidgetService()
	ctx := context.Background()
	a := mustCreate(t, svc, alice, widget{Name: "A"})
	b := mustCreate(t, svc, alice, widget{Name: "B"})

	_, _ = svc.Transition(ctx, alice, a.ID, "submit", "")
	_, _ = svc.Transition(ctx, manager, a.ID, "approve", "")

	if err := svc.Delete(ctx, admin, a.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("delete approved: expected ErrConflict, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, a.ID); err != nil {
		t.Fatalf("protected record must survive: %v", err)
	}
	if err := svc.Delete(ctx, bob, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delete by stranger: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, alice, b.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := svc.Delete(ctx, alice, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}

	// el id borrado no se reutiliza
	c := mustCreate(t, svc, alice, widget{Name: "C"})
	if c.ID != 3 {
		t.Fatalf("expected id 3, got %d", c.ID)
	}

	last := aud.actions()
	if last[len(last)-2] != "delete" {
		t.Fatalf("delete should be audited: %v", last)
	}
}

func TestService_Modify(t *testing.T) {
	svc, aud, _ := newWidgetService()
	ctx := context.Background()
	w := mustCreate(t, svc, alice, widget{Name: "Bolt", Quantity: 2, UnitPrice: 1})

	got, err := svc.Modify(ctx, manager, w.ID, OpUpdate, "restock", func(x *widget) error {
		x.Quantity += 10
		return nil
	})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if got.Quantity != 12 || got.TotalValue != 12 {
		t.Fatalf("modify result: %+v", got)
	}

	_, err = svc.Modify(ctx, manager, w.ID, OpUpdate, "drain", func(x *widget) error {
		x.Quantity -= 100
		return nil
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("negative quantity: expected ErrValidation, got %v", err)
	}
	if a := aud.actions(); a[len(a)-1] != "update" {
		t.Fatalf("modify should audit with op name: %v", a)
	}
}

func TestService_List_OwnerScope(t *testing.T) {
	spec := widgetSpec()
	spec.Policy[OpList] = Rule{Roles: Staff, Owner: true}
	svc := NewService[widget](spec, newTestStore[widget](), Deps{Now: fixedClock()})
	ctx := context.Background()

	for i, who := range []Actor{alice, bob, alice} {
		if _, err := svc.Create(ctx, who, widget{Name: fmt.Sprintf("w%d", i)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	mine, err := svc.List(ctx, alice, Query{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, w := range mine.Items {
		if w.OwnerID != alice.ID {
			t.Fatalf("user saw someone else's record: %+v", w)
		}
	}
	all, _ := svc.List(ctx, manager, Query{Page: 1, Limit: 20})
	if all.Total <= mine.Total {
		t.Fatalf("manager should see more than alice: %d vs %d", all.Total, mine.Total)
	}
	if _, err := svc.List(ctx, anon, Query{Page: 1, Limit: 20}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous: expected ErrUnauthorized, got %v", err)
	}
}

func TestService_Seed_OnlyWhenEmpty(t *testing.T) {
	spec := widgetSpec()
	spec.Seed = func(now time.Time) []widget {
		return []widget{{Name: "s1", Base: Base{CreatedAt: now.Add(-time.Hour)}}, {Name: "s2", Quantity: 2, UnitPrice: 3}}
	}
	svc := NewService[widget](spec, newTestStore[widget](), Deps{Now: fixedClock()})
	ctx := context.Background()

	n, err := svc.Seed(ctx)
	if err != nil || n != 2 {
		t.Fatalf("seed: n=%d err=%v", n, err)
	}
	if n, _ := svc.Seed(ctx); n != 0 {
		t.Fatalf("second seed should be a no-op, got %d", n)
	}

	all, _ := svc.All(ctx)
	if all[0].Status != wDraft || all[1].TotalValue != 6 {
		t.Fatalf("seeded records not prepared: %+v", all)
	}
	if !all[0].CreatedAt.Before(all[1].CreatedAt) {
		t.Fatalf("seed createdAt should be kept")
	}
}

func TestService_SearchHits(t *testing.T) {
	svc, _, _ := newWidgetService()
	ctx := context.Background()
	mustCreate(t, svc, alice, widget{Name: "Cemento Portland", Category: "Construcción"})
	mustCreate(t, svc, alice, widget{Name: "Bolt"})

	hits, err := svc.SearchHits(ctx, anon, "construccion", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Cemento Portland" || hits[0].Type != "widgets" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

// slowFindStore demora Find como lo haría un store remoto.
type slowFindStore struct {
	*testStore[widget]
}

func (s slowFindStore) Find(ctx context.Context) ([]widget, error) {
	time.Sleep(5 * time.Millisecond)
	return s.testStore.Find(ctx)
}

func TestService_UniqueKey_ConcurrentWrites(t *testing.T) {
	store := slowFindStore{newTestStore[widget]()}
	svc := NewService[widget](widgetSpec(), store, Deps{Now: fixedClock()})
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, Actor{ID: int64(10 + i), Role: RoleUser}, widget{Name: "Same"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if created != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 create and %d conflicts, got %d and %d", n-1, created, conflicts)
	}

	a := mustCreate(t, svc, admin, widget{Name: "A"})
	b := mustCreate(t, svc, admin, widget{Name: "B"})
	errs := make(chan error, 2)
	for _, id := range []int64{a.ID, b.ID} {
		go func() {
			_, err := svc.Update(ctx, admin, id, []byte(`{"name":"Renamed"}`))
			errs <- err
		}()
	}
	var ok, conflict int
	for range 2 {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected update error: %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("concurrent renames: %d ok, %d conflicts", ok, conflict)
	}
}

func TestService_List_RepeatableWithoutWrites(t *testing.T) {
	svc, _, _ := newWidgetService()
	ctx := context.Background()
	for i, name := range []string{"Uno", "Dos", "Tres", "Cuatro"} {
		mustCreate(t, svc, alice, widget{Name: name, Quantity: int64(i), UnitPrice: 10})
	}

	for _, q := range []Query{
		{Page: 1, Limit: 10},
		{Page: 2, Limit: 2, Sort: "name"},
		{Page: 1, Limit: 3, Search: "o", Desc: true},
		{Page: 1, Limit: 5, Filters: map[string]string{"status": "draft"}},
	} {
		first, err := svc.List(ctx, manager, q)
		if err != nil {
			t.Fatalf("list %+v: %v", q, err)
		}
		second, err := svc.List(ctx, manager, q)
		if err != nil {
			t.Fatalf("list %+v: %v", q, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("list %+v differs between calls:\n%+v\n%+v", q, first, second)
		}
	}
}

func TestService_Transition_StatusStaysInEnumeration(t *testing.T) {
	svc, _, _ := newWidgetService()
	ctx := context.Background()
	spec := widgetSpec()

	var ws []int64
	for i := range 4 {
		ws = append(ws, mustCreate(t, svc, alice, widget{Name: fmt.Sprintf("w%d", i)}).ID)
	}
	actions := []string{"submit", "approve", "reject", "archive", "unknown"}
	actors := []Actor{admin, manager, alice, bob, anon, SystemActor}

	rng := rand.New(rand.NewPCG(7, 11))
	for step := range 500 {
		id := ws[rng.IntN(len(ws))]
		action := actions[rng.IntN(len(actions))]
		actor := actors[rng.IntN(len(actors))]

		before, err := svc.Get(ctx, admin, id)
		if err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
		got, err := svc.Transition(ctx, actor, id, action, "")
		after, _ := svc.Get(ctx, admin, id)

		if !slices.Contains(spec.Statuses, after.Status) {
			t.Fatalf("step %d: status %q outside the enumeration", step, after.Status)
		}
		if err != nil {
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("step %d: untyped error %v", step, err)
			}
			if after.Status != before.Status {
				t.Fatalf("step %d: failed %s changed status %s -> %s", step, action, before.Status, after.Status)
			}
			continue
		}
		if got.Status != after.Status {
			t.Fatalf("step %d: returned %s but stored %s", step, got.Status, after.Status)
		}
	}
}
