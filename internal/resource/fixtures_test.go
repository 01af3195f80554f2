package resource

import (
	"cmp"
	"context"
	"strings"
	"sync"
	"time"
)

// widget es un recurso mínimo con dueño, estados y transiciones.
type widget struct {
	Base
	Name       string     `json:"name" validate:"required,max=40"`
	Category   string     `json:"category"`
	Quantity   int64      `json:"quantity" validate:"gte=0"`
	UnitPrice  float64    `json:"unitPrice" validate:"gte=0"`
	TotalValue float64    `json:"totalValue"`
	OwnerID    int64      `json:"ownerId"`
	ApprovedBy int64      `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

const (
	wDraft    Status = "draft"
	wPending  Status = "pending"
	wApproved Status = "approved"
	wRejected Status = "rejected"
)

func widgetSpec() Spec[widget] {
	return Spec[widget]{
		Name:      "widgets",
		Singular:  "widget",
		Label:     "Widget",
		Statuses:  []Status{wDraft, wPending, wApproved, wRejected},
		Protected: []Status{wApproved},
		Locked:    []Status{wApproved, wRejected},
		Immutable: []string{"ownerId", "totalValue", "approvedBy", "approvedAt"},
		Notify:    true,
		Policy: Policy{
			OpList:   {Public: true},
			OpGet:    {Public: true},
			OpCreate: {Roles: Everyone},
			OpUpdate: {Roles: Staff, Owner: true},
			OpDelete: {Roles: Admins, Owner: true},
		},
		Transitions: []Transition[widget]{
			{Action: "submit", From: []Status{wDraft}, To: wPending, Roles: Staff, Owner: true},
			{Action: "approve", From: []Status{wPending}, To: wApproved, Roles: Staff,
				Stamp: func(w *widget, c Change) { w.ApprovedBy = c.Actor.ID; at := c.At; w.ApprovedAt = &at }},
			{Action: "reject", From: []Status{wPending}, To: wRejected, Roles: Staff,
				Stamp: func(w *widget, c Change) { w.Reason = c.Reason }},
			{Action: "archive", From: []Status{wRejected}, To: wDraft, Internal: true},
		},
		Owner:    func(w *widget) int64 { return w.OwnerID },
		SetOwner: func(w *widget, id int64) { w.OwnerID = id },
		Title:    func(w *widget) string { return w.Name },
		Derive:   func(w *widget) { w.TotalValue = float64(w.Quantity) * w.UnitPrice },
		Check: func(w *widget) error {
			if strings.EqualFold(w.Name, "forbidden") {
				return Invalidf("name is reserved")
			}
			return nil
		},
		UniqueKey: func(w *widget) string { return w.Name },
		Filters: map[string]Filter[widget]{
			"category": EqualsFold(func(w *widget) string { return w.Category }),
			"ownerId":  EqualsInt(func(w *widget) int64 { return w.OwnerID }),
		},
		SearchFields: func(w *widget) []string { return []string{w.Name, w.Category} },
		SortKeys: map[string]func(a, b *widget) int{
			"name":       func(a, b *widget) int { return cmp.Compare(a.Name, b.Name) },
			"totalValue": func(a, b *widget) int { return cmp.Compare(a.TotalValue, b.TotalValue) },
		},
	}
}

// testStore es un fake mínimo de Store.
type testStore[T any] struct {
	mu     sync.Mutex
	lastID int64
	ids    []int64
	items  map[int64]T
}

func newTestStore[T any]() *testStore[T] {
	return &testStore[T]{items: map[int64]T{}}
}

func (s *testStore[T]) Find(context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *testStore[T]) Get(_ context.Context, id int64) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return v, ErrNotFound
	}
	return v, nil
}

func (s *testStore[T]) Insert(_ context.Context, build func(int64) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := build(s.lastID + 1)
	if err != nil {
		return v, err
	}
	s.lastID++
	s.items[s.lastID] = v
	s.ids = append(s.ids, s.lastID)
	return v, nil
}

func (s *testStore[T]) Update(_ context.Context, id int64, mutate func(T) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return cur, ErrNotFound
	}
	next, err := mutate(cur)
	if err != nil {
		return cur, err
	}
	s.items[id] = next
	return next, nil
}

func (s *testStore[T]) Remove(_ context.Context, id int64, guard func(T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if err := guard(cur); err != nil {
		return err
	}
	delete(s.items, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, e AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(_ context.Context, x Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, x)
	return nil
}

var (
	admin   = Actor{ID: 1, Role: RoleAdmin}
	manager = Actor{ID: 2, Role: RoleManager}
	alice   = Actor{ID: 3, Role: RoleUser}
	bob     = Actor{ID: 4, Role: RoleUser}
	anon    = Actor{}
)

// fixedClock avanza un minuto por llamada: createdAt distintos y deterministas.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

type widgetService = Service[widget, *widget]

func newWidgetService() (*widgetService, *recordingAuditor, *recordingNotifier) {
	aud := &recordingAuditor{}
	notif := &recordingNotifier{}
	svc := NewService[widget](widgetSpec(), newTestStore[widget](), Deps{
		Auditor:  aud,
		Notifier: notif,
		Now:      fixedClock(),
	})
	return svc, aud, notif
}
