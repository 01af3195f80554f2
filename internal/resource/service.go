package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"procurement-hub/internal/platform/logger"
)

// AuditEvent es una mutación registrada.
type AuditEvent struct {
	Entity   string
	EntityID int64
	Action   string
	Actor    Actor
	Details  string
}

type Auditor interface {
	Record(ctx context.Context, e AuditEvent) error
}

// Notice es un aviso para un usuario.
type Notice struct {
	UserID   int64
	Title    string
	Message  string
	Entity   string
	EntityID int64
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

type Deps struct {
	Auditor  Auditor
	Notifier Notifier
	Logger   logger.Logger
	Now      func() time.Time
}

// Service implementa las operaciones CRUD + transiciones de un recurso
// a partir de su Spec. P es *T (ver Entity).
type Service[T any, P Entity[T]] struct {
	spec        *Spec[T]
	store       Store[T]
	audit       Auditor
	notify      Notifier
	log         logger.Logger
	now         func() time.Time
	statuses    map[Status]struct{}
	transitions map[string]Transition[T]
	immutable   map[string]struct{}

	// uniq serializa chequeo de unicidad + escritura dentro del proceso
	uniq sync.Mutex

	onCreate []func(ctx context.Context, rec T)
	onDelete []func(ctx context.Context, rec T)
}

func NewService[T any, P Entity[T]](spec Spec[T], store Store[T], deps Deps) *Service[T, P] {
	s := &Service[T, P]{
		spec:        &spec,
		store:       store,
		audit:       deps.Auditor,
		notify:      deps.Notifier,
		log:         deps.Logger,
		now:         deps.Now,
		statuses:    map[Status]struct{}{},
		transitions: map[string]Transition[T]{},
		immutable:   map[string]struct{}{},
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	for _, st := range spec.Statuses {
		s.statuses[st] = struct{}{}
	}
	for _, t := range spec.Transitions {
		s.transitions[t.Action] = t
	}
	for _, k := range append(slices.Clone(baseKeys), spec.Immutable...) {
		s.immutable[k] = struct{}{}
	}
	return s
}

func (s *Service[T, P]) Spec() *Spec[T] { return s.spec }

func (s *Service[T, P]) Name() string { return s.spec.Name }

// Now es el reloj del servicio (inyectable en tests).
func (s *Service[T, P]) Now() time.Time { return s.now() }

// OnCreate registra un hook que corre después de cada alta exitosa.
func (s *Service[T, P]) OnCreate(fn func(ctx context.Context, rec T)) {
	s.onCreate = append(s.onCreate, fn)
}

func (s *Service[T, P]) OnDelete(fn func(ctx context.Context, rec T)) {
	s.onDelete = append(s.onDelete, fn)
}

// -------------------- Query --------------------

// List aplica el Query Layer sobre los registros visibles para actor.
// Si la regla de list admite dueños, quien no tiene el rol ve solo lo suyo.
func (s *Service[T, P]) List(ctx context.Context, actor Actor, q Query) (Page[T], error) {
	authErr := s.spec.Policy.Authorize(actor, OpList, 0)
	rule := s.spec.Policy[OpList]
	if authErr != nil && !(errors.Is(authErr, ErrForbidden) && rule.Owner && s.spec.Owner != nil) {
		return Page[T]{}, authErr
	}

	items, err := s.store.Find(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	if authErr != nil {
		own := make([]T, 0, len(items))
		for i := range items {
			if s.spec.Owner(&items[i]) == actor.ID {
				own = append(own, items[i])
			}
		}
		items = own
	}
	return Run[T, P](items, q, s.spec)
}

func (s *Service[T, P]) Get(ctx context.Context, actor Actor, id int64) (T, error) {
	var zero T
	if err := s.preauthorize(actor, OpGet); err != nil {
		return zero, err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, s.mapStoreErr(err, id)
	}
	if err := s.spec.Policy.Authorize(actor, OpGet, s.spec.ownerOf(&rec)); err != nil {
		return zero, err
	}
	return rec, nil
}

// All devuelve todo sin filtrar por permisos. Solo para consumidores internos.
func (s *Service[T, P]) All(ctx context.Context) ([]T, error) {
	return s.store.Find(ctx)
}

// Export serializa todos los registros (backups).
func (s *Service[T, P]) Export(ctx context.Context) (json.RawMessage, error) {
	items, err := s.store.Find(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// -------------------- Mutation --------------------

// Decode parsea el body de un alta. Las claves inmutables se descartan.
func (s *Service[T, P]) Decode(body []byte) (T, error) {
	var rec T
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return rec, Invalidf("invalid json body")
	}
	for k := range raw {
		if _, ok := s.immutable[k]; ok {
			delete(raw, k)
		}
	}
	clean, err := json.Marshal(raw)
	if err != nil {
		return rec, Invalidf("invalid json body")
	}
	if err := json.Unmarshal(clean, &rec); err != nil {
		return rec, Invalidf("invalid json body: %s", jsonFieldError(err))
	}
	return rec, nil
}

func (s *Service[T, P]) Create(ctx context.Context, actor Actor, rec T) (T, error) {
	var zero T
	if err := s.spec.Policy.Authorize(actor, OpCreate, 0); err != nil {
		return zero, err
	}

	m := P(&rec).Meta()
	*m = Base{Status: s.spec.defaultStatus()}
	if s.spec.SetOwner != nil && actor.ID != 0 {
		s.spec.SetOwner(&rec, actor.ID)
	}
	if err := s.prepare(&rec); err != nil {
		return zero, err
	}

	unlock := s.lockUnique()
	if err := s.checkUnique(ctx, &rec, 0); err != nil {
		unlock()
		return zero, err
	}
	now := s.now()
	created, err := s.store.Insert(ctx, func(id int64) (T, error) {
		out := rec
		mm := P(&out).Meta()
		mm.ID = id
		mm.CreatedAt = now
		mm.UpdatedAt = now
		return out, nil
	})
	unlock()
	if err != nil {
		return zero, err
	}

	id := P(&created).Meta().ID
	s.record(ctx, id, "create", actor, s.titleOf(&created))
	for _, fn := range s.onCreate {
		fn(ctx, created)
	}
	return created, nil
}

// Update aplica un patch JSON parcial. Claves inmutables o desconocidas => ErrValidation.
func (s *Service[T, P]) Update(ctx context.Context, actor Actor, id int64, patch []byte) (T, error) {
	var zero T
	if err := s.preauthorize(actor, OpUpdate); err != nil {
		return zero, err
	}

	keys, err := patchKeys(patch)
	if err != nil {
		return zero, err
	}
	for _, k := range keys {
		if _, ok := s.immutable[k]; ok {
			return zero, Invalidf("%s cannot be changed", k)
		}
	}

	unlock := s.lockUnique()
	defer unlock()
	if s.spec.UniqueKey != nil {
		cur, err := s.store.Get(ctx, id)
		if err != nil {
			return zero, s.mapStoreErr(err, id)
		}
		if next, err := applyPatch(cur, patch); err == nil {
			if err := s.checkUnique(ctx, &next, id); err != nil {
				return zero, err
			}
		}
	}

	updated, err := s.store.Update(ctx, id, func(cur T) (T, error) {
		if err := s.spec.Policy.Authorize(actor, OpUpdate, s.spec.ownerOf(&cur)); err != nil {
			return zero, err
		}
		if err := s.checkLocked(&cur); err != nil {
			return zero, err
		}
		next, err := applyPatch(cur, patch)
		if err != nil {
			return zero, err
		}
		*P(&next).Meta() = *P(&cur).Meta()
		if s.spec.Guard != nil {
			if err := s.spec.Guard(actor, &cur, &next); err != nil {
				return zero, err
			}
		}
		if err := s.prepare(&next); err != nil {
			return zero, err
		}
		P(&next).Meta().UpdatedAt = s.now()
		return next, nil
	})
	if err != nil {
		return zero, s.mapStoreErr(err, id)
	}

	s.record(ctx, id, "update", actor, "fields: "+strings.Join(keys, ", "))
	return updated, nil
}

// Modify es el update tipado para operaciones propias de un recurso
// (ajuste de stock, etc.). Aplica la misma cadena: policy(op), locked, derive, validación.
func (s *Service[T, P]) Modify(ctx context.Context, actor Actor, id int64, op Operation, details string, fn func(rec *T) error) (T, error) {
	var zero T
	if err := s.preauthorize(actor, op); err != nil {
		return zero, err
	}
	updated, err := s.store.Update(ctx, id, func(cur T) (T, error) {
		if err := s.spec.Policy.Authorize(actor, op, s.spec.ownerOf(&cur)); err != nil {
			return zero, err
		}
		if err := s.checkLocked(&cur); err != nil {
			return zero, err
		}
		next, err := clone(cur)
		if err != nil {
			return zero, err
		}
		if err := fn(&next); err != nil {
			return zero, err
		}
		*P(&next).Meta() = *P(&cur).Meta()
		if err := s.prepare(&next); err != nil {
			return zero, err
		}
		P(&next).Meta().UpdatedAt = s.now()
		return next, nil
	})
	if err != nil {
		return zero, s.mapStoreErr(err, id)
	}
	s.record(ctx, id, string(op), actor, details)
	return updated, nil
}

func (s *Service[T, P]) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := s.preauthorize(actor, OpDelete); err != nil {
		return err
	}
	var removed T
	err := s.store.Remove(ctx, id, func(cur T) error {
		if err := s.spec.Policy.Authorize(actor, OpDelete, s.spec.ownerOf(&cur)); err != nil {
			return err
		}
		st := P(&cur).Meta().Status
		if slices.Contains(s.spec.Protected, st) {
			return Conflictf("%s %d is %s and cannot be deleted", s.spec.Label, id, st)
		}
		removed = cur
		return nil
	})
	if err != nil {
		return s.mapStoreErr(err, id)
	}
	s.record(ctx, id, "delete", actor, s.titleOf(&removed))
	for _, fn := range s.onDelete {
		fn(ctx, removed)
	}
	return nil
}

// -------------------- Status Guard --------------------

func (s *Service[T, P]) Transition(ctx context.Context, actor Actor, id int64, action, reason string) (T, error) {
	return s.TransitionWith(ctx, actor, id, action, reason, nil)
}

// TransitionWith aplica la transición y luego fn sobre el registro (p.ej. resultado de una tarea).
func (s *Service[T, P]) TransitionWith(ctx context.Context, actor Actor, id int64, action, reason string, fn func(rec *T)) (T, error) {
	var zero T
	t, ok := s.transitions[action]
	if !ok {
		return zero, newError(ErrNotFound, "unknown action %q", action)
	}
	if !actor.Authenticated() {
		return zero, Unauthenticated()
	}

	var from Status
	var owner int64
	updated, err := s.store.Update(ctx, id, func(cur T) (T, error) {
		m := P(&cur).Meta()
		owner = s.spec.ownerOf(&cur)
		if !t.permits(actor, owner) {
			return zero, Forbiddenf("role %s may not %s %s", actor.Role, action, strings.ToLower(s.spec.Label))
		}
		if !t.from(m.Status) {
			return zero, newError(ErrInvalidTransition, "cannot %s %s %d: status is %s", action, strings.ToLower(s.spec.Label), id, m.Status)
		}
		from = m.Status

		next := cur
		now := s.now()
		nm := P(&next).Meta()
		nm.Status = t.To
		nm.UpdatedAt = now
		if t.Stamp != nil {
			t.Stamp(&next, Change{Actor: actor, At: now, Reason: strings.TrimSpace(reason)})
		}
		if fn != nil {
			fn(&next)
		}
		if s.spec.Derive != nil {
			s.spec.Derive(&next)
		}
		return next, nil
	})
	if err != nil {
		return zero, s.mapStoreErr(err, id)
	}

	details := fmt.Sprintf("%s -> %s", from, t.To)
	if r := strings.TrimSpace(reason); r != "" {
		details += ": " + r
	}
	s.record(ctx, id, action, actor, details)

	if s.spec.Notify && s.notify != nil && owner != 0 && owner != actor.ID {
		n := Notice{
			UserID:   owner,
			Title:    fmt.Sprintf("%s %s", s.spec.Label, t.To),
			Message:  fmt.Sprintf("%s #%d is now %s", s.spec.Label, id, t.To),
			Entity:   s.spec.Name,
			EntityID: id,
		}
		if err := s.notify.Notify(ctx, n); err != nil {
			s.log.Warn("notify failed", map[string]any{"entity": s.spec.Name, "id": id, "err": err.Error()})
		}
	}
	return updated, nil
}

// -------------------- Seed / Search --------------------

// Seed carga los registros iniciales del Spec si el store está vacío.
// Conserva createdAt de la semilla para que el orden por fecha sea significativo.
func (s *Service[T, P]) Seed(ctx context.Context) (int, error) {
	if s.spec.Seed == nil {
		return 0, nil
	}
	existing, err := s.store.Find(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := s.now()
	n := 0
	for _, rec := range s.spec.Seed(now) {
		m := P(&rec).Meta()
		if m.Status == "" {
			m.Status = s.spec.defaultStatus()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.UpdatedAt.IsZero() {
			m.UpdatedAt = m.CreatedAt
		}
		if err := s.prepare(&rec); err != nil {
			return n, fmt.Errorf("seed %s: %w", s.spec.Name, err)
		}
		if _, err := s.store.Insert(ctx, func(id int64) (T, error) {
			out := rec
			P(&out).Meta().ID = id
			return out, nil
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Hit es un resultado de búsqueda global.
type Hit struct {
	Type   string `json:"type"`
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status,omitempty"`
}

type Searcher interface {
	Name() string
	SearchHits(ctx context.Context, actor Actor, q string, limit int) ([]Hit, error)
}

func (s *Service[T, P]) SearchHits(ctx context.Context, actor Actor, q string, limit int) ([]Hit, error) {
	if s.spec.SearchFields == nil {
		return nil, nil
	}
	page, err := s.List(ctx, actor, Query{Search: q, Sort: "createdAt", Desc: true, Page: 1, Limit: limit})
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(page.Items))
	for i := range page.Items {
		rec := &page.Items[i]
		m := P(rec).Meta()
		hits = append(hits, Hit{Type: s.spec.Name, ID: m.ID, Title: s.titleOf(rec), Status: m.Status})
	}
	return hits, nil
}

// -------------------- helpers --------------------

// preauthorize corta temprano a anónimos y roles sin ninguna chance;
// la decisión por dueño se toma con el registro cargado.
func (s *Service[T, P]) preauthorize(actor Actor, op Operation) error {
	err := s.spec.Policy.Authorize(actor, op, 0)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrForbidden) && s.spec.Policy[op].Owner && s.spec.Owner != nil {
		return nil
	}
	return err
}

func (s *Service[T, P]) prepare(rec *T) error {
	if s.spec.Derive != nil {
		s.spec.Derive(rec)
	}
	if err := ValidateStruct(rec); err != nil {
		return err
	}
	if len(s.statuses) > 0 {
		st := P(rec).Meta().Status
		if _, ok := s.statuses[st]; !ok {
			return Invalidf("status must be one of: %s", joinStatuses(s.spec.Statuses))
		}
	}
	if s.spec.Check != nil {
		if err := s.spec.Check(rec); err != nil {
			var e *Error
			if errors.As(err, &e) {
				return err
			}
			return Invalidf("%v", err)
		}
	}
	return nil
}

func (s *Service[T, P]) checkLocked(rec *T) error {
	m := P(rec).Meta()
	if len(s.spec.Locked) > 0 && slices.Contains(s.spec.Locked, m.Status) {
		return Conflictf("%s %d is %s and can no longer be modified", s.spec.Label, m.ID, m.Status)
	}
	return nil
}

// lockUnique toma uniq solo si el recurso declara UniqueKey.
func (s *Service[T, P]) lockUnique() func() {
	if s.spec.UniqueKey == nil {
		return func() {}
	}
	s.uniq.Lock()
	return s.uniq.Unlock
}

func (s *Service[T, P]) checkUnique(ctx context.Context, rec *T, self int64) error {
	if s.spec.UniqueKey == nil {
		return nil
	}
	key := Fold(s.spec.UniqueKey(rec))
	if key == "" {
		return nil
	}
	items, err := s.store.Find(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if P(&items[i]).Meta().ID == self {
			continue
		}
		if Fold(s.spec.UniqueKey(&items[i])) == key {
			return Conflictf("%s %q already exists", strings.ToLower(s.spec.Label), s.spec.UniqueKey(rec))
		}
	}
	return nil
}

func (s *Service[T, P]) mapStoreErr(err error, id int64) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		return newError(ErrNotFound, "%s %d not found", s.spec.Label, id)
	}
	return err
}

func (s *Service[T, P]) titleOf(rec *T) string {
	if s.spec.Title == nil {
		return ""
	}
	return s.spec.Title(rec)
}

func (s *Service[T, P]) record(ctx context.Context, id int64, action string, actor Actor, details string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, AuditEvent{
		Entity:   s.spec.Name,
		EntityID: id,
		Action:   action,
		Actor:    actor,
		Details:  details,
	})
	if err != nil {
		// la mutación ya se hizo; no la revertimos por la auditoría
		s.log.Error("audit record failed", map[string]any{"entity": s.spec.Name, "id": id, "action": action, "err": err.Error()})
	}
}

func patchKeys(patch []byte) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(patch, &raw); err != nil || raw == nil {
		return nil, Invalidf("invalid json body")
	}
	if len(raw) == 0 {
		return nil, Invalidf("no fields to update")
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// applyPatch decodifica el patch sobre una copia profunda de cur.
func applyPatch[T any](cur T, patch []byte) (T, error) {
	next, err := clone(cur)
	if err != nil {
		return next, err
	}
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return next, Invalidf("invalid json body: %s", jsonFieldError(err))
	}
	return next, nil
}

// clone por ida y vuelta JSON: evita compartir punteros con el registro guardado.
func clone[T any](v T) (T, error) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

func jsonFieldError(err error) string {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return fmt.Sprintf("%s has the wrong type", te.Field)
	}
	return strings.TrimPrefix(err.Error(), "json: ")
}

func joinStatuses(sts []Status) string {
	parts := make([]string, len(sts))
	for i, s := range sts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
