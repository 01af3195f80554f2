package resource

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query es la forma ya parseada de los query params de un listado.
type Query struct {
	Filters map[string]string
	Search  string
	From    *time.Time
	To      *time.Time
	Sort    string
	Desc    bool
	Page    int
	Limit   int
}

// Page es la respuesta paginada de un listado.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

var reservedParams = map[string]struct{}{
	"q": {}, "search": {}, "from": {}, "to": {}, "sort": {}, "order": {}, "page": {}, "limit": {},
}

func invalidQuery(format string, args ...any) error {
	return newError(ErrInvalidQuery, format, args...)
}

// ParseQuery valida los query params contra el Spec del recurso.
// Params desconocidos se ignoran; valores mal formados devuelven ErrInvalidQuery.
func ParseQuery[T any](v url.Values, spec *Spec[T]) (Query, error) {
	q := Query{
		Filters: map[string]string{},
		Sort:    "createdAt",
		Desc:    true,
		Page:    1,
		Limit:   spec.limit(),
	}

	for key := range v {
		if _, ok := reservedParams[key]; ok {
			continue
		}
		val := strings.TrimSpace(v.Get(key))
		if val == "" {
			continue
		}
		if key == "status" && len(spec.Statuses) > 0 {
			q.Filters[key] = val
			continue
		}
		if _, ok := spec.Filters[key]; ok {
			q.Filters[key] = val
		}
	}

	q.Search = strings.TrimSpace(v.Get("q"))
	if q.Search == "" {
		q.Search = strings.TrimSpace(v.Get("search"))
	}

	var err error
	if q.From, err = parseBound(v.Get("from"), false); err != nil {
		return Query{}, err
	}
	if q.To, err = parseBound(v.Get("to"), true); err != nil {
		return Query{}, err
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return Query{}, invalidQuery("from must not be after to")
	}

	if s := strings.TrimSpace(v.Get("sort")); s != "" {
		if !knownSortKey(spec, s) {
			return Query{}, invalidQuery("unknown sort key %q", s)
		}
		q.Sort = s
		q.Desc = false
	}
	switch strings.ToLower(strings.TrimSpace(v.Get("order"))) {
	case "":
	case "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	default:
		return Query{}, invalidQuery("order must be asc or desc")
	}

	if s := strings.TrimSpace(v.Get("page")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return Query{}, invalidQuery("page must be a positive integer")
		}
		q.Page = n
	}
	if s := strings.TrimSpace(v.Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > MaxLimit {
			return Query{}, invalidQuery("limit must be between 1 and %d", MaxLimit)
		}
		q.Limit = n
	}
	return q, nil
}

// parseBound acepta RFC3339 o fecha simple. Un "to" con fecha simple cubre el día completo.
func parseBound(s string, end bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, invalidQuery("invalid date %q", s)
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func knownSortKey[T any](spec *Spec[T], key string) bool {
	switch key {
	case "id", "createdAt", "updatedAt":
		return true
	case "status":
		return len(spec.Statuses) > 0
	}
	_, ok := spec.SortKeys[key]
	return ok
}

// Run aplica, en orden: filtros por igualdad, búsqueda, rango de fechas,
// orden estable y paginación. items debe venir en orden de inserción.
func Run[T any, P Entity[T]](items []T, q Query, spec *Spec[T]) (Page[T], error) {
	if q.Limit <= 0 || q.Limit > MaxLimit {
		return Page[T]{}, invalidQuery("limit must be between 1 and %d", MaxLimit)
	}
	if q.Page <= 0 {
		return Page[T]{}, invalidQuery("page must be a positive integer")
	}

	needle := Fold(q.Search)
	out := make([]T, 0, len(items))
	for i := range items {
		rec := &items[i]
		if !matchesFilters(rec, P(rec).Meta(), q.Filters, spec) {
			continue
		}
		if needle != "" {
			if spec.SearchFields == nil || !matchesAll(spec.SearchFields(rec), needle) {
				continue
			}
		}
		if q.From != nil || q.To != nil {
			d := P(rec).Meta().CreatedAt
			if spec.DateField != nil {
				d = spec.DateField(rec)
			}
			if q.From != nil && d.Before(*q.From) {
				continue
			}
			if q.To != nil && d.After(*q.To) {
				continue
			}
		}
		out = append(out, *rec)
	}

	less := comparator[T, P](spec, q.Sort)
	slices.SortStableFunc(out, func(a, b T) int {
		if q.Desc {
			return less(&b, &a)
		}
		return less(&a, &b)
	})

	total := len(out)
	page := Page[T]{
		Items:      []T{},
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
	// se compara contra TotalPages antes de multiplicar: page enorme desborda int
	if q.Page <= page.TotalPages {
		start := (q.Page - 1) * q.Limit
		end := min(start+q.Limit, total)
		page.Items = out[start:end]
	}
	return page, nil
}

func matchesFilters[T any](rec *T, meta *Base, filters map[string]string, spec *Spec[T]) bool {
	for key, val := range filters {
		if key == "status" && len(spec.Statuses) > 0 {
			if !statusIn(meta.Status, val) {
				return false
			}
			continue
		}
		f, ok := spec.Filters[key]
		if !ok {
			continue
		}
		if !f(rec, val) {
			return false
		}
	}
	return true
}

// statusIn acepta CSV: status=pending,approved
func statusIn(s Status, csv string) bool {
	for _, part := range strings.Split(csv, ",") {
		if Status(strings.TrimSpace(part)) == s {
			return true
		}
	}
	return false
}

func comparator[T any, P Entity[T]](spec *Spec[T], key string) func(a, b *T) int {
	switch key {
	case "id":
		return func(a, b *T) int { return cmp.Compare(P(a).Meta().ID, P(b).Meta().ID) }
	case "updatedAt":
		return func(a, b *T) int { return P(a).Meta().UpdatedAt.Compare(P(b).Meta().UpdatedAt) }
	case "status":
		return func(a, b *T) int { return cmp.Compare(P(a).Meta().Status, P(b).Meta().Status) }
	case "createdAt", "":
		return func(a, b *T) int { return P(a).Meta().CreatedAt.Compare(P(b).Meta().CreatedAt) }
	}
	return spec.SortKeys[key]
}

// Helpers para declarar filtros en los Spec de cada recurso.

func EqualsInt[T any](get func(*T) int64) Filter[T] {
	return func(rec *T, value string) bool {
		n, err := strconv.ParseInt(value, 10, 64)
		return err == nil && get(rec) == n
	}
}

func EqualsFold[T any](get func(*T) string) Filter[T] {
	return func(rec *T, value string) bool {
		return Fold(get(rec)) == Fold(value)
	}
}

func Bool[T any](get func(*T) bool) Filter[T] {
	return func(rec *T, value string) bool {
		b, err := strconv.ParseBool(value)
		return err == nil && get(rec) == b
	}
}
