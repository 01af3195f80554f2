package resource

import (
	"time"
)

// Filter compara un registro contra el valor crudo del query param.
type Filter[T any] func(rec *T, value string) bool

// Spec describe un recurso concreto: nombres, estados, transiciones,
// permisos, reglas de validación y cómo se consulta.
type Spec[T any] struct {
	// Name es el segmento de ruta y el nombre de entidad en auditoría ("purchase-orders").
	Name string
	// Singular es la clave del sobre de respuesta ("purchaseOrder").
	Singular string
	// Label se usa en mensajes ("Purchase order").
	Label string

	// Statuses: el primero es el estado inicial. Vacío => recurso sin estado.
	Statuses    []Status
	Transitions []Transition[T]
	Policy      Policy

	// Protected: estados en los que no se permite borrar.
	Protected []Status
	// Locked: estados terminales, no se permite update genérico.
	Locked []Status
	// Immutable: claves JSON que el cliente no puede fijar (además de id/status/timestamps).
	Immutable []string

	Owner    func(*T) int64
	SetOwner func(*T, int64)
	Title    func(*T) string
	// Notify avisa al dueño cuando otro actor transiciona su registro.
	Notify bool

	Derive func(*T)
	Check  func(*T) error
	// Guard valida un update con acceso al estado anterior y al actor.
	Guard func(actor Actor, cur, next *T) error
	// UniqueKey: si devuelve != "" debe ser único entre los registros del recurso.
	UniqueKey func(*T) string

	Filters      map[string]Filter[T]
	SearchFields func(*T) []string
	// DateField alimenta los filtros from/to. Por defecto createdAt.
	DateField    func(*T) time.Time
	SortKeys     map[string]func(a, b *T) int
	DefaultLimit int

	Seed func(now time.Time) []T
}

func (s *Spec[T]) defaultStatus() Status {
	if len(s.Statuses) == 0 {
		return ""
	}
	return s.Statuses[0]
}

func (s *Spec[T]) ownerOf(rec *T) int64 {
	if s.Owner == nil {
		return 0
	}
	return s.Owner(rec)
}

func (s *Spec[T]) limit() int {
	if s.DefaultLimit > 0 {
		return s.DefaultLimit
	}
	return DefaultLimit
}
