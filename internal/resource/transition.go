package resource

import (
	"slices"
	"time"
)

// Change es lo que recibe Stamp al aplicar una transición.
type Change struct {
	Actor  Actor
	At     time.Time
	Reason string
}

// Transition es una arista de la máquina de estados de un recurso.
type Transition[T any] struct {
	Action string
	From   []Status
	To     Status
	Roles  []Role
	// Owner permite al dueño del registro aunque su rol no esté en Roles.
	Owner bool
	// Internal: solo la ejecuta RoleSystem, no se expone como ruta.
	Internal bool
	// Stamp fija campos de auditoría (approvedBy, paidAt, ...).
	Stamp func(rec *T, c Change)
}

func (t Transition[T]) permits(actor Actor, ownerID int64) bool {
	if actor.Role == RoleSystem {
		return true
	}
	if t.Internal {
		return false
	}
	return Rule{Roles: t.Roles, Owner: t.Owner}.allows(actor, ownerID)
}

func (t Transition[T]) from(s Status) bool {
	return slices.Contains(t.From, s)
}
