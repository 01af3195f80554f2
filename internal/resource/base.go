package resource

import (
	"time"
)

type Status string

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"

	// RoleSystem solo lo usan llamadas internas (auditoría, tareas, seeds).
	RoleSystem Role = "system"
)

// Actor es quien ejecuta la operación, ya resuelto desde los claims.
type Actor struct {
	ID   int64
	Role Role
}

var SystemActor = Actor{Role: RoleSystem}

func (a Actor) Authenticated() bool {
	return a.Role != ""
}

// Base: campos que lleva todo registro persistido.
type Base struct {
	ID        int64     `json:"id"`
	Status    Status    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) Meta() *Base { return b }

// Entity lo cumple el puntero de cualquier struct que embebe Base.
type Entity[T any] interface {
	*T
	Meta() *Base
}

var baseKeys = []string{"id", "status", "createdAt", "updatedAt"}
