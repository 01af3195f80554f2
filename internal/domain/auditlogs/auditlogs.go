// Package auditlogs: bitácora append-only de mutaciones de todos los recursos.
package auditlogs

import (
	"context"

	"procurement-hub/internal/resource"
)

type Entry struct {
	resource.Base

	Entity    string `json:"entity" validate:"required"`
	EntityID  int64  `json:"entityId"`
	Action    string `json:"action" validate:"required"`
	ActorID   int64  `json:"actorId"`
	ActorRole string `json:"actorRole"`
	Details   string `json:"details,omitempty"`
}

type Service = resource.Service[Entry, *Entry]

// NewService no recibe Auditor: la bitácora no se audita a sí misma.
func NewService(store resource.Store[Entry], deps resource.Deps) *Service {
	deps.Auditor = nil
	return resource.NewService[Entry](Spec(), store, deps)
}

func Spec() resource.Spec[Entry] {
	return resource.Spec[Entry]{
		Name:     "audit-logs",
		Singular: "auditLog",
		Label:    "Audit log",
		// sin create/update/delete en la policy: no hay rutas de escritura
		Policy: resource.Policy{
			resource.OpList: {Roles: resource.Admins},
			resource.OpGet:  {Roles: resource.Admins},
		},
		Title: func(e *Entry) string { return e.Entity + " " + e.Action },
		Filters: map[string]resource.Filter[Entry]{
			"entity":    resource.EqualsFold(func(e *Entry) string { return e.Entity }),
			"entityId":  resource.EqualsInt(func(e *Entry) int64 { return e.EntityID }),
			"action":    resource.EqualsFold(func(e *Entry) string { return e.Action }),
			"actorId":   resource.EqualsInt(func(e *Entry) int64 { return e.ActorID }),
			"actorRole": resource.EqualsFold(func(e *Entry) string { return e.ActorRole }),
		},
		SearchFields: func(e *Entry) []string { return []string{e.Entity, e.Action, e.Details} },
		DefaultLimit: 50,
	}
}

// Recorder implementa resource.Auditor escribiendo en la bitácora.
type Recorder struct {
	svc *Service
}

func NewRecorder(svc *Service) *Recorder {
	return &Recorder{svc: svc}
}

func (r *Recorder) Record(ctx context.Context, e resource.AuditEvent) error {
	_, err := r.svc.Create(ctx, resource.SystemActor, Entry{
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Action:    e.Action,
		ActorID:   e.Actor.ID,
		ActorRole: string(e.Actor.Role),
		Details:   e.Details,
	})
	return err
}
