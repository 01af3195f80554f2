// Package notifications: avisos por usuario. También es el Notifier que usan
// los demás recursos para avisar al dueño de un registro.
package notifications

import (
	"context"
	"errors"
	"net/http"
	"time"

	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/resource"

	"github.com/go-chi/chi/v5"
)

const (
	StatusUnread   resource.Status = "unread"
	StatusRead     resource.Status = "read"
	StatusArchived resource.Status = "archived"
)

type Notification struct {
	resource.Base

	UserID   int64      `json:"userId" validate:"required,gt=0"`
	Title    string     `json:"title" validate:"required,max=160"`
	Message  string     `json:"message" validate:"required,max=2000"`
	Type     string     `json:"type" validate:"oneof=info warning success error"`
	Entity   string     `json:"entity,omitempty"`
	EntityID int64      `json:"entityId,omitempty"`
	ReadAt   *time.Time `json:"readAt,omitempty"`
}

type Service = resource.Service[Notification, *Notification]

func NewService(store resource.Store[Notification], deps resource.Deps) *Service {
	return resource.NewService[Notification](Spec(), store, deps)
}

func Spec() resource.Spec[Notification] {
	mine := resource.Rule{Roles: resource.Admins, Owner: true}
	return resource.Spec[Notification]{
		Name:     "notifications",
		Singular: "notification",
		Label:    "Notification",
		Statuses: []resource.Status{StatusUnread, StatusRead, StatusArchived},
		Policy: resource.Policy{
			resource.OpList:   mine,
			resource.OpGet:    mine,
			resource.OpCreate: {Roles: resource.Staff},
			resource.OpDelete: mine,
		},
		Transitions: []resource.Transition[Notification]{
			{
				Action: "read", From: []resource.Status{StatusUnread}, To: StatusRead, Roles: resource.Admins, Owner: true,
				Stamp: func(n *Notification, c resource.Change) {
					at := c.At
					n.ReadAt = &at
				},
			},
			{Action: "archive", From: []resource.Status{StatusUnread, StatusRead}, To: StatusArchived, Roles: resource.Admins, Owner: true},
		},
		Owner: func(n *Notification) int64 { return n.UserID },
		Title: func(n *Notification) string { return n.Title },
		Derive: func(n *Notification) {
			if n.Type == "" {
				n.Type = "info"
			}
		},
		Filters: map[string]resource.Filter[Notification]{
			"type":   resource.EqualsFold(func(n *Notification) string { return n.Type }),
			"entity": resource.EqualsFold(func(n *Notification) string { return n.Entity }),
			"userId": resource.EqualsInt(func(n *Notification) int64 { return n.UserID }),
		},
		SearchFields: func(n *Notification) []string { return []string{n.Title, n.Message} },
		DefaultLimit: 20,
		Seed:         seed,
	}
}

func seed(now time.Time) []Notification {
	at := func(hours int, s resource.Status) resource.Base {
		return resource.Base{Status: s, CreatedAt: now.Add(-time.Duration(hours) * time.Hour)}
	}
	return []Notification{
		{Base: at(48, StatusRead), UserID: 2, Title: "Presupuesto aprobado", Message: "El presupuesto Obra gruesa fue aprobado",
			Type: "success", Entity: "budgets", EntityID: 1},
		{Base: at(20, StatusUnread), UserID: 3, Title: "Cotización pendiente", Message: "Tu cotización de acero está en revisión",
			Type: "info", Entity: "quotations", EntityID: 2},
		{Base: at(5, StatusUnread), UserID: 2, Title: "Stock bajo", Message: "Barra de acero 12mm bajo el mínimo",
			Type: "warning", Entity: "inventory", EntityID: 2},
	}
}

// Notifier entrega resource.Notice como notificaciones del usuario.
type Notifier struct {
	svc *Service
}

func NewNotifier(svc *Service) *Notifier {
	return &Notifier{svc: svc}
}

func (n *Notifier) Notify(ctx context.Context, x resource.Notice) error {
	_, err := n.svc.Create(ctx, resource.SystemActor, Notification{
		UserID:   x.UserID,
		Title:    x.Title,
		Message:  x.Message,
		Type:     "info",
		Entity:   x.Entity,
		EntityID: x.EntityID,
	})
	return err
}

// ReadAll marca como leídas todas las notificaciones no leídas del actor.
func ReadAll(ctx context.Context, svc *Service, actor resource.Actor) (int, error) {
	if !actor.Authenticated() {
		return 0, resource.Unauthenticated()
	}
	all, err := svc.All(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, x := range all {
		if x.UserID != actor.ID || x.Status != StatusUnread {
			continue
		}
		_, err := svc.Transition(ctx, actor, x.ID, "read", "")
		switch {
		case err == nil:
			n++
		case errors.Is(err, resource.ErrInvalidTransition), errors.Is(err, resource.ErrNotFound):
			// otro request la leyó o la borró entre All y Transition
		default:
			return n, err
		}
	}
	return n, nil
}

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	resource.Register(r, svc, log, func(rr chi.Router) {
		rr.Post("/read-all", func(w http.ResponseWriter, r *http.Request) {
			actor, err := resource.ActorFromRequest(r)
			if err != nil {
				resource.WriteError(w, r, log, err)
				return
			}
			n, err := ReadAll(r.Context(), svc, actor)
			if err != nil {
				resource.WriteError(w, r, log, err)
				return
			}
			resource.WriteJSON(w, http.StatusOK, map[string]any{
				"message": "Notifications marked as read",
				"count":   n,
			})
		})
	})
}
