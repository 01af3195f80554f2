// Package users: cuentas de usuario. La autenticación vive fuera de este servicio;
// acá solo se administran perfil, rol y estado.
package users

import (
	"cmp"
	"net/http"
	"strings"
	"time"

	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/resource"

	"github.com/go-chi/chi/v5"
)

const (
	StatusActive   resource.Status = "active"
	StatusInactive resource.Status = "inactive"
)

type User struct {
	resource.Base

	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Role       string `json:"role" validate:"required,oneof=admin manager user"`
	Department string `json:"department,omitempty"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type Service = resource.Service[User, *User]

func NewService(store resource.Store[User], deps resource.Deps) *Service {
	return resource.NewService[User](Spec(), store, deps)
}

func Spec() resource.Spec[User] {
	return resource.Spec[User]{
		Name:     "users",
		Singular: "user",
		Label:    "User",
		Statuses: []resource.Status{StatusActive, StatusInactive},
		Policy: resource.Policy{
			resource.OpList:   {Roles: resource.Staff},
			resource.OpGet:    {Roles: resource.Staff, Owner: true},
			resource.OpCreate: {Roles: resource.Admins},
			resource.OpUpdate: {Roles: resource.Admins, Owner: true},
			resource.OpDelete: {Roles: resource.Admins},
		},
		Transitions: []resource.Transition[User]{
			{Action: "deactivate", From: []resource.Status{StatusActive}, To: StatusInactive, Roles: resource.Admins},
			{Action: "activate", From: []resource.Status{StatusInactive}, To: StatusActive, Roles: resource.Admins},
		},
		// el dueño de un usuario es él mismo
		Owner: func(u *User) int64 { return u.ID },
		Title: func(u *User) string { return u.Name + " <" + u.Email + ">" },
		Derive: func(u *User) {
			u.Email = strings.ToLower(strings.TrimSpace(u.Email))
			if u.Role == "" {
				u.Role = string(resource.RoleUser)
			}
		},
		Guard: func(actor resource.Actor, cur, next *User) error {
			if actor.Role != resource.RoleAdmin && next.Role != cur.Role {
				return resource.Forbiddenf("only an admin can change a user's role")
			}
			return nil
		},
		UniqueKey: func(u *User) string { return u.Email },
		Filters: map[string]resource.Filter[User]{
			"role":       resource.EqualsFold(func(u *User) string { return u.Role }),
			"department": resource.EqualsFold(func(u *User) string { return u.Department }),
		},
		SearchFields: func(u *User) []string { return []string{u.Name, u.Email, u.Department} },
		SortKeys: map[string]func(a, b *User) int{
			"name":  func(a, b *User) int { return cmp.Compare(a.Name, b.Name) },
			"email": func(a, b *User) int { return cmp.Compare(a.Email, b.Email) },
		},
		DefaultLimit: 20,
		Seed:         seed,
	}
}

// Los ids sembrados coinciden con los usados en modo dev (X-Debug-User-ID).
func seed(now time.Time) []User {
	at := func(days int) resource.Base {
		return resource.Base{Status: StatusActive, CreatedAt: now.AddDate(0, 0, -days)}
	}
	return []User{
		{Base: at(365), Name: "Ana Administradora", Email: "admin@procurement.local", Role: "admin", Department: "TI"},
		{Base: at(300), Name: "Martín Gerente", Email: "manager@procurement.local", Role: "manager", Department: "Operaciones"},
		{Base: at(200), Name: "Lucía Compras", Email: "lucia@procurement.local", Role: "user", Department: "Adquisiciones"},
		{Base: at(100), Name: "Diego Terreno", Email: "diego@procurement.local", Role: "user", Department: "Obras"},
	}
}

// RegisterMe monta GET /me: el perfil del usuario autenticado.
func RegisterMe(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		actor, err := resource.ActorFromRequest(r)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		u, err := svc.Get(r.Context(), actor, actor.ID)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		resource.WriteJSON(w, http.StatusOK, map[string]any{"user": u, "role": actor.Role})
	})
}
