package resource

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"procurement-hub/internal/middleware"
	"procurement-hub/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// ActorFromRequest resuelve el Actor desde los claims del contexto.
// Sin claims => ErrUnauthorized. Token presente pero rechazado => ErrForbidden.
func ActorFromRequest(r *http.Request) (Actor, error) {
	if middleware.TokenRejected(r.Context()) {
		return Actor{}, &Error{Kind: ErrForbidden, Msg: "invalid or expired token"}
	}
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return Actor{}, Unauthenticated()
	}
	id, err := strconv.ParseInt(strings.TrimSpace(claims.UserID), 10, 64)
	if err != nil || id <= 0 {
		return Actor{}, &Error{Kind: ErrForbidden, Msg: "invalid user id in token"}
	}
	role := Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	switch role {
	case RoleAdmin, RoleManager, RoleUser:
	default:
		role = RoleUser
	}
	return Actor{ID: id, Role: role}, nil
}

// OptionalActor devuelve el Actor si lo hay; anónimo es válido, token rechazado no.
func OptionalActor(r *http.Request) (Actor, error) {
	a, err := ActorFromRequest(r)
	if err != nil && errors.Is(err, ErrUnauthorized) {
		return Actor{}, nil
	}
	return a, err
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor mapea un error del dominio a su código HTTP.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidQuery),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError escribe {message}. Los 500 no filtran detalle al cliente.
func WriteError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", map[string]any{
				"request_id": chimw.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"err":        err.Error(),
			})
		}
		msg = "internal error"
	}
	WriteJSON(w, status, map[string]string{"message": msg})
}

// PathID lee {id} de la ruta.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, Invalidf("invalid id")
	}
	return id, nil
}

// ReadBody lee el body con tope de tamaño.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, Invalidf("request body too large or unreadable")
	}
	return b, nil
}

// Register monta las rutas CRUD + transiciones de svc bajo /{spec.Name}.
// Solo se montan las operaciones que la Policy declara. extra agrega rutas propias.
func Register[T any, P Entity[T]](r chi.Router, svc *Service[T, P], log logger.Logger, extra ...func(chi.Router)) {
	spec := svc.Spec()
	h := &handler[T, P]{svc: svc, log: log}

	r.Route("/"+spec.Name, func(rr chi.Router) {
		// rutas estáticas antes que /{id}
		for _, fn := range extra {
			fn(rr)
		}
		rr.Get("/", h.list)
		rr.Get("/{id}", h.get)
		if spec.Policy.Has(OpCreate) {
			rr.Post("/", h.create)
		}
		if spec.Policy.Has(OpUpdate) {
			rr.Put("/{id}", h.update)
			rr.Patch("/{id}", h.update)
		}
		if spec.Policy.Has(OpDelete) {
			rr.Delete("/{id}", h.delete)
		}
		for _, t := range spec.Transitions {
			if t.Internal {
				continue
			}
			rr.Post("/{id}/"+t.Action, h.transition(t.Action))
		}
	})
}

type handler[T any, P Entity[T]] struct {
	svc *Service[T, P]
	log logger.Logger
}

func (h *handler[T, P]) list(w http.ResponseWriter, r *http.Request) {
	actor, err := OptionalActor(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	q, err := ParseQuery(r.URL.Query(), h.svc.Spec())
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	page, err := h.svc.List(r.Context(), actor, q)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (h *handler[T, P]) get(w http.ResponseWriter, r *http.Request) {
	actor, err := OptionalActor(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	id, err := PathID(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	rec, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (h *handler[T, P]) create(w http.ResponseWriter, r *http.Request) {
	actor, err := OptionalActor(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	body, err := ReadBody(w, r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	// permisos antes de validar el body
	if err := h.svc.Spec().Policy.Authorize(actor, OpCreate, 0); err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	rec, err := h.svc.Decode(body)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	created, err := h.svc.Create(r.Context(), actor, rec)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	h.envelope(w, http.StatusCreated, h.svc.Spec().Label+" created", created)
}

func (h *handler[T, P]) update(w http.ResponseWriter, r *http.Request) {
	actor, err := OptionalActor(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	id, err := PathID(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	body, err := ReadBody(w, r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	updated, err := h.svc.Update(r.Context(), actor, id, body)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	h.envelope(w, http.StatusOK, h.svc.Spec().Label+" updated", updated)
}

func (h *handler[T, P]) delete(w http.ResponseWriter, r *http.Request) {
	actor, err := OptionalActor(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	id, err := PathID(r)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		WriteError(w, r, h.log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": h.svc.Spec().Label + " deleted"})
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

func (h *handler[T, P]) transition(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromRequest(r)
		if err != nil {
			WriteError(w, r, h.log, err)
			return
		}
		id, err := PathID(r)
		if err != nil {
			WriteError(w, r, h.log, err)
			return
		}
		body, err := ReadBody(w, r)
		if err != nil {
			WriteError(w, r, h.log, err)
			return
		}
		var req transitionRequest
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				WriteError(w, r, h.log, Invalidf("invalid json body"))
				return
			}
		}
		rec, err := h.svc.Transition(r.Context(), actor, id, action, req.Reason)
		if err != nil {
			WriteError(w, r, h.log, err)
			return
		}
		h.envelope(w, http.StatusOK, h.svc.Spec().Label+" "+string(P(&rec).Meta().Status), rec)
	}
}

func (h *handler[T, P]) envelope(w http.ResponseWriter, status int, msg string, rec T) {
	WriteJSON(w, status, map[string]any{
		"message":             msg,
		h.svc.Spec().Singular: rec,
	})
}
