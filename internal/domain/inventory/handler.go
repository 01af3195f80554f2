package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/resource"

	"github.com/go-chi/chi/v5"
)

type adjustRequest struct {
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// Adjust suma delta (negativo = salida) a la cantidad del ítem.
// El resultado no puede quedar bajo cero.
func Adjust(ctx context.Context, svc *Service, actor resource.Actor, id int64, delta float64, reason string) (Item, error) {
	if delta == 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return Item{}, resource.Invalidf("delta must be a non-zero number")
	}
	reason = strings.TrimSpace(reason)
	details := fmt.Sprintf("delta=%+g", delta)
	if reason != "" {
		details += ": " + reason
	}
	return svc.Modify(ctx, actor, id, OpAdjust, details, func(it *Item) error {
		if it.Quantity+delta < 0 {
			return resource.Invalidf("insufficient stock: have %g, requested %g", it.Quantity, -delta)
		}
		it.Quantity += delta
		at := svc.Now()
		it.LastAdjustedAt = &at
		it.LastAdjustedBy = actor.ID
		return nil
	})
}

// LowStock devuelve los ítems con quantity <= minQuantity, en orden de inserción.
// Recorre todas las páginas: el listado está acotado a MaxLimit por llamada.
func LowStock(ctx context.Context, svc *Service, actor resource.Actor) ([]Item, error) {
	q := resource.Query{
		Filters: map[string]string{"lowStock": "true"},
		Sort:    "id",
		Page:    1,
		Limit:   resource.MaxLimit,
	}
	items := []Item{}
	for {
		page, err := svc.List(ctx, actor, q)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if q.Page >= page.TotalPages {
			return items, nil
		}
		q.Page++
	}
}

// RegisterRoutes monta el CRUD de inventario más alertas y ajustes.
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	resource.Register(r, svc, log, func(rr chi.Router) {
		rr.Get("/alerts/low-stock", lowStockHandler(svc, log))
		rr.Post("/{id}/adjust", adjustHandler(svc, log))
	})
}

func lowStockHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := resource.ActorFromRequest(r)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		items, err := LowStock(r.Context(), svc, actor)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		resource.WriteJSON(w, http.StatusOK, map[string]any{
			"lowStockItems": items,
			"count":         len(items),
		})
	}
}

func adjustHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := resource.ActorFromRequest(r)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		id, err := resource.PathID(r)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		body, err := resource.ReadBody(w, r)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		var req adjustRequest
		if err := json.Unmarshal(body, &req); err != nil {
			resource.WriteError(w, r, log, resource.Invalidf("invalid json body"))
			return
		}
		it, err := Adjust(r.Context(), svc, actor, id, req.Delta, req.Reason)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		resource.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "Inventory item adjusted",
			"item":    it,
		})
	}
}
