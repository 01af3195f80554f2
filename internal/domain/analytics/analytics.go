// Package analytics: agregados de solo lectura sobre los demás recursos.
package analytics

import (
	"context"
	"net/http"
	"time"

	"procurement-hub/internal/domain/budgets"
	"procurement-hub/internal/domain/inventory"
	"procurement-hub/internal/domain/payments"
	"procurement-hub/internal/domain/projects"
	"procurement-hub/internal/domain/purchaseorders"
	"procurement-hub/internal/domain/quotations"
	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/resource"

	"github.com/go-chi/chi/v5"
)

// Summary: conteo por estado y una suma monetaria.
type Summary struct {
	Total    int                     `json:"total"`
	ByStatus map[resource.Status]int `json:"byStatus"`
	Amount   float64                 `json:"amount"`
}

type ProjectStats struct {
	ProjectID int64   `json:"projectId"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Budget    float64 `json:"budget"`
	Approved  float64 `json:"approvedBudgets"`
	Committed float64 `json:"committed"`
	Paid      float64 `json:"paid"`
}

type InventoryStats struct {
	Items      int     `json:"items"`
	TotalValue float64 `json:"totalValue"`
	LowStock   int     `json:"lowStock"`
}

type Dashboard struct {
	GeneratedAt    time.Time      `json:"generatedAt"`
	Projects       Summary        `json:"projects"`
	Budgets        Summary        `json:"budgets"`
	Quotations     Summary        `json:"quotations"`
	PurchaseOrders Summary        `json:"purchaseOrders"`
	Payments       Summary        `json:"payments"`
	Inventory      InventoryStats `json:"inventory"`
	PendingAmount  float64        `json:"pendingApprovalAmount"`
	PaidAmount     float64        `json:"paidAmount"`
	ByProject      []ProjectStats `json:"byProject"`
}

type Service struct {
	projects   *projects.Service
	budgets    *budgets.Service
	quotations *quotations.Service
	orders     *purchaseorders.Service
	payments   *payments.Service
	inventory  *inventory.Service
	now        func() time.Time
}

type Sources struct {
	Projects       *projects.Service
	Budgets        *budgets.Service
	Quotations     *quotations.Service
	PurchaseOrders *purchaseorders.Service
	Payments       *payments.Service
	Inventory      *inventory.Service
}

func NewService(src Sources, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		projects:   src.Projects,
		budgets:    src.Budgets,
		quotations: src.Quotations,
		orders:     src.PurchaseOrders,
		payments:   src.Payments,
		inventory:  src.Inventory,
		now:        now,
	}
}

// Dashboard exige identidad; los agregados no exponen registros individuales.
func (s *Service) Dashboard(ctx context.Context, actor resource.Actor) (Dashboard, error) {
	if !actor.Authenticated() {
		return Dashboard{}, resource.Unauthenticated()
	}

	prj, err := s.projects.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	bud, err := s.budgets.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	quo, err := s.quotations.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	pos, err := s.orders.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	pay, err := s.payments.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	inv, err := s.inventory.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		GeneratedAt:    s.now(),
		Projects:       summarize(prj, func(p *projects.Project) float64 { return p.Budget }),
		Budgets:        summarize(bud, func(b *budgets.Budget) float64 { return b.Amount }),
		Quotations:     summarize(quo, func(q *quotations.Quotation) float64 { return q.TotalValue }),
		PurchaseOrders: summarize(pos, func(po *purchaseorders.PurchaseOrder) float64 { return po.TotalValue }),
		Payments:       summarize(pay, func(p *payments.Payment) float64 { return p.Amount }),
	}

	for i := range inv {
		d.Inventory.Items++
		d.Inventory.TotalValue += inv[i].TotalValue
		if inv[i].LowStock() {
			d.Inventory.LowStock++
		}
	}
	for i := range bud {
		if bud[i].Status == budgets.StatusPending {
			d.PendingAmount += bud[i].Amount
		}
	}
	for i := range pos {
		if pos[i].Status == purchaseorders.StatusPending {
			d.PendingAmount += pos[i].TotalValue
		}
	}
	for i := range pay {
		switch pay[i].Status {
		case payments.StatusPending:
			d.PendingAmount += pay[i].Amount
		case payments.StatusCompleted:
			d.PaidAmount += pay[i].Amount
		}
	}
	d.ByProject = byProject(prj, bud, pos, pay)
	return d, nil
}

func summarize[T any, P resource.Entity[T]](items []T, amount func(*T) float64) Summary {
	s := Summary{Total: len(items), ByStatus: map[resource.Status]int{}}
	for i := range items {
		s.ByStatus[P(&items[i]).Meta().Status]++
		s.Amount += amount(&items[i])
	}
	return s
}

// byProject: presupuestos aprobados, órdenes comprometidas (approved/completed) y pagos hechos.
func byProject(prj []projects.Project, bud []budgets.Budget, pos []purchaseorders.PurchaseOrder, pay []payments.Payment) []ProjectStats {
	out := make([]ProjectStats, 0, len(prj))
	idx := make(map[int64]int, len(prj))
	for i := range prj {
		idx[prj[i].ID] = len(out)
		out = append(out, ProjectStats{
			ProjectID: prj[i].ID,
			Name:      prj[i].Name,
			Status:    string(prj[i].Status),
			Budget:    prj[i].Budget,
		})
	}
	for i := range bud {
		if j, ok := idx[bud[i].ProjectID]; ok && bud[i].Status == budgets.StatusApproved {
			out[j].Approved += bud[i].Amount
		}
	}
	for i := range pos {
		st := pos[i].Status
		if j, ok := idx[pos[i].ProjectID]; ok && (st == purchaseorders.StatusApproved || st == purchaseorders.StatusCompleted) {
			out[j].Committed += pos[i].TotalValue
		}
	}
	for i := range pay {
		if j, ok := idx[pay[i].ProjectID]; ok && pay[i].Status == payments.StatusCompleted {
			out[j].Paid += pay[i].Amount
		}
	}
	return out
}

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/analytics/dashboard", func(w http.ResponseWriter, r *http.Request) {
		actor, err := resource.ActorFromRequest(r)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		d, err := svc.Dashboard(r.Context(), actor)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		resource.WriteJSON(w, http.StatusOK, d)
	})
}
