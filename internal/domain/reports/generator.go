package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"procurement-hub/internal/domain/analytics"
	"procurement-hub/internal/domain/tasks"
	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/ports/blob"
	"procurement-hub/internal/resource"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// table es el resultado intermedio de cualquier tipo de reporte.
type table struct {
	Columns []string
	Rows    [][]string
}

// Generator arma los reportes a partir de los servicios de dominio.
type Generator struct {
	svc       *Service
	pool      tasks.Submitter
	blobs     blob.Store
	src       analytics.Sources
	analytics *analytics.Service
	log       logger.Logger
}

func NewGenerator(svc *Service, pool tasks.Submitter, blobs blob.Store, src analytics.Sources, log logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	g := &Generator{
		svc:       svc,
		pool:      pool,
		blobs:     blobs,
		src:       src,
		analytics: analytics.NewService(src, svc.Now),
		log:       log.With(map[string]any{"component": "reports"}),
	}
	svc.OnCreate(func(ctx context.Context, r Report) {
		tasks.Dispatch(ctx, g.pool, g.svc, "report", r.ID, g.generate, g.log)
	})
	svc.OnDelete(func(ctx context.Context, r Report) {
		if r.BlobKey == "" {
			return
		}
		if err := g.blobs.Delete(ctx, r.BlobKey); err != nil {
			g.log.Warn("report artifact not removed", map[string]any{"id": r.ID, "key": r.BlobKey, "err": err.Error()})
		}
	})
	return g
}

func (g *Generator) generate(ctx context.Context, r Report) (func(*Report), error) {
	t, err := g.build(ctx, &r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch r.Format {
	case FormatCSV:
		err = writeCSV(&buf, t)
	default:
		err = writeJSON(&buf, &r, t, g.svc.Now())
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Format, err)
	}

	key := fmt.Sprintf("reports/%s.%s", uuid.NewString(), r.Format)
	info, err := g.blobs.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: r.contentType(),
		Metadata:    map[string]string{"report-id": strconv.FormatInt(r.ID, 10), "type": r.Type},
	})
	if err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}
	rows := len(t.Rows)
	return func(x *Report) {
		x.BlobKey = key
		x.Size = info.Size
		x.Rows = rows
	}, nil
}

func (g *Generator) build(ctx context.Context, r *Report) (table, error) {
	switch r.Type {
	case "projects":
		items, err := g.src.Projects.All(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{Columns: []string{"id", "name", "status", "client", "budget", "spent", "progress"}}
		for _, p := range items {
			if !r.inRange(p.ID, p.CreatedAt) {
				continue
			}
			t.Rows = append(t.Rows, []string{id(p.ID), p.Name, string(p.Status), p.Client, money(p.Budget), money(p.Spent), strconv.Itoa(p.Progress)})
		}
		return t, nil
	case "budgets":
		items, err := g.src.Budgets.All(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{Columns: []string{"id", "projectId", "name", "category", "status", "amount", "spent", "remaining"}}
		for _, b := range items {
			if !r.inRange(b.ProjectID, b.CreatedAt) {
				continue
			}
			t.Rows = append(t.Rows, []string{id(b.ID), id(b.ProjectID), b.Name, b.Category, string(b.Status), money(b.Amount), money(b.Spent), money(b.Remaining)})
		}
		return t, nil
	case "purchase-orders":
		items, err := g.src.PurchaseOrders.All(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{Columns: []string{"id", "orderNumber", "projectId", "supplier", "item", "status", "quantity", "unitCost", "totalValue"}}
		for _, po := range items {
			if !r.inRange(po.ProjectID, po.CreatedAt) {
				continue
			}
			t.Rows = append(t.Rows, []string{id(po.ID), po.OrderNumber, id(po.ProjectID), po.Supplier, po.Item, string(po.Status),
				num(po.Quantity), money(po.UnitCost), money(po.TotalValue)})
		}
		return t, nil
	case "payments":
		items, err := g.src.Payments.All(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{Columns: []string{"id", "projectId", "payee", "concept", "method", "status", "amount", "paidAt"}}
		for _, p := range items {
			if !r.inRange(p.ProjectID, p.CreatedAt) {
				continue
			}
			paid := ""
			if p.PaidAt != nil {
				paid = p.PaidAt.UTC().Format(time.RFC3339)
			}
			t.Rows = append(t.Rows, []string{id(p.ID), id(p.ProjectID), p.Payee, p.Concept, p.Method, string(p.Status), money(p.Amount), paid})
		}
		return t, nil
	case "inventory":
		items, err := g.src.Inventory.All(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{Columns: []string{"id", "sku", "name", "category", "quantity", "minQuantity", "unitCost", "totalValue", "lowStock"}}
		for _, it := range items {
			if !r.inRange(it.ProjectID, it.CreatedAt) {
				continue
			}
			t.Rows = append(t.Rows, []string{id(it.ID), it.SKU, it.Name, it.Category, num(it.Quantity), num(it.MinQuantity),
				money(it.UnitCost), money(it.TotalValue), strconv.FormatBool(it.LowStock())})
		}
		return t, nil
	case "summary":
		d, err := g.analytics.Dashboard(ctx, resource.SystemActor)
		if err != nil {
			return table{}, err
		}
		t := table{Columns: []string{"projectId", "name", "status", "budget", "approvedBudgets", "committed", "paid"}}
		for _, p := range d.ByProject {
			if r.ProjectID != 0 && p.ProjectID != r.ProjectID {
				continue
			}
			t.Rows = append(t.Rows, []string{id(p.ProjectID), p.Name, p.Status, money(p.Budget), money(p.Approved), money(p.Committed), money(p.Paid)})
		}
		return t, nil
	}
	return table{}, fmt.Errorf("unsupported report type %q", r.Type)
}

func writeCSV(buf *bytes.Buffer, t table) error {
	w := csv.NewWriter(buf)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}
	return w.Error()
}

func writeJSON(buf *bytes.Buffer, r *Report, t table, at time.Time) error {
	rows := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			m[c] = row[i]
		}
		rows = append(rows, m)
	}
	return json.NewEncoder(buf).Encode(map[string]any{
		"reportId":    r.ID,
		"name":        r.Name,
		"type":        r.Type,
		"generatedAt": at,
		"columns":     t.Columns,
		"rows":        rows,
	})
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func RegisterRoutes(r chi.Router, svc *Service, blobs blob.Store, log logger.Logger) {
	resource.Register(r, svc, log, func(rr chi.Router) {
		rr.Get("/{id}/download", func(w http.ResponseWriter, r *http.Request) {
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
			rep, err := svc.Get(r.Context(), actor, id)
			if err != nil {
				resource.WriteError(w, r, log, err)
				return
			}
			if err := tasks.Ready("Report", rep.ID, rep.Status); err != nil {
				resource.WriteError(w, r, log, err)
				return
			}
			tasks.ServeArtifact(w, r, blobs, rep.BlobKey, rep.filename(), log)
		})
	})
}
