package backups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"procurement-hub/internal/domain/tasks"
	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/ports/blob"
	"procurement-hub/internal/resource"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Exporter lo cumple cualquier *resource.Service.
type Exporter interface {
	Name() string
	Export(ctx context.Context) (json.RawMessage, error)
}

// Runner genera los snapshots. Cada alta de backup se encola en el pool.
type Runner struct {
	svc       *Service
	pool      tasks.Submitter
	blobs     blob.Store
	exporters []Exporter
	log       logger.Logger
}

func NewRunner(svc *Service, pool tasks.Submitter, blobs blob.Store, exporters []Exporter, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	r := &Runner{
		svc:       svc,
		pool:      pool,
		blobs:     blobs,
		exporters: exporters,
		log:       log.With(map[string]any{"component": "backups"}),
	}
	svc.OnCreate(func(ctx context.Context, b Backup) {
		tasks.Dispatch(ctx, r.pool, r.svc, "backup", b.ID, r.snapshot, r.log)
	})
	svc.OnDelete(func(ctx context.Context, b Backup) {
		if b.BlobKey == "" {
			return
		}
		if err := r.blobs.Delete(ctx, b.BlobKey); err != nil {
			r.log.Warn("backup artifact not removed", map[string]any{"id": b.ID, "key": b.BlobKey, "err": err.Error()})
		}
	})
	return r
}

// Names lista los recursos respaldables.
func Names(exporters []Exporter) []string {
	out := make([]string, 0, len(exporters))
	for _, e := range exporters {
		out = append(out, e.Name())
	}
	return out
}

func (r *Runner) snapshot(ctx context.Context, b Backup) (func(*Backup), error) {
	doc := snapshot{
		BackupID:  b.ID,
		Type:      b.Type,
		TakenAt:   r.svc.Now(),
		Counts:    map[string]int{},
		Resources: map[string]json.RawMessage{},
	}
	total := 0
	for _, e := range r.exporters {
		if !b.Includes(e.Name()) {
			continue
		}
		raw, err := e.Export(ctx)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", e.Name(), err)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("export %s: %w", e.Name(), err)
		}
		doc.Resources[e.Name()] = raw
		doc.Counts[e.Name()] = len(items)
		total += len(items)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("backups/%s.json", uuid.NewString())
	info, err := r.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"backup-id": fmt.Sprint(b.ID), "type": b.Type},
	})
	if err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	r.log.Info("backup completed", map[string]any{"id": b.ID, "key": key, "size": info.Size, "records": total})
	return func(x *Backup) {
		x.BlobKey = key
		x.Size = info.Size
		x.Records = total
	}, nil
}

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
			b, err := svc.Get(r.Context(), actor, id)
			if err != nil {
				resource.WriteError(w, r, log, err)
				return
			}
			if err := tasks.Ready("Backup", b.ID, b.Status); err != nil {
				resource.WriteError(w, r, log, err)
				return
			}
			tasks.ServeArtifact(w, r, blobs, b.BlobKey, b.filename(), log)
		})
	})
}
