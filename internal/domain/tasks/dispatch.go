package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/platform/worker"
	"procurement-hub/internal/ports/blob"
	"procurement-hub/internal/resource"
)

// Submitter es la parte del pool que usan las tareas.
type Submitter interface {
	Submit(job worker.Job) error
}

// Dispatch encola la ejecución de la tarea id. Si la cola no la acepta,
// la tarea se marca failed en el momento para que no quede pending para siempre.
func Dispatch[T any, P resource.Entity[T]](ctx context.Context, pool Submitter, svc *resource.Service[T, P], kind string, id int64, work Work[T], log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	err := pool.Submit(worker.Job{
		Kind: kind,
		ID:   id,
		Run: func(ctx context.Context) error {
			return Execute(ctx, svc, id, work)
		},
	})
	if err == nil {
		return
	}

	log.Warn("task not queued", map[string]any{"kind": kind, "id": id, "err": err.Error()})
	rejected := func(context.Context, T) (func(*T), error) {
		return nil, fmt.Errorf("not queued: %w", err)
	}
	if xerr := Execute(context.WithoutCancel(ctx), svc, id, rejected); xerr != nil && !errors.Is(xerr, err) {
		log.Error("task state not updated", map[string]any{"kind": kind, "id": id, "err": xerr.Error()})
	}
}

// ServeArtifact escribe un artefacto del blob store como descarga.
func ServeArtifact(w http.ResponseWriter, r *http.Request, blobs blob.Store, key, filename string, log logger.Logger) {
	if key == "" {
		resource.WriteError(w, r, log, resource.Conflictf("artifact is not available"))
		return
	}
	info, body, err := blobs.Get(r.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		resource.WriteError(w, r, log, resource.NotFoundf("artifact %s is gone", filename))
		return
	}
	if err != nil {
		resource.WriteError(w, r, log, err)
		return
	}
	defer body.Close()

	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil && log != nil {
		log.Warn("artifact download interrupted", map[string]any{"key": key, "err": err.Error()})
	}
}

// Ready exige que la tarea haya terminado bien antes de descargar.
func Ready(label string, id int64, status resource.Status) error {
	if status != StatusCompleted {
		return resource.Conflictf("%s %d is %s, not completed", label, id, status)
	}
	return nil
}
