// Package tasks modela el ciclo de vida de trabajos en segundo plano
// (backups, reportes): pending -> running -> completed | failed.
package tasks

import (
	"context"
	"fmt"
	"time"

	"procurement-hub/internal/resource"
)

const (
	StatusPending   resource.Status = "pending"
	StatusRunning   resource.Status = "running"
	StatusCompleted resource.Status = "completed"
	StatusFailed    resource.Status = "failed"
)

const (
	ActionStart  = "start"
	ActionFinish = "finish"
	ActionFail   = "fail"
)

var Statuses = []resource.Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed}

// Fields se embebe en la entidad de la tarea.
type Fields struct {
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ImmutableKeys: el cliente no fija estado de ejecución.
var ImmutableKeys = []string{"startedAt", "finishedAt", "error"}

// Transitions arma la tabla interna start/finish/fail para T.
// Solo el actor de sistema puede dispararlas.
func Transitions[T any](fields func(*T) *Fields) []resource.Transition[T] {
	return []resource.Transition[T]{
		{
			Action: ActionStart, From: []resource.Status{StatusPending}, To: StatusRunning, Internal: true,
			Stamp: func(rec *T, c resource.Change) {
				at := c.At
				fields(rec).StartedAt = &at
			},
		},
		{
			Action: ActionFinish, From: []resource.Status{StatusRunning}, To: StatusCompleted, Internal: true,
			Stamp: func(rec *T, c resource.Change) {
				at := c.At
				f := fields(rec)
				f.FinishedAt = &at
				f.Error = ""
			},
		},
		{
			Action: ActionFail, From: []resource.Status{StatusRunning}, To: StatusFailed, Internal: true,
			Stamp: func(rec *T, c resource.Change) {
				at := c.At
				f := fields(rec)
				f.FinishedAt = &at
				f.Error = c.Reason
			},
		},
	}
}

// Work hace el trabajo de la tarea y devuelve cómo completar el registro.
type Work[T any] func(ctx context.Context, rec T) (apply func(*T), err error)

// Execute corre una tarea ya creada: start, work y luego finish o fail.
// Devuelve el error del trabajo (la tarea queda en failed) o el de las transiciones.
func Execute[T any, P resource.Entity[T]](ctx context.Context, svc *resource.Service[T, P], id int64, work Work[T]) error {
	rec, err := svc.Transition(ctx, resource.SystemActor, id, ActionStart, "")
	if err != nil {
		return fmt.Errorf("start %s %d: %w", svc.Name(), id, err)
	}

	apply, werr := work(ctx, rec)
	if werr != nil {
		if _, err := svc.Transition(ctx, resource.SystemActor, id, ActionFail, werr.Error()); err != nil {
			return fmt.Errorf("fail %s %d: %w (work error: %v)", svc.Name(), id, err, werr)
		}
		return werr
	}

	if _, err := svc.TransitionWith(ctx, resource.SystemActor, id, ActionFinish, "", apply); err != nil {
		return fmt.Errorf("finish %s %d: %w", svc.Name(), id, err)
	}
	return nil
}
