package backups

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"procurement-hub/internal/adapters/blob/memory"
	memstore "procurement-hub/internal/adapters/storage/memory"
	"procurement-hub/internal/domain/tasks"
	"procurement-hub/internal/platform/worker"
	"procurement-hub/internal/resource"
)

type fakeExporter struct {
	name string
	data string
	err  error
}

func (f fakeExporter) Name() string { return f.name }

func (f fakeExporter) Export(context.Context) (json.RawMessage, error) {
	return json.RawMessage(f.data), f.err
}

// inlinePool ejecuta el job en el momento; full simula cola llena.
type inlinePool struct{ full bool }

func (p inlinePool) Submit(job worker.Job) error {
	if p.full {
		return worker.ErrQueueFull
	}
	return job.Run(context.Background())
}

var admin = resource.Actor{ID: 1, Role: resource.RoleAdmin}

func setup(t *testing.T, pool tasks.Submitter, exporters ...Exporter) (*Service, *memory.Store) {
	t.Helper()
	blobs := memory.New()
	svc := NewService(memstore.NewStore[Backup](), resource.Deps{}, Names(exporters))
	NewRunner(svc, pool, blobs, exporters, nil)
	return svc, blobs
}

func TestBackup_Full(t *testing.T) {
	ctx := context.Background()
	svc, blobs := setup(t, inlinePool{},
		fakeExporter{name: "projects", data: `[{"id":1},{"id":2}]`},
		fakeExporter{name: "budgets", data: `[{"id":1}]`},
	)

	created, err := svc.Create(ctx, admin, Backup{Name: "nightly"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Type != TypeFull || created.Trigger != TriggerManual || created.CreatedBy != admin.ID {
		t.Fatalf("defaults: %+v", created)
	}

	b, _ := svc.Get(ctx, admin, created.ID)
	if b.Status != tasks.StatusCompleted || b.Records != 3 || b.BlobKey == "" || b.Size == 0 {
		t.Fatalf("backup not completed: %+v", b)
	}

	_, body, err := blobs.Get(ctx, b.BlobKey)
	if err != nil {
		t.Fatalf("blob: %v", err)
	}
	defer body.Close()
	raw, _ := io.ReadAll(body)
	var doc snapshot
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("snapshot json: %v", err)
	}
	if doc.Counts["projects"] != 2 || doc.Counts["budgets"] != 1 || doc.BackupID != b.ID {
		t.Fatalf("unexpected snapshot: %+v", doc)
	}

	if err := svc.Delete(ctx, admin, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := blobs.Get(ctx, b.BlobKey); err == nil {
		t.Fatalf("artifact should be removed with the backup")
	}
}

func TestBackup_PartialValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t, inlinePool{}, fakeExporter{name: "projects", data: `[]`})

	if _, err := svc.Create(ctx, admin, Backup{Type: TypePartial}); !errors.Is(err, resource.ErrValidation) {
		t.Fatalf("partial without resources: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, admin, Backup{Type: TypePartial, Resources: []string{"pets"}}); !errors.Is(err, resource.ErrValidation) {
		t.Fatalf("unknown resource: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, resource.Actor{ID: 2, Role: resource.RoleManager}, Backup{}); !errors.Is(err, resource.ErrForbidden) {
		t.Fatalf("manager create: expected ErrForbidden, got %v", err)
	}
}

func TestBackup_Failures(t *testing.T) {
	ctx := context.Background()

	svc, _ := setup(t, inlinePool{}, fakeExporter{name: "projects", err: errors.New("db down")})
	b, _ := svc.Create(ctx, admin, Backup{})
	got, _ := svc.Get(ctx, admin, b.ID)
	if got.Status != tasks.StatusFailed || got.Error == "" {
		t.Fatalf("export error should fail the backup: %+v", got)
	}

	svc, _ = setup(t, inlinePool{full: true}, fakeExporter{name: "projects", data: `[]`})
	b, _ = svc.Create(ctx, admin, Backup{})
	got, _ = svc.Get(ctx, admin, b.ID)
	if got.Status != tasks.StatusFailed {
		t.Fatalf("rejected job must not stay pending: %+v", got)
	}
}

func TestScheduler(t *testing.T) {
	svc, _ := setup(t, inlinePool{}, fakeExporter{name: "projects", data: `[{"id":1}]`})
	if _, err := NewScheduler("not a schedule", svc, nil); err == nil {
		t.Fatalf("expected an invalid schedule error")
	}
	s, err := NewScheduler("@daily", svc, nil)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	b, err := s.Trigger(context.Background())
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if b.Trigger != TriggerScheduled || b.CreatedBy != 0 || b.Name != "scheduled backup" {
		t.Fatalf("unexpected scheduled backup: %+v", b)
	}
}
