package backups

import (
	"context"
	"fmt"

	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/resource"

	"github.com/robfig/cron/v3"
)

// Scheduler crea backups completos según una expresión cron (BACKUP_SCHEDULE).
type Scheduler struct {
	cron *cron.Cron
	svc  *Service
	log  logger.Logger
}

// NewScheduler acepta expresiones de 5 campos y descriptores (@daily, @every 6h).
func NewScheduler(expr string, svc *Service, log logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		svc:  svc,
		log:  log.With(map[string]any{"component": "backup-scheduler"}),
	}
	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", expr, err)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop espera a que termine el tick en curso.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	b, err := s.Trigger(context.Background())
	if err != nil {
		s.log.Error("scheduled backup not created", map[string]any{"err": err.Error()})
		return
	}
	s.log.Info("scheduled backup queued", map[string]any{"id": b.ID})
}

// Trigger crea un backup programado como actor de sistema.
func (s *Scheduler) Trigger(ctx context.Context) (Backup, error) {
	return s.svc.Create(ctx, resource.SystemActor, Backup{
		Type:    TypeFull,
		Trigger: TriggerScheduled,
	})
}
