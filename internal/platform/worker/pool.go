// Package worker implementa un pool de workers para tareas en background
// (backups, reportes).
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"procurement-hub/internal/platform/logger"
)

var (
	ErrQueueFull = errors.New("worker: job queue is full")
	ErrStopped   = errors.New("worker: pool stopped")
)

// Job es una unidad de trabajo. Run recibe el ctx del pool (se cancela en Stop).
type Job struct {
	Kind string
	ID   int64
	Run  func(ctx context.Context) error
}

// Observer recibe el resultado de cada job (métricas).
type Observer interface {
	ObserveJob(kind, outcome string, d time.Duration)
	SetQueueDepth(n int)
}

type Pool struct {
	workers  int
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      logger.Logger
	observer Observer

	mu      sync.RWMutex
	stopped bool
	once    sync.Once
}

func NewPool(workers, queueSize int, log logger.Logger, observer Observer) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		log:      log.With(map[string]any{"component": "worker"}),
		observer: observer,
	}
}

func (p *Pool) Start() {
	p.log.Info("starting worker pool", map[string]any{"workers": p.workers})
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop deja de aceptar jobs, espera los que ya están en cola y cancela el ctx al final.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.jobQueue)
		p.mu.Unlock()

		p.wg.Wait()
		p.cancel()
		p.log.Info("worker pool stopped", nil)
	})
}

func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobQueue <- job:
		p.depth()
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobQueue {
		p.depth()
		p.process(id, job)
	}
}

func (p *Pool) process(workerID int, job Job) {
	start := time.Now()
	fields := map[string]any{"worker_id": workerID, "kind": job.Kind, "job_id": job.ID}

	err := p.safeRun(job)
	d := time.Since(start)
	fields["duration_ms"] = d.Milliseconds()

	outcome := "completed"
	if err != nil {
		outcome = "failed"
		fields["err"] = err.Error()
		p.log.Error("job failed", fields)
	} else {
		p.log.Debug("job completed", fields)
	}
	if p.observer != nil {
		p.observer.ObserveJob(job.Kind, outcome, d)
	}
}

// safeRun convierte un panic del job en error para no matar el worker.
func (p *Pool) safeRun(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(p.ctx)
}

func (p *Pool) depth() {
	if p.observer != nil {
		p.observer.SetQueueDepth(len(p.jobQueue))
	}
}
