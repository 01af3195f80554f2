package router

import (
	"context"
	"net/http"
	"time"

	"procurement-hub/internal/config"
	"procurement-hub/internal/domain/analytics"
	"procurement-hub/internal/domain/auditlogs"
	"procurement-hub/internal/domain/backups"
	"procurement-hub/internal/domain/budgets"
	"procurement-hub/internal/domain/inventory"
	"procurement-hub/internal/domain/notifications"
	"procurement-hub/internal/domain/payments"
	"procurement-hub/internal/domain/projects"
	"procurement-hub/internal/domain/purchaseorders"
	"procurement-hub/internal/domain/quotations"
	"procurement-hub/internal/domain/reports"
	"procurement-hub/internal/domain/search"
	"procurement-hub/internal/domain/users"
	"procurement-hub/internal/middleware"
	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/platform/metrics"
	"procurement-hub/internal/platform/worker"
	"procurement-hub/internal/ports/auth"
	"procurement-hub/internal/ports/blob"
	"procurement-hub/internal/resource"

	_ "procurement-hub/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Config nil => config.Default() (memoria, sin cron).
	Config *config.Config
	Logger logger.Logger
	// Blob reemplaza al store de artefactos configurado (tests).
	Blob blob.Store
	Now  func() time.Time
}

// App es el handler HTTP más los procesos en background que hay que cerrar.
type App struct {
	handler   http.Handler
	pool      *worker.Pool
	scheduler *backups.Scheduler
	backend   *backend
	log       logger.Logger
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Close frena el cron, drena el pool y cierra la base.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.pool.Stop()
	return a.backend.Close()
}

type services struct {
	audit          *auditlogs.Service
	notifications  *notifications.Service
	users          *users.Service
	projects       *projects.Service
	budgets        *budgets.Service
	quotations     *quotations.Service
	purchaseOrders *purchaseorders.Service
	payments       *payments.Service
	inventory      *inventory.Service
	backups        *backups.Service
	reports        *reports.Service
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	be, err := openBackend(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	blobs := opts.Blob
	if blobs == nil {
		if blobs, err = openBlobs(ctx, cfg.Blob); err != nil {
			_ = be.Close()
			return nil, err
		}
	}

	m := metrics.New("procurement")
	pool := worker.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize, log, m)
	app := &App{pool: pool, backend: be, log: log}

	svc := buildServices(be, resource.Deps{Logger: log, Now: opts.Now})

	if cfg.Seed {
		if err := seed(ctx, svc, log); err != nil {
			_ = be.Close()
			return nil, err
		}
	}

	src := analytics.Sources{
		Projects:       svc.projects,
		Budgets:        svc.budgets,
		Quotations:     svc.quotations,
		PurchaseOrders: svc.purchaseOrders,
		Payments:       svc.payments,
		Inventory:      svc.inventory,
	}
	backups.NewRunner(svc.backups, pool, blobs, exporters(svc), log)
	reports.NewGenerator(svc.reports, pool, blobs, src, log)

	if cfg.BackupSchedule != "" {
		sched, err := backups.NewScheduler(cfg.BackupSchedule, svc.backups, log)
		if err != nil {
			_ = be.Close()
			return nil, err
		}
		app.scheduler = sched
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))
	r.Use(m.Middleware)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		resource.WriteJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"store":  be.driver,
			"blob":   string(blobs.Driver()),
		})
	})
	r.Handle("/metrics", m.Handler())
	if cfg.Swagger {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	r.Route("/api", func(api chi.Router) {
		resource.Register(api, svc.projects, log)
		resource.Register(api, svc.budgets, log)
		resource.Register(api, svc.quotations, log)
		resource.Register(api, svc.purchaseOrders, log)
		resource.Register(api, svc.payments, log)
		inventory.RegisterRoutes(api, svc.inventory, log)
		resource.Register(api, svc.users, log)
		users.RegisterMe(api, svc.users, log)
		notifications.RegisterRoutes(api, svc.notifications, log)
		resource.Register(api, svc.audit, log)
		backups.RegisterRoutes(api, svc.backups, blobs, log)
		reports.RegisterRoutes(api, svc.reports, blobs, log)

		analytics.RegisterRoutes(api, analytics.NewService(src, opts.Now), log)
		search.RegisterRoutes(api, search.NewService(
			svc.projects, svc.budgets, svc.quotations, svc.purchaseOrders,
			svc.payments, svc.inventory, svc.users,
		), log)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		resource.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		resource.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	})

	app.handler = r
	pool.Start()
	if app.scheduler != nil {
		app.scheduler.Start()
	}
	return app, nil
}

// buildServices arma los servicios. La auditoría no se audita a sí misma.
func buildServices(be *backend, deps resource.Deps) services {
	var s services
	s.audit = auditlogs.NewService(storeFor[auditlogs.Entry](be, "audit-logs"), deps)
	deps.Auditor = auditlogs.NewRecorder(s.audit)

	s.notifications = notifications.NewService(storeFor[notifications.Notification](be, "notifications"), deps)
	deps.Notifier = notifications.NewNotifier(s.notifications)

	s.users = users.NewService(storeFor[users.User](be, "users"), deps)
	s.projects = projects.NewService(storeFor[projects.Project](be, "projects"), deps)
	s.budgets = budgets.NewService(storeFor[budgets.Budget](be, "budgets"), deps)
	s.quotations = quotations.NewService(storeFor[quotations.Quotation](be, "quotations"), deps)
	s.purchaseOrders = purchaseorders.NewService(storeFor[purchaseorders.PurchaseOrder](be, "purchase-orders"), deps)
	s.payments = payments.NewService(storeFor[payments.Payment](be, "payments"), deps)
	s.inventory = inventory.NewService(storeFor[inventory.Item](be, "inventory"), deps)
	s.reports = reports.NewService(storeFor[reports.Report](be, "reports"), deps)
	s.backups = backups.NewService(storeFor[backups.Backup](be, "backups"), deps, backups.Names(exporters(s)))
	return s
}

// exporters: todo lo respaldable. backups queda afuera de sus propios snapshots.
func exporters(s services) []backups.Exporter {
	return []backups.Exporter{
		s.users, s.projects, s.budgets, s.quotations, s.purchaseOrders,
		s.payments, s.inventory, s.notifications, s.audit, s.reports,
	}
}

type seeder interface {
	Name() string
	Seed(ctx context.Context) (int, error)
}

func seed(ctx context.Context, s services, log logger.Logger) error {
	for _, sd := range []seeder{s.users, s.projects, s.budgets, s.quotations, s.purchaseOrders, s.payments, s.inventory} {
		n, err := sd.Seed(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("seed data loaded", map[string]any{"resource": sd.Name(), "records": n})
		}
	}
	return nil
}
