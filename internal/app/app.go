package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/lessonplan-backend/internal/data/db"
	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	httpserver "github.com/yungbote/lessonplan-backend/internal/http"
	httpH "github.com/yungbote/lessonplan-backend/internal/http/handlers"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Metrics  *observability.Metrics
	Clients  Clients
	Services Services
	Server   *httpserver.Server

	shutdownTracing func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(ctx, log, cfg)
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}

	a.shutdownTracing = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	a.Metrics = observability.NewMetrics("lessonplan")

	database, err := db.Open(log, db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	var reposet *repos.Repos
	if database != nil {
		a.DB = database
		if err := db.AutoMigrateAll(database.DB()); err != nil {
			a.Close()
			return nil, fmt.Errorf("database automigrate: %w", err)
		}
		r := repos.New(database.DB(), log)
		reposet = &r
	} else {
		log.Info("Persistence disabled, lesson plans will not be stored")
	}

	a.Clients, err = wireClients(ctx, log, cfg, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services, err = wireServices(log, cfg, a.Clients, reposet, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	health := httpH.NewHealthHandler(nil)
	if a.DB != nil {
		if sqlDB, err := a.DB.DB().DB(); err == nil {
			health = httpH.NewHealthHandler(sqlDB)
		}
	}
	a.Server = httpserver.NewServer(httpserver.RouterConfig{
		Log:               log,
		Metrics:           a.Metrics,
		ServiceName:       cfg.ServiceName,
		TracingEnabled:    cfg.Tracing.Enabled,
		CORSOrigins:       cfg.HTTP.CORSOrigins,
		LessonPlanHandler: httpH.NewLessonPlanHandler(a.Services.LessonPlans),
		HealthHandler:     health,
	}, httpserver.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		WriteTimeout:      cfg.HTTP.WriteTimeout.Duration,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout.Duration,
	})
	return a, nil
}

// Run serves HTTP until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr, "llm_provider", a.Cfg.LLM.Provider)
		return a.Server.Run(gctx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.shutdownTracing != nil {
		_ = a.shutdownTracing(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
