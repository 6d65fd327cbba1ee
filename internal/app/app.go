package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/db"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/realtime"
)

type App struct {
	Log        *logger.Logger
	Cfg        Config
	DB         *gorm.DB
	Postgres   *db.PostgresService
	Router     *gin.Engine
	Clients    Clients
	Repos      Repos
	Services   Services
	Handlers   Handlers
	Middleware Middleware
	SSEHub     *realtime.SSEHub
	Metrics    *observability.Metrics
	Jobs       *Jobs

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)
	metrics := observability.Init(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := realtime.NewSSEHub(log)

	clientset, err := wireClients(context.Background(), log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, reposet, clientset, hub, metrics)
	if err != nil {
		clientset.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, hub)
	mw := wireMiddleware(log, cfg, serviceset)
	router := wireRouter(log, metrics, handlerset, mw)

	jobs, err := wireJobs(log, cfg, serviceset)
	if err != nil {
		clientset.Close()
		log.Sync()
		return nil, err
	}

	return &App{
		Log:        log,
		Cfg:        cfg,
		DB:         theDB,
		Postgres:   pg,
		Router:     router,
		Clients:    clientset,
		Repos:      reposet,
		Services:   serviceset,
		Handlers:   handlerset,
		Middleware: mw,
		SSEHub:     hub,
		Metrics:    metrics,
		Jobs:       jobs,
	}, nil
}

// Start launches the background pieces: tracing, the Redis-to-hub
// forwarder, metric collectors and the cron schedules. Idempotent.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: "propflow-backend",
		Environment: a.Cfg.Environment,
		Version:     a.Cfg.Version,
	})

	if a.Clients.Bus != nil {
		if err := a.Clients.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			a.Log.Error("Failed to start event forwarder", "error", err)
		}
	}

	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		a.Metrics.StartApprovalQueueCollector(ctx, a.Log, a.DB)
		if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, addr)
		}
		a.Metrics.StartSLOEvaluator(ctx, a.Log)
		if a.Cfg.MetricsAddr != "" {
			a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		}
	}

	if a.Middleware.RateLimit != nil {
		a.Middleware.RateLimit.StartCleanup(ctx.Done(), 5*time.Minute, 30*time.Minute)
	}

	a.Jobs.Start()
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Jobs.Stop()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	a.Clients.Close()
	if a.Postgres != nil {
		_ = a.Postgres.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
