// Command server runs the Salesflow order lifecycle and stock ledger API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	appidentity "github.com/salesflow/backend/internal/application/identity"
	appinventory "github.com/salesflow/backend/internal/application/inventory"
	apptrade "github.com/salesflow/backend/internal/application/trade"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/auth"
	"github.com/salesflow/backend/internal/infrastructure/cache"
	"github.com/salesflow/backend/internal/infrastructure/config"
	"github.com/salesflow/backend/internal/infrastructure/event"
	"github.com/salesflow/backend/internal/infrastructure/logger"
	"github.com/salesflow/backend/internal/infrastructure/persistence"
	"github.com/salesflow/backend/internal/infrastructure/persistence/tenant"
	"github.com/salesflow/backend/internal/infrastructure/scheduler"
	"github.com/salesflow/backend/internal/infrastructure/shipping"
	"github.com/salesflow/backend/internal/infrastructure/telemetry"
	"github.com/salesflow/backend/internal/interfaces/http/handler"
	"github.com/salesflow/backend/internal/interfaces/http/middleware"
	"github.com/salesflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Salesflow Order Engine API
//	@version		1.0
//	@description	Order lifecycle and stock ledger engine for multi-tenant sellers

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	cfg.Telemetry.ServiceName = firstNonEmpty(cfg.Telemetry.ServiceName, cfg.App.Name)

	// The log provider must exist before the logger so the OTel bridge core
	// can be teed in from the first entry
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry)
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}
	var extraCores []zapcore.Core
	if logProvider.IsEnabled() {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		extraCores = append(extraCores, logProvider.ZapCore(level))
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, extraCores...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Salesflow engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry.Profiling, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.SpanProfilesWanted() {
		tracerProvider.EnableSpanProfiles()
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log provider", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics, err := telemetry.NewEngineMetrics(registry, meterProvider.Meter("salesflow/engine"))
	if err != nil {
		log.Fatal("Failed to register engine metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBPoolMetrics(registry, func() (telemetry.PoolStats, error) {
		stats, err := db.Stats()
		return telemetry.PoolStats(stats), err
	}); err != nil {
		log.Fatal("Failed to register database pool metrics", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThreshold: cfg.Database.SlowThreshold,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	store := db.Store(
		tenant.WithTransactionTimeout(cfg.Engine.TransactionTimeout),
		tenant.WithLockTimeout(cfg.Engine.LockTimeout),
	)
	scope := persistence.NewGormTransactionScope(store)

	// Webhook idempotency; outside production an unreachable Redis degrades to memory
	idempotency, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Events: the in-process bus always runs the audit log; Kafka is added when configured
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	var publisher shared.EventPublisher = eventBus
	if cfg.Kafka.Enabled() {
		serializer := event.NewEventSerializer()
		event.RegisterAllEvents(serializer)
		kafkaPublisher, err := event.NewKafkaPublisher(cfg.Kafka, serializer, log)
		if err != nil {
			log.Fatal("Failed to initialize kafka publisher", zap.Error(err))
		}
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				log.Error("Error closing kafka publisher", zap.Error(err))
			}
		}()
		publisher = event.NewFanoutPublisher(eventBus, kafkaPublisher)
		log.Info("Kafka event publishing enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// Shipping providers
	providers, err := shipping.NewFromConfig(cfg.Shipping, log)
	if err != nil {
		log.Fatal("Failed to initialize shipping providers", zap.Error(err))
	}
	log.Info("Shipping providers registered", zap.Strings("providers", providers.Factory.Codes()))

	// Application services
	stockLedger := inventory.NewStockLedger()

	orderService := apptrade.NewOrderLifecycleService(scope, stockLedger, log)
	orderService.SetEventPublisher(publisher)
	orderService.SetShippingProviders(providers.Factory)
	orderService.SetIdempotencyStore(idempotency, cfg.Engine.IdempotencyTTL)
	orderService.SetMetrics(engineMetrics)
	orderService.SetBulkLimit(cfg.Engine.BulkMaxOrders)

	stockService := appinventory.NewStockLedgerService(scope, stockLedger, log)
	stockService.SetEventPublisher(publisher)
	stockService.SetMetrics(engineMetrics)

	tenantService := appidentity.NewTenantService(scope, log)

	// Background ledger integrity sweep
	if cfg.Engine.IntegritySweepInterval > 0 {
		schedulerCfg := scheduler.DefaultSchedulerConfig()
		schedulerCfg.MaxConcurrentJobs = cfg.Engine.SweepWorkers
		schedulerCfg.JobTimeout = cfg.Engine.TransactionTimeout * 10
		sweeper, err := scheduler.NewScheduler(schedulerCfg, scheduler.NewIntegrityExecutor(stockService, log), log)
		if err != nil {
			log.Fatal("Failed to initialize integrity sweep", zap.Error(err))
		}
		if err := sweeper.Start(ctx); err != nil {
			log.Fatal("Failed to start integrity sweep", zap.Error(err))
		}
		trigger := scheduler.NewIntervalTrigger(cfg.Engine.IntegritySweepInterval, sweeper, persistence.NewTenantDirectory(db.DB), log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start integrity sweep trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = trigger.Stop(stopCtx)
			if err := sweeper.Stop(stopCtx); err != nil {
				log.Error("Error stopping integrity sweep", zap.Error(err))
			}
		}()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register request validators", zap.Error(err))
	}

	services := router.Services{
		Orders:  orderService,
		Stock:   stockService,
		Tenants: tenantService,
	}
	if providers.Manual != nil {
		services.Manual = providers.Manual
	}

	engine, err := router.NewEngine(router.Options{
		ServiceName:      cfg.App.Name,
		Version:          version,
		Env:              cfg.App.Env,
		HTTP:             cfg.HTTP,
		RequestTimeout:   cfg.HTTP.WriteTimeout,
		DefaultShipMode:  cfg.Shipping.DefaultShipMode,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		Logger:           log,
		Tokens:           auth.NewJWTService(cfg.JWT),
		Metrics:          telemetry.NewHTTPMetrics(registry),
		Gatherer:         registry,
		HealthChecks: map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
		},
	}, services)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
