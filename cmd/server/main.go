package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/erp/edisync/internal/application/edisync"
	"github.com/erp/edisync/internal/infrastructure/cache"
	"github.com/erp/edisync/internal/infrastructure/config"
	"github.com/erp/edisync/internal/infrastructure/logger"
	"github.com/erp/edisync/internal/infrastructure/persistence"
	"github.com/erp/edisync/internal/infrastructure/rowcodec"
	"github.com/erp/edisync/internal/infrastructure/scheduler"
	"github.com/erp/edisync/internal/infrastructure/storage"
	"github.com/erp/edisync/internal/infrastructure/telemetry"
	"github.com/erp/edisync/internal/infrastructure/telemetry/syncmetrics"
	"github.com/erp/edisync/internal/infrastructure/transport"
	"github.com/erp/edisync/internal/interfaces/http/handler"
	"github.com/erp/edisync/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = telemetry.BridgeLogger(log, providers.LoggerProvider(), cfg.Telemetry.ServiceName, zapcore.InfoLevel)

	log.Info("Starting EDI sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(ctx, &cfg.Database,
		persistence.WithGormLogger(gormLog),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}),
		persistence.WithLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	configRepo := persistence.NewGormSyncConfigRepository(db.DB)
	actionRepo := persistence.NewGormSyncActionRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	gateway, err := transport.NewGateway(transport.Config{
		DialTimeout:    cfg.Transport.DialTimeout,
		KnownHostsFile: cfg.Transport.KnownHostsFile,
		DisableEPSV:    cfg.Transport.DisableEPSV,
	}, transport.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create transport gateway", zap.Error(err))
	}

	metrics, err := syncmetrics.New(providers.Meter("edisync"))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	handlerOpts := []edisync.HandlerOption{
		edisync.WithMetrics(metrics),
		edisync.WithLogger(log),
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3Archive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create file archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare archive bucket", zap.Error(err))
		}
		handlerOpts = append(handlerOpts, edisync.WithArchive(archive))
		log.Info("Archiving exchanged files", zap.String("bucket", archive.Bucket()))
	}

	exporter := edisync.NewSaleOrderExporter(gateway, rowcodec.New(), edisync.ExportConfig{
		Window:   cfg.Exchange.ExportWindow,
		FileName: cfg.Exchange.ExportFileName,
	}, handlerOpts...)
	importer := edisync.NewSaleOrderImporter(gateway, rowcodec.New(rowcodec.WithCharset(cfg.Exchange.ImportCharset)), handlerOpts...)

	registry, err := edisync.NewRegistry(exporter, importer)
	if err != nil {
		log.Fatal("Failed to register document handlers", zap.Error(err))
	}
	dispatcher := edisync.NewDispatcher(registry, scope, actionRepo,
		edisync.WithDispatcherLogger(log),
		edisync.WithDispatcherMetrics(metrics),
		edisync.WithActionTimeout(cfg.Scheduler.ActionTimeout),
	)

	lock, err := cache.NewRunLockFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateLock()
	if err != nil {
		log.Fatal("Failed to create cycle lock", zap.Error(err))
	}
	if closer, ok := lock.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	trigger, err := scheduler.NewSyncTrigger(scheduler.SyncTriggerConfigFrom(cfg.Scheduler), dispatcher, lock,
		scheduler.WithTriggerLogger(log))
	if err != nil {
		log.Fatal("Failed to create sync trigger", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
	} else {
		log.Info("Scheduled sync disabled, cycles run on request only")
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfigFrom(cfg), log)
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	healthOpts := []handler.HealthOption{
		handler.WithHealthCheck("database", db.Ping),
		handler.WithCycleReporter(trigger),
	}
	if pinger, ok := lock.(interface{ Ping(context.Context) error }); ok {
		healthOpts = append(healthOpts, handler.WithHealthCheck("redis", pinger.Ping))
	}
	healthHandler := handler.NewHealthHandler(version, healthOpts...)
	engine.GET("/health", healthHandler.Health)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", healthHandler.Info)

	syncHandler := handler.NewSyncHandler(trigger, edisync.NewConnectionTester(configRepo, gateway, log))
	router.NewRouter(engine).
		Register(syncHandler).
		Register(systemRoutes).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := trigger.Stop(shutdownCtx); err != nil {
		log.Error("Sync trigger did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
