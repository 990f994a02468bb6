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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	app "github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/application/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/cache"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/config"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/event"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/logger"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/persistence"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/pms"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/scheduler"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/storage"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/telemetry"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/handler"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/middleware"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// closer is one shutdown step, run in reverse order of registration
type closer struct {
	name string
	fn   func(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) (err error) {
	ctx := context.Background()
	var closers []closer
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i].fn(shutdownCtx); cerr != nil {
				log.Error("Shutdown step failed", zap.String("component", closers[i].name), zap.Error(cerr))
				err = multierr.Append(err, cerr)
			}
		}
	}()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, closer{"tracer", tracerProvider.Shutdown})

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	closers = append(closers, closer{"meter", meterProvider.Shutdown})

	if cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled {
		logProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
		if err != nil {
			return err
		}
		closers = append(closers, closer{"logs", logProvider.Shutdown})
		log = logProvider.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	}

	log.Info("Starting PMS sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log,
		LogLevel:      cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		},
	})
	if err != nil {
		return err
	}
	closers = append(closers, closer{"database", func(context.Context) error { return db.Close() }})
	log.Info("Database connected successfully")

	connections, err := cfg.ConnectionConfigs()
	if err != nil {
		return err
	}
	clientMetrics := pms.NewClientMetrics()
	registry, err := pms.BuildRegistry(connections, pms.Dependencies{
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Metrics:    clientMetrics,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	log.Info("PMS adapters registered", zap.Int("connections", len(connections)))

	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore(ctx)
	if err != nil {
		return err
	}
	closers = append(closers, closer{"idempotency", func(context.Context) error { return idempotency.Close() }})

	notifier, notifierClose, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	if notifierClose != nil {
		closers = append(closers, closer{"kafka", func(context.Context) error { return notifierClose() }})
	}

	var archive integration.PayloadArchive
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3PayloadArchive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return err
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			return err
		}
		archive = s3Archive
		log.Info("Webhook payload archive enabled", zap.String("bucket", s3Archive.Bucket()))
	}

	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("pms-sync"))
	if err != nil {
		return err
	}
	bookings, rooms, guests := db.Stores()
	service := app.NewSyncService(app.SyncServiceConfig{
		Registry:      registry,
		Reconciler:    app.NewReconciler(bookings, rooms, guests),
		Notifier:      notifier,
		Idempotency:   idempotency,
		Archive:       archive,
		Authenticator: pms.SignatureAuthenticator{Secrets: registry, Require: cfg.Webhook.RequireSignature},
		Metrics:       syncMetrics,
		DedupeTTL:     cfg.Webhook.DedupeTTL,
		Logger:        log,
	})

	var syncScheduler *scheduler.SyncScheduler
	if cfg.Scheduler.Enabled {
		syncScheduler, err = startScheduler(ctx, cfg, service, log)
		if err != nil {
			return err
		}
		closers = append(closers, closer{"scheduler", syncScheduler.Stop})
	}

	engine, err := buildEngine(cfg, log, tracerProvider, meterProvider)
	if err != nil {
		return err
	}

	webhookMiddleware := []gin.HandlerFunc{middleware.BodyLimit(cfg.Webhook.MaxBodySize)}
	if cfg.Webhook.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.Webhook.RateLimit)
		webhookMiddleware = append(webhookMiddleware, middleware.RateLimitByKey(limiter, middleware.HotelProviderKey))
		log.Info("Webhook rate limiting enabled", zap.Int("per_minute", cfg.Webhook.RateLimit))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, registry, map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return db.DB.WithContext(ctx).Exec("SELECT 1").Error },
	})
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.PMSGroups(handler.NewPMSHandler(service), webhookMiddleware...)...)
	if syncScheduler != nil {
		r.Register(router.SchedulerGroups(handler.NewSchedulerHandler(syncScheduler))...)
	}
	r.Register(router.SystemGroup(systemHandler))
	r.Setup()
	router.RegisterOperational(engine, systemHandler, clientMetrics.Handler())

	return serve(cfg, engine, log)
}

// buildNotifier fans notifications out to the in-process bus and, when enabled, Kafka
func buildNotifier(cfg *config.Config, log *zap.Logger) (integration.Notifier, func() error, error) {
	bus := event.NewInMemoryBus(log)
	bus.Subscribe(event.NewLogHandler(log))
	if !cfg.Kafka.Enabled {
		return bus, nil, nil
	}
	kafka, err := event.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Kafka notifications enabled",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)
	return event.Fanout{bus, kafka}, kafka.Close, nil
}

func startScheduler(ctx context.Context, cfg *config.Config, service *app.SyncService, log *zap.Logger) (*scheduler.SyncScheduler, error) {
	schedulerCfg, err := scheduler.NewSyncSchedulerConfig(cfg.Scheduler)
	if err != nil {
		return nil, err
	}
	s, err := scheduler.NewSyncScheduler(service, schedulerCfg, log)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	log.Info("Sync scheduler started",
		zap.Int("workers", schedulerCfg.Workers),
		zap.Int("scheduled_jobs", len(schedulerCfg.Jobs)),
	)
	return s, nil
}

func buildEngine(cfg *config.Config, log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(mp.Meter("pms-sync/http"))
	if err != nil {
		return nil, err
	}
	// RequestID first so logs, panics and spans all carry it
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(httpMetrics)
	return engine, nil
}

func serve(cfg *config.Config, engine *gin.Engine, log *zap.Logger) error {
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}
