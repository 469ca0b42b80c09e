package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	identityapp "github.com/pontos/backend/internal/application/identity"
	loyaltyapp "github.com/pontos/backend/internal/application/loyalty"
	"github.com/pontos/backend/internal/domain/identity"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/infrastructure/auth"
	"github.com/pontos/backend/internal/infrastructure/cache"
	"github.com/pontos/backend/internal/infrastructure/config"
	"github.com/pontos/backend/internal/infrastructure/email"
	"github.com/pontos/backend/internal/infrastructure/event"
	"github.com/pontos/backend/internal/infrastructure/logger"
	"github.com/pontos/backend/internal/infrastructure/persistence"
	"github.com/pontos/backend/internal/infrastructure/storage"
	"github.com/pontos/backend/internal/infrastructure/telemetry"
	"github.com/pontos/backend/internal/interfaces/http/handler"
	"github.com/pontos/backend/internal/interfaces/http/middleware"
	"github.com/pontos/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/pontos/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Pontos API
//	@version		1.0
//	@description	Programa de fidelidade por CPF: registro de pontos, ranking de clientes e perfis.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OTLP log export is tee'd into the zap core once the provider is up
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		log, err = logger.New(logCfg, logProvider.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Pontos backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeURL,
		ApplicationName: cfg.Telemetry.ServiceName,
		Memory:          true,
		Goroutines:      true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.IncludeQueryVariables = !cfg.IsProduction()
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	kv := newKeyValueStores(ctx, cfg, log)
	defer kv.Close()

	photos, photoHandler := newPhotoStorage(ctx, cfg, log)
	mailer := newMailer(cfg, log)

	// Event bus: audit log plus loyalty metrics
	meter := meterProvider.Meter("pontos")
	loyaltyMetrics, err := telemetry.NewLoyaltyMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to create loyalty metrics", zap.Error(err))
	}
	bus := event.NewInMemoryEventBus(log)
	audit := event.NewAuditLogHandler(log)
	bus.Subscribe(audit, audit.EventTypes()...)
	pointsMetrics := event.NewIdempotentHandler("points-metrics",
		event.NewPointsMetricsHandler(loyaltyMetrics), kv.idempotency, 24*time.Hour, log)
	bus.Subscribe(pointsMetrics, pointsMetrics.EventTypes()...)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	transactionRepo := persistence.NewGormPointsTransactionRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	loyaltyMetrics.StartPeriodicCollection(ctx, customerRepo, cfg.Telemetry.MetricsInterval)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, kv.resetStore, jwtService, kv.blacklist, mailer, bus,
		identityapp.AuthServiceConfig{
			MaxLoginAttempts: cfg.Loyalty.MaxLoginAttempts,
			LockDuration:     cfg.Loyalty.LoginLockDuration,
			PasswordResetTTL: cfg.Loyalty.PasswordResetTTL,
			ResetURL:         cfg.App.BaseURL + "/redefinir-senha",
		}, log)

	pointsConfig := loyaltyapp.DefaultPointsServiceConfig()
	pointsConfig.MaxPointsPerRegistration = cfg.Loyalty.MaxPointsPerRegistration
	pointsConfig.MaxPageSize = cfg.Loyalty.RankingMaxPageSize
	pointsService := loyaltyapp.NewPointsService(customerRepo, transactionRepo, txManager, kv.idempotency, bus, pointsConfig, log)
	customerService := loyaltyapp.NewCustomerService(customerRepo, transactionRepo, txManager, bus, cfg.Loyalty.RankingMaxPageSize, log)
	profileService := loyaltyapp.NewProfileService(customerRepo, userRepo, photos, txManager, bus, log)

	// HTTP
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	var redisPinger handler.Pinger
	if kv.redis != nil {
		redisPinger = handler.PingFunc(func(ctx context.Context) error { return kv.redis.Ping(ctx).Err() })
	}

	engine, err := router.New(router.Options{
		HTTP:             cfg.HTTP,
		Swagger:          cfg.Swagger,
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		Logger:           log,
		Meter:            meter,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: kv.blacklist,
			Logger:         log,
		},
		AuthLimiter:    kv.authLimiter,
		SwaggerHandler: ginSwagger.WrapHandler(swaggerFiles.Handler),
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		CPF:       handler.NewCPFHandler(),
		Points:    handler.NewPointsHandler(pointsService),
		Customers: handler.NewCustomerHandler(customerService, pointsService),
		Profile:   handler.NewProfileHandler(profileService, cfg.Storage.MaxPhotoSize),
		Health: handler.NewHealthHandler(handler.PingFunc(func(context.Context) error {
			return db.Ping()
		}), redisPinger),
		Photos: photoHandler,
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()
	loyaltyMetrics.Stop()
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Profiler stop failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Log provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
}

// keyValueStores are the Redis-backed stores, or their in-memory fallbacks
// when Redis is not configured
type keyValueStores struct {
	redis       *redis.Client
	blacklist   auth.TokenBlacklist
	resetStore  identity.PasswordResetStore
	idempotency shared.IdempotencyStore
	authLimiter middleware.Limiter
	closers     []func() error
}

func newKeyValueStores(ctx context.Context, cfg *config.Config, log *zap.Logger) *keyValueStores {
	kv := &keyValueStores{}
	limit, window := cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow

	if cfg.Redis.Host != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		kv.redis = client
		kv.blacklist = auth.NewRedisTokenBlacklist(client)
		kv.resetStore = cache.NewRedisPasswordResetStore(client)
		kv.idempotency = cache.NewRedisIdempotencyStore(client, "")
		if cfg.HTTP.AuthRateLimitEnabled {
			kv.authLimiter = cache.NewRedisRateLimiter(client, "auth", limit, window)
		}
		kv.closers = append(kv.closers, client.Close)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		return kv
	}

	log.Warn("Redis not configured, using in-memory stores")
	kv.blacklist = auth.NewInMemoryTokenBlacklist()
	resets := cache.NewInMemoryPasswordResetStore()
	idem := cache.NewInMemoryIdempotencyStore()
	kv.resetStore = resets
	kv.idempotency = idem
	kv.closers = append(kv.closers, resets.Close, idem.Close)
	if cfg.HTTP.AuthRateLimitEnabled {
		limiter := middleware.NewRateLimiter(limit, window)
		kv.authLimiter = limiter
		kv.closers = append(kv.closers, func() error { limiter.Stop(); return nil })
	}
	return kv
}

func (kv *keyValueStores) Close() {
	for _, closeFn := range kv.closers {
		_ = closeFn()
	}
}

// newPhotoStorage returns the photo store and, for the in-memory store, the
// handler that serves its URLs
func newPhotoStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (loyaltyapp.PhotoStorage, *handler.PhotoHandler) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, profile photos are kept in memory")
		memory := storage.NewMemoryObjectStorage(cfg.App.BaseURL + handler.PhotoRoutePrefix)
		return memory, handler.NewPhotoHandler(memory)
	}
	s3, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare storage bucket", zap.Error(err), zap.String("bucket", s3.GetBucket()))
	}
	return s3, nil
}

func newMailer(cfg *config.Config, log *zap.Logger) email.Sender {
	if cfg.Email.SendGridAPIKey == "" {
		log.Warn("SendGrid not configured, emails are written to the log")
		return email.NewLogSender(log)
	}
	return email.NewSendGridSender(cfg.Email.SendGridAPIKey, "", cfg.App.Name, cfg.Email.FromName, cfg.Email.FromAddress, log)
}
