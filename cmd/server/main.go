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
	appaudit "github.com/opsledger/backend/internal/application/audit"
	appevent "github.com/opsledger/backend/internal/application/event"
	"github.com/opsledger/backend/internal/application/identity"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/application/records"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"github.com/opsledger/backend/internal/infrastructure/auth"
	"github.com/opsledger/backend/internal/infrastructure/cache"
	"github.com/opsledger/backend/internal/infrastructure/config"
	"github.com/opsledger/backend/internal/infrastructure/event"
	"github.com/opsledger/backend/internal/infrastructure/logger"
	"github.com/opsledger/backend/internal/infrastructure/persistence"
	"github.com/opsledger/backend/internal/infrastructure/telemetry"
	"github.com/opsledger/backend/internal/interfaces/http/handler"
	"github.com/opsledger/backend/internal/interfaces/http/middleware"
	"github.com/opsledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Second logger also exports to the collector when log export is on
	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(providers.Logs, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting opsledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	meter := providers.Meter.Meter("opsledger")
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}

	// Repositories
	operatorRepo := persistence.NewGormOperatorRepository(db.DB)
	paymentRepo := persistence.NewGormPayrollPaymentRepository(db.DB)
	vacationRepo := persistence.NewGormVacationPeriodRepository(db.DB)
	bonusRepo := persistence.NewGormBonusInstallmentRepository(db.DB)
	maintenanceRepo := persistence.NewGormMaintenanceTaskRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Events: the engine writes audit events to the outbox, the processor
	// delivers them to the bus.
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(db.DB, serializer)

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cfg.Event.RequireRedis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	eventBus := event.NewInMemoryEventBus(log)
	idempotencyCfg := shared.DefaultIdempotencyConfig()
	idempotencyCfg.TTL = cfg.Event.IdempotencyTTL
	auditHandler := event.NewIdempotentHandler(
		appaudit.NewRecordChangedHandler(auditRepo, log),
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(idempotencyCfg),
	)
	eventBus.Subscribe(auditHandler)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorCfg := event.DefaultOutboxProcessorConfig()
		processorCfg.BatchSize = cfg.Event.BatchSize
		processorCfg.PollInterval = cfg.Event.PollInterval
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		processorCfg.CleanupRetention = cfg.Event.CleanupRetention
		processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorCfg, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorCfg.BatchSize),
			zap.Duration("poll_interval", processorCfg.PollInterval),
		)
	}

	// Reconciliation engine
	currency := valueobject.Currency(cfg.Reconciliation.Currency)
	locale, err := language.Parse(cfg.Reconciliation.Locale)
	if err != nil {
		log.Warn("Invalid reconciliation locale, using pt-BR",
			zap.String("locale", cfg.Reconciliation.Locale), zap.Error(err))
		locale = language.BrazilianPortuguese
	}
	engineOpts := []reconciliation.EngineOption{
		reconciliation.WithRules(settlement.NewRules(locale, currency)),
	}
	var metrics reconciliation.Metrics
	if reconMetrics, err := telemetry.NewReconciliationMetrics(meter, log); err != nil {
		log.Warn("Reconciliation metrics disabled", zap.Error(err))
	} else {
		reconMetrics.StartOutboxCollection(ctx, outboxRepo, cfg.Telemetry.MetricsInterval)
		defer reconMetrics.Stop()
		metrics = reconMetrics
		engineOpts = append(engineOpts, reconciliation.WithMetrics(reconMetrics))
	}

	txScope := persistence.NewGormTransactionScope(db.DB)
	policy := fleet.DefaultRecurrencePolicy()
	policy.FallbackMonths = cfg.Reconciliation.RecurrenceFallbackMonths
	recurrence := reconciliation.NewRecurrenceGenerator(txScope, policy, outboxPublisher, metrics, log)
	engineOpts = append(engineOpts, reconciliation.WithRecurrence(recurrence))
	engine := reconciliation.NewEngine(txScope, outboxPublisher, log, engineOpts...)

	recordsService := records.NewService(engine, records.Repositories{
		Payments:    paymentRepo,
		Vacations:   vacationRepo,
		Bonuses:     bonusRepo,
		Maintenance: maintenanceRepo,
		Ledger:      ledgerRepo,
	}, currency, log)

	// Identity
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist
	if redisClient, err := cache.NewRedisClient(ctx, cfg.Redis); err == nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient, auth.DefaultBlacklistPrefix)
		defer func() { _ = redisClient.Close() }()
	} else {
		log.Warn("Redis unavailable, token revocation is kept in memory", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	authConfig := identity.DefaultAuthServiceConfig()
	authConfig.InvalidationTTL = max(authConfig.InvalidationTTL, cfg.JWT.RefreshTokenExpiration)
	authService := identity.NewAuthService(operatorRepo, jwtService, blacklist, authConfig, log)

	authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.AuthRateLimitWindow)
	authLimiter.StartCleanup(ctx)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engineHTTP := router.New(router.Options{
		Logger:  log,
		HTTP:    cfg.HTTP,
		Tracing: middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		Meter:   meter,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
		},
		Verifier:    authService,
		AuthLimiter: authLimiter,
	}, router.Handlers{
		Payroll:      handler.NewPayrollHandler(recordsService),
		Vacation:     handler.NewVacationHandler(recordsService),
		YearEndBonus: handler.NewYearEndBonusHandler(recordsService),
		Maintenance:  handler.NewMaintenanceHandler(recordsService),
		StatusChange: handler.NewStatusChangeHandler(recordsService),
		Ledger:       handler.NewLedgerHandler(recordsService),
		Auth:         handler.NewAuthHandler(authService),
		System:       handler.NewSystemHandler(cfg.App.Name, version, db),
		Outbox:       handler.NewOutboxHandler(appevent.NewOutboxService(outboxRepo, log)),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engineHTTP,
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

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	log.Info("Server exited")
}
