package router

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/infrastructure/config"
	"github.com/opsledger/backend/internal/infrastructure/logger"
	"github.com/opsledger/backend/internal/interfaces/http/handler"
	"github.com/opsledger/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by New
type Handlers struct {
	Payroll      *handler.PayrollHandler
	Vacation     *handler.VacationHandler
	YearEndBonus *handler.YearEndBonusHandler
	Maintenance  *handler.MaintenanceHandler
	StatusChange *handler.StatusChangeHandler
	Ledger       *handler.LedgerHandler
	Auth         *handler.AuthHandler
	System       *handler.SystemHandler
	Outbox       *handler.OutboxHandler
}

// Options configure the middleware chain
type Options struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// Meter may be nil when telemetry is disabled
	Meter metric.Meter
	// JWT must carry the service and blacklist; skip paths are filled in
	JWT      middleware.JWTMiddlewareConfig
	Verifier middleware.SensitiveActionVerifier
	// AuthLimiter throttles login and refresh; nil disables throttling
	AuthLimiter *middleware.RateLimiter
}

// New builds the gin engine. Middleware order:
//
//	RequestID -> Recovery -> access log -> Secure -> CORS -> BodyLimit -> Timeout
//	-> Tracing -> HTTPMetrics, then under /api/v1:
//	JWT -> SpanEnricher -> SensitiveConfirmation
func New(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = opts.HTTP.CORSAllowOrigins

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(opts.HTTP.HSTSMaxAge),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
		middleware.Timeout(opts.HTTP.RequestTimeout),
		middleware.Tracing(opts.Tracing),
		middleware.HTTPMetrics(opts.Meter),
	)

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))

	jwtConfig := opts.JWT
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths,
		r.Prefix()+"/auth/login",
		r.Prefix()+"/auth/refresh",
	)
	if jwtConfig.Logger == nil {
		jwtConfig.Logger = log
	}
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.SpanEnricher(),
		middleware.SensitiveConfirmation(opts.Verifier, log),
	)

	r.Register(
		payrollRoutes(h),
		fleetRoutes(h),
		financeRoutes(h),
		reconciliationRoutes(h),
		authRoutes(h, opts.AuthLimiter),
		systemRoutes(h),
	)
	r.Setup()

	return engine
}

func payrollRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("payroll", "/payroll")

	g.Group("payments", "/payments").
		POST("", h.Payroll.Create).
		GET("", h.Payroll.List).
		GET("/:id", h.Payroll.GetByID).
		PUT("/:id", h.Payroll.Update).
		DELETE("/:id", h.Payroll.Delete)

	g.Group("vacations", "/vacations").
		POST("", h.Vacation.Schedule).
		GET("", h.Vacation.List).
		GET("/:id", h.Vacation.GetByID).
		PUT("/:id", h.Vacation.Update).
		DELETE("/:id", h.Vacation.Delete)

	g.Group("year-end-bonuses", "/year-end-bonuses").
		POST("", h.YearEndBonus.Generate).
		GET("", h.YearEndBonus.List).
		GET("/:id", h.YearEndBonus.GetByID).
		PUT("/:id/installments", h.YearEndBonus.UpdateInstallments).
		DELETE("/:id", h.YearEndBonus.Delete)

	return g
}

func fleetRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("fleet", "/fleet")
	g.Group("maintenance", "/maintenance").
		POST("", h.Maintenance.Schedule).
		GET("", h.Maintenance.List).
		GET("/:id", h.Maintenance.GetByID).
		PUT("/:id", h.Maintenance.Update).
		DELETE("/:id", h.Maintenance.Delete)
	return g
}

func financeRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("finance", "/finance").
		GET("/ledger", h.Ledger.List).
		GET("/ledger/:id", h.Ledger.GetByID).
		GET("/cash-flow", h.Ledger.CashFlow)
}

func reconciliationRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("reconciliation", "/reconciliation").
		POST("/status-changes", h.StatusChange.Apply)
}

func authRoutes(h Handlers, limiter *middleware.RateLimiter) *DomainGroup {
	throttle := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		throttle = middleware.RateLimit(limiter)
	}
	return NewDomainGroup("auth", "/auth").
		POST("/login", throttle, h.Auth.Login).
		POST("/refresh", throttle, h.Auth.RefreshToken).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.CurrentOperator).
		PUT("/password", h.Auth.ChangePassword)
}

func systemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	g.Group("outbox", "/outbox").
		GET("/dead", h.Outbox.GetDeadLetterEntries).
		GET("/stats", h.Outbox.GetStats).
		GET("/entries/:id", h.Outbox.GetEntry).
		POST("/entries/:id/retry", h.Outbox.RetryEntry).
		POST("/retry-all", h.Outbox.RetryAll)
	return g
}
