package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pontos/backend/internal/infrastructure/config"
	"github.com/pontos/backend/internal/infrastructure/logger"
	"github.com/pontos/backend/internal/interfaces/http/handler"
	"github.com/pontos/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by New
type Handlers struct {
	Auth      *handler.AuthHandler
	CPF       *handler.CPFHandler
	Points    *handler.PointsHandler
	Customers *handler.CustomerHandler
	Profile   *handler.ProfileHandler
	Health    *handler.HealthHandler
	// Photos serves in-memory profile photos. Nil when photos live in S3.
	Photos *handler.PhotoHandler
}

// Options configures the engine built by New
type Options struct {
	HTTP             config.HTTPConfig
	Swagger          config.SwaggerConfig
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool
	Logger           *zap.Logger
	// Meter records HTTP server metrics. Nil disables them.
	Meter metric.Meter
	JWT   middleware.JWTMiddlewareConfig
	// AuthLimiter throttles the unauthenticated auth routes. Nil disables it.
	AuthLimiter middleware.Limiter
	// SwaggerHandler serves /swagger/*any. Nil leaves the route unmounted.
	SwaggerHandler gin.HandlerFunc
}

// New builds the gin engine with the global middleware stack and every route
func New(opts Options, h Handlers) (*gin.Engine, error) {
	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(opts.ServiceName, opts.TracingEnabled)...)
	engine.Use(logger.Recovery(opts.Logger))
	engine.Use(logger.GinMiddleware(opts.Logger))

	httpMetrics, err := middleware.HTTPMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}
	engine.Use(httpMetrics)
	engine.Use(middleware.Profiling(opts.ProfilingEnabled))

	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(opts.HTTP)))
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.Health.Check)
	if h.Photos != nil {
		engine.GET(handler.PhotoRoutePrefix+"/*key", h.Photos.Get)
	}

	authRequired := middleware.JWTAuthMiddleware(opts.JWT)
	if opts.SwaggerHandler != nil {
		engine.GET("/swagger/*any", middleware.SwaggerProtection(opts.Swagger, authRequired), opts.SwaggerHandler)
	}

	r := NewRouter(engine)
	r.Register(authRoutes(h.Auth, authRequired, opts))
	r.Register(cpfRoutes(h.CPF))
	r.Register(pointsRoutes(h.Points, authRequired))
	r.Register(customerRoutes(h.Customers, authRequired))
	r.Register(profileRoutes(h.Profile, authRequired))
	r.Setup()

	return engine, nil
}

func authRoutes(h *handler.AuthHandler, authRequired gin.HandlerFunc, opts Options) *DomainGroup {
	auth := NewDomainGroup("auth", "/auth")

	public := auth.Group("auth-public", "")
	if opts.AuthLimiter != nil {
		public.Use(middleware.RateLimit(opts.AuthLimiter, middleware.ClientIPKey, opts.Logger))
	}
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.RefreshToken)
	public.POST("/password-reset", h.RequestPasswordReset)
	public.POST("/password-reset/confirm", h.ConfirmPasswordReset)

	auth.Group("auth-session", "").
		Use(authRequired).
		POST("/logout", h.Logout).
		GET("/me", h.GetCurrentUser)

	return auth
}

func cpfRoutes(h *handler.CPFHandler) *DomainGroup {
	return NewDomainGroup("cpf", "/cpf").
		GET("/validate", h.Validate).
		GET("/format", h.Format)
}

func pointsRoutes(h *handler.PointsHandler, authRequired gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("points", "/points").
		Use(authRequired).
		POST("", h.AddPoints)
}

func customerRoutes(h *handler.CustomerHandler, authRequired gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("customers", "/customers").
		Use(authRequired).
		GET("", h.List).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		GET("/:id/transactions", h.ListTransactions)
}

func profileRoutes(h *handler.ProfileHandler, authRequired gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("profile", "/profile").
		Use(authRequired).
		GET("", h.Get).
		PUT("", h.Update)
}
