package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/afaf/accounts/docs"
	"github.com/afaf/accounts/internal/api/handler"
	"github.com/afaf/accounts/internal/api/middleware"
	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/ports"
	"github.com/afaf/accounts/internal/core/security"
)

// Dependencies are the already-constructed collaborators the router wires.
type Dependencies struct {
	Accounts  ports.AccountService
	Tokens    *security.TokenService
	Store     handler.Pinger
	StoreName string
	Redis     *redis.Client
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Accounts)
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	authn := middleware.Auth(deps.Tokens)

	// --- Public auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated routes ---
	e.GET("/auth/me", authHandler.Me, authn, middleware.RequireRole(domain.RoleUser))
	e.POST("/auth/change-password", authHandler.ChangePassword, authn, middleware.RequireRole(domain.RoleUser))

	admin := e.Group("/auth/admin", authn, middleware.RequireRole(domain.RoleAdmin))
	admin.POST("/create-user", authHandler.AdminCreate)
	admin.PATCH("/users/:id/role", authHandler.ChangeRole)

	e.GET("/users", accountHandler.List, authn, middleware.RequireRole(domain.RoleModerator))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.StoreName, deps.Store, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request. Errors are passed to the
// HTTP error handler first so the logged status is the one sent.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
