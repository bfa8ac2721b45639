package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/api/handler"
	"github.com/smartretail/storefront/internal/api/middleware"
	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/sandbox"
)

// Options configures the sandbox router.
type Options struct {
	JWTSecret string
	Logger    zerolog.Logger
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// Checks are run by GET /health/ready.
	Checks map[string]handler.HealthCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(store *sandbox.Store, auth *sandbox.Authenticator, opts Options) *echo.Echo {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLoggerMiddleware(opts.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "sandbox",
		Registerer: opts.Registerer,
	}))

	requireAuth := middleware.Auth(opts.JWTSecret)
	adminOnly := middleware.RBAC("Admins only", domain.RoleAdmin)

	// --- Auth service ---
	authHandler := handler.NewAuthHandler(auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, requireAuth)
	users := e.Group("/auth/users", requireAuth, adminOnly)
	users.GET("", authHandler.ListUsers)
	users.PUT("/:id/role", authHandler.UpdateRole)
	users.PUT("/:id/deactivate", authHandler.Deactivate)
	users.DELETE("/:id", authHandler.Delete)

	// --- Product service ---
	productHandler := handler.NewProductHandler(store)
	e.GET("/products/", productHandler.List)
	e.GET("/products/:id", productHandler.Get)
	e.PUT("/products/:id/stock", productHandler.UpdateStock)
	e.POST("/products/", productHandler.Create, requireAuth, adminOnly)
	e.POST("/products/bulk", productHandler.BulkCreate, requireAuth, adminOnly)
	e.PUT("/products/:id", productHandler.Update, requireAuth, adminOnly)
	e.DELETE("/products/:id", productHandler.Delete, requireAuth, adminOnly)

	// --- Order service ---
	orderHandler := handler.NewOrderHandler(store)
	orders := e.Group("/orders", requireAuth)
	orders.POST("/", orderHandler.Place)
	orders.GET("/", orderHandler.Mine)
	orders.GET("/all", orderHandler.All, adminOnly)
	orders.GET("/:id", orderHandler.Get)
	orders.PUT("/:id/cancel", orderHandler.Cancel)
	orders.PUT("/:id/status", orderHandler.UpdateStatus, adminOnly)

	// --- Payment service ---
	paymentHandler := handler.NewPaymentHandler(store)
	payments := e.Group("/payments", requireAuth)
	payments.POST("/initiate", paymentHandler.Initiate)
	payments.POST("/offline", paymentHandler.SubmitOffline)
	payments.POST("/:id/verify", paymentHandler.Verify, adminOnly)
	payments.GET("/mine", paymentHandler.Mine)
	payments.GET("/", paymentHandler.List, adminOnly)
	payments.GET("/stats", paymentHandler.Stats, adminOnly)
	payments.GET("/by-order/:order_id", paymentHandler.ByOrder)
	payments.GET("/:id", paymentHandler.Get)

	// --- Analytics service (read-only reporting, no auth) ---
	analyticsHandler := handler.NewAnalyticsHandler(store)
	analytics := e.Group("/analytics")
	analytics.GET("/sales-summary", analyticsHandler.SalesSummary)
	analytics.GET("/top-products", analyticsHandler.TopProducts)
	analytics.GET("/conversion-funnel", analyticsHandler.ConversionFunnel)
	analytics.GET("/forecast", analyticsHandler.Forecast)
	analytics.POST("/forecast/rebuild", analyticsHandler.RebuildForecast)
	analytics.GET("/reports/sales", analyticsHandler.SalesReport)
	analytics.GET("/reports/sales.csv", analyticsHandler.SalesReportCSV)
	analytics.GET("/stock/status", analyticsHandler.StockStatus)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler(opts.Checks)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))

	return e
}

// requestLoggerMiddleware writes one zerolog line per request.
func requestLoggerMiddleware(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
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
