package router

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	appidentity "github.com/salesflow/backend/internal/application/identity"
	"github.com/salesflow/backend/internal/infrastructure/config"
	"github.com/salesflow/backend/internal/infrastructure/logger"
	"github.com/salesflow/backend/internal/infrastructure/telemetry"
	"github.com/salesflow/backend/internal/interfaces/http/handler"
	"github.com/salesflow/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// TenantDirectory reports whether a tenant may use the API
type TenantDirectory interface {
	ActiveTenant(ctx context.Context, tenantID uuid.UUID) (*appidentity.TenantDTO, error)
}

// Options configures the HTTP surface
type Options struct {
	ServiceName string
	Version     string
	Env         string
	HTTP        config.HTTPConfig
	// RequestTimeout bounds every /api/v1 request; zero disables it
	RequestTimeout  time.Duration
	DefaultShipMode string
	TracingEnabled  bool
	// ProfilingEnabled labels /api/v1 requests for the continuous profiler
	ProfilingEnabled bool
	Logger           *zap.Logger
	Tokens           middleware.TokenValidator
	// Metrics and Gatherer are optional; a nil Gatherer hides /metrics
	Metrics      *telemetry.HTTPMetrics
	Gatherer     prometheus.Gatherer
	HealthChecks map[string]handler.HealthCheck
}

// Services holds the use cases exposed over HTTP
type Services struct {
	Orders  handler.OrderLifecycleService
	Stock   handler.StockLedgerService
	Tenants TenantDirectory
	// Manual enables the manual-carrier dev route outside production; may be nil
	Manual handler.ManualCarrier
}

// NewEngine assembles the gin engine: global middleware, health endpoints and the
// authenticated /api/v1 routes.
func NewEngine(opts Options, svc Services) (*gin.Engine, error) {
	if opts.Tokens == nil {
		return nil, errors.New("router: token validator is required")
	}
	if svc.Orders == nil || svc.Stock == nil || svc.Tenants == nil {
		return nil, errors.New("router: order, stock and tenant services are required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID feeds the request logger, and the tracing
	// span must exist before anything that annotates it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: opts.ServiceName,
		Enabled:     opts.TracingEnabled,
	}))
	engine.Use(middleware.HTTPMetrics(opts.Metrics))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = opts.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))

	systemHandler := handler.NewSystemHandler(opts.ServiceName, opts.Version)
	for name, check := range opts.HealthChecks {
		systemHandler.AddCheck(name, check)
	}
	engine.GET("/health", systemHandler.Health)
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator: opts.Tokens,
			Logger:    log,
		}),
		middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
			Validator: TenantValidator(svc.Tenants),
			Logger:    log,
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.Profiling(opts.ProfilingEnabled),
	)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	stockHandler := handler.NewStockHandler(svc.Stock)
	orderHandler := handler.NewOrderHandler(svc.Orders, opts.DefaultShipMode)

	manual := svc.Manual
	if opts.Env == "production" {
		manual = nil
	}
	shippingHandler := handler.NewShippingHandler(svc.Orders, opts.HTTP.WebhookSecret, manual)

	productRoutes := NewDomainGroup("products", "/products")
	productRoutes.POST("", stockHandler.CreateProduct)
	productRoutes.GET("/:id", stockHandler.GetProduct)
	productRoutes.POST("/:id/stock-adjustments", stockHandler.AdjustStock)
	productRoutes.GET("/:id/stock-adjustments", stockHandler.History)
	productRoutes.GET("/:id/integrity", stockHandler.VerifyIntegrity)
	productRoutes.POST("/:id/reconcile", stockHandler.Reconcile)

	inventoryRoutes := NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.GET("/integrity", stockHandler.VerifyTenant)

	orderRoutes := NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.POST("/bulk-status", orderHandler.BulkTransition)
	orderRoutes.GET("/:id", orderHandler.Get)
	orderRoutes.PATCH("/:id/status", orderHandler.Transition)
	orderRoutes.POST("/:id/return", orderHandler.Return)
	orderRoutes.POST("/:id/ship", orderHandler.Ship)
	orderRoutes.POST("/:id/invoice-printed", orderHandler.MarkInvoicePrinted)
	orderRoutes.POST("/:id/tracking/refresh", orderHandler.RefreshTracking)

	shippingRoutes := NewDomainGroup("shipping", "/shipping")
	shippingRoutes.POST("/rates", shippingHandler.GetRates)

	webhookRoutes := NewDomainGroup("webhooks", "/webhooks")
	webhookRoutes.POST("/tracking/:provider", shippingHandler.TrackingWebhook)

	r.Register(productRoutes).
		Register(inventoryRoutes).
		Register(orderRoutes).
		Register(shippingRoutes).
		Register(webhookRoutes)

	if manual != nil {
		devRoutes := NewDomainGroup("dev", "/dev")
		devRoutes.POST("/shipping/manual/:tracking/status", shippingHandler.SetManualStatus)
		r.Register(devRoutes)
		log.Info("Manual carrier dev route enabled", zap.String("env", opts.Env))
	}

	r.Setup()
	return engine, nil
}

// TenantValidator adapts a TenantDirectory to the tenant middleware
func TenantValidator(tenants TenantDirectory) middleware.TenantValidator {
	return middleware.TenantValidatorFunc(func(ctx context.Context, tenantID uuid.UUID) error {
		_, err := tenants.ActiveTenant(ctx, tenantID)
		return err
	})
}
