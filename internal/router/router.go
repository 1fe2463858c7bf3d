package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/pharmalink/marketplace-api/internal/handler"
	analyticshdl "github.com/pharmalink/marketplace-api/internal/handler/analytics"
	authhdl "github.com/pharmalink/marketplace-api/internal/handler/auth"
	carthdl "github.com/pharmalink/marketplace-api/internal/handler/cart"
	cataloghdl "github.com/pharmalink/marketplace-api/internal/handler/catalog"
	deliveryhdl "github.com/pharmalink/marketplace-api/internal/handler/delivery"
	navigationhdl "github.com/pharmalink/marketplace-api/internal/handler/navigation"
	orderhdl "github.com/pharmalink/marketplace-api/internal/handler/order"
	paymenthdl "github.com/pharmalink/marketplace-api/internal/handler/payment"
	permissionhdl "github.com/pharmalink/marketplace-api/internal/handler/permission"
	pharmacyhdl "github.com/pharmalink/marketplace-api/internal/handler/pharmacy"
	"github.com/pharmalink/marketplace-api/internal/middleware"
)

type Handlers struct {
	Auth       *authhdl.Handler
	Navigation *navigationhdl.Handler
	Pharmacy   *pharmacyhdl.Handler
	Catalog    *cataloghdl.Handler
	Cart       *carthdl.Handler
	Order      *orderhdl.Handler
	Delivery   *deliveryhdl.Handler
	Payment    *paymenthdl.Handler
	Permission *permissionhdl.Handler
	Analytics  *analyticshdl.Handler
	Ops        *handler.Handler
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Timeout    time.Duration
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  initRouterMetrics(),
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	// Public routes
	r.handlers.Auth.RegisterRoutes(api)
	r.handlers.Navigation.RegisterRoutes(api)
	r.handlers.Pharmacy.RegisterPublicRoutes(api)
	r.handlers.Catalog.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.handlers.Pharmacy.RegisterRoutes(protected, r.auth)
	r.handlers.Catalog.RegisterRoutes(protected, r.auth)
	r.handlers.Cart.RegisterRoutes(protected, r.auth)
	r.handlers.Order.RegisterRoutes(protected, r.auth)
	r.handlers.Delivery.RegisterRoutes(protected, r.auth)
	r.handlers.Payment.RegisterRoutes(protected, r.auth)
	r.handlers.Permission.RegisterRoutes(protected, r.auth)
	r.handlers.Analytics.RegisterRoutes(protected, r.auth)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.handlers.Ops.LivenessCheck)
		health.GET("/ready", r.handlers.Ops.ReadinessCheck)
		health.GET("/metrics", r.handlers.Ops.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
