package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unihealth/care-api/internal/middleware"
	"github.com/unihealth/care-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AuthHandler exposes public login routes plus routes needing a token.
type AuthHandler interface {
	Handler
	RegisterProtectedRoutes(*gin.RouterGroup)
}

// Handlers lists every route group the API serves.
type Handlers struct {
	Auth        AuthHandler
	Health      Handler
	User        Handler
	Patient     Handler
	Appointment Handler
	Alert       Handler
	Medical     Handler
	Catalog     Handler
	Audit       Handler
	Realtime    Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
	gatherer prometheus.Gatherer
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	RateLimit      float64
	RateBurst      int
	RequestTimeout time.Duration
	CORSConfig     middleware.CORSConfig
	MaxBodySize    int64
	MaxUploadBytes int64
	MetricsPrefix  string
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Production bool
}

const (
	realtimePath = "/ws/alerts"
	uploadPath   = "/api/attachments"
)

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	engine := gin.New()
	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  initRouterMetrics(config.MetricsPrefix, config.Registerer),
		gatherer: config.Gatherer,
	}

	timeout := middleware.DefaultTimeoutConfig()
	if config.RequestTimeout > 0 {
		timeout.Duration = config.RequestTimeout
	}
	timeout.SkipPaths = []string{realtimePath}

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.MaxBodySize > 0 {
		sizeLimit.MaxBodySize = config.MaxBodySize
	}
	// multipart overhead on top of the file itself
	sizeLimit.Overrides = map[string]int64{uploadPath: config.MaxUploadBytes + 1<<20}

	security := middleware.DefaultSecurityConfig()
	security.NoStore = true

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   config.RateLimit,
		Burst: config.RateBurst,
	})

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(timeout),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(security),
		rateLimiter.RateLimit(),
		middleware.SizeLimit(sizeLimit),
		middleware.AuditClient(),
	)

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api")
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)

	ws := r.engine.Group("/ws")
	ws.Use(r.auth.AuthenticateQuery(), r.auth.RequirePermission(model.PermRealtimeSubscribe))
	r.handlers.Realtime.RegisterRoutes(ws)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.handlers.Health.RegisterRoutes(rg)
	r.handlers.Auth.RegisterRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.handlers.Auth.RegisterProtectedRoutes(rg)
	r.handlers.User.RegisterRoutes(rg)
	r.handlers.Patient.RegisterRoutes(rg)
	r.handlers.Appointment.RegisterRoutes(rg)
	r.handlers.Alert.RegisterRoutes(rg)
	r.handlers.Medical.RegisterRoutes(rg)
	r.handlers.Catalog.RegisterRoutes(rg)

	audit := rg.Group("")
	audit.Use(r.auth.RequirePermission(model.PermAuditRead))
	r.handlers.Audit.RegisterRoutes(audit)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	if prefix == "" {
		prefix = "care"
	}
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	reg.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		switch {
		case c.Writer.Status() >= 500:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		case c.Writer.Status() >= 400:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
