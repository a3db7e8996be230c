package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/handler/appointment"
	"github.com/aslima544/consultorio-api/internal/handler/auth"
	"github.com/aslima544/consultorio-api/internal/handler/dashboard"
	"github.com/aslima544/consultorio-api/internal/handler/doctor"
	"github.com/aslima544/consultorio-api/internal/handler/health"
	"github.com/aslima544/consultorio-api/internal/handler/patient"
	"github.com/aslima544/consultorio-api/internal/handler/procedure"
	"github.com/aslima544/consultorio-api/internal/handler/prometheus"
	"github.com/aslima544/consultorio-api/internal/handler/room"
	"github.com/aslima544/consultorio-api/internal/handler/schedule"
	"github.com/aslima544/consultorio-api/internal/handler/specialty"
	"github.com/aslima544/consultorio-api/internal/handler/user"
	"github.com/aslima544/consultorio-api/internal/middleware"
	"github.com/aslima544/consultorio-api/internal/model"
)

// Handlers groups every HTTP handler mounted under /api.
type Handlers struct {
	Auth        *auth.Handler
	Users       *user.Handler
	Patients    *patient.Handler
	Doctors     *doctor.Handler
	Procedures  *procedure.Handler
	Rooms       *room.Handler
	Specialties *specialty.Handler
	Schedule    *schedule.Handler
	Appointment *appointment.Handler
	Dashboard   *dashboard.Handler
	Health      *health.Handler
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodySize    int64
	CORSConfig     middleware.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *prometheus.Handler
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  prometheus.New(),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		r.metrics.Middleware(),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(config.MaxBodySize),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
	)

	if config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("route not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handler.NewErrorResponse("method not allowed"))
	})

	return r
}

// Setup mounts /metrics at the root and everything else under /api.
func (r *Router) Setup() *Router {
	r.engine.GET("/metrics", r.metrics.Handler())

	api := r.engine.Group("/api")
	h := r.handlers

	// Public routes
	h.Health.RegisterRoutes(api)
	h.Auth.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("", r.auth.Authenticate())
	admin := r.auth.RequireRole(model.RoleAdmin)

	h.Auth.RegisterRoutes(protected)
	h.Users.RegisterRoutes(protected, admin)
	h.Patients.RegisterRoutes(protected, admin)
	h.Doctors.RegisterRoutes(protected, admin)
	h.Procedures.RegisterRoutes(protected, admin)
	h.Rooms.RegisterRoutes(protected, admin)
	h.Specialties.RegisterRoutes(protected)
	h.Schedule.RegisterRoutes(protected, admin)
	h.Appointment.RegisterRoutes(protected, admin)
	h.Dashboard.RegisterRoutes(protected)

	return r
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// ServeHTTP lets the router be used directly as an http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
