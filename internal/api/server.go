package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presence/internal/attendance"
	"presence/internal/httpmiddleware"
	"presence/internal/identity"
)

// Options carries the server wiring.
type Options struct {
	Store        attendance.Store
	Service      *attendance.Service
	Provider     identity.Provider
	DeviceAPIKey string
	// HealthCheck reports backing-store reachability; nil means "report ok".
	HealthCheck func(c *gin.Context) (db bool, redis bool)
	// RateLimiter guards the public check-in endpoints; nil disables limiting.
	RateLimiter httpmiddleware.Limiter
}

// Server is the HTTP surface.
type Server struct {
	router *gin.Engine
	opts   Options
}

// NewServer builds the router with all middleware and routes installed.
func NewServer(opts Options) *Server {
	s := &Server{router: gin.New(), opts: opts}
	s.setupRouter()
	return s
}

// Handler exposes the router, for tests and the http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"}
	s.router.Use(cors.New(corsConfig))

	s.router.GET("/", s.banner)
	s.router.GET("/api/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/api/auth/login", s.login)

	public := s.router.Group("/")
	if s.opts.RateLimiter != nil {
		public.Use(httpmiddleware.GinMiddleware(s.opts.RateLimiter))
	}
	public.POST("/api/attendance", s.recordAttendance)
	public.POST("/api/device/attendance", deviceKeyAuth(s.opts.DeviceAPIKey), s.deviceAttendance)

	gated := s.router.Group("/api", requireBearer(s.opts.Provider))
	gated.GET("/users", s.listUsers)
	gated.POST("/users", s.createUser)
	gated.GET("/courses", s.listCourses)
	gated.POST("/courses", s.createCourse)
	gated.GET("/attendance", s.listAttendance)
	gated.GET("/stats", s.stats)
	gated.GET("/activities", s.listActivities)
}
