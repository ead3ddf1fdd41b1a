package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinical-backend/internal/shared/config"
	"clinical-backend/internal/shared/metrics"
	"clinical-backend/internal/shared/server/middleware"
)

// Options configures the shared engine every application handler builds on.
type Options struct {
	Handler string
	CORS    []string
	Limiter middleware.Limiter
	Rules   map[string]middleware.RateLimitRule
}

// OptionsFromConfig derives engine options for the named handler.
func OptionsFromConfig(cfg config.Config, handler string, limiter middleware.Limiter) Options {
	return Options{
		Handler: handler,
		CORS:    cfg.CORSAllowOrigin,
		Limiter: limiter,
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		},
	}
}

// NewEngine constructs the Gin engine with middleware and the /metrics route.
// Callers register their own routes on the returned engine. The gin mode is
// left to the process entry point.
func NewEngine(opts Options) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(opts.Handler),
		middleware.Recovery(),
		middleware.CORS(opts.CORS),
	)
	if len(opts.Rules) > 0 {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   opts.Rules,
			Limiter: opts.Limiter,
			GroupFor: func(c *gin.Context) string {
				// Probes and scrapes are never limited.
				switch c.FullPath() {
				case "/health", "/metrics":
					return "UNLIMITED"
				}
				return ""
			},
		}))
	}

	r.GET("/metrics", metrics.Handler())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "route not found"}})
	})
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":" + config.DefaultPort
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
