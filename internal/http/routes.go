package http

import (
	"net/http"
	"strings"

	"product_transactions/internal/config"
	"product_transactions/internal/http/handlers"
	"product_transactions/internal/http/middleware"
	"product_transactions/internal/ws"
	"product_transactions/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps are the components the router dispatches to
type Deps struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Hub     *ws.Hub
	// Redis is optional; limiters fall back to in-process counters
	Redis *redis.Client
}

const (
	seedRateLimit = 2
)

func RegisterRoutes(r *gin.Engine, d Deps, cfg *config.Config) {
	var counter middleware.RedisCounter
	if d.Redis != nil {
		counter = d.Redis
	}

	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(counter, cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(api, d.Handler)

	if cfg.SeedEndpointEnabled {
		api.POST("/seed", middleware.SeedRateLimit(counter, seedRateLimit, cfg.APIRateWindow), d.Handler.Seed)
	}

	// dataset change notifications
	r.GET("/ws", ws.HandleWS(d.Hub, cfg.AllowedOrigin))

	// Frontend static files
	index := web.IndexHTML()
	serveIndex := func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	}
	r.StaticFS("/assets", web.AssetsFS())
	r.GET("/", serveIndex)
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serveIndex(c)
	})
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	api.GET("/transactions", h.ListTransactions)
	api.GET("/statistics", h.Statistics)
	api.GET("/bar-chart", h.BarChart)
	api.GET("/pie-chart", h.PieChart)
	api.GET("/combined", h.Combined)
}
