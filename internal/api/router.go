package api

import (
	"strconv"
	"time"

	"limitbook/internal/book"
	"limitbook/internal/cache"
	"limitbook/internal/messaging"
	"limitbook/internal/metrics"
	"limitbook/internal/middleware"
	"limitbook/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the knobs the router needs from the app config.
type RouterConfig struct {
	Instrument         string
	AuthEnabled        bool
	AuthSecret         string
	RateLimitPerSecond int
	RateLimitBurst     int
}

func RegisterRoutes(r *gin.Engine, cfg RouterConfig, b *book.Book, cache *cache.RedisCache, wsHub *ws.Hub, pub *messaging.Publisher, m *metrics.Metrics) {
	authMiddleware := middleware.NewAuthMiddleware(middleware.DefaultAuthConfig(cfg.AuthSecret, cfg.AuthEnabled))
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	if m != nil {
		r.Use(metricsMiddleware(m))
	}

	h := NewHandler(b, cache, wsHub, pub, m, cfg.Instrument)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/book", h.GetBook)
		api.GET("/book/size", h.GetSize)
		api.GET("/ticker", h.GetTicker)
		api.GET("/trades", h.GetTrades)
		api.GET("/orders/:id", h.GetOrder)

		protected := api.Group("")
		protected.Use(authMiddleware.GinMiddleware())
		protected.Use(rateLimiter.GinMiddleware())
		{
			protected.POST("/orders", h.PlaceOrder)
			protected.PUT("/orders/:id", h.ModifyOrder)
			protected.DELETE("/orders/:id", h.CancelOrder)
		}
	}

	if wsHub != nil {
		wsHandler := ws.NewHandler(wsHub)
		r.GET("/ws", wsHandler.HandleUpgrade)
		r.GET("/ws/stats", wsHandler.HandleStats)
	}
}

// metricsMiddleware records request counts and latency.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.RecordHTTPRequest(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
