package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, convSvc conversation.Service, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := newRateLimiter(cfg.HTTP.RateLimit)
	retrySafe := retrySafeRoutes{}

	api := router.Group("/api/v1")
	{
		public := api.Group("", rateLimitMiddleware(limiter, clientIPKey, logger))
		public.POST("/sessions", handler.StartSession)
		retrySafe.handle(public, http.MethodGet, "/faq/trending", handler.Trending)

		authed := api.Group("", authMiddleware(convSvc), rateLimitMiddleware(limiter, sessionKey, logger))
		authed.POST("/chat/messages", handler.Ask)
		authed.POST("/chat/messages/stream", handler.AskStream)
		authed.POST("/chat/feedback", handler.Feedback)
		retrySafe.handle(authed, http.MethodPost, "/faq/reload", staffOnly(), handler.Reload)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, retrySafe, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
