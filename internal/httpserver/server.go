package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PratikDhanave/factory-events-service/internal/handlers"
)

// Options carries the collaborators the router exposes.
type Options struct {
	Ingest handlers.BatchIngester
	Stats  handlers.StatsReader
	// Ready reports whether downstream sinks are reachable. Nil means always ready.
	Ready        func(ctx context.Context) error
	Metrics      http.Handler
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// NewRouter wires public endpoints and the event APIs.
// Probes: /health, /ready, /metrics
// APIs: POST /events/batch, GET /stats
func NewRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms configured sinks are reachable.
	r.GET("/ready", func(c *gin.Context) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()

			if err := opts.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	handlers.RegisterEventRoutes(r, opts.Ingest, opts.MaxBodyBytes)
	handlers.RegisterStatsRoutes(r, opts.Stats)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
