package handler

import (
	"log/slog"
	"net/http"
	"time"

	"reportit/backend/internal/localization"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all routes. gatherer backs /metrics and may be nil.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.With("component", "http")), h.Authenticate())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/languages", func(c *gin.Context) { c.JSON(http.StatusOK, localization.Languages) })
	r.GET("/categories", h.Categories)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	a := r.Group("/auth")
	a.POST("/signup", h.SignUp)
	a.POST("/signin", h.SignIn)
	a.POST("/signout", h.SignOut)
	a.GET("/session", h.RequireSession(), h.Session)

	cg := r.Group("/complaints")
	cg.GET("", h.ListComplaints)
	cg.GET("/:id", h.GetComplaint)
	cg.POST("", h.RequireSession(), h.CreateComplaint)
	cg.POST("/analyze", h.RequireSession(), h.AnalyzeImage)
	cg.POST("/:id/upvote", h.RequireSession(), h.Upvote)
	cg.POST("/:id/downvote", h.RequireSession(), h.Downvote)
	cg.POST("/:id/support", h.RequireSession(), h.ToggleSupport)

	r.GET("/profile", h.RequireSession(), h.Profile)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			logger.Warn("request completed with errors", append(attrs, "error", c.Errors.String())...)
			return
		}
		logger.Debug("request completed", attrs...)
	}
}
