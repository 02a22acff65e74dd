package handlers

import (
	"net/http"
	"time"

	"practice-service/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter wires the practice API onto a gin engine.
func NewRouter(cfg RouterConfig, sessions *SessionHandler, progress *ProgressHandler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-User-ID", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := r.Group("/protected/practice", RequireUser(), RequestTimeout(cfg.RequestTimeout))
	{
		protected.POST("/session", sessions.CreateSession)
		protected.POST("/session/:id/answer", sessions.SubmitAnswer)
		protected.GET("/session/:id", sessions.GetSession)
		protected.GET("/progress", progress.GetProgress)
		protected.GET("/pool/info", progress.GetPoolInfo)
	}
	return r
}
