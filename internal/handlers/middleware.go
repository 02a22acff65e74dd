package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"practice-service/internal/logger"
	"practice-service/internal/metrics"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// RequireUser reads the learner identity set by the gateway.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User ID is required",
				"code":  "MISSING_USER_ID",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequestTimeout bounds every downstream call made with the request context.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs and times each request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		log.Debug("request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"user_id", c.GetHeader("X-User-ID"),
		)
	}
}
