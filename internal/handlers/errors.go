package handlers

import (
	"net/http"

	"practice-service/internal/apperr"
	"practice-service/internal/logger"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:             http.StatusNotFound,
	apperr.KindNoQuestionsAvailable: http.StatusUnprocessableEntity,
	apperr.KindInvalidState:         http.StatusConflict,
	apperr.KindInvalidArgument:      http.StatusBadRequest,
	apperr.KindPersistence:          http.StatusInternalServerError,
	apperr.KindInternal:             http.StatusInternalServerError,
}

// respondError writes the error envelope. Server-side failures are logged
// and their details withheld from the client.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"user_id", c.GetString(userIDKey),
			"error", err,
		)
		message = "internal error"
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  string(kind),
	})
}
