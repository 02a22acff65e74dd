package handlers

import (
	"net/http"

	"practice-service/internal/logger"
	"practice-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	Service *service.ProgressService
	log     *logger.Logger
}

func NewProgressHandler(s *service.ProgressService, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{Service: s, log: log.With("component", "progress_handler")}
}

// GetProgress lists mastery per topic, optionally for one certification
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	report, err := h.Service.Progress(c.Request.Context(), c.GetString(userIDKey), c.Query("certification"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetPoolInfo explains which candidates a new session would draw from
func (h *ProgressHandler) GetPoolInfo(c *gin.Context) {
	info, err := h.Service.PoolInfo(c.Request.Context(), c.GetString(userIDKey), c.Query("certification"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
