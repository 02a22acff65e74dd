package handlers

import (
	"net/http"

	"practice-service/internal/logger"
	"practice-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
	log     *logger.Logger
}

func NewSessionHandler(s *service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{Service: s, log: log.With("component", "session_handler")}
}

// CreateSession starts a practice session for a certification
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		Certification string `json:"certification" binding:"required"`
		SessionSize   int    `json:"session_size" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"code":    "invalid_argument",
			"details": err.Error(),
		})
		return
	}

	res, err := h.Service.StartSession(c.Request.Context(), c.GetString(userIDKey), req.Certification, req.SessionSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// SubmitAnswer grades the answer to the current question
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req service.SubmitAnswerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"code":    "invalid_argument",
			"details": err.Error(),
		})
		return
	}

	res, err := h.Service.SubmitAnswer(c.Request.Context(), c.GetString(userIDKey), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetSession returns session progress
func (h *SessionHandler) GetSession(c *gin.Context) {
	status, err := h.Service.GetSession(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
