package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nicemins/connecto-backend/internal/service"
)

type CallHandler struct {
	callService *service.CallService
}

func NewCallHandler(callService *service.CallService) *CallHandler {
	return &CallHandler{callService: callService}
}

type EndCallRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type WantAgainRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Want      *bool  `json:"want" binding:"required"`
}

// End 통화 종료
func (h *CallHandler) End(c *gin.Context) {
	userID := c.GetString("userID")

	var req EndCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": err.Error(),
		})
		return
	}

	if err := h.callService.EndCall(req.SessionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// Again 재연결 의사 표시 (종료된 세션에서만)
func (h *CallHandler) Again(c *gin.Context) {
	userID := c.GetString("userID")

	var req WantAgainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": err.Error(),
		})
		return
	}

	if err := h.callService.ExpressWantAgain(req.SessionID, userID, *req.Want); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}
