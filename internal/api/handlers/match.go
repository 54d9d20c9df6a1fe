package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nicemins/connecto-backend/internal/service"
)

type MatchHandler struct {
	matchService *service.MatchService
}

func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// Start 매칭 시작
// 즉시 매칭되면 sessionId/channelId를 포함해 응답하고, 아니면 matched=false
func (h *MatchHandler) Start(c *gin.Context) {
	userID := c.GetString("userID")

	result, err := h.matchService.StartMatching(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Cancel 매칭 취소 (대기열에 없어도 성공)
func (h *MatchHandler) Cancel(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.matchService.CancelMatching(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// Status 현재 매칭 상태 조회
func (h *MatchHandler) Status(c *gin.Context) {
	userID := c.GetString("userID")

	status, err := h.matchService.GetStatus(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Result 종료된 세션의 결과 조회 (상대방 프로필 + 본인의 재연결 의사)
func (h *MatchHandler) Result(c *gin.Context) {
	userID := c.GetString("userID")
	sessionID := c.Param("sessionId")

	result, err := h.matchService.GetResult(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
