package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nicemins/connecto-backend/internal/config"
	"github.com/nicemins/connecto-backend/internal/service"
	"github.com/nicemins/connecto-backend/internal/websocket"
	jwtutil "github.com/nicemins/connecto-backend/pkg/jwt"
	"github.com/nicemins/connecto-backend/pkg/logger"
)

// WebSocketHandler 실시간 매칭 연결 처리
// 핸드셰이크에서 직접 인증한다 (브라우저 WebSocket API는 헤더를 못 붙이므로 쿼리 파라미터 허용).
type WebSocketHandler struct {
	hub         *websocket.Hub
	userService *service.UserService
	jwtManager  *jwtutil.JWTManager
}

func NewWebSocketHandler(hub *websocket.Hub, userService *service.UserService, cfg *config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		jwtManager:  jwtutil.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
	}
}

// HandleWebSocket WebSocket 연결 엔드포인트
// 잘못된 자격 증명이나 비활성 사용자는 업그레이드 전에 거부한다.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Missing credentials",
		})
		return
	}

	claims, err := h.jwtManager.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Invalid or expired token",
		})
		return
	}

	user, err := h.userService.GetByID(claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsActive() {
		c.JSON(http.StatusForbidden, gin.H{
			"code":    "INACTIVE_USER",
			"message": "User is not active",
		})
		return
	}

	logger.Info("WebSocket connection accepted", "userId", user.ID)
	websocket.ServeWs(h.hub, c.Writer, c.Request, user.ID)
}

// extractToken 쿼리 파라미터 또는 Authorization 헤더에서 토큰 추출
func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
