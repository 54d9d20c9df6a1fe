package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nicemins/connecto-backend/internal/service"
)

// respondError 서비스 에러를 HTTP 상태 코드와 {code, message} 본문으로 변환
// WebSocket의 match:error 이벤트와 같은 코드 어휘를 쓴다.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"code":    service.ErrorCode(err),
		"message": err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAlreadyInCall),
		errors.Is(err, service.ErrInactiveUser),
		errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrSessionNotActive),
		errors.Is(err, service.ErrSessionNotEnded):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrAlreadyQueued):
		return http.StatusConflict
	case errors.Is(err, service.ErrLockUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
