package service

import "errors"

var (
	// 인증/사용자
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInactiveUser       = errors.New("user is not active")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidInput       = errors.New("invalid input")

	// 매칭
	ErrAlreadyQueued    = errors.New("user is already in the matching queue")
	ErrAlreadyInCall    = errors.New("user is already in an active call")
	ErrLockUnavailable  = errors.New("matching lock unavailable, retry later")
	ErrMatchNotFound    = errors.New("no match result for user")
	ErrProfileNotFound  = errors.New("profile not found")

	// 통화 세션
	ErrSessionNotFound  = errors.New("call session not found")
	ErrAccessDenied     = errors.New("user is not a participant of this session")
	ErrSessionNotActive = errors.New("call session is not in progress")
	ErrSessionNotEnded  = errors.New("call session has not ended yet")
)

// ErrorCode REST와 WebSocket이 공유하는 기계 판독용 에러 코드
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrUserAlreadyExists):
		return "USER_EXISTS"
	case errors.Is(err, ErrUserNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, ErrInactiveUser):
		return "INACTIVE_USER"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrAlreadyQueued):
		return "ALREADY_QUEUED"
	case errors.Is(err, ErrAlreadyInCall):
		return "ALREADY_IN_CALL"
	case errors.Is(err, ErrLockUnavailable):
		return "LOCK_UNAVAILABLE"
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrMatchNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrSessionNotActive), errors.Is(err, ErrSessionNotEnded):
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}
