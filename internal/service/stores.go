package service

import (
	"context"
	"time"

	"github.com/nicemins/connecto-backend/internal/models"
)

// 서비스 계층이 의존하는 저장소 인터페이스.
// repository 패키지의 구현체가 이를 만족하며, 테스트에서는 인메모리 구현으로 대체한다.

type UserStore interface {
	Create(email, passwordHash string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByID(id string) (*models.User, error)
}

type ProfileStore interface {
	FindByUserID(userID string) (*models.Profile, error)
}

type CallSessionStore interface {
	Create(user1ID, user2ID, webrtcChannelID string) (*models.CallSession, error)
	FindByIDAndUserID(sessionID, userID string) (*models.CallSession, error)
	FindInProgressByUserID(userID string) (*models.CallSession, error)
	FindInProgressStartedBefore(cutoff time.Time) ([]*models.CallSession, error)
	End(sessionID string) error
	SetWantAgain(sessionID string, isUser1 bool, want bool) error
}

// Queue 매칭 대기열 (Redis sorted set 구현: pkg/distributed.MatchQueue)
type Queue interface {
	Enqueue(ctx context.Context, userID string) error
	Dequeue(ctx context.Context, userID string) error
	FindMatch(ctx context.Context, userID string) (string, error)
	IsInQueue(ctx context.Context, userID string) (bool, error)
	CleanupExpiredUsers(ctx context.Context) (int64, error)
}

// Notifier 실시간 알림 전송 (WebSocket hub 구현)
type Notifier interface {
	SendToUser(userID string, msgType string, payload interface{}) bool
	IsConnected(userID string) bool
}
