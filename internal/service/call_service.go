package service

import (
	"fmt"

	"github.com/nicemins/connecto-backend/internal/models"
	"github.com/nicemins/connecto-backend/pkg/logger"
)

// ReconnectHook 두 참가자가 모두 재연결을 원하게 된 시점에 호출된다.
// 후속 정책(친구 맺기, 재매칭 등)은 여기에 연결한다.
type ReconnectHook func(session *models.CallSession)

// CallService 통화 세션 상태 전이 담당
type CallService struct {
	sessions      CallSessionStore
	reconnectHook ReconnectHook
}

func NewCallService(sessions CallSessionStore) *CallService {
	return &CallService{sessions: sessions}
}

// SetReconnectHook 재연결 훅 등록 (선택)
func (s *CallService) SetReconnectHook(hook ReconnectHook) {
	s.reconnectHook = hook
}

// EndCall 통화 종료
// 참가자 본인만 종료할 수 있고, 진행 중인 세션만 종료된다.
func (s *CallService) EndCall(sessionID, userID string) error {
	session, err := s.sessions.FindByIDAndUserID(sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if !session.IsInProgress() {
		return ErrSessionNotActive
	}

	if err := s.sessions.End(sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	logger.Info("Call ended", "sessionId", sessionID, "by", userID)
	return nil
}

// ExpressWantAgain 재연결 의사 표시
// 종료된 세션에서만 가능하며 본인의 플래그만 변경한다.
// 양쪽 모두 원하게 되는 전이가 일어나면 등록된 훅을 호출한다.
func (s *CallService) ExpressWantAgain(sessionID, userID string, want bool) error {
	session, err := s.sessions.FindByIDAndUserID(sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if !session.IsEnded() {
		return ErrSessionNotEnded
	}

	wasBoth := session.BothWantAgain()

	isUser1 := session.User1ID == userID
	if err := s.sessions.SetWantAgain(sessionID, isUser1, want); err != nil {
		return fmt.Errorf("failed to set want-again flag: %w", err)
	}

	if isUser1 {
		session.User1WantAgain = want
	} else {
		session.User2WantAgain = want
	}

	if !wasBoth && session.BothWantAgain() && s.reconnectHook != nil {
		logger.Info("Both participants want to reconnect", "sessionId", sessionID)
		s.reconnectHook(session)
	}

	return nil
}
