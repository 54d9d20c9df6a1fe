package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nicemins/connecto-backend/internal/models"
	"github.com/nicemins/connecto-backend/pkg/distributed"
	"github.com/nicemins/connecto-backend/pkg/logger"
)

// 매칭 상태 값
const (
	StatusMatched = "matched"
	StatusWaiting = "waiting"
	StatusIdle    = "idle"
)

// MatchResult 매칭 시도 결과
type MatchResult struct {
	Matched       bool   `json:"matched"`
	SessionID     string `json:"sessionId,omitempty"`
	ChannelID     string `json:"channelId,omitempty"`
	MatchedUserID string `json:"-"`
}

// MatchStatus 사용자의 현재 매칭 상태
type MatchStatus struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// SessionResult 종료된 세션의 결과 (상대방 프로필 + 본인의 재연결 의사)
type SessionResult struct {
	Profile   *models.Profile `json:"profile"`
	WantAgain bool            `json:"wantAgain"`
}

// MatchService 매칭 오케스트레이터
// 대기열 엔진과 통화 세션 저장소를 조합해 페어링을 세션으로 전환한다.
type MatchService struct {
	users    UserStore
	sessions CallSessionStore
	profiles ProfileStore
	queue    Queue
}

func NewMatchService(users UserStore, sessions CallSessionStore, profiles ProfileStore, queue Queue) *MatchService {
	return &MatchService{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		queue:    queue,
	}
}

// StartMatching 매칭 시작
// 진행 중인 통화가 있으면 거부하고, 대기열 등록 후 즉시 매칭을 1회 시도한다.
// 즉시 매칭에 실패하면 matched=false로 반환하며 호출자는 대기 상태가 된다.
func (s *MatchService) StartMatching(ctx context.Context, userID string) (*MatchResult, error) {
	// 토큰은 유효해도 계정이 이미 삭제됐을 수 있음
	if err := s.verifyParticipants(userID); err != nil {
		return nil, err
	}

	active, err := s.sessions.FindInProgressByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}
	if active != nil {
		return nil, ErrAlreadyInCall
	}

	if err := s.queue.Enqueue(ctx, userID); err != nil {
		switch {
		case errors.Is(err, distributed.ErrAlreadyQueued):
			return nil, ErrAlreadyQueued
		case errors.Is(err, distributed.ErrLockUnavailable):
			return nil, ErrLockUnavailable
		default:
			return nil, fmt.Errorf("failed to enqueue: %w", err)
		}
	}

	return s.TryMatch(ctx, userID)
}

// TryMatch 대기열에서 매칭을 1회 시도하고, 성공하면 세션을 생성한다.
// 잠금 경합이나 후보 부재 시 matched=false를 반환한다 (재시도 전제).
func (s *MatchService) TryMatch(ctx context.Context, userID string) (*MatchResult, error) {
	candidateID, err := s.queue.FindMatch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}
	if candidateID == "" {
		return &MatchResult{Matched: false}, nil
	}

	// 세션 생성 전에 양쪽 계정이 모두 살아있는지 확인한다.
	// 대기 중 탈퇴한 사용자가 상대로 잡히면 FK 위반 대신 명시적 에러를 낸다.
	if err := s.verifyParticipants(userID, candidateID); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(userID, candidateID, generateChannelID())
	if err != nil {
		return nil, fmt.Errorf("failed to create call session: %w", err)
	}

	logger.Info("Match created",
		"sessionId", session.ID,
		"user1", session.User1ID,
		"user2", session.User2ID,
	)

	return &MatchResult{
		Matched:       true,
		SessionID:     session.ID,
		ChannelID:     session.WebRTCChannelID,
		MatchedUserID: candidateID,
	}, nil
}

// CancelMatching 매칭 취소 (대기열에 없어도 성공)
func (s *MatchService) CancelMatching(ctx context.Context, userID string) error {
	if err := s.queue.Dequeue(ctx, userID); err != nil {
		if errors.Is(err, distributed.ErrLockUnavailable) {
			return ErrLockUnavailable
		}
		return fmt.Errorf("failed to dequeue: %w", err)
	}
	return nil
}

// GetStatus 현재 매칭 상태 조회 (matched / waiting / idle)
func (s *MatchService) GetStatus(ctx context.Context, userID string) (*MatchStatus, error) {
	session, err := s.sessions.FindInProgressByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}
	if session != nil {
		return &MatchStatus{
			Status:    StatusMatched,
			SessionID: session.ID,
			ChannelID: session.WebRTCChannelID,
		}, nil
	}

	queued, err := s.queue.IsInQueue(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check queue membership: %w", err)
	}
	if queued {
		return &MatchStatus{Status: StatusWaiting}, nil
	}
	return &MatchStatus{Status: StatusIdle}, nil
}

// GetResult 종료된 세션의 결과 조회
// 참가자 본인만 조회할 수 있으며, 상대방 프로필과 본인의 재연결 의사를 반환한다.
func (s *MatchService) GetResult(ctx context.Context, sessionID, userID string) (*SessionResult, error) {
	session, err := s.sessions.FindByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	// 조회 자체가 참가자 기준이지만 id 혼동 버그를 막기 위해 한 번 더 확인
	if !session.HasParticipant(userID) {
		return nil, ErrAccessDenied
	}
	if !session.IsEnded() {
		return nil, ErrSessionNotEnded
	}

	otherID, _ := session.OtherUserID(userID)
	profile, err := s.profiles.FindByUserID(otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	return &SessionResult{
		Profile:   profile,
		WantAgain: session.WantAgainOf(userID),
	}, nil
}

// verifyParticipants 매칭 참가자들의 계정 존재 여부 확인
func (s *MatchService) verifyParticipants(userIDs ...string) error {
	for _, id := range userIDs {
		user, err := s.users.FindByID(id)
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return ErrUserNotFound
		}
	}
	return nil
}

// generateChannelID WebRTC 채널 식별자 생성
func generateChannelID() string {
	return "channel_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
