package models

import "time"

type CallSessionStatus string

const (
	CallSessionStatusWaiting    CallSessionStatus = "WAITING"
	CallSessionStatusInProgress CallSessionStatus = "IN_PROGRESS"
	CallSessionStatusEnded      CallSessionStatus = "ENDED"
)

// CallSession 매칭된 두 사용자의 통화 세션
// - 생성 시점에 이미 IN_PROGRESS (대기열은 즉시 세션으로 전환되는 쌍만 반환)
// - ENDED는 종단 상태, 이후 상태 전이 없음
// - 물리 삭제 없음 (append-only 이력)
type CallSession struct {
	ID              string            `json:"id" db:"id"`
	User1ID         string            `json:"user1Id" db:"user1_id"`
	User2ID         string            `json:"user2Id" db:"user2_id"`
	Status          CallSessionStatus `json:"status" db:"status"`
	WebRTCChannelID string            `json:"webrtcChannelId" db:"webrtc_channel_id"`
	User1WantAgain  bool              `json:"user1WantAgain" db:"user1_want_again"`
	User2WantAgain  bool              `json:"user2WantAgain" db:"user2_want_again"`
	StartedAt       *time.Time        `json:"startedAt,omitempty" db:"started_at"`
	EndedAt         *time.Time        `json:"endedAt,omitempty" db:"ended_at"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`
}

// IsInProgress 통화 중인지
func (s *CallSession) IsInProgress() bool {
	return s.Status == CallSessionStatusInProgress
}

// IsEnded 종료된 세션인지
func (s *CallSession) IsEnded() bool {
	return s.Status == CallSessionStatusEnded
}

// HasParticipant 사용자가 세션 참여자인지
func (s *CallSession) HasParticipant(userID string) bool {
	return s.User1ID == userID || s.User2ID == userID
}

// OtherUserID 상대방 사용자 ID ("상대"는 저장하지 않고 유도)
func (s *CallSession) OtherUserID(userID string) (string, bool) {
	switch userID {
	case s.User1ID:
		return s.User2ID, true
	case s.User2ID:
		return s.User1ID, true
	default:
		return "", false
	}
}

// WantAgainOf 해당 사용자의 재연결 의사
func (s *CallSession) WantAgainOf(userID string) bool {
	if userID == s.User1ID {
		return s.User1WantAgain
	}
	return s.User2WantAgain
}

// BothWantAgain 양측 모두 재연결을 원하는지
func (s *CallSession) BothWantAgain() bool {
	return s.User1WantAgain && s.User2WantAgain
}
