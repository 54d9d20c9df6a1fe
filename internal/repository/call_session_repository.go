package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nicemins/connecto-backend/internal/models"
	"github.com/nicemins/connecto-backend/pkg/database"
)

type CallSessionRepository struct {
	db *database.DB
}

func NewCallSessionRepository(db *database.DB) *CallSessionRepository {
	return &CallSessionRepository{db: db}
}

const callSessionColumns = `
	id, user1_id, user2_id, status, webrtc_channel_id,
	user1_want_again, user2_want_again,
	started_at, ended_at, created_at, updated_at
`

func scanCallSession(row interface {
	Scan(dest ...interface{}) error
}) (*models.CallSession, error) {
	session := &models.CallSession{}
	err := row.Scan(
		&session.ID,
		&session.User1ID,
		&session.User2ID,
		&session.Status,
		&session.WebRTCChannelID,
		&session.User1WantAgain,
		&session.User2WantAgain,
		&session.StartedAt,
		&session.EndedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Create 매칭된 쌍의 세션 생성
// - 대기열은 즉시 통화로 전환되는 쌍만 반환하므로 IN_PROGRESS로 바로 생성
// - 채널 ID는 생성 시 한 번만 설정됨
func (r *CallSessionRepository) Create(user1ID, user2ID, webrtcChannelID string) (*models.CallSession, error) {
	query := `
		INSERT INTO call_sessions (user1_id, user2_id, status, webrtc_channel_id, started_at)
		VALUES ($1, $2, 'IN_PROGRESS', $3, NOW())
		RETURNING ` + callSessionColumns

	session, err := scanCallSession(r.db.QueryRow(query, user1ID, user2ID, webrtcChannelID))
	if err != nil {
		return nil, fmt.Errorf("failed to create call session: %w", err)
	}

	return session, nil
}

// FindByIDAndUserID 참여자 기준으로 세션 조회 (양쪽 모두 확인)
func (r *CallSessionRepository) FindByIDAndUserID(sessionID, userID string) (*models.CallSession, error) {
	query := `
		SELECT ` + callSessionColumns + `
		FROM call_sessions
		WHERE id = $1 AND (user1_id = $2 OR user2_id = $2)
	`

	session, err := scanCallSession(r.db.QueryRow(query, sessionID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find call session: %w", err)
	}

	return session, nil
}

// FindInProgressByUserID 사용자가 진행 중인 세션 조회
func (r *CallSessionRepository) FindInProgressByUserID(userID string) (*models.CallSession, error) {
	query := `
		SELECT ` + callSessionColumns + `
		FROM call_sessions
		WHERE (user1_id = $1 OR user2_id = $1) AND status = 'IN_PROGRESS'
	`

	session, err := scanCallSession(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find in-progress session: %w", err)
	}

	return session, nil
}

// FindInProgressStartedBefore 시작 시간이 cutoff 이전인 진행 중 세션 목록 (스케줄러용)
func (r *CallSessionRepository) FindInProgressStartedBefore(cutoff time.Time) ([]*models.CallSession, error) {
	query := `
		SELECT ` + callSessionColumns + `
		FROM call_sessions
		WHERE status = 'IN_PROGRESS' AND started_at IS NOT NULL AND started_at < $1
	`

	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.CallSession
	for rows.Next() {
		session, err := scanCallSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// End 세션 종료 (ENDED는 종단 상태)
// - IN_PROGRESS 세션만 대상, 이미 종료된 세션은 건드리지 않음
func (r *CallSessionRepository) End(sessionID string) error {
	query := `
		UPDATE call_sessions
		SET status = 'ENDED', ended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'IN_PROGRESS'
	`

	result, err := r.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end call session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("call session %s is not in progress", sessionID)
	}

	return nil
}

// SetWantAgain 자신의 재연결 의사 설정 (상대방 플래그는 건드리지 않음)
func (r *CallSessionRepository) SetWantAgain(sessionID string, isUser1 bool, want bool) error {
	column := "user2_want_again"
	if isUser1 {
		column = "user1_want_again"
	}

	query := fmt.Sprintf(`
		UPDATE call_sessions
		SET %s = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'ENDED'
	`, column)

	result, err := r.db.Exec(query, want, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set want-again flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("call session %s is not ended", sessionID)
	}

	return nil
}
