package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicemins/connecto-backend/internal/models"
)

func TestCallService_EndCall(t *testing.T) {
	sessions := newFakeSessionStore()
	svc := NewCallService(sessions)

	session, err := sessions.Create("userA", "userB", "channel_x")
	require.NoError(t, err)

	// 참가자가 아니면 NotFound
	err = svc.EndCall(session.ID, "userC")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, svc.EndCall(session.ID, "userA"))

	ended := sessions.get(session.ID)
	assert.True(t, ended.IsEnded())
	assert.NotNil(t, ended.EndedAt)

	// 이미 종료된 세션은 다시 종료할 수 없다
	err = svc.EndCall(session.ID, "userB")
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestCallService_WantAgainGating(t *testing.T) {
	sessions := newFakeSessionStore()
	svc := NewCallService(sessions)

	session, err := sessions.Create("userA", "userB", "channel_x")
	require.NoError(t, err)

	// 진행 중에는 거부
	err = svc.ExpressWantAgain(session.ID, "userA", true)
	assert.ErrorIs(t, err, ErrSessionNotEnded)

	require.NoError(t, svc.EndCall(session.ID, "userA"))

	// 종료 후에는 본인 플래그만 설정된다
	require.NoError(t, svc.ExpressWantAgain(session.ID, "userA", true))

	updated := sessions.get(session.ID)
	assert.True(t, updated.User1WantAgain)
	assert.False(t, updated.User2WantAgain)
}

func TestCallService_ReconnectHook(t *testing.T) {
	sessions := newFakeSessionStore()
	svc := NewCallService(sessions)

	var hooked []*models.CallSession
	svc.SetReconnectHook(func(s *models.CallSession) {
		hooked = append(hooked, s)
	})

	session, err := sessions.Create("userA", "userB", "channel_x")
	require.NoError(t, err)
	require.NoError(t, svc.EndCall(session.ID, "userA"))

	require.NoError(t, svc.ExpressWantAgain(session.ID, "userA", true))
	assert.Empty(t, hooked, "hook must not fire while only one side wants to reconnect")

	require.NoError(t, svc.ExpressWantAgain(session.ID, "userB", true))
	require.Len(t, hooked, 1)
	assert.Equal(t, session.ID, hooked[0].ID)

	// 이미 양쪽 모두 원하는 상태에서 다시 호출해도 훅은 재발화하지 않는다
	require.NoError(t, svc.ExpressWantAgain(session.ID, "userA", true))
	assert.Len(t, hooked, 1)
}
