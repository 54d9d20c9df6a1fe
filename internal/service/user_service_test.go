package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicemins/connecto-backend/internal/models"
)

func TestUserService_RegisterAndLogin(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users)

	user, err := svc.Register("alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	// 중복 가입 거부
	_, err = svc.Register("alice@example.com", "other")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	// 빈 입력 거부
	_, err = svc.Register("", "secret123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	logged, err := svc.Login("alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_LoginBlockedUser(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users)

	user, err := svc.Register("bob@example.com", "secret123")
	require.NoError(t, err)

	users.mu.Lock()
	users.users[user.ID].Status = models.UserStatusBlocked
	users.mu.Unlock()

	_, err = svc.Login("bob@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInactiveUser)
}
