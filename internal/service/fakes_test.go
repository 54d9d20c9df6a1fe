package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nicemins/connecto-backend/internal/models"
	"github.com/nicemins/connecto-backend/pkg/distributed"
)

// 테스트용 인메모리 구현체들

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.CallSession
	seq      int
	endErr   map[string]error // sessionID -> 강제 실패
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[string]*models.CallSession),
		endErr:   make(map[string]error),
	}
}

func (f *fakeSessionStore) Create(user1ID, user2ID, webrtcChannelID string) (*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	now := time.Now()
	started := now
	session := &models.CallSession{
		ID:              fmt.Sprintf("session-%d", f.seq),
		User1ID:         user1ID,
		User2ID:         user2ID,
		Status:          models.CallSessionStatusInProgress,
		WebRTCChannelID: webrtcChannelID,
		StartedAt:       &started,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.sessions[session.ID] = session
	copy := *session
	return &copy, nil
}

func (f *fakeSessionStore) FindByIDAndUserID(sessionID, userID string) (*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[sessionID]
	if !ok || !session.HasParticipant(userID) {
		return nil, nil
	}
	copy := *session
	return &copy, nil
}

func (f *fakeSessionStore) FindInProgressByUserID(userID string) (*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, session := range f.sessions {
		if session.IsInProgress() && session.HasParticipant(userID) {
			copy := *session
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionStore) FindInProgressStartedBefore(cutoff time.Time) ([]*models.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.CallSession
	for _, session := range f.sessions {
		if session.IsInProgress() && session.StartedAt != nil && session.StartedAt.Before(cutoff) {
			copy := *session
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (f *fakeSessionStore) End(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.endErr[sessionID]; err != nil {
		return err
	}
	session, ok := f.sessions[sessionID]
	if !ok || !session.IsInProgress() {
		return fmt.Errorf("session %s is not in progress", sessionID)
	}
	now := time.Now()
	session.Status = models.CallSessionStatusEnded
	session.EndedAt = &now
	session.UpdatedAt = now
	return nil
}

func (f *fakeSessionStore) SetWantAgain(sessionID string, isUser1 bool, want bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[sessionID]
	if !ok || !session.IsEnded() {
		return fmt.Errorf("session %s has not ended", sessionID)
	}
	if isUser1 {
		session.User1WantAgain = want
	} else {
		session.User2WantAgain = want
	}
	session.UpdatedAt = time.Now()
	return nil
}

// backdate StartedAt을 과거로 옮긴다 (만료 스윕 테스트용)
func (f *fakeSessionStore) backdate(sessionID string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if session, ok := f.sessions[sessionID]; ok && session.StartedAt != nil {
		t := session.StartedAt.Add(-d)
		session.StartedAt = &t
	}
}

func (f *fakeSessionStore) get(sessionID string) *models.CallSession {
	f.mu.Lock()
	defer f.mu.Unlock()

	if session, ok := f.sessions[sessionID]; ok {
		copy := *session
		return &copy
	}
	return nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.Profile)}
}

func (f *fakeProfileStore) add(userID, nickname string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = &models.Profile{
		ID:       "profile-" + userID,
		UserID:   userID,
		Nickname: nickname,
	}
}

func (f *fakeProfileStore) FindByUserID(userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	profile, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	copy := *profile
	return &copy, nil
}

type fakeQueue struct {
	mu            sync.Mutex
	entries       map[string]int64 // userID -> enqueue timestamp (ms)
	seq           int64
	cleanupCalls  int
	cleanupReturn int64
	cleanupErr    error
	enqueueErr    error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{entries: make(map[string]int64)}
}

func (f *fakeQueue) Enqueue(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	if _, exists := f.entries[userID]; exists {
		return distributed.ErrAlreadyQueued
	}
	f.seq++
	f.entries[userID] = f.seq
	return nil
}

func (f *fakeQueue) Dequeue(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.entries, userID)
	return nil
}

func (f *fakeQueue) FindMatch(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, queued := f.entries[userID]; !queued {
		return "", nil
	}

	type entry struct {
		id    string
		score int64
	}
	var candidates []entry
	for id, score := range f.entries {
		if id != userID {
			candidates = append(candidates, entry{id, score})
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })

	oldest := candidates[0].id
	delete(f.entries, userID)
	delete(f.entries, oldest)
	return oldest, nil
}

func (f *fakeQueue) IsInQueue(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, queued := f.entries[userID]
	return queued, nil
}

func (f *fakeQueue) CleanupExpiredUsers(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cleanupCalls++
	return f.cleanupReturn, f.cleanupErr
}

func (f *fakeQueue) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type sentMessage struct {
	userID  string
	msgType string
	payload interface{}
}

type fakeNotifier struct {
	mu        sync.Mutex
	connected map[string]bool
	messages  []sentMessage
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{connected: make(map[string]bool)}
}

func (f *fakeNotifier) connect(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected[userID] = true
}

func (f *fakeNotifier) SendToUser(userID string, msgType string, payload interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected[userID] {
		return false
	}
	f.messages = append(f.messages, sentMessage{userID: userID, msgType: msgType, payload: payload})
	return true
}

func (f *fakeNotifier) IsConnected(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected[userID]
}

func (f *fakeNotifier) sentTo(userID string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []sentMessage
	for _, m := range f.messages {
		if m.userID == userID {
			result = append(result, m)
		}
	}
	return result
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(email, passwordHash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	now := time.Now()
	user := &models.User{
		ID:           fmt.Sprintf("user-%d", f.seq),
		Email:        email,
		PasswordHash: passwordHash,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.users[user.ID] = user
	copy := *user
	return &copy, nil
}

// add 지정한 ID로 활성 사용자 등록 (테스트 픽스처용)
func (f *fakeUserStore) add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	f.users[id] = &models.User{
		ID:        id,
		Email:     id + "@example.com",
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// remove 사용자 삭제 (탈퇴 시나리오용)
func (f *fakeUserStore) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

func (f *fakeUserStore) FindByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copy := *user
	return &copy, nil
}
