package service

import (
	"context"
	"sync"
	"time"

	"github.com/nicemins/connecto-backend/pkg/logger"
)

// CallSessionScheduler 주기적 정리 작업 담당
// 1. 최대 통화 시간을 초과한 IN_PROGRESS 세션 강제 종료
// 2. 대기열에서 타임아웃된 사용자 제거
type CallSessionScheduler struct {
	sessions        CallSessionStore
	queue           Queue
	maxCallDuration time.Duration
	expiryInterval  time.Duration
	cleanupInterval time.Duration
	stopChan        chan struct{}
	wg              sync.WaitGroup
	running         bool
	mu              sync.Mutex
}

func NewCallSessionScheduler(
	sessions CallSessionStore,
	queue Queue,
	maxCallDuration time.Duration,
	expiryInterval time.Duration,
	cleanupInterval time.Duration,
) *CallSessionScheduler {
	if maxCallDuration <= 0 {
		maxCallDuration = 5 * time.Minute
	}
	if expiryInterval <= 0 {
		expiryInterval = time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &CallSessionScheduler{
		sessions:        sessions,
		queue:           queue,
		maxCallDuration: maxCallDuration,
		expiryInterval:  expiryInterval,
		cleanupInterval: cleanupInterval,
		stopChan:        make(chan struct{}),
	}
}

// Start 스케줄러 시작
func (s *CallSessionScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	logger.Info("Starting CallSessionScheduler",
		"maxCallDuration", s.maxCallDuration,
		"expiryInterval", s.expiryInterval,
		"cleanupInterval", s.cleanupInterval,
	)

	s.wg.Add(2)
	go s.expiryLoop()
	go s.cleanupLoop()
}

// Stop 스케줄러 중지 (실행 중인 패스가 끝날 때까지 대기)
func (s *CallSessionScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	logger.Info("CallSessionScheduler stopped")
}

// expiryLoop 통화 시간 초과 세션 정리 루프
func (s *CallSessionScheduler) expiryLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.expiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ExpireOverdueSessions()
		case <-s.stopChan:
			return
		}
	}
}

// cleanupLoop 대기열 타임아웃 정리 루프
func (s *CallSessionScheduler) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupQueue()
		case <-s.stopChan:
			return
		}
	}
}

// ExpireOverdueSessions 최대 통화 시간을 초과한 세션을 모두 종료한다.
// 개별 세션의 실패는 로그만 남기고 다음 세션을 계속 처리한다.
func (s *CallSessionScheduler) ExpireOverdueSessions() {
	cutoff := time.Now().Add(-s.maxCallDuration)

	overdue, err := s.sessions.FindInProgressStartedBefore(cutoff)
	if err != nil {
		logger.Error("Failed to query overdue sessions", "error", err)
		return
	}

	for _, session := range overdue {
		if err := s.sessions.End(session.ID); err != nil {
			logger.Error("Failed to expire session", "sessionId", session.ID, "error", err)
			continue
		}
		logger.Info("Session expired by scheduler", "sessionId", session.ID)
	}
}

// CleanupQueue 대기열에서 타임아웃된 항목을 제거한다. 실패해도 전파하지 않는다.
func (s *CallSessionScheduler) CleanupQueue() {
	removed, err := s.queue.CleanupExpiredUsers(context.Background())
	if err != nil {
		logger.Error("Failed to cleanup matching queue", "error", err)
		return
	}
	if removed > 0 {
		logger.Info("Removed expired queue entries", "count", removed)
	}
}
