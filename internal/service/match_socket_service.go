package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nicemins/connecto-backend/internal/websocket"
	"github.com/nicemins/connecto-backend/pkg/logger"
)

// MatchSocketService WebSocket 이벤트와 매칭 오케스트레이터 연결
// 즉시 매칭에 실패한 사용자를 위해 연결 수명에 묶인 재시도 루프를 돌린다.
type MatchSocketService struct {
	matchService  *MatchService
	queue         Queue
	notifier      Notifier
	retryInterval time.Duration

	// userID -> context.CancelFunc (재시도 루프 취소용)
	retries sync.Map
}

func NewMatchSocketService(
	matchService *MatchService,
	queue Queue,
	notifier Notifier,
	retryInterval time.Duration,
) *MatchSocketService {
	if retryInterval <= 0 {
		retryInterval = 2 * time.Second
	}
	return &MatchSocketService{
		matchService:  matchService,
		queue:         queue,
		notifier:      notifier,
		retryInterval: retryInterval,
	}
}

// OnMatchStart 매칭 시작 이벤트 처리
// 즉시 매칭되면 양쪽에 알리고, 아니면 재시도 루프를 시작한다.
func (s *MatchSocketService) OnMatchStart(userID string) {
	result, err := s.matchService.StartMatching(context.Background(), userID)
	if err != nil {
		s.sendError(userID, err)
		return
	}

	if result.Matched {
		s.notifyMatched(userID, result)
		return
	}

	s.startRetryLoop(userID)
}

// OnMatchCancel 매칭 취소 이벤트 처리
func (s *MatchSocketService) OnMatchCancel(userID string) {
	s.stopRetryLoop(userID)

	err := s.matchService.CancelMatching(context.Background(), userID)
	if err != nil {
		logger.Error("Failed to cancel matching", "userId", userID, "error", err)
	}

	s.notifier.SendToUser(userID, websocket.EventMatchCancelled,
		websocket.MatchCancelledMessage{Success: err == nil})
}

// OnDisconnect 연결 종료 처리
// 끊긴 클라이언트는 매칭을 소비할 수 없으므로 대기열에서도 제거한다.
func (s *MatchSocketService) OnDisconnect(userID string) {
	s.stopRetryLoop(userID)

	if err := s.matchService.CancelMatching(context.Background(), userID); err != nil {
		logger.Error("Failed to dequeue on disconnect", "userId", userID, "error", err)
	}
}

// startRetryLoop 사용자별 재시도 루프 시작 (기존 루프가 있으면 교체)
func (s *MatchSocketService) startRetryLoop(userID string) {
	ctx, cancel := context.WithCancel(context.Background())
	if prev, loaded := s.retries.Swap(userID, context.CancelFunc(cancel)); loaded {
		prev.(context.CancelFunc)()
	}

	go s.retryLoop(ctx, userID)
}

// stopRetryLoop 재시도 루프 취소
func (s *MatchSocketService) stopRetryLoop(userID string) {
	if cancel, loaded := s.retries.LoadAndDelete(userID); loaded {
		cancel.(context.CancelFunc)()
	}
}

// retryLoop 매칭 성공, 대기열 이탈, 연결 종료 중 하나가 일어날 때까지 주기적으로 매칭을 시도한다.
func (s *MatchSocketService) retryLoop(ctx context.Context, userID string) {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.matchService.TryMatch(ctx, userID)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Error("Match retry failed", "userId", userID, "error", err)
				continue
			}

			if result.Matched {
				s.stopRetryLoop(userID)
				s.notifyMatched(userID, result)
				return
			}

			// 상대 쪽 프로세스가 이미 매칭해 갔거나 타임아웃으로 제거된 경우 루프 종료
			queued, err := s.queue.IsInQueue(ctx, userID)
			if err != nil {
				continue
			}
			if !queued {
				s.stopRetryLoop(userID)
				return
			}
		}
	}
}

// notifyMatched 매칭 성공을 양쪽에 알린다.
// 상대방 연결이 이 프로세스에 없으면 상대방 자신의 재시도/상태 조회가 대신 전달한다.
func (s *MatchSocketService) notifyMatched(userID string, result *MatchResult) {
	payload := websocket.MatchSuccessMessage{
		SessionID: result.SessionID,
		ChannelID: result.ChannelID,
	}

	s.notifier.SendToUser(userID, websocket.EventMatchSuccess, payload)

	if s.notifier.IsConnected(result.MatchedUserID) {
		s.stopRetryLoop(result.MatchedUserID)
		s.notifier.SendToUser(result.MatchedUserID, websocket.EventMatchSuccess, payload)
	}
}

// sendError 실패를 match:error 이벤트로 변환해 전달한다.
func (s *MatchSocketService) sendError(userID string, err error) {
	s.notifier.SendToUser(userID, websocket.EventMatchError, websocket.MatchErrorMessage{
		Code:    ErrorCode(err),
		Message: err.Error(),
	})
}
