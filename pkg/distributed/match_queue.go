package distributed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nicemins/connecto-backend/pkg/logger"
)

const (
	queueKey           = "match:queue"
	userQueueKeyPrefix = "match:user:"
	matchLockKey       = "match:lock"

	// lockExtendEvery 후보 몇 명마다 락 lease를 갱신할지
	lockExtendEvery = 100
)

var (
	ErrAlreadyQueued   = errors.New("user already in queue")
	ErrLockUnavailable = errors.New("match lock unavailable")
)

// atomicPairScript 두 사용자를 원자적으로 제거하는 Lua 스크립트
// - 둘 다 제거되면 1, 아니면 원래 score로 롤백 후 0
// - 롤백 시 원래 score를 유지해야 FIFO 순서가 보존됨
var atomicPairScript = redis.NewScript(`
	local queueKey = KEYS[1]
	local user1 = ARGV[1]
	local user2 = ARGV[2]
	local removed1 = redis.call('ZREM', queueKey, user1)
	local removed2 = redis.call('ZREM', queueKey, user2)
	if removed1 == 1 and removed2 == 1 then
		return 1
	end
	if removed1 == 1 then
		redis.call('ZADD', queueKey, ARGV[3], user1)
	end
	if removed2 == 1 then
		redis.call('ZADD', queueKey, ARGV[4], user2)
	end
	return 0
`)

// MatchQueue Redis Sorted Set 기반 FIFO 매칭 대기열
// - score = 진입 시각(ms), 오래된 사용자부터 매칭
// - 모든 변경 연산은 분산 락(match:lock)으로 직렬화
// - 쌍 제거는 Lua 스크립트로 원자적 처리 (절반 매칭 불가)
type MatchQueue struct {
	client       *redis.Client
	lockManager  *RedisLockManager
	queueTimeout time.Duration
	lockWait     time.Duration
	lockLease    time.Duration
	lockRetry    time.Duration
}

// MatchQueueConfig 매칭 대기열 설정
type MatchQueueConfig struct {
	QueueTimeout time.Duration // 대기열 타임아웃 (기본 5분)
	LockWait     time.Duration // 락 획득 대기 한도 (기본 3초)
	LockLease    time.Duration // 락 lease (기본 10초)
}

// NewMatchQueue 매칭 대기열 생성
func NewMatchQueue(client *redis.Client, cfg MatchQueueConfig) *MatchQueue {
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = 5 * time.Minute
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 3 * time.Second
	}
	if cfg.LockLease <= 0 {
		cfg.LockLease = 10 * time.Second
	}

	return &MatchQueue{
		client:       client,
		lockManager:  NewRedisLockManager(client),
		queueTimeout: cfg.QueueTimeout,
		lockWait:     cfg.LockWait,
		lockLease:    cfg.LockLease,
		lockRetry:    100 * time.Millisecond,
	}
}

// Enqueue 대기열 진입
// - 락 내부에서 중복 여부를 확인한 후 삽입 (확인-삽입 사이 race 방지)
// - 사용자별 보조 키는 타임아웃 관리용 북키핑, 만료 정리는 score 기준 sweep이 담당
func (q *MatchQueue) Enqueue(ctx context.Context, userID string) error {
	lock, err := q.acquireLock(ctx)
	if err != nil {
		logger.Error("Failed to acquire lock for enqueue", "userId", userID, "error", err)
		return ErrLockUnavailable
	}
	defer q.releaseLock(lock)

	queued, err := q.isInQueue(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check queue membership: %w", err)
	}
	if queued {
		logger.Warn("User is already in queue", "userId", userID)
		return ErrAlreadyQueued
	}

	score := float64(time.Now().UnixMilli())
	if err := q.client.ZAdd(ctx, queueKey, redis.Z{Score: score, Member: userID}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue user: %w", err)
	}

	if err := q.client.Set(ctx, userQueueKeyPrefix+userID, "1", q.queueTimeout).Err(); err != nil {
		return fmt.Errorf("failed to set user queue key: %w", err)
	}

	logger.Info("User entered match queue", "userId", userID)
	return nil
}

// Dequeue 대기열 이탈 (멱등)
// - 대기열에 없어도 에러가 아님, 락 획득 실패만 에러
func (q *MatchQueue) Dequeue(ctx context.Context, userID string) error {
	lock, err := q.acquireLock(ctx)
	if err != nil {
		logger.Error("Failed to acquire lock for dequeue", "userId", userID, "error", err)
		return ErrLockUnavailable
	}
	defer q.releaseLock(lock)

	pipe := q.client.Pipeline()
	pipe.ZRem(ctx, queueKey, userID)
	pipe.Del(ctx, userQueueKeyPrefix+userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to dequeue user: %w", err)
	}

	logger.Info("User left match queue", "userId", userID)
	return nil
}

// FindMatch 대기열에서 매칭 상대 찾기 (FIFO)
// - 가장 오래된 후보부터 Lua 스크립트로 원자적 쌍 제거를 시도
// - 락 획득 실패는 에러가 아니라 "이번엔 매칭 없음"으로 처리 (호출자가 재시도)
func (q *MatchQueue) FindMatch(ctx context.Context, userID string) (string, error) {
	lock, err := q.acquireLock(ctx)
	if err != nil {
		logger.Warn("Failed to acquire lock for findMatch, skipping attempt", "userId", userID)
		return "", nil
	}
	defer q.releaseLock(lock)

	// 자신이 대기열에 있는지 확인 (동시 연산으로 이미 소비/정리됐을 수 있음)
	userScore, err := q.client.ZScore(ctx, queueKey, userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user score: %w", err)
	}

	// score 오름차순 = 진입 시각 순
	members, err := q.client.ZRangeWithScores(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return "", fmt.Errorf("failed to scan queue: %w", err)
	}

	for i, member := range members {
		// 대기열이 길면 스캔이 lease(10초)를 넘길 수 있으므로 주기적으로 갱신한다.
		// 갱신 실패 = lease 만료로 락을 잃은 상태, 더 진행하면 직렬화가 깨진다.
		if i > 0 && i%lockExtendEvery == 0 {
			if err := lock.Extend(ctx, q.lockLease); err != nil {
				logger.Warn("Lost match lock lease during scan, aborting attempt",
					"userId", userID,
					"error", err,
				)
				return "", nil
			}
		}

		candidateID, ok := member.Member.(string)
		if !ok || candidateID == userID {
			continue
		}

		result, err := atomicPairScript.Run(
			ctx,
			q.client,
			[]string{queueKey},
			userID,
			candidateID,
			strconv.FormatFloat(userScore, 'f', -1, 64),
			strconv.FormatFloat(member.Score, 'f', -1, 64),
		).Int()
		if err != nil {
			return "", fmt.Errorf("failed to run atomic pair removal: %w", err)
		}

		if result == 1 {
			// 매칭 성공: 두 사용자 모두 원자적으로 제거됨
			pipe := q.client.Pipeline()
			pipe.Del(ctx, userQueueKeyPrefix+userID)
			pipe.Del(ctx, userQueueKeyPrefix+candidateID)
			if _, err := pipe.Exec(ctx); err != nil {
				logger.Error("Failed to delete user queue keys after match", "error", err)
			}

			logger.Info("Matched users", "userId", userID, "candidateId", candidateID)
			return candidateID, nil
		}
		// 실패 시 스크립트가 롤백 처리, 다음 후보 시도
	}

	return "", nil
}

// IsInQueue 대기열 멤버십 확인 (락 없이, 약간의 staleness 허용)
func (q *MatchQueue) IsInQueue(ctx context.Context, userID string) (bool, error) {
	return q.isInQueue(ctx, userID)
}

func (q *MatchQueue) isInQueue(ctx context.Context, userID string) (bool, error) {
	_, err := q.client.ZScore(ctx, queueKey, userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// QueueSize 대기열 크기 조회 (진단용)
func (q *MatchQueue) QueueSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, queueKey).Result()
}

// CleanupExpiredUsers 타임아웃된 대기열 엔트리 일괄 제거
// - 스케줄러가 주기적으로 호출, 요청 경로에서는 호출하지 않음
func (q *MatchQueue) CleanupExpiredUsers(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-q.queueTimeout).UnixMilli()

	removed, err := q.client.ZRemRangeByScore(ctx, queueKey, "0", strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired users: %w", err)
	}

	if removed > 0 {
		logger.Info("Cleaned up expired users from queue", "removed", removed)
	}
	return removed, nil
}

func (q *MatchQueue) acquireLock(ctx context.Context) (*RedisLock, error) {
	return q.lockManager.AcquireWithWait(
		ctx,
		matchLockKey,
		uuid.New().String(),
		q.lockLease,
		q.lockWait,
		q.lockRetry,
	)
}

func (q *MatchQueue) releaseLock(lock *RedisLock) {
	if err := lock.Release(context.Background()); err != nil {
		logger.Error("Failed to release match lock", "error", err)
	}
}
