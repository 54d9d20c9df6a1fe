package distributed

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMatchQueue(t *testing.T) (*MatchQueue, *redis.Client) {
	client := setupRedisClient(t)
	queue := NewMatchQueue(client, MatchQueueConfig{
		QueueTimeout: 5 * time.Minute,
		LockWait:     3 * time.Second,
		LockLease:    10 * time.Second,
	})
	return queue, client
}

func TestMatchQueue_EnqueueDuplicate(t *testing.T) {
	queue, client := setupMatchQueue(t)
	defer client.Close()

	ctx := context.Background()

	err := queue.Enqueue(ctx, "user1")
	require.NoError(t, err)

	// 중복 진입은 거부
	err = queue.Enqueue(ctx, "user1")
	assert.Equal(t, ErrAlreadyQueued, err)

	// 대기열에는 한 번만 존재
	size, err := queue.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	// 보조 키 확인 (TTL 북키핑)
	ttl, err := client.TTL(ctx, "match:user:user1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestMatchQueue_DequeueIdempotent(t *testing.T) {
	queue, client := setupMatchQueue(t)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, "user1"))
	require.NoError(t, queue.Dequeue(ctx, "user1"))

	// 두 번째 dequeue도, 대기열에 없던 사용자도 에러가 아님
	assert.NoError(t, queue.Dequeue(ctx, "user1"))
	assert.NoError(t, queue.Dequeue(ctx, "never-queued"))

	size, err := queue.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

// 대기열이 lockExtendEvery를 넘는 규모여도 가장 오래된 후보와 매칭되어야 한다.
func TestMatchQueue_FindMatch_LargeQueue(t *testing.T) {
	queue, client := setupMatchQueue(t)
	defer client.Close()

	ctx := context.Background()

	// lockExtendEvery보다 긴 대기열을 score 순으로 직접 구성
	base := float64(time.Now().UnixMilli())
	for i := 0; i < lockExtendEvery+50; i++ {
		member := "bulk" + strconv.Itoa(i)
		require.NoError(t, client.ZAdd(ctx, queueKey, redis.Z{Score: base + float64(i), Member: member}).Err())
	}
	require.NoError(t, client.ZAdd(ctx, queueKey, redis.Z{Score: base + 10000, Member: "caller"}).Err())

	candidate, err := queue.FindMatch(ctx, "caller")
	require.NoError(t, err)
	assert.Equal(t, "bulk0", candidate)
}

func TestMatchQueue_FindMatch_FIFO(t *testing.T) {
	queue, client := setupMatchQueue(t)
	defer client.Close()

	ctx := context.Background()

	// u1..u3 순서대로 진입 (score 구분을 위해 약간의 간격)
	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, queue.Enqueue(ctx, id))
		time.Sleep(5 * time.Millisecond)
	}

	// u3의 매칭 상대는 가장 오래된 u1이어야 함
	candidate, err := queue.FindMatch(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, "u1", candidate)

	// u1, u3 모두 제거, u2만 남음
	inQueue, err := queue.IsInQueue(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, inQueue)

	size, err := queue.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestMatchQueue_FindMatch_NotQueued(t *testing.T) {
	queue, client := setupMatchQueue(t)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, "u1"))

	// 대기열에 없는 사용자는 즉시 매칭 없음
	candidate, err := queue.FindMatch(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, candidate)

	// 혼자 남은 사용자도 매칭 없음 (자기 자신 제외)
	candidate, err = queue.FindMatch(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, candidate)

	inQueue, err := queue.IsInQueue(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, inQueue)
}

func TestMatchQueue_AtomicPairRollback(t *testing.T) {
	queue, client := setupMatchQueue(t)
	defer client.Close()

	ctx := context.Background()

	// u1, u5 진입
	require.NoError(t, queue.Enqueue(ctx, "u1"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, queue.Enqueue(ctx, "u5"))

	u1Score, err := client.ZScore(ctx, "match:queue", "u1").Result()
	require.NoError(t, err)
	u5Score, err := client.ZScore(ctx, "match:queue", "u5").Result()
	require.NoError(t, err)

	// 이미 소비된 후보(ghost)와의 쌍 제거는 실패하고 u5는 원래 score로 롤백되어야 함
	result, err := atomicPairScript.Run(
		ctx,
		client,
		[]string{"match:queue"},
		"u5",
		"ghost",
		strconv.FormatFloat(u5Score, 'f', -1, 64),
		strconv.FormatFloat(0, 'f', -1, 64),
	).Int()
	require.NoError(t, err)
	assert.Equal(t, 0, result)

	// 롤백 후 score 불변 (FIFO 순서 보존)
	restored, err := client.ZScore(ctx, "match:queue", "u5").Result()
	require.NoError(t, err)
	assert.Equal(t, u5Score, restored)

	// u1은 원래 score 그대로 대기 중
	current, err := client.ZScore(ctx, "match:queue", "u1").Result()
	require.NoError(t, err)
	assert.Equal(t, u1Score, current)

	// 다음 findMatch는 여전히 가장 오래된 u1을 선택
	candidate, err := queue.FindMatch(ctx, "u5")
	require.NoError(t, err)
	assert.Equal(t, "u1", candidate)
}

func TestMatchQueue_NoDoubleMatch(t *testing.T) {
	queue, client := setupMatchQueue(t)
	defer client.Close()

	ctx := context.Background()

	// 10명 진입
	const numUsers = 10
	users := make([]string, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		id := "user" + strconv.Itoa(i)
		users = append(users, id)
		require.NoError(t, queue.Enqueue(ctx, id))
	}

	// 전원이 동시에 findMatch 시도
	var wg sync.WaitGroup
	var mu sync.Mutex
	matched := make(map[string]string)

	for _, id := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			candidate, err := queue.FindMatch(context.Background(), userID)
			if err == nil && candidate != "" {
				mu.Lock()
				matched[userID] = candidate
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	// 어떤 사용자도 두 쌍에 속하지 않아야 함
	seen := make(map[string]int)
	for userID, candidate := range matched {
		assert.NotEqual(t, userID, candidate, "self match must be impossible")
		seen[userID]++
		seen[candidate]++
	}
	for userID, count := range seen {
		assert.Equal(t, 1, count, "user %s appears in more than one pairing", userID)
	}

	// 매칭된 쌍 수만큼 대기열에서 제거됨 (절반 매칭 불가)
	size, err := queue.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(numUsers-2*len(matched)), size)
}

func TestMatchQueue_CleanupExpiredUsers(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	queue := NewMatchQueue(client, MatchQueueConfig{QueueTimeout: 1 * time.Second})
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, "stale"))

	// 타임아웃 경과 후 새 사용자 진입
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, queue.Enqueue(ctx, "fresh"))

	removed, err := queue.CleanupExpiredUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	inQueue, err := queue.IsInQueue(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, inQueue)

	inQueue, err = queue.IsInQueue(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, inQueue)
}
