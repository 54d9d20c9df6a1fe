package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_ConsumesAndRefills(t *testing.T) {
	bucket := NewTokenBucket(2, 1)

	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow(), "bucket should be empty")

	time.Sleep(1100 * time.Millisecond)
	assert.True(t, bucket.Allow(), "one token should have refilled")
	assert.False(t, bucket.Allow())
}

func TestTokenBucket_CapacityCap(t *testing.T) {
	bucket := NewTokenBucket(2, 100)

	time.Sleep(50 * time.Millisecond)

	// 리필이 쌓여도 용량을 넘지 않는다
	assert.True(t, bucket.AllowN(2))
	assert.False(t, bucket.Allow())
}

func TestRateLimiter_IsolatesKeys(t *testing.T) {
	limiter := NewRateLimiter(1, 1)

	assert.True(t, limiter.Allow("userA"))
	assert.False(t, limiter.Allow("userA"))

	// 다른 키는 독립적인 버킷을 쓴다
	assert.True(t, limiter.Allow("userB"))
}
