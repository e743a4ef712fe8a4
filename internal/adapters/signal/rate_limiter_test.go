package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewMessageRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("u1"), "send %d should pass", i+1)
	}
	assert.False(t, rl.Allow("u1"))

	// Independent per user.
	assert.True(t, rl.Allow("u2"))
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewMessageRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Allow("u1"))
}
