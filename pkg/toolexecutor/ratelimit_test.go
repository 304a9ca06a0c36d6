package toolexecutor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimiter_TryAcquire(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(0)
	rl.SetClock(clock.Now)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.TryAcquire("u", "tool", 5), "call %d", i)
	}
	assert.False(t, rl.TryAcquire("u", "tool", 5))
	assert.Equal(t, 5, rl.Usage("u", "tool"))

	// different tool and different user are independent keys
	assert.True(t, rl.TryAcquire("u", "other", 5))
	assert.True(t, rl.TryAcquire("v", "tool", 5))
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(0)
	rl.SetClock(clock.Now)

	require.True(t, rl.TryAcquire("u", "tool", 2))
	clock.Advance(30 * time.Second)
	require.True(t, rl.TryAcquire("u", "tool", 2))
	assert.False(t, rl.TryAcquire("u", "tool", 2))

	assert.Equal(t, 30*time.Second, rl.RetryAfter("u", "tool"))

	clock.Advance(29 * time.Second)
	assert.False(t, rl.TryAcquire("u", "tool", 2))

	clock.Advance(time.Second)
	assert.True(t, rl.TryAcquire("u", "tool", 2))
	assert.Equal(t, 2, rl.Usage("u", "tool"))
}

func TestRateLimiter_RejectedCallsAreNotCounted(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(0)
	rl.SetClock(clock.Now)

	require.True(t, rl.TryAcquire("u", "tool", 1))
	for i := 0; i < 10; i++ {
		assert.False(t, rl.TryAcquire("u", "tool", 1))
	}

	clock.Advance(RateLimitWindow)
	assert.True(t, rl.TryAcquire("u", "tool", 1))
}

func TestRateLimiter_NonPositiveLimitDenies(t *testing.T) {
	rl := NewRateLimiter(0)
	assert.False(t, rl.TryAcquire("u", "tool", 0))
	assert.False(t, rl.TryAcquire("u", "tool", -3))
}

func TestRateLimiter_ConcurrentAdmissionIsLinearizable(t *testing.T) {
	rl := NewRateLimiter(0)

	var wg sync.WaitGroup
	var admitted atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.TryAcquire("u", "tool", 25) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(25), admitted.Load())
}

func TestRateLimiter_Sweep(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(0)
	rl.SetClock(clock.Now)

	require.True(t, rl.TryAcquire("old", "tool", 1))
	clock.Advance(45 * time.Second)
	require.True(t, rl.TryAcquire("recent", "tool", 1))
	assert.Equal(t, 2, rl.Len())

	clock.Advance(20 * time.Second)
	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Len())
	assert.Equal(t, 0, rl.Usage("old", "tool"))
	assert.Equal(t, 1, rl.Usage("recent", "tool"))

	// a swept key starts over with a fresh window
	assert.True(t, rl.TryAcquire("old", "tool", 1))
}

func TestRateLimiter_KeyCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		require.True(t, rl.TryAcquire(fmt.Sprintf("user-%d", i), "tool", 1))
	}
	// touch user-0 so user-1 becomes the oldest
	assert.False(t, rl.TryAcquire("user-0", "tool", 1))

	require.True(t, rl.TryAcquire("user-3", "tool", 1))

	assert.Equal(t, 3, rl.Len())
	assert.Equal(t, 0, rl.Usage("user-1", "tool"))
	assert.Equal(t, 1, rl.Usage("user-0", "tool"))
}
