package toolexecutor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeper_InvalidSchedule(t *testing.T) {
	_, err := NewSweeper(NewRateLimiter(0), "every now and then")
	assert.ErrorContains(t, err, "invalid sweep schedule")
}

func TestSweeper_RunReclaimsIdleWindows(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(0)
	rl.SetClock(clock.Now)

	require.True(t, rl.TryAcquire("alice", "echo", 1))
	require.True(t, rl.TryAcquire("bob", "echo", 1))
	clock.Advance(RateLimitWindow + time.Second)

	s, err := NewSweeper(rl, "")
	require.NoError(t, err)
	s.run()

	assert.Equal(t, 0, rl.Len())
}

func TestSweeper_StartStop(t *testing.T) {
	s, err := NewSweeper(NewRateLimiter(0), "@every 1h")
	require.NoError(t, err)

	s.Start()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
