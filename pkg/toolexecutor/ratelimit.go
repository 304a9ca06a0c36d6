package toolexecutor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/rs/zerolog/log"
)

// RateLimitWindow is the trailing window rate limits are counted over
const RateLimitWindow = time.Minute

// DefaultRateLimitKeyCapacity bounds the number of (user, tool) windows kept in memory
const DefaultRateLimitKeyCapacity = 10000

type rateKey struct {
	userID   string
	toolName string
}

type rateWindow struct {
	mu         sync.Mutex
	timestamps []time.Time
	evicted    atomic.Bool
}

// RateLimiter implements per-(user, tool) sliding window rate limiting.
// Admission for one key is a single critical section under that key's lock;
// unrelated keys never contend.
type RateLimiter struct {
	mu      sync.Mutex // guards windows
	windows *simplelru.LRU[rateKey, *rateWindow]
	now     func() time.Time
}

// NewRateLimiter creates a limiter keeping at most capacity keys. The least
// recently used key is dropped when the limiter is full.
func NewRateLimiter(capacity int) *RateLimiter {
	if capacity <= 0 {
		capacity = DefaultRateLimitKeyCapacity
	}

	onEvict := func(key rateKey, w *rateWindow) {
		w.evicted.Store(true)
	}
	windows, err := simplelru.NewLRU[rateKey, *rateWindow](capacity, onEvict)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}

	return &RateLimiter{
		windows: windows,
		now:     time.Now,
	}
}

// SetClock replaces the time source
func (rl *RateLimiter) SetClock(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
}

func (rl *RateLimiter) clock() time.Time {
	rl.mu.Lock()
	now := rl.now
	rl.mu.Unlock()
	return now()
}

// window returns the window for key, creating it when create is set
func (rl *RateLimiter) window(key rateKey, create bool) *rateWindow {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if w, ok := rl.windows.Get(key); ok {
		return w
	}
	if !create {
		return nil
	}
	w := &rateWindow{timestamps: make([]time.Time, 0, 4)}
	rl.windows.Add(key, w)
	return w
}

// TryAcquire admits one call for (userID, toolName) if fewer than
// limitPerMinute calls were admitted during the trailing window.
func (rl *RateLimiter) TryAcquire(userID, toolName string, limitPerMinute int) bool {
	if limitPerMinute <= 0 {
		return false
	}
	key := rateKey{userID: userID, toolName: toolName}

	for {
		w := rl.window(key, true)
		now := rl.clock()

		w.mu.Lock()
		if w.evicted.Load() {
			// swept between lookup and lock, retry against a fresh window
			w.mu.Unlock()
			continue
		}

		w.prune(now)
		if len(w.timestamps) >= limitPerMinute {
			w.mu.Unlock()
			log.Debug().
				Str("user_id", userID).
				Str("tool", toolName).
				Int("limit", limitPerMinute).
				Msg("Rate limit exceeded")
			return false
		}

		w.timestamps = append(w.timestamps, now)
		w.mu.Unlock()
		return true
	}
}

// RetryAfter returns how long until the oldest call in the window expires
func (rl *RateLimiter) RetryAfter(userID, toolName string) time.Duration {
	w := rl.window(rateKey{userID: userID, toolName: toolName}, false)
	if w == nil {
		return 0
	}
	now := rl.clock()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	if len(w.timestamps) == 0 {
		return 0
	}
	return RateLimitWindow - now.Sub(w.timestamps[0])
}

// Usage returns the number of calls counted in the current window
func (rl *RateLimiter) Usage(userID, toolName string) int {
	w := rl.window(rateKey{userID: userID, toolName: toolName}, false)
	if w == nil {
		return 0
	}
	now := rl.clock()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	return len(w.timestamps)
}

// Sweep removes keys whose windows are empty and returns how many were removed
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for _, key := range rl.windows.Keys() {
		w, ok := rl.windows.Peek(key)
		if !ok {
			continue
		}

		w.mu.Lock()
		w.prune(now)
		if len(w.timestamps) == 0 {
			rl.windows.Remove(key)
			removed++
		}
		w.mu.Unlock()
	}

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", rl.windows.Len()).Msg("Rate limit windows swept")
	}

	return removed
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.windows.Len()
}

// prune drops timestamps outside the trailing window. Caller holds w.mu.
func (w *rateWindow) prune(now time.Time) {
	cutoff := now.Add(-RateLimitWindow)
	i := 0
	for i < len(w.timestamps) && !w.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[i:]...)
	}
}
