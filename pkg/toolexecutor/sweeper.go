package toolexecutor

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSweepSchedule reclaims idle rate limit windows every five minutes
const DefaultSweepSchedule = "@every 5m"

// Sweeper periodically reclaims rate limit windows that no longer hold any
// in-window calls, so callers that exhausted a quota and never return do not
// pin memory until LRU eviction.
type Sweeper struct {
	cron    *cron.Cron
	limiter *RateLimiter
}

// NewSweeper schedules limiter sweeps. The schedule accepts standard five
// field cron expressions and descriptors such as "@every 1m".
func NewSweeper(limiter *RateLimiter, schedule string) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	c := cron.New()
	s := &Sweeper{cron: c, limiter: limiter}
	if _, err := c.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins running sweeps in the background
func (s *Sweeper) Start() {
	s.cron.Start()
	log.Debug().Msg("Rate limit sweeper started")
}

// Stop halts scheduling and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	s.limiter.Sweep()
}
