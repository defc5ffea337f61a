package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Default limits applied when a Config field is zero.
const (
	DefaultWindow         = 60 * time.Second
	DefaultMaxRequests    = 10
	DefaultSweepThreshold = 1000
)

// Config controls a sliding-window limiter.
type Config struct {
	// Window is the trailing interval over which admissions are counted.
	Window time.Duration

	// MaxRequests is the number of admissions allowed per identity per Window.
	MaxRequests int

	// SweepThreshold is the number of tracked identities above which expired
	// logs are garbage-collected.
	SweepThreshold int
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.SweepThreshold <= 0 {
		c.SweepThreshold = DefaultSweepThreshold
	}
	return c
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool

	// Remaining is the number of admissions left in the current window.
	// Only meaningful when Allowed is true.
	Remaining int

	// RetryAfterSeconds is how long the client should wait before the oldest
	// counted request leaves the window. Only set when Allowed is false.
	RetryAfterSeconds int
}

// Limiter decides whether a client identity may proceed.
type Limiter interface {
	Allow(ctx context.Context, identity string) (Decision, error)
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(s *SlidingWindow) {
		s.now = clock
	}
}

// SlidingWindow is an in-memory Limiter. State is local to the process, so
// horizontally scaled instances each enforce their own budget.
type SlidingWindow struct {
	cfg Config
	now Clock

	mu   sync.Mutex
	logs map[string][]time.Time
}

var _ Limiter = (*SlidingWindow)(nil)

// NewSlidingWindow creates an in-memory limiter.
func NewSlidingWindow(cfg Config, opts ...Option) *SlidingWindow {
	s := &SlidingWindow{
		cfg:  cfg.withDefaults(),
		now:  time.Now,
		logs: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements Limiter. It never returns an error.
func (s *SlidingWindow) Allow(_ context.Context, identity string) (Decision, error) {
	return s.CheckAndRecord(identity), nil
}

// CheckAndRecord counts the identity's requests inside the trailing window and
// records this one if the limit has not been reached. Rejected attempts are
// not recorded.
func (s *SlidingWindow) CheckAndRecord(identity string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.cfg.Window)
	recent := pruneBefore(s.logs[identity], cutoff)

	if len(recent) >= s.cfg.MaxRequests {
		s.logs[identity] = recent
		return Decision{
			Allowed:           false,
			RetryAfterSeconds: retryAfterSeconds(recent[0].Add(s.cfg.Window).Sub(now)),
		}
	}

	recent = append(recent, now)
	s.logs[identity] = recent

	if len(s.logs) > s.cfg.SweepThreshold {
		s.sweep(cutoff)
	}

	return Decision{
		Allowed:   true,
		Remaining: s.cfg.MaxRequests - len(recent),
	}
}

// Tracked returns the number of identities currently held in memory.
func (s *SlidingWindow) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// sweep drops expired timestamps for every identity and forgets identities
// whose log becomes empty. Callers must hold s.mu.
func (s *SlidingWindow) sweep(cutoff time.Time) {
	for id, times := range s.logs {
		kept := pruneBefore(times, cutoff)
		if len(kept) == 0 {
			delete(s.logs, id)
			continue
		}
		s.logs[id] = kept
	}
}

// pruneBefore returns the suffix of times that is strictly after cutoff.
// times is in insertion order, which is chronological.
func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return times
	}
	kept := make([]time.Time, len(times)-i)
	copy(kept, times[i:])
	return kept
}

func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
