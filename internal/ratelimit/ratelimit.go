// Package ratelimit admits or rejects callback requests per source address
// over a sliding window. State is in-memory and resets on restart.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMaxCalls = 10
	DefaultWindow   = 60 * time.Second
)

// Limiter is a per-source sliding-window admission check. The clock is
// injectable so the window is testable.
type Limiter struct {
	mu       sync.Mutex
	maxCalls int
	window   time.Duration
	clock    func() time.Time
	calls    map[string][]time.Time
}

func New(maxCalls int, window time.Duration) *Limiter {
	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		clock:    time.Now,
		calls:    make(map[string][]time.Time),
	}
}

func NewDefault() *Limiter {
	return New(DefaultMaxCalls, DefaultWindow)
}

// SetClock injects a clock for tests.
func (l *Limiter) SetClock(clock func() time.Time) {
	l.clock = clock
}

// Allow records the call and reports whether source is within its limit.
// A rejected call is not recorded against the window.
func (l *Limiter) Allow(source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	recent := l.calls[source][:0]
	for _, at := range l.calls[source] {
		if now.Sub(at) < l.window {
			recent = append(recent, at)
		}
	}

	if len(recent) >= l.maxCalls {
		l.calls[source] = recent
		return false
	}

	l.calls[source] = append(recent, now)
	return true
}
