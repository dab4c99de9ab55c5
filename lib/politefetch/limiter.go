package politefetch

import (
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between the completion of one
// successful request and the start of the next, process-wide. A single
// Limiter is meant to be shared by every client talking to the same
// host, including concurrent workers.
type Limiter struct {
	mu      sync.Mutex
	spacing time.Duration
	last    time.Time
	clock   Clock
}

func NewLimiter(spacing time.Duration) *Limiter {
	return NewLimiterWithClock(spacing, SystemClock)
}

func NewLimiterWithClock(spacing time.Duration, clock Clock) *Limiter {
	return &Limiter{spacing: spacing, clock: clock}
}

// Wait blocks until the configured spacing since the last successful
// request has elapsed. The first call never blocks.
func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.last.IsZero() || l.spacing <= 0 {
		return
	}
	remaining := l.spacing - l.clock.Now().Sub(l.last)
	if remaining > 0 {
		l.clock.Sleep(remaining)
	}
}

// MarkSuccess advances the last-request marker. Callers invoke it only
// after a request succeeds, so a failed attempt never shortens the next
// wait.
func (l *Limiter) MarkSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = l.clock.Now()
}
