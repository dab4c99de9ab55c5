package politefetch

import "time"

// Policy controls the retry loop: how many attempts to make and how
// long to back off between them. Waits grow geometrically from Base by
// Multiplier and are capped at MaxWait.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Multiplier  float64
	MaxWait     time.Duration
}

// DefaultPolicy matches the pacing the upstream APIs tolerate: six
// attempts starting at 15s, doubling, capped at two minutes.
var DefaultPolicy = Policy{
	MaxAttempts: 6,
	Base:        15 * time.Second,
	Multiplier:  2,
	MaxWait:     120 * time.Second,
}

// Delay returns the wait before retrying after the given 1-based
// attempt number.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.Base)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	wait := time.Duration(d)
	if p.MaxWait > 0 && wait > p.MaxWait {
		wait = p.MaxWait
	}
	return wait
}
