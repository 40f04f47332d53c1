package http

import (
	"math/rand"
	"time"
)

// BackoffPolicy controls how a polling loop slows down while the
// backend is unreachable. The base period is used while requests
// succeed; consecutive transport failures grow the delay exponentially
// up to Max, and MaxFailures bounds the total failure budget.
type BackoffPolicy struct {
	// Base is the delay used after a successful poll.
	Base time.Duration
	// Max caps the backed-off delay.
	Max time.Duration
	// MaxFailures is the number of consecutive transport failures
	// tolerated before the caller should give up.
	MaxFailures int
}

// Delay returns the wait before the next poll given the current count
// of consecutive transport failures. Zero failures yields the base
// period unchanged. Jitter of up to 25% is added to backed-off delays
// so stalled loops don't synchronize.
func (p BackoffPolicy) Delay(failures int) time.Duration {
	if failures <= 0 {
		return p.Base
	}

	delay := p.Base
	for i := 0; i < failures && delay < p.Max; i++ {
		delay *= 2
	}
	if delay > p.Max {
		delay = p.Max
	}

	if quarter := int64(delay) / 4; quarter > 0 {
		delay += time.Duration(rand.Int63n(quarter))
	}
	return delay
}

// Exhausted reports whether the failure budget is spent.
func (p BackoffPolicy) Exhausted(failures int) bool {
	return p.MaxFailures > 0 && failures >= p.MaxFailures
}
