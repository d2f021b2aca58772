package syncer

import "time"

const (
	DefaultBaseBackoff = 5 * time.Second
	DefaultMaxBackoff  = 5 * time.Minute
)

// Backoff decides when a take may be attempted again: Base·2^retries, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{Base: DefaultBaseBackoff, Max: DefaultMaxBackoff}
}

func (b Backoff) normalized() Backoff {
	if b.Base <= 0 {
		b.Base = DefaultBaseBackoff
	}
	if b.Max <= 0 {
		b.Max = DefaultMaxBackoff
	}
	return b
}

func (b Backoff) Delay(retryCount int) time.Duration {
	b = b.normalized()
	if retryCount < 0 {
		retryCount = 0
	}
	d := b.Base
	for i := 0; i < retryCount; i++ {
		if d >= b.Max/2 {
			return b.Max
		}
		d *= 2
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Eligible reports whether enough time has passed since the last attempt.
func (b Backoff) Eligible(retryCount int, lastAttemptAt *time.Time, now time.Time) bool {
	if lastAttemptAt == nil {
		return true
	}
	return now.Sub(*lastAttemptAt) >= b.Delay(retryCount)
}
