package util

import "time"

// SkipThrottler reports Ok at most once per period and skips the calls in between.
type SkipThrottler struct {
	d    time.Duration
	last time.Time
	now  func() time.Time
}

func NewSkipThrottler(d time.Duration) *SkipThrottler {
	tt := &SkipThrottler{d: d, now: time.Now}
	return tt
}

func (tt *SkipThrottler) Ok() bool {
	now := tt.now()
	if !tt.last.IsZero() && now.Before(tt.last.Add(tt.d)) {
		return false
	}

	tt.last = now
	return true
}
