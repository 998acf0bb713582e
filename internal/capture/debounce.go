package capture

import "time"

const DefaultDebounceInterval = 2000 * time.Millisecond

// Debouncer suppresses a code identical to the previously forwarded one until
// the quiet interval has elapsed. Different codes always pass. Not safe for
// concurrent use.
type Debouncer struct {
	interval time.Duration
	last     string
	lastAt   time.Time
	seen     bool
}

func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	return &Debouncer{interval: interval}
}

// Allow reports whether code should be forwarded at now, recording it if so.
func (d *Debouncer) Allow(code string, now time.Time) bool {
	if d.seen && code == d.last && now.Sub(d.lastAt) < d.interval {
		return false
	}
	d.last = code
	d.lastAt = now
	d.seen = true
	return true
}

func (d *Debouncer) Reset() {
	d.last = ""
	d.lastAt = time.Time{}
	d.seen = false
}
