package controller

import "time"

// Throttle enforces a minimum interval between accepted commands of one
// kind. Move and scan are throttled independently, since a scan is allowed
// to ride between two throttled move commands.
type Throttle struct {
	minInterval time.Duration
	lastAccept  map[string]time.Time
	now         func() time.Time
}

// NewThrottle builds a Throttle with the given minimum interval between
// accepted commands of the same kind.
func NewThrottle(minInterval time.Duration) *Throttle {
	return &Throttle{
		minInterval: minInterval,
		lastAccept:  make(map[string]time.Time),
		now:         time.Now,
	}
}

// Allow reports whether a command of the given kind may be accepted now,
// and if so records the acceptance time.
func (t *Throttle) Allow(kind string) bool {
	if t.minInterval <= 0 {
		return true
	}
	now := t.now()
	last, ok := t.lastAccept[kind]
	if ok && now.Sub(last) < t.minInterval {
		return false
	}
	t.lastAccept[kind] = now
	return true
}

// Reset clears the throttle's memory, used when the controller reconnects
// and a fresh command stream begins.
func (t *Throttle) Reset() {
	t.lastAccept = make(map[string]time.Time)
}
