package mediaws

import (
	"sync"
	"time"

	"github.com/akarpov/mediactl/internal/app"
)

// ConnRateLimiter caps websocket connection attempts per client token
// over a sliding window. Tokens whose attempts have all aged out are
// swept from the map so one-off clients do not accumulate forever.
type ConnRateLimiter struct {
	mu        sync.Mutex
	history   map[app.SessionID][]time.Time
	limit     int
	interval  time.Duration
	lastSweep time.Time
}

func NewConnRateLimiter(limit int, interval time.Duration) *ConnRateLimiter {
	return &ConnRateLimiter{
		history:   make(map[app.SessionID][]time.Time),
		limit:     limit,
		interval:  interval,
		lastSweep: time.Now(),
	}
}

func (rl *ConnRateLimiter) Allow(sid app.SessionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	if now.Sub(rl.lastSweep) >= rl.interval {
		rl.sweepLocked(windowStart)
		rl.lastSweep = now
	}

	attempts := rl.history[sid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[sid] = fresh
	return true
}

func (rl *ConnRateLimiter) sweepLocked(windowStart time.Time) {
	for sid, attempts := range rl.history {
		stale := true
		for _, t := range attempts {
			if t.After(windowStart) {
				stale = false
				break
			}
		}
		if stale {
			delete(rl.history, sid)
		}
	}
}

// trackedTokens reports how many client tokens currently hold history.
func (rl *ConnRateLimiter) trackedTokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.history)
}
