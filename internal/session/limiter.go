package session

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedKeys bounds the limiter map; past it the map starts over.
const maxTrackedKeys = 10000

// Limiter throttles login attempts per client key.
type Limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func NewLimiter(limit rate.Limit, burst int) *Limiter {
	return &Limiter{limit: limit, burst: burst, limiters: map[string]*rate.Limiter{}}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedKeys {
			l.limiters = map[string]*rate.Limiter{}
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim.Allow()
}
