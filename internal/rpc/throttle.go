package rpc

import (
	"sync"

	"golang.org/x/time/rate"
)

// throttle keeps one token bucket per player
type throttle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newThrottle(perSecond float64, burst int) *throttle {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &throttle{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (t *throttle) allow(playerID string) bool {
	t.mu.Lock()
	limiter, exists := t.limiters[playerID]
	if !exists {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[playerID] = limiter
	}
	t.mu.Unlock()
	return limiter.Allow()
}
