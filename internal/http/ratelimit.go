package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	rateLimitWindow   = time.Minute
	rateLimitMax      = 60
	staleClientAfter  = 10 * time.Minute
	limiterSweepEvery = 5 * time.Minute
)

// rateLimiter counts write requests per client IP over a fixed window. The
// ledger is append-only, so the write paths are the abuse surface worth
// throttling; reads stay unmetered.
type rateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*requestWindow
	stop     chan struct{}
	stopOnce sync.Once
}

type requestWindow struct {
	start time.Time
	count int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		windows: make(map[string]*requestWindow),
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allow counts one request for clientIP and reports whether it is within the
// per-window limit.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w := rl.windows[clientIP]
	if w == nil || now.Sub(w.start) > rateLimitWindow {
		rl.windows[clientIP] = &requestWindow{start: now, count: 1}
		return true
	}

	w.count++
	if w.count > rateLimitMax {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleWindows()
		case <-rl.stop:
			return
		}
	}
}

// dropStaleWindows forgets clients that have been quiet long enough, keeping
// the map bounded by active clients rather than everyone ever seen.
func (rl *rateLimiter) dropStaleWindows() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleClientAfter)
	for ip, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stopSweep() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}
