package http

import (
	"sync"
	"time"
)

// throttle caps requests per client IP over a fixed window. Only mutation
// routes go through it, so the map stays small.
type throttle struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	buckets  map[string]*bucket
	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	windowStart time.Time
	count       int
}

func newThrottle(limit int, window time.Duration) *throttle {
	t := &throttle{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go t.sweep()
	return t
}

// allow counts one request for ip and reports whether it stays under the
// limit. A new window starts when the previous one has elapsed.
func (t *throttle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	b, ok := t.buckets[ip]
	if !ok || now.Sub(b.windowStart) >= t.window {
		t.buckets[ip] = &bucket{windowStart: now, count: 1}
		return true
	}

	b.count++
	return b.count <= t.limit
}

// sweep drops buckets whose window ended long ago, so one-off clients don't
// accumulate forever.
func (t *throttle) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.dropIdle()
		case <-t.done:
			return
		}
	}
}

func (t *throttle) dropIdle() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-2 * t.window)
	for ip, b := range t.buckets {
		if b.windowStart.Before(cutoff) {
			delete(t.buckets, ip)
		}
	}
}

func (t *throttle) stop() {
	t.stopOnce.Do(func() { close(t.done) })
}
