package http

import (
	"testing"
	"time"
)

func TestThrottleAllowsUnderLimit(t *testing.T) {
	th := newThrottle(3, time.Minute)
	defer th.stop()

	for i := 0; i < 3; i++ {
		if !th.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if th.allow("10.0.0.1") {
		t.Error("request over the limit should be denied")
	}
}

func TestThrottleTracksClientsSeparately(t *testing.T) {
	th := newThrottle(1, time.Minute)
	defer th.stop()

	if !th.allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !th.allow("10.0.0.2") {
		t.Error("second client has its own bucket")
	}
	if th.allow("10.0.0.1") {
		t.Error("first client is at its limit")
	}
}

func TestThrottleResetsAfterWindow(t *testing.T) {
	th := newThrottle(1, 10*time.Millisecond)
	defer th.stop()

	if !th.allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if th.allow("10.0.0.1") {
		t.Fatal("second request in the same window should be denied")
	}

	time.Sleep(15 * time.Millisecond)
	if !th.allow("10.0.0.1") {
		t.Error("a fresh window should admit the client again")
	}
}

func TestThrottleDropsIdleBuckets(t *testing.T) {
	th := newThrottle(5, time.Millisecond)
	defer th.stop()

	th.allow("10.0.0.1")
	th.allow("10.0.0.2")

	time.Sleep(5 * time.Millisecond)
	th.dropIdle()

	th.mu.Lock()
	n := len(th.buckets)
	th.mu.Unlock()
	if n != 0 {
		t.Errorf("idle buckets remaining = %d, want 0", n)
	}
}
