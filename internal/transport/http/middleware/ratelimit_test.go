package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestRateLimitRejectsOverLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitSweepEvictsExpiredBuckets(t *testing.T) {
	rl := &rateLimiter{limit: 10, window: time.Minute, clients: make(map[string]*rateBucket)}
	now := time.Now()
	for i := 0; i < 50; i++ {
		rl.clients["ip:10.0.0."+strconv.Itoa(i)] = &rateBucket{count: 1, reset: now.Add(-time.Second)}
	}
	rl.clients["ip:live"] = &rateBucket{count: 1, reset: now.Add(time.Minute)}

	rl.sweep(now)

	if len(rl.clients) != 1 {
		t.Fatalf("expected only the live bucket to survive, got %d entries", len(rl.clients))
	}
	if _, ok := rl.clients["ip:live"]; !ok {
		t.Fatal("live bucket was evicted")
	}
}

func TestRateLimitSweepThrottled(t *testing.T) {
	now := time.Now()
	rl := &rateLimiter{limit: 10, window: time.Minute, clients: make(map[string]*rateBucket), nextSweep: now.Add(time.Minute)}
	rl.clients["ip:stale"] = &rateBucket{count: 1, reset: now.Add(-time.Second)}

	rl.sweep(now)

	if len(rl.clients) != 1 {
		t.Fatal("sweep ran before its scheduled time")
	}
}
