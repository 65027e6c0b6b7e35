package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter()

	// The login route allows 10 attempts per minute.
	for i := 0; i < 10; i++ {
		if !rl.Allow("1.2.3.4", 10, time.Minute) {
			t.Fatalf("attempt %d denied, want allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4", 10, time.Minute) {
		t.Error("attempt 11 allowed, want denied")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 3; i++ {
		rl.Allow("busy", 3, time.Minute)
	}
	if rl.Allow("busy", 3, time.Minute) {
		t.Error("exhausted key still allowed")
	}
	if !rl.Allow("quiet", 3, time.Minute) {
		t.Error("fresh key denied by someone else's bucket")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	window := 10 * time.Millisecond
	for i := 0; i < 3; i++ {
		rl.Allow("key", 3, window)
	}
	if rl.Allow("key", 3, window) {
		t.Error("allowed within exhausted window")
	}

	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("key", 3, window) {
		t.Error("denied after window expired")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()

	rl.Allow("stale", 5, 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	rl.Allow("live", 5, time.Minute)

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["stale"]; ok {
		t.Error("stale bucket survived cleanup")
	}
	if _, ok := rl.entries["live"]; !ok {
		t.Error("live bucket dropped by cleanup")
	}
}

func TestRateLimitMiddlewareRejectsWithJSON(t *testing.T) {
	rl := NewRateLimiter()
	keyFunc := func(r *http.Request) string { return RealIP(r) }

	handler := RateLimit(rl, keyFunc, 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "10.0.0.7:54321"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if body["error"] != "too many requests" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"plain remote addr", "192.168.1.9:4242", "", "192.168.1.9"},
		{"forwarded single", "10.0.0.1:80", "203.0.113.5", "203.0.113.5"},
		{"forwarded chain keeps first", "10.0.0.1:80", "203.0.113.5, 10.0.0.2", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := RealIP(req); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
