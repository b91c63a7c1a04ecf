package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fixedLimiter returns a limiter whose clock only moves when advance is
// called.
func fixedLimiter() (*RateLimiter, func(time.Duration)) {
	rl := NewRateLimiter()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, func(d time.Duration) { now = now.Add(d) }
}

func TestRateLimiterAllow(t *testing.T) {
	rl, advance := fixedLimiter()

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow("k", 3, time.Minute); !ok {
			t.Fatalf("hit %d denied", i+1)
		}
	}
	advance(20 * time.Second)
	ok, wait := rl.Allow("k", 3, time.Minute)
	if ok {
		t.Fatal("4th hit allowed")
	}
	if wait != 40*time.Second {
		t.Errorf("wait = %v, want 40s", wait)
	}

	if ok, _ := rl.Allow("other", 3, time.Minute); !ok {
		t.Error("keys should be counted separately")
	}

	advance(40 * time.Second)
	if ok, _ := rl.Allow("k", 3, time.Minute); !ok {
		t.Error("hit after window reset denied")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, advance := fixedLimiter()
	rl.Allow("short", 5, time.Second)
	rl.Allow("long", 5, time.Hour)
	advance(2 * time.Second)

	if n := rl.Cleanup(); n != 1 {
		t.Errorf("removed %d buckets, want 1", n)
	}
	if _, ok := rl.buckets["short"]; ok {
		t.Error("ended bucket kept")
	}
	if _, ok := rl.buckets["long"]; !ok {
		t.Error("live bucket removed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, advance := fixedLimiter()
	calls := 0
	handler := RateLimit(rl, RealIP, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	}))
	serve := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	serve("127.0.0.1:1000")
	serve("127.0.0.1:1001")
	advance(30*time.Second + 200*time.Millisecond)
	rec := serve("127.0.0.1:1002")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want 30", got)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}

	if rec := serve("10.1.1.1:1000"); rec.Code != http.StatusNoContent {
		t.Errorf("other client status = %d, want 204", rec.Code)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.5:1234", "10.0.0.5"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.5:1234", "203.0.113.9"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "10.0.0.5:1234", "198.51.100.1"},
		{"no port", nil, "10.0.0.5", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := RealIP(req); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
