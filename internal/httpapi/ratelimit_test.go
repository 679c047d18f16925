package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenLimiterBurst(t *testing.T) {
	limiter := newTokenLimiter(1, 2)

	if !limiter.allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if !limiter.allow("10.0.0.1") {
		t.Fatal("second request within burst should pass")
	}
	if limiter.allow("10.0.0.1") {
		t.Fatal("third request should exceed the burst")
	}
	// Other clients keep their own bucket.
	if !limiter.allow("10.0.0.2") {
		t.Fatal("unrelated client should not be throttled")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 1})
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/pcs", nil)
	req.RemoteAddr = "10.0.0.1:40000"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", resp.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "remote addr", remoteAddr: "10.0.0.1:40000", want: "10.0.0.1"},
		{name: "forwarded single", remoteAddr: "10.0.0.1:40000", forwarded: "203.0.113.7", want: "203.0.113.7"},
		{name: "forwarded chain", remoteAddr: "10.0.0.1:40000", forwarded: "203.0.113.7, 10.0.0.1", want: "203.0.113.7"},
		{name: "no port", remoteAddr: "10.0.0.1", want: "10.0.0.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if got := clientIP(req); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
