package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPLimiterAllowsUpToLimit(t *testing.T) {
	l := &ipLimiter{seen: make(map[string][]time.Time), limit: 3, window: time.Minute}

	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Error("request over the limit should be rejected")
	}
	if !l.allow("10.0.0.2") {
		t.Error("a different IP should not be affected")
	}
}

func TestIPLimiterWindowSlides(t *testing.T) {
	l := &ipLimiter{seen: make(map[string][]time.Time), limit: 1, window: 50 * time.Millisecond}

	if !l.allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("second request inside the window should be rejected")
	}

	time.Sleep(60 * time.Millisecond)
	if !l.allow("10.0.0.1") {
		t.Error("request after the window expired should be allowed")
	}
}

func TestRateLimitAuthRespondsProblemJSON(t *testing.T) {
	limited := RateLimitAuth()(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var rec *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/kakao", nil)
		req.RemoteAddr = "192.0.2.1:4321"
		limited(rec, req)
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP = %q, want first forwarded address", got)
	}

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.7")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP = %q, want X-Real-IP value", got)
	}

	req.Header.Del("X-Real-IP")
	if got := clientIP(req); got != "192.0.2.1" {
		t.Errorf("clientIP = %q, want remote address without port", got)
	}
}
