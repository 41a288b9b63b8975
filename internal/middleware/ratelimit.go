package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goalpath/goalpath/internal/problem"
)

// ipLimiter counts requests per client IP over a sliding window.
type ipLimiter struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	window time.Duration
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	l := &ipLimiter{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go l.evictLoop()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.window)

	kept := l.seen[ip][:0]
	for _, at := range l.seen[ip] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.seen[ip] = kept
		return false
	}

	l.seen[ip] = append(kept, time.Now())
	return true
}

// evictLoop drops IPs whose entries have all aged out, so the map does not
// grow without bound.
func (l *ipLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.evict()
	}
}

func (l *ipLimiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.window)
	for ip, entries := range l.seen {
		stale := true
		for _, at := range entries {
			if at.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(l.seen, ip)
		}
	}
}

// RateLimitAuth limits the OAuth endpoints per client IP. One sign-in is
// two requests (authorize redirect plus callback), so the budget leaves
// room for a handful of full attempts per window.
func RateLimitAuth() func(http.HandlerFunc) http.HandlerFunc {
	limiter := newIPLimiter(10, 5*time.Minute)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !limiter.allow(ip) {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				problem.Write(w, http.StatusTooManyRequests, "too many sign-in attempts, try again later")
				return
			}

			next(w, r)
		}
	}
}

// clientIP resolves the originating address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
