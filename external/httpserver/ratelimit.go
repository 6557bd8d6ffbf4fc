package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientRateLimiter keeps one token bucket per client address, refilled at
// maxRequests per window, matching the per-IP limiting the public API has
// always applied.
type clientRateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*rate.Limiter
	lastSeen map[string]time.Time
	limit    rate.Limit
	burst    int
}

func newClientRateLimiter(window time.Duration, maxRequests int) *clientRateLimiter {
	return &clientRateLimiter{
		clients:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		limit:    rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:    maxRequests,
	}
}

func (l *clientRateLimiter) limiterFor(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients[client]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[client] = lim
	}
	l.lastSeen[client] = time.Now()
	l.evictStaleLocked()
	return lim
}

// evictStaleLocked drops buckets idle for over an hour so the map does not
// grow without bound.
func (l *clientRateLimiter) evictStaleLocked() {
	cutoff := time.Now().Add(-time.Hour)
	for client, seen := range l.lastSeen {
		if seen.Before(cutoff) {
			delete(l.clients, client)
			delete(l.lastSeen, client)
		}
	}
}

func (l *clientRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		if !l.limiterFor(client).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:     "Too many requests",
				Message:   "Too many requests from this IP, please try again later.",
				Timestamp: time.Now().UTC(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
