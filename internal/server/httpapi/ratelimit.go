package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientRateLimiter keeps one token bucket per client address. Stale
// entries are pruned so the map does not grow without bound.
type clientRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	maxIdle time.Duration
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientRateLimiter(perMinute int) *clientRateLimiter {
	return &clientRateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		maxIdle: 3 * time.Minute,
	}
}

// Allow reports whether a request from addr may proceed.
func (l *clientRateLimiter) Allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[addr]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[addr] = b
	}
	b.lastSeen = time.Now()

	l.prune()
	return b.limiter.Allow()
}

// prune drops buckets idle longer than maxIdle. Caller holds mu.
func (l *clientRateLimiter) prune() {
	cutoff := time.Now().Add(-l.maxIdle)
	for addr, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, addr)
		}
	}
}

// clientAddr extracts the client host from the request, without the port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
