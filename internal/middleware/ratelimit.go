package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fullcourse/fullcourse-api/internal/metrics"
)

const visitorIdleTimeout = 10 * time.Minute

// bucketKey separates budgets per endpoint, so exhausting login attempts
// does not also lock a client out of requesting a reset link.
type bucketKey struct {
	client string
	path   string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu      sync.Mutex
	buckets map[bucketKey]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{
		buckets: make(map[bucketKey]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// allow spends one token from key's bucket, creating it on first use.
func (ls *limiterSet) allow(key bucketKey) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	now := ls.now()
	b, ok := ls.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(ls.limit, ls.burst)}
		ls.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// evictIdle drops buckets unused for longer than idle and returns how many remain.
func (ls *limiterSet) evictIdle(idle time.Duration) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	cutoff := ls.now().Add(-idle)
	for key, b := range ls.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(ls.buckets, key)
		}
	}
	return len(ls.buckets)
}

// sweep evicts idle buckets every interval until stop is closed.
func (ls *limiterSet) sweep(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ls.evictIdle(interval)
		}
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimit returns middleware that gives every client IP its own token
// bucket per request path. rps is the sustained rate, burst the bucket size.
// It reads r.RemoteAddr, so chi's RealIP should run first when behind a proxy.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	set := newLimiterSet(rps, burst)
	go set.sweep(visitorIdleTimeout, nil)
	return rateLimit(set, rps)
}

func rateLimit(set *limiterSet, rps float64) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / rps)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !set.allow(bucketKey{client: clientIP(r), path: r.URL.Path}) {
				metrics.RateLimited.WithLabelValues(r.URL.Path).Inc()
				w.Header().Set("Retry-After", retryAfter)
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
