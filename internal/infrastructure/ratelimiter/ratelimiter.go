package ratelimiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/roastparty/server/internal/infrastructure/json"
)

// Bucket is a token bucket for one traffic source.
type Bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// allow refills the bucket for the elapsed time and takes one token if
// available.
func (b *Bucket) allow(rate float64, burst float64, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.last).Seconds()
	b.tokens += elapsed * rate
	if b.tokens > burst {
		b.tokens = burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

type RateLimiter struct {
	cache        GetterSetter
	rate         float64
	burst        float64
	sourceHeader string
}

func New(cache GetterSetter, maxRatePerSecond, maxBurst int, sourceHeader string) *RateLimiter {
	return &RateLimiter{
		cache:        cache,
		rate:         float64(maxRatePerSecond),
		burst:        float64(maxBurst),
		sourceHeader: sourceHeader,
	}
}

// Allow reports whether one more request from the source may proceed.
func (rl *RateLimiter) Allow(source string) bool {
	bucket, ok := rl.cache.Get(source)
	if !ok {
		bucket = &Bucket{tokens: rl.burst, last: time.Now()}
		rl.cache.Set(source, bucket)
	}
	return bucket.allow(rl.rate, rl.burst, time.Now())
}

// Middleware rejects requests over the per-source budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.sourceOf(r)) {
			json.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) sourceOf(r *http.Request) string {
	if source := r.Header.Get(rl.sourceHeader); source != "" {
		return source
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
