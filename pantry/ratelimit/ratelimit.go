// ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// KeyLimiter provides per-key token buckets (e.g., per client IP).
type KeyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	clock    clockwork.Clock
	stop     chan struct{}
	once     sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyLimiter creates a limiter allowing perSecond requests per key with
// the given burst. Keys idle for longer than ttl are swept.
func NewKeyLimiter(perSecond float64, burst int, ttl time.Duration, clock clockwork.Clock) *KeyLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	kl := &KeyLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      ttl,
		clock:    clock,
		stop:     make(chan struct{}),
	}
	go kl.cleanup()
	return kl
}

// Allow reports whether one request for key may proceed now.
func (kl *KeyLimiter) Allow(key string) bool {
	now := kl.clock.Now()

	kl.mu.Lock()
	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = e
	}
	e.lastSeen = now
	kl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Retry returns how long key must wait for its next token, rounded up to
// whole seconds for the Retry-After header.
func (kl *KeyLimiter) Retry(key string) int {
	if kl.limit <= 0 {
		return 1
	}
	kl.mu.Lock()
	e, ok := kl.limiters[key]
	kl.mu.Unlock()
	if !ok {
		return 0
	}
	missing := 1 - e.limiter.TokensAt(kl.clock.Now())
	if missing <= 0 {
		return 0
	}
	secs := int(missing/float64(kl.limit) + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (kl *KeyLimiter) cleanup() {
	ticker := kl.clock.NewTicker(kl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.Chan():
			now := kl.clock.Now()
			kl.mu.Lock()
			for key, e := range kl.limiters {
				if now.Sub(e.lastSeen) > kl.ttl {
					delete(kl.limiters, key)
				}
			}
			kl.mu.Unlock()
		}
	}
}

// Size returns the number of tracked keys.
func (kl *KeyLimiter) Size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}

// Close stops the sweeper.
func (kl *KeyLimiter) Close() {
	kl.once.Do(func() { close(kl.stop) })
}

// KeyFunc extracts a key from an HTTP request for rate limiting.
type KeyFunc func(r *http.Request) string

// IPKeyFunc keys by RemoteAddr without the port. Run chi's RealIP middleware
// first when behind a proxy.
func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Config configures the rate limit middleware.
type Config struct {
	// Rate is requests per second. A zero or negative Rate disables limiting.
	Rate float64

	// Burst is the maximum burst size. Defaults to 1.
	Burst int

	// KeyFunc extracts the rate limit key. Defaults to IPKeyFunc.
	KeyFunc KeyFunc

	// TTL is how long to keep inactive keys. Defaults to 1 hour.
	TTL time.Duration

	// Clock drives token refill. Defaults to the real clock.
	Clock clockwork.Clock

	// OnLimited writes the response for a rejected request. Defaults to a
	// plain 429.
	OnLimited func(w http.ResponseWriter, r *http.Request)
}

// Middleware returns HTTP middleware that applies rate limiting, and the
// limiter so the caller can Close it on shutdown.
func Middleware(cfg Config) (func(http.Handler) http.Handler, *KeyLimiter) {
	if cfg.Rate <= 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPKeyFunc
	}
	if cfg.OnLimited == nil {
		cfg.OnLimited = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}
	}

	limiter := NewKeyLimiter(cfg.Rate, cfg.Burst, cfg.TTL, cfg.Clock)

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.KeyFunc(r)
			if !limiter.Allow(key) {
				if secs := limiter.Retry(key); secs > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				cfg.OnLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	return mw, limiter
}
