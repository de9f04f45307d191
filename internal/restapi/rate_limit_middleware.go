package restapi

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/models"
)

const (
	limiterIdleTimeout     = 10 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// rateLimitClient tracks a limiter and when its client was last seen, so
// idle clients can be evicted without disturbing active ones.
type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// RateLimitMiddleware throttles requests per client address.
type RateLimitMiddleware struct {
	limiters    map[string]*rateLimitClient
	mu          sync.RWMutex
	rateLimit   rate.Limit
	burstSize   int
	cleanupTick *time.Ticker
	exempt      map[string]bool
	stopChan    chan struct{}
	stopOnce    sync.Once
	clock       clock.Clock
}

// NewRateLimitMiddleware allows ratePerInterval requests per interval for each
// client, with bursts of the same size. A negative rate disables limiting and
// zero blocks every request. exempt lists client IPs that are never limited.
func NewRateLimitMiddleware(ratePerInterval int, interval time.Duration, exempt []string, c clock.Clock) *RateLimitMiddleware {
	if c == nil {
		c = clock.RealClock{}
	}

	var limit rate.Limit
	switch {
	case ratePerInterval < 0:
		limit = rate.Inf
	case ratePerInterval == 0:
		limit = 0
	default:
		limit = rate.Every(interval / time.Duration(ratePerInterval))
	}

	exemptMap := make(map[string]bool)
	for _, addr := range exempt {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			exemptMap[trimmed] = true
		}
	}

	rl := &RateLimitMiddleware{
		limiters:    make(map[string]*rateLimitClient),
		rateLimit:   limit,
		burstSize:   max(ratePerInterval, 0),
		cleanupTick: time.NewTicker(limiterCleanupInterval),
		exempt:      exemptMap,
		stopChan:    make(chan struct{}),
		clock:       c,
	}

	go rl.cleanup()

	return rl
}

// Handler returns the HTTP middleware function.
func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return rl.rateLimitHandler
}

// clientKey identifies the caller by the host part of RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getLimiter returns the limiter for key, creating it on first use.
func (rl *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	now := rl.clock.Now().UnixNano()

	rl.mu.RLock()
	if client, exists := rl.limiters[key]; exists {
		client.lastSeen.Store(now)
		rl.mu.RUnlock()
		return client.limiter
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if client, exists := rl.limiters[key]; exists {
		client.lastSeen.Store(now)
		return client.limiter
	}

	client := &rateLimitClient{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
	client.lastSeen.Store(now)
	rl.limiters[key] = client
	return client.limiter
}

func (rl *RateLimitMiddleware) rateLimitHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if rl.exempt[key] {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.getLimiter(key).AllowN(rl.clock.Now(), 1) {
			rl.sendRateLimitExceeded(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// retryAfter is the time until one more token is available.
func (rl *RateLimitMiddleware) retryAfter() time.Duration {
	switch rl.rateLimit {
	case 0:
		return time.Hour
	case rate.Inf:
		return time.Second
	default:
		return time.Duration(float64(time.Second) / float64(rl.rateLimit))
	}
}

func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	seconds := int(math.Ceil(rl.retryAfter().Seconds()))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	response := models.NewResponse(http.StatusTooManyRequests, nil,
		"Rate limit exceeded. Please try again later.", rl.clock)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode rate limit response", "error", err)
	}
}

// cleanupOnce evicts limiters idle for longer than limiterIdleTimeout.
func (rl *RateLimitMiddleware) cleanupOnce() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, client := range rl.limiters {
		lastSeen := client.lastSeen.Load()
		if lastSeen == 0 {
			continue
		}
		if now.Sub(time.Unix(0, lastSeen)) > limiterIdleTimeout {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanupOnce()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call multiple times.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
		rl.cleanupTick.Stop()
	})
}
