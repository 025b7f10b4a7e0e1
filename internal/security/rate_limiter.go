// Package security guards the non-probe HTTP surface. The probe paths
// themselves are always exempt from throttling: a supervisor that gets a
// 429 would treat a healthy instance as dead.
package security

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/lumilabs/healthd/internal/config"
	"github.com/lumilabs/healthd/internal/constants"
)

type RateLimiter struct {
	mu       sync.RWMutex
	limiters *cache.Cache
	cfg      config.RateLimitConfig
	clock    Clock
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// exemptPaths are never throttled
var exemptPaths = map[string]bool{
	constants.PathHealth: true,
	constants.PathReady:  true,
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = constants.RateLimitCleanupInterval
	}
	if cfg.MaxCacheSize == 0 {
		cfg.MaxCacheSize = constants.RateLimitMaxCacheSize
	}

	rl := &RateLimiter{
		limiters: cache.New(cfg.CleanupInterval, cfg.CleanupInterval*2),
		cfg:      cfg,
		clock:    RealClock{},
	}

	if cfg.Enabled {
		go rl.periodicCleanup()
	}

	return rl
}

// UpdateConfig applies new limits at runtime. Existing per-client limiters
// are discarded so the new rates take effect immediately.
func (rl *RateLimiter) UpdateConfig(cfg config.RateLimitConfig) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cfg.Enabled = cfg.Enabled
	rl.cfg.RequestsPerSecond = cfg.RequestsPerSecond
	rl.cfg.BurstSize = cfg.BurstSize
	rl.limiters.Flush()
}

// Allow reports whether a request from the given client identifier may
// proceed, and how many tokens remain.
func (rl *RateLimiter) Allow(clientID string) (bool, int) {
	rl.mu.RLock()
	enabled := rl.cfg.Enabled
	rps := rl.cfg.RequestsPerSecond
	burst := rl.cfg.BurstSize
	rl.mu.RUnlock()

	if !enabled {
		return true, burst
	}

	limiter := rl.limiterFor(clientID, rps, burst)
	if !limiter.AllowN(rl.clock.Now(), 1) {
		return false, 0
	}
	return true, int(limiter.TokensAt(rl.clock.Now()))
}

func (rl *RateLimiter) limiterFor(clientID string, rps, burst int) *rate.Limiter {
	if cached, ok := rl.limiters.Get(clientID); ok {
		if limiter, ok := cached.(*rate.Limiter); ok {
			return limiter
		}
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	rl.limiters.Set(clientID, limiter, cache.DefaultExpiration)
	return limiter
}

// Middleware throttles per client IP. Probe paths pass through untouched.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		rl.mu.RLock()
		enabled := rl.cfg.Enabled
		limit := rl.cfg.RequestsPerSecond
		rl.mu.RUnlock()
		if !enabled {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining := rl.Allow(clientIP(r))
		if !allowed {
			w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(limit))
			w.Header().Set(constants.HeaderXRateLimitRemaining, "0")
			w.Header().Set(constants.HeaderRetryAfter, "1")
			w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}

		w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(limit))
		w.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

// periodicCleanup bounds the limiter cache so an address-spraying client
// cannot exhaust memory.
func (rl *RateLimiter) periodicCleanup() {
	rl.mu.RLock()
	interval := rl.cfg.CleanupInterval
	rl.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.RLock()
		maxSize := rl.cfg.MaxCacheSize
		rl.mu.RUnlock()

		if rl.limiters.ItemCount() > maxSize {
			rl.limiters.Flush()
		}
	}
}

// clientIP extracts the client address, preferring proxy headers
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get(constants.HeaderXForwardedFor); fwd != "" {
		if idx := strings.Index(fwd, ","); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get(constants.HeaderXRealIP); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
