package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"n8n2api/logger"
	"n8n2api/types"
)

// limiterEntry wraps a rate limiter with its last access time
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter manages per-caller request rate limiting
type RateLimiter struct {
	limiters        map[string]*limiterEntry
	mu              sync.Mutex
	requestsPerSec  rate.Limit
	burst           int
	enabled         bool
	cleanupInterval time.Duration
	lastCleanup     time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(requestsPerSec float64, burst int, enabled bool, cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters:        make(map[string]*limiterEntry),
		requestsPerSec:  rate.Limit(requestsPerSec),
		burst:           burst,
		enabled:         enabled,
		cleanupInterval: cleanupInterval,
		lastCleanup:     time.Now(),
	}

	logger.Info("Rate limiter initialized | requests_per_sec=%.2f burst=%d enabled=%v cleanup_interval=%v",
		requestsPerSec, burst, enabled, cleanupInterval)

	return rl
}

// Allow reports whether the identified caller may proceed
func (rl *RateLimiter) Allow(identifier string) bool {
	return rl.getLimiter(identifier).Allow()
}

// getLimiter retrieves or creates the limiter for the given identifier
func (rl *RateLimiter) getLimiter(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Periodic cleanup keeps the map from growing with one-off callers
	if time.Since(rl.lastCleanup) > rl.cleanupInterval {
		rl.cleanup()
		rl.lastCleanup = time.Now()
	}

	entry, exists := rl.limiters[identifier]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rl.requestsPerSec, rl.burst),
		}
		rl.limiters[identifier] = entry
	}
	entry.lastAccess = time.Now()

	return entry.limiter
}

// cleanup removes entries idle for longer than the cleanup interval.
// Caller must hold the lock.
func (rl *RateLimiter) cleanup() {
	now := time.Now()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > rl.cleanupInterval {
			delete(rl.limiters, key)
		}
	}
}

// extractIdentifier keys the limit on the verified user when the fronting
// auth layer supplies one, otherwise on the client IP.
func (rl *RateLimiter) extractIdentifier(r *http.Request) string {
	if userID := r.Header.Get(headerUserID); userID != "" {
		return "user:" + userID
	}
	return "ip:" + getClientIP(r)
}

// Middleware returns the rate limiting middleware handler
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		// Whitelist: liveness endpoint doesn't consume rate budget
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		identifier := rl.extractIdentifier(r)

		if !rl.Allow(identifier) {
			rl.respondRateLimitExceeded(w, r, identifier)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// respondRateLimitExceeded sends OpenAI-compatible 429 error response
func (rl *RateLimiter) respondRateLimitExceeded(w http.ResponseWriter, r *http.Request, identifier string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%.0f", float64(rl.requestsPerSec)))
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Minute).Unix()))
	w.WriteHeader(http.StatusTooManyRequests)

	errResp := types.ErrorResponse{
		Error: types.ErrorDetail{
			Message: "Rate limit exceeded. Please retry after 60 seconds.",
			Type:    "rate_limit_error",
			Code:    "rate_limit_exceeded",
		},
	}

	logger.Warn("Rate limit exceeded | identifier=%s client_ip=%s path=%s method=%s",
		maskIdentifier(identifier), getClientIP(r), r.URL.Path, r.Method)

	if err := types.WriteJSON(w, errResp); err != nil {
		logger.Error("Failed to write rate limit error response | error=%v client_ip=%s", err, getClientIP(r))
	}
}

// maskIdentifier masks the identifier for logging (shows only first 8 characters)
func maskIdentifier(identifier string) string {
	if len(identifier) <= 8 {
		return identifier
	}
	return identifier[:8] + "..."
}
