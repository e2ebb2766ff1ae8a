package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a token bucket rate limiter
type Limiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	mu         sync.Mutex
	lastRefill time.Time
}

// NewLimiter creates a new token bucket rate limiter
// maxTokens: maximum number of tokens in the bucket
// refillRate: how often to add one token to the bucket
func NewLimiter(maxTokens int, refillRate time.Duration) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed immediately
// Returns true if a token is available and consumed
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillTokens()

	if l.tokens > 0 {
		l.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (l *Limiter) Wait() {
	for !l.Allow() {
		// Sleep for a short time before checking again
		time.Sleep(l.refillRate / time.Duration(l.maxTokens))
	}
}

// WaitWithTimeout waits for a token with a timeout
// Returns true if token was acquired, false if timeout exceeded
func (l *Limiter) WaitWithTimeout(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if l.Allow() {
			return true
		}

		// Sleep for a short time before checking again
		sleepTime := l.refillRate / time.Duration(l.maxTokens)
		if sleepTime > time.Until(deadline) {
			sleepTime = time.Until(deadline)
		}
		if sleepTime > 0 {
			time.Sleep(sleepTime)
		}
	}

	return false
}

// TokensAvailable returns the current number of tokens available
func (l *Limiter) TokensAvailable() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillTokens()
	return l.tokens
}

// refillTokens adds tokens based on elapsed time
// Must be called with mutex held
func (l *Limiter) refillTokens() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)

	// Calculate how many tokens to add
	tokensToAdd := int(elapsed / l.refillRate)

	if tokensToAdd > 0 {
		l.tokens = min(l.maxTokens, l.tokens+tokensToAdd)
		l.lastRefill = now
	}
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RateLimiterConfig holds configuration for the pipeline's external-API
// rate limiters, one bucket per host.
type RateLimiterConfig struct {
	TCGdex      *Limiter
	CardAPI     *Limiter
	SpeciesAPI  *Limiter
	Marketplace *Limiter
}

// NewDefaultRateLimiters creates rate limiters with sensible defaults for
// each API.
func NewDefaultRateLimiters() *RateLimiterConfig {
	return &RateLimiterConfig{
		// Structured card API: conservative burst of 10, refilling every 300ms.
		TCGdex: NewLimiter(10, 300*time.Millisecond),

		// English primary card API, same order of magnitude.
		CardAPI: NewLimiter(10, 300*time.Millisecond),

		// Species lookup API used for dex-id/name resolution.
		SpeciesAPI: NewLimiter(8, 400*time.Millisecond),

		// Marketplace search is the most aggressively throttled host.
		Marketplace: NewLimiter(3, 1500*time.Millisecond),
	}
}

// NewCustomRateLimiters creates rate limiters with custom configurations.
func NewCustomRateLimiters(tcgdexRate, cardAPIRate, speciesRate, marketplaceRate time.Duration) *RateLimiterConfig {
	return &RateLimiterConfig{
		TCGdex:      NewLimiter(10, tcgdexRate),
		CardAPI:     NewLimiter(10, cardAPIRate),
		SpeciesAPI:  NewLimiter(8, speciesRate),
		Marketplace: NewLimiter(3, marketplaceRate),
	}
}

// Throttle enforces a "sleep every N calls" floor, independent of a token
// bucket — used for bulk/detail-fetch pacing (e.g. pause ~250ms every
// 8-10 set-level fetches). It is safe for concurrent use;
// callers on different goroutines share the same counter and may both sleep
// if they cross the boundary close together, which is the intended floor
// behavior (never a ceiling).
type Throttle struct {
	every int
	pause time.Duration

	mu    sync.Mutex
	count int
}

// NewThrottle returns a Throttle that pauses for `pause` every `every` calls
// to Tick.
func NewThrottle(every int, pause time.Duration) *Throttle {
	if every <= 0 {
		every = 1
	}
	return &Throttle{every: every, pause: pause}
}

// Tick increments the call counter and sleeps once the configured count is
// reached, then resets.
func (t *Throttle) Tick() {
	t.mu.Lock()
	t.count++
	shouldPause := t.count >= t.every
	if shouldPause {
		t.count = 0
	}
	t.mu.Unlock()

	if shouldPause {
		time.Sleep(t.pause)
	}
}