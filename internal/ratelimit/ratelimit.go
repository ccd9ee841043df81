// Package ratelimit provides admission control for outbound calls to the
// upstream fantasy API. A token bucket (golang.org/x/time/rate) handles
// normal pacing; a cooldown window layered on top handles provider-signaled
// throttling, during which all acquisitions block until the window elapses.
//
// The limiter is constructed once and shared by every concurrent league
// task: the upstream limit is per-credential, not per-league.
package ratelimit

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds limiter tuning. Zero values fall back to the defaults the
// upstream provider tolerates.
type Config struct {
	RequestsPerSecond float64
	BurstCapacity     int
	CooldownPeriod    time.Duration

	// Retry backoff
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if c.BurstCapacity <= 0 {
		c.BurstCapacity = 10
	}
	if c.CooldownPeriod <= 0 {
		c.CooldownPeriod = 60 * time.Second
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	return c
}

// Limiter is a token bucket with a cooldown window for provider throttling.
type Limiter struct {
	cfg    Config
	logger *slog.Logger

	mu           sync.Mutex
	bucket       *rate.Limiter
	cooldownEnd  time.Time
	requestCount int
}

// New creates a limiter with full burst capacity.
func New(cfg Config, logger *slog.Logger) *Limiter {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		cfg:    cfg,
		logger: logger,
		bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstCapacity),
	}
}

// Acquire blocks until a request slot is available. It never fails for
// normal pacing; the only error is a cancelled context.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.waitForCooldown(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	bucket := l.bucket
	l.requestCount++
	l.mu.Unlock()

	return bucket.Wait(ctx)
}

// OnThrottled is invoked when the upstream API signals rate limiting
// (429/503). It forces a cooldown window during which every Acquire blocks;
// when the window elapses the bucket is reset to full capacity.
func (l *Limiter) OnThrottled() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cooldownEnd = time.Now().Add(l.cfg.CooldownPeriod)
	l.logger.Warn("upstream throttling detected, entering cooldown",
		"until", l.cooldownEnd.Format(time.RFC3339))
}

// InCooldown reports whether the limiter is currently inside a cooldown
// window.
func (l *Limiter) InCooldown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Now().Before(l.cooldownEnd)
}

// RequestCount returns the number of slots granted since construction.
func (l *Limiter) RequestCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requestCount
}

func (l *Limiter) waitForCooldown(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.cooldownEnd.IsZero() {
			l.mu.Unlock()
			return nil
		}
		remaining := time.Until(l.cooldownEnd)
		if remaining <= 0 {
			// Cooldown over: reset the bucket to full burst capacity.
			l.bucket = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.BurstCapacity)
			l.cooldownEnd = time.Time{}
			l.mu.Unlock()
			l.logger.Info("cooldown ended, limiter reset to full capacity")
			return nil
		}
		l.mu.Unlock()

		select {
		case <-time.After(remaining):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ThrottleClassifier reports whether an error indicates upstream throttling.
// The API client supplies one keyed on its typed errors.
type ThrottleClassifier func(error) bool

// ExecuteWithRetry acquires a slot, runs op, and retries on failure with
// exponential backoff and jitter. Throttling-classified failures force a
// cooldown before the retry. The last error is returned after
// maxRetries+1 total attempts.
func (l *Limiter) ExecuteWithRetry(ctx context.Context, op func(context.Context) error, maxRetries int, isThrottle ThrottleClassifier) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := l.Acquire(ctx); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			if attempt > 0 {
				l.logger.Info("operation succeeded after retry", "attempts", attempt+1)
			}
			return nil
		}
		lastErr = err

		if isThrottle != nil && isThrottle(err) {
			l.logger.Warn("throttled during operation",
				"attempt", attempt+1, "max_attempts", maxRetries+1)
			l.OnThrottled()
		} else {
			l.logger.Warn("operation failed",
				"attempt", attempt+1, "max_attempts", maxRetries+1, "error", err)
		}

		if attempt == maxRetries {
			break
		}

		select {
		case <-time.After(l.backoffDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// backoffDelay is base * 2^attempt capped at MaxDelay, scaled by a jitter
// multiplier in [0.5, 1.5).
func (l *Limiter) backoffDelay(attempt int) time.Duration {
	delay := l.cfg.BaseDelay << uint(attempt)
	if delay > l.cfg.MaxDelay || delay <= 0 {
		delay = l.cfg.MaxDelay
	}
	jitter := 0.5 + rand.Float64()
	return time.Duration(float64(delay) * jitter)
}
