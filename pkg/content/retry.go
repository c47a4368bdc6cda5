package content

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures exponential backoff for queries and listen reconnects.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// NoRetry runs the operation exactly once.
func NoRetry() RetryConfig {
	return RetryConfig{MaxRetries: 0, Multiplier: 1}
}

type retryableFunc func(ctx context.Context) (json.RawMessage, error)

// WithRetry calls fn until it succeeds, returns a non-retryable error, or the
// attempts are used up.
func WithRetry(ctx context.Context, client string, cfg RetryConfig, fn retryableFunc) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Printf("[content/%s] query succeeded on attempt %d", client, attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		if attempt < cfg.MaxRetries {
			delay := Backoff(attempt, cfg)
			log.Printf("[content/%s] attempt %d failed (%v), retrying in %v", client, attempt+1, err, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, lastErr
}

// Backoff returns baseDelay*multiplier^attempt capped at MaxDelay, with +/-20% jitter.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	delay := float64(cfg.BaseDelay) * math.Pow(multiplier, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(delay * jitter)
}
