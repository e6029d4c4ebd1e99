package report

import (
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds the delivery retry loop.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// calculateBackoff grows the delay exponentially, capped at MaxDelay, with
// ±10% jitter.
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	jitter := delay * 0.1
	delay += (rand.Float64()*2 - 1) * jitter

	return time.Duration(delay)
}

func isRetryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
