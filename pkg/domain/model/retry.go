package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultMaxRetries is the default retry budget per request
	DefaultMaxRetries = 8

	// DefaultBaseDelayMs is the default first exponential backoff step
	DefaultBaseDelayMs = 2000

	// MaxDelayCeilingMs bounds the exponential backoff
	MaxDelayCeilingMs = 120000
)

// RetryPolicy controls how the request orchestrator retries transient failures
type RetryPolicy struct {
	MaxRetries  int
	BaseDelayMs int
	MaxDelayMs  int
}

// DefaultRetryPolicy returns the policy used when nothing is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  DefaultMaxRetries,
		BaseDelayMs: DefaultBaseDelayMs,
		MaxDelayMs:  MaxDelayCeilingMs,
	}
}

// Validate checks the policy bounds
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return goerr.New("max retries must not be negative", goerr.V("max_retries", p.MaxRetries))
	}
	if p.BaseDelayMs <= 0 {
		return goerr.New("base delay must be positive", goerr.V("base_delay_ms", p.BaseDelayMs))
	}
	if p.MaxDelayMs <= 0 || p.MaxDelayMs > MaxDelayCeilingMs {
		return goerr.New("max delay must be in (0, 120000] ms", goerr.V("max_delay_ms", p.MaxDelayMs))
	}
	return nil
}

// Backoff returns min(base * 2^attempt, max) for the given zero-based attempt
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	maxDelay := p.MaxDelayMs
	if maxDelay <= 0 || maxDelay > MaxDelayCeilingMs {
		maxDelay = MaxDelayCeilingMs
	}

	delay := p.BaseDelayMs
	for i := 0; i < attempt && delay < maxDelay; i++ {
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}

	return time.Duration(delay) * time.Millisecond
}
