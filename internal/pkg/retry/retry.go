package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultBackoffFactor = time.Second
	maxBackoffShift      = 16
)

// RetryConfig is the exponential backoff policy: the i-th retry (0-based) waits
// BackoffFactor * 2^i. Retries, when set, replaces the per-method retry budget;
// a per-call override still wins.
type RetryConfig struct {
	BackoffFactor time.Duration `env:"BACKOFF_FACTOR" envDefault:"1s"`
	Retries       *int          `env:"RETRIES"`
}

// Backoff returns the sleep before the retry that follows failed attempt i.
func (rc *RetryConfig) Backoff(attempt uint) time.Duration {
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return rc.BackoffFactor * time.Duration(uint64(1)<<attempt)
}

// ToRetryOptions maps the policy onto retry-go for a call allowing retries extra attempts.
func (rc *RetryConfig) ToRetryOptions(retries int) []retry.Option {
	if retries < 0 {
		retries = 0
	}
	return []retry.Option{
		retry.Attempts(uint(retries) + 1),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return rc.Backoff(n)
		}),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		BackoffFactor: defaultBackoffFactor,
	}
}
