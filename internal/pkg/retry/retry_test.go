package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
)

type instantTimer struct {
	waits []time.Duration
}

func (t *instantTimer) After(d time.Duration) <-chan time.Time {
	t.waits = append(t.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{BackoffFactor: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, rc.Backoff(0))
	assert.Equal(t, time.Second, rc.Backoff(1))
	assert.Equal(t, 4*time.Second, rc.Backoff(3))
	assert.Equal(t, rc.Backoff(maxBackoffShift), rc.Backoff(maxBackoffShift+10))
}

func TestToRetryOptions_AttemptBudget(t *testing.T) {
	rc := &RetryConfig{BackoffFactor: time.Millisecond}
	timer := &instantTimer{}

	calls := 0
	err := retry.Do(func() error {
		calls++
		return errors.New("down")
	}, append(rc.ToRetryOptions(2), retry.WithTimer(timer))...)

	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
	assert.Len(t, timer.waits, 2)
}

func TestToRetryOptions_NegativeRetriesMeansSingleAttempt(t *testing.T) {
	rc := DefaultRetryConfig()

	calls := 0
	_ = retry.Do(func() error {
		calls++
		return errors.New("down")
	}, append(rc.ToRetryOptions(-4), retry.WithTimer(&instantTimer{}))...)

	assert.Equal(t, 1, calls)
}
