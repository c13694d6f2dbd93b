package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "weibodl/pkg/errors"
)

func timeoutErr() error {
	return errs.New(errs.ErrorTypeTimeout, "deadline", context.DeadlineExceeded)
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, test := range tests {
		if delay := backoff.NextDelay(test.attempt); delay != test.expected {
			t.Errorf("Attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestTimeoutsRetriedUntilSuccess(t *testing.T) {
	for _, failures := range []int{0, 1, 4, 25} {
		attempts := 0
		err := Do(func() error {
			attempts++
			if attempts <= failures {
				return timeoutErr()
			}
			return nil
		}, &Config{Backoff: &ConstantBackoff{}, Context: context.Background()})

		require.NoError(t, err)
		assert.Equal(t, failures+1, attempts)
	}
}

func TestNonTimeoutIsTerminal(t *testing.T) {
	tests := []error{
		errs.New(errs.ErrorTypeNetwork, "connection reset", nil),
		&errs.Error{Type: errs.ErrorTypeStatus, Message: "forbidden", Code: 403},
		errs.New(errs.ErrorTypeStorage, "disk full", nil),
		errors.New("unclassified"),
	}

	for _, failure := range tests {
		attempts := 0
		err := Do(func() error {
			attempts++
			return failure
		}, &Config{RetryIf: DefaultRetryIf, Context: context.Background()})

		assert.Equal(t, failure, err)
		assert.Equal(t, 1, attempts)
	}
}

func TestMaxAttemptsBound(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return timeoutErr()
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Context:     context.Background(),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxAttempts)
	assert.True(t, errs.IsType(err, errs.ErrorTypeTimeout))
	assert.Equal(t, 3, attempts)
}

func TestOnRetryCallback(t *testing.T) {
	var retried []int
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return timeoutErr()
		}
		return nil
	}, &Config{
		Backoff: &ConstantBackoff{Delay: time.Millisecond},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			retried = append(retried, attempt)
			assert.Equal(t, time.Millisecond, delay)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return timeoutErr()
	}, &Config{
		Backoff: &ConstantBackoff{Delay: 100 * time.Millisecond},
		Context: ctx,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", timeoutErr()
		}
		return "success", nil
	}, &Config{MaxAttempts: 3, Backoff: &ConstantBackoff{}})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
