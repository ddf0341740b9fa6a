package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection reset" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"net error", fakeNetError{}, true},
		{"status 500", &HTTPStatusError{StatusCode: 500}, true},
		{"status 503", &HTTPStatusError{StatusCode: 503}, true},
		{"status 429", &HTTPStatusError{StatusCode: 429}, true},
		{"status 400", &HTTPStatusError{StatusCode: 400}, false},
		{"status 404", &HTTPStatusError{StatusCode: 404}, false},
		{"plain error", errors.New("decode failed"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, IsRetryable(tc.err))
		})
	}
}

func TestWithRetryEventualSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		if calls < 3 {
			return &HTTPStatusError{StatusCode: 502, Body: "bad gateway"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsAtAttemptBudget(t *testing.T) {
	calls := 0
	wantErr := &HTTPStatusError{StatusCode: 500, Body: "boom"}
	err := WithRetry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return wantErr
	})
	assert.Equal(t, 3, calls)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.StatusCode)
}

func TestWithRetryPermanentErrorFailsFast(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetryConfig(5), func() error {
		calls++
		return &HTTPStatusError{StatusCode: 422, Body: "unprocessable"}
	})
	assert.Equal(t, 1, calls, "non-retryable errors never burn the attempt budget")
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 422, statusErr.StatusCode)
}

func TestWithRetryOnRetryCallback(t *testing.T) {
	var seen []int
	cfg := fastRetryConfig(3)
	cfg.OnRetry = func(attempt int, err error) { seen = append(seen, attempt) }

	_ = WithRetry(context.Background(), cfg, func() error {
		return &HTTPStatusError{StatusCode: 500}
	})
	assert.Equal(t, []int{1, 2}, seen, "the final attempt has no retry to announce")
}

func TestWithRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, fastRetryConfig(5), func() error {
		calls++
		return fakeNetError{}
	})
	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestWithRetryZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{}, func() error {
		calls++
		return &HTTPStatusError{StatusCode: 500}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
