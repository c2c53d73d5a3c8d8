package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mock-interview/internal/retry"
)

var errTransient = errors.New("503 service unavailable")

// recordingSleeper запоминает запрошенные паузы и не ждет
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestDo_FailsTwiceThenSucceeds(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0

	result, err := retry.Do(context.Background(), retry.DefaultPolicy(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "third", nil
	}, retry.WithSleeper(sleeper.sleep))

	require.NoError(t, err)
	assert.Equal(t, "third", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
}

func TestDo_AlwaysFailsIsExhausted(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	lastErr := errors.New("attempt 3 failed")

	_, err := retry.Do(context.Background(), retry.DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, lastErr
		}
		return 0, errTransient
	}, retry.WithSleeper(sleeper.sleep))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, retry.ErrInvocationExhausted)
	assert.ErrorIs(t, err, lastErr, "last observed failure is preserved")
	assert.NotErrorIs(t, err, errTransient)
	assert.Len(t, sleeper.delays, 2)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	shapeErr := errors.New("schema mismatch")

	_, err := retry.Do(context.Background(), retry.DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, retry.Permanent(shapeErr)
	}, retry.WithSleeper(sleeper.sleep))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, shapeErr)
	assert.NotErrorIs(t, err, retry.ErrInvocationExhausted)
	assert.Empty(t, sleeper.delays)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := retry.Do(ctx, retry.DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	}, retry.WithSleeper(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_RealSleeperWaits(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: 5 * time.Millisecond, Multiplier: 2}
	calls := 0
	start := time.Now()

	_, err := retry.Do(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	require.ErrorIs(t, err, retry.ErrInvocationExhausted)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestDo_InvalidPolicy(t *testing.T) {
	_, err := retry.Do(context.Background(), retry.Policy{}, func(context.Context) (int, error) {
		t.Fatal("operation must not run with an invalid policy")
		return 0, nil
	})
	require.Error(t, err)
}

func TestPolicyBackoff(t *testing.T) {
	p := retry.DefaultPolicy()
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, time.Duration(0), p.Backoff(-1))

	flat := retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 1}
	assert.Equal(t, time.Second, flat.Backoff(2))
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  retry.Policy
		wantErr bool
	}{
		{name: "default", policy: retry.DefaultPolicy()},
		{name: "zero attempts", policy: retry.Policy{BaseDelay: time.Second, Multiplier: 2}, wantErr: true},
		{name: "zero delay", policy: retry.Policy{MaxAttempts: 1, Multiplier: 2}, wantErr: true},
		{name: "shrinking multiplier", policy: retry.Policy{MaxAttempts: 1, BaseDelay: time.Second, Multiplier: 0.5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type classified struct{ retryable bool }

func (c classified) Error() string     { return "classified" }
func (c classified) IsRetryable() bool { return c.retryable }

func TestIsRetryable(t *testing.T) {
	assert.False(t, retry.IsRetryable(nil))
	assert.True(t, retry.IsRetryable(errTransient))
	assert.False(t, retry.IsRetryable(context.Canceled))
	assert.False(t, retry.IsRetryable(retry.Permanent(errTransient)))
	assert.True(t, retry.IsRetryable(classified{retryable: true}))
	assert.False(t, retry.IsRetryable(classified{retryable: false}))
	assert.Nil(t, retry.Permanent(nil))
}
