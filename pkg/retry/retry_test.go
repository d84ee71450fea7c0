package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var calls, hooks []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		hooks = append(hooks, attempt)
		assert.EqualError(t, err, "connection refused")
	}

	got, err := Do(context.Background(), cfg, func() (string, error) {
		calls = append(calls, len(calls))
		if len(calls) < 3 {
			return "", errors.New("connection refused")
		}
		return "PONG", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "PONG", got)
	assert.Len(t, calls, 3)
	assert.Equal(t, []int{0, 1}, hooks)
}

func TestDo_GivesUp(t *testing.T) {
	cause := errors.New("connection refused")
	calls := 0

	_, err := Do(context.Background(), fastConfig(2), func() (int, error) {
		calls++
		return 0, cause
	})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDo_ZeroAttemptsCallsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(0), func() (int, error) {
		calls++
		return 0, errors.New("down")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour
	cfg.OnRetry = func(int, time.Duration, error) { cancel() }

	_, err := Do(ctx, cfg, func() (int, error) { return 0, errors.New("down") })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 300*time.Millisecond, backoff(cfg, 2), "capped at MaxDelay")

	cfg.Jitter = true
	for i := 0; i < 20; i++ {
		d := backoff(cfg, 0)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}
