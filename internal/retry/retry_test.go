package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(slept *[]time.Duration) Policy {
	return Policy{
		Rules: map[Outcome]Rule{
			OutcomeRateLimited: {Delay: 30 * time.Second, MaxAttempts: 3},
			OutcomeBlocked:     {Delay: 10 * time.Second, MaxAttempts: 3},
			OutcomeTransient:   {Delay: 2 * time.Second, MaxAttempts: 3},
		},
		Sleep: func(_ context.Context, d time.Duration) error {
			*slept = append(*slept, d)
			return nil
		},
	}
}

func TestDo_RateLimitedTwiceThenSucceeds(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), "page", func() (Outcome, error) {
		calls++
		if calls <= 2 {
			return OutcomeRateLimited, errors.New("429")
		}
		return OutcomeOK, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, slept)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	err := p.Do(context.Background(), "page", func() (Outcome, error) {
		return OutcomeTransient, errors.New("connection reset")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	// 3 attempts means 2 sleeps before the bound trips.
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
}

func TestDo_ClassesHaveIndependentBudgets(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	outcomes := []Outcome{OutcomeRateLimited, OutcomeTransient, OutcomeRateLimited, OutcomeTransient, OutcomeOK}
	i := 0
	err := p.Do(context.Background(), "page", func() (Outcome, error) {
		o := outcomes[i]
		i++
		if o == OutcomeOK {
			return OutcomeOK, nil
		}
		return o, errors.New("fail")
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second, 2 * time.Second, 30 * time.Second, 2 * time.Second}, slept)
}

func TestDo_FatalReturnsImmediately(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	fatal := errors.New("bad credentials")
	err := p.Do(context.Background(), "page", func() (Outcome, error) {
		return OutcomeFatal, fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Empty(t, slept)
}

func TestDo_CanceledContextStopsRetrying(t *testing.T) {
	p := DefaultPolicy()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, "page", func() (Outcome, error) {
		return OutcomeTransient, errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
