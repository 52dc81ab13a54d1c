// Package retry unifies the per-request backoff behavior the collector needs:
// each failure is classified, and the classification decides how long to wait
// and how many attempts are allowed before giving up.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Outcome classifies a failed request attempt.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRateLimited
	OutcomeBlocked
	OutcomeTransient
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeTransient:
		return "transient"
	default:
		return "fatal"
	}
}

var ErrMaxRetries = errors.New("max retries reached")

// Rule is the wait/bound pair applied to one outcome class.
type Rule struct {
	Delay       time.Duration
	MaxAttempts int
}

// Policy maps outcome classes to their retry rules. Sleep is injectable so
// the policy can be tested without wall-clock waits.
type Policy struct {
	Rules map[Outcome]Rule
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches Reddit's rate budget: long
// cool-down on 429s, medium on 403s, short on network blips.
func DefaultPolicy() Policy {
	return Policy{
		Rules: map[Outcome]Rule{
			OutcomeRateLimited: {Delay: 30 * time.Second, MaxAttempts: 3},
			OutcomeBlocked:     {Delay: 10 * time.Second, MaxAttempts: 3},
			OutcomeTransient:   {Delay: 2 * time.Second, MaxAttempts: 3},
		},
		Sleep: SleepContext,
	}
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn until it succeeds, a fatal outcome appears, or the failing
// class runs out of attempts. Attempts are counted per outcome class, so a
// rate-limit streak and a network blip each get their own budget.
func (p Policy) Do(ctx context.Context, label string, fn func() (Outcome, error)) error {
	attempts := make(map[Outcome]int)

	for {
		outcome, err := fn()
		if outcome == OutcomeOK {
			return nil
		}
		if outcome == OutcomeFatal {
			return err
		}

		rule, ok := p.Rules[outcome]
		if !ok {
			return err
		}

		attempts[outcome]++
		if attempts[outcome] >= rule.MaxAttempts {
			return fmt.Errorf("%s: %w after %d attempts: %w", label, ErrMaxRetries, rule.MaxAttempts, err)
		}

		slog.Warn("[Retry] Request failed, backing off",
			slog.String("label", label),
			slog.String("outcome", outcome.String()),
			slog.Int("attempt", attempts[outcome]),
			slog.Duration("delay", rule.Delay),
			slog.String("error", err.Error()))

		if sleepErr := p.sleep(ctx, rule.Delay); sleepErr != nil {
			return sleepErr
		}
	}
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}
