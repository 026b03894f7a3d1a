package discord

import (
	"context"
	"time"
)

// Sleeper abstracts blocking waits so rate-limit pauses can be tested
// without real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RetryPolicy bounds how many times a rate-limited request is re-issued.
// MaxAttempts <= 0 retries indefinitely; rate limiting is expected and
// self-resolving, so unbounded is the default.
type RetryPolicy struct {
	MaxAttempts int
}

// Exhausted reports whether the policy forbids another attempt.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
