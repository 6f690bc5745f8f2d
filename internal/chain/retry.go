// internal/chain/retry.go
package chain

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often one logical read is attempted.
type RetryPolicy struct {
	MaxAttempts    int           // >= 1
	Backoff        time.Duration // wait before the 2nd attempt, doubled afterwards
	MaxBackoff     time.Duration // 0 => no cap
	AttemptTimeout time.Duration // 0 => parent deadline only
}

// Outcome is the result of a bounded retry loop.
type Outcome[T any] struct {
	Value    T
	Attempts int
	Err      error // nil on success; last error when exhausted or permanent
}

// Retry runs fn until it succeeds, fails permanently, exhausts the policy,
// or ctx ends. Only transient failures are retried.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) Outcome[T] {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var out Outcome[T]
	wait := p.Backoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, wait); err != nil {
				return out
			}
			wait *= 2
			if p.MaxBackoff > 0 && wait > p.MaxBackoff {
				wait = p.MaxBackoff
			}
		}

		out.Attempts = attempt
		v, err := once(ctx, p.AttemptTimeout, fn)
		if err == nil {
			out.Value = v
			out.Err = nil
			return out
		}
		out.Err = err

		if !IsTransient(err) {
			return out
		}
		if ctx.Err() != nil {
			return out
		}
	}
	return out
}

func once[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(actx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		var re *ReadError
		if !errors.As(err, &re) {
			err = &ReadError{Op: "attempt", Kind: ErrTransport, Err: err}
		}
	}
	return v, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
