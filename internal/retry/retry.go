// Package retry isolates how remote calls are retried so call sites do not
// depend on a particular backoff schedule.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Default policy values applied to both provider clients.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 4 * time.Second
	DefaultMaxDelay     = 10 * time.Second
)

// Strategy runs op, retrying it according to its own rules. The returned
// error is the last error op produced, unwrapped from any retry marker.
type Strategy interface {
	Do(ctx context.Context, name string, op func(ctx context.Context) error) error
}

// Policy describes a bounded exponential backoff.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt; each later wait doubles.
	InitialDelay time.Duration
	// MaxDelay caps any single wait.
	MaxDelay time.Duration
}

// DefaultPolicy returns three attempts with 4s doubling waits capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	return p
}

func (p Policy) backoff() goretry.Backoff {
	p = p.normalized()
	b := goretry.NewExponential(p.InitialDelay)
	b = goretry.WithCappedDuration(p.MaxDelay, b)
	return goretry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// WholeCall retries the entire operation from scratch on any error. A
// multi-phase operation therefore repeats every phase on each attempt.
type WholeCall struct {
	Policy Policy
	Logger *slog.Logger
}

// NewWholeCall returns a WholeCall strategy for policy.
func NewWholeCall(policy Policy, logger *slog.Logger) *WholeCall {
	if logger == nil {
		logger = slog.Default()
	}
	return &WholeCall{Policy: policy.normalized(), Logger: logger}
}

// Do implements [Strategy]. Context cancellation and deadline errors are
// returned immediately without another attempt.
func (w *WholeCall) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attempt := 0
	return goretry.Do(ctx, w.Policy.backoff(), func(ctx context.Context) error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return err
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		logger.WarnContext(ctx, "attempt failed",
			"operation", name,
			"attempt", attempt,
			"max_attempts", w.Policy.MaxAttempts,
			"error", err)
		return goretry.RetryableError(err)
	})
}

// Once runs the operation a single time.
type Once struct{}

// Do implements [Strategy].
func (Once) Do(ctx context.Context, _ string, op func(ctx context.Context) error) error {
	return op(ctx)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. WholeCall returns the wrapped
// error as-is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

var (
	_ Strategy = (*WholeCall)(nil)
	_ Strategy = Once{}
)
