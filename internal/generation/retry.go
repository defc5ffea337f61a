package generation

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 3 * time.Second
)

// RetryPolicy retries an operation whose failures are classified by Kind.
// The delay before retry n (starting at 0) is BaseDelay * 2^n.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration

	// Retryable reports whether a failure of the given kind is retried.
	// Defaults to Kind.Transient.
	Retryable func(Kind) bool

	// Timer schedules the wait between attempts. Nil uses a real timer.
	Timer backoff.Timer

	// Notify, if set, is called before each wait with the failure and delay.
	Notify func(err error, delay time.Duration)
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, the retry
// budget is exhausted or ctx is done. When retries run out the error of the
// last attempt is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = Kind.Transient
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&doublingBackOff{base: p.BaseDelay}, uint64(maxRetries)),
		ctx,
	)

	operation := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(KindOf(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.RetryNotifyWithTimer(operation, b, p.Notify, p.Timer)
}

// doublingBackOff yields base, 2*base, 4*base, ...
type doublingBackOff struct {
	base    time.Duration
	attempt int
}

func (b *doublingBackOff) NextBackOff() time.Duration {
	d := b.base << b.attempt
	b.attempt++
	return d
}

func (b *doublingBackOff) Reset() {
	b.attempt = 0
}
