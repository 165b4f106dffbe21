package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/region"
)

// RetryPolicy bounds how often and how patiently a fetch is retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retrying wraps a Fetcher with exponential backoff. Transport errors and
// temporary status codes are retried; other status codes are returned at once.
type Retrying struct {
	next   Fetcher
	policy RetryPolicy
	notify func(err error, wait time.Duration)
}

// WithRetry decorates next with policy. notify, if non-nil, is called before each retry.
func WithRetry(next Fetcher, policy RetryPolicy, notify func(err error, wait time.Duration)) *Retrying {
	return &Retrying{next: next, policy: policy, notify: notify}
}

// Fetch implements Fetcher.
func (f *Retrying) Fetch(ctx context.Context, r region.Region, d draw.Date) ([]byte, error) {
	if f.policy.MaxAttempts <= 1 {
		return f.next.Fetch(ctx, r, d)
	}

	exp := backoff.NewExponentialBackOff()
	if f.policy.InitialInterval > 0 {
		exp.InitialInterval = f.policy.InitialInterval
	}
	if f.policy.MaxInterval > 0 {
		exp.MaxInterval = f.policy.MaxInterval
	}
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(f.policy.MaxAttempts-1)), ctx)

	op := func() ([]byte, error) {
		body, err := f.next.Fetch(ctx, r, d)
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}

	var notify backoff.Notify
	if f.notify != nil {
		notify = f.notify
	}
	return backoff.RetryNotifyWithData(op, b, notify)
}
