package spotify

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// withBackoff retries op with exponential backoff while transient classifies
// its failure as retryable. maxTries bounds the total number of attempts,
// including the first; non-transient failures return immediately with no
// delay. Delays double from initialDelay with no jitter.
func withBackoff[T any](ctx context.Context, op func() (T, error), maxTries uint, initialDelay time.Duration, transient func(error) bool) (T, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initialDelay
	eb.RandomizationFactor = 0
	eb.Multiplier = 2

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !transient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(maxTries))
}
