package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// waitReady calls probe until it succeeds, giving up after attempts calls
// spaced delay apart or when ctx is done.
func waitReady(ctx context.Context, attempts int, delay time.Duration, probe func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)

	if err := backoff.Retry(func() error { return probe(ctx) }, policy); err != nil {
		return fmt.Errorf("collection not ready after %d attempts: %w", attempts, err)
	}
	return nil
}
