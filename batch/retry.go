package batch

import (
	"errors"
	"math/rand/v2"
	"time"

	"billworks/bill"
	"billworks/compose"
	"billworks/ingest"
	"billworks/render"
)

// backoff returns the delay before re-attempt n (0-indexed): exponential on
// the configured base with jitter, capped at 30 seconds before jitter.
func backoff(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base << uint(attempt)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2 + 1))
	return d + jitter
}

// permanent reports whether an error can never succeed on retry: bad input
// data, invariant violations, and unrenderable documents. Engine failures
// and timeouts stay retryable.
func permanent(err error) bool {
	var dataErr *ingest.DataError
	var invErr *bill.InvariantError
	return errors.Is(err, compose.ErrNoBillableRows) ||
		errors.Is(err, render.ErrInvalidDocument) ||
		errors.As(err, &dataErr) ||
		errors.As(err, &invErr)
}
