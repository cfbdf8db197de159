package usecase

import (
	"context"
	"errors"
	"time"
)

// ErrDeadline reports that an operation lost the race against its ceiling.
var ErrDeadline = errors.New("deadline exceeded before completion")

// awaitWithin runs op and waits at most d for its result. Whichever settles
// first wins; a late-arriving result is discarded, never delivered. The op
// context is cancelled once the race is decided so well-behaved capability
// calls can stop early.
func awaitWithin[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, 1)
	go func() {
		value, err := op(opCtx)
		results <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case res := <-results:
		return res.value, res.err
	case <-timer.C:
		return zero, ErrDeadline
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
