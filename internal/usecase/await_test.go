package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAwaitWithinDeliversFastResult(t *testing.T) {
	t.Parallel()

	got, err := awaitWithin(context.Background(), time.Second, func(context.Context) (string, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "done" {
		t.Fatalf("got %q, want %q", got, "done")
	}
}

func TestAwaitWithinPropagatesOperationError(t *testing.T) {
	t.Parallel()

	opErr := errors.New("upstream failed")
	_, err := awaitWithin(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("got %v, want %v", err, opErr)
	}
}

func TestAwaitWithinTimesOutAndCancelsOp(t *testing.T) {
	t.Parallel()

	cancelled := make(chan struct{})
	got, err := awaitWithin(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		close(cancelled)
		return "late", ctx.Err()
	})
	if !errors.Is(err, ErrDeadline) {
		t.Fatalf("got %v, want ErrDeadline", err)
	}
	if got != "" {
		t.Fatalf("late value leaked: %q", got)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatalf("op context was never cancelled after the deadline")
	}
}

func TestAwaitWithinHonorsCallerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := awaitWithin(ctx, time.Second, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestAwaitWithinDiscardsLateResult(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	_, err := awaitWithin(context.Background(), 10*time.Millisecond, func(context.Context) (string, error) {
		<-release
		return "too late", nil
	})
	if !errors.Is(err, ErrDeadline) {
		t.Fatalf("got %v, want ErrDeadline", err)
	}

	// The op goroutine must be able to finish into the buffered channel
	// without anyone reading it.
	close(release)
}
