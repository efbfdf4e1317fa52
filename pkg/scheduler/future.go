package scheduler

import "context"

// Future holds the pending result of a scheduled work.
type Future[T any] struct {
	c      chan T
	cancel context.CancelFunc
}

func NewFuture[T any](c chan T, cancel context.CancelFunc) *Future[T] {
	return &Future[T]{c: c, cancel: cancel}
}

// C returns the channel that receives the result exactly once.
func (f *Future[T]) C() <-chan T {
	return f.c
}

// Stop cancels the context given to the work.
func (f *Future[T]) Stop() {
	f.cancel()
}

// Await blocks until the result is available or ctx is done. When ctx ends
// first the work is cancelled.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case v := <-f.c:
		return v, nil
	case <-ctx.Done():
		f.cancel()
		var none T
		return none, ctx.Err()
	}
}
