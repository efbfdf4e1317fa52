package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Data T
	Err  error
}

type workRequest struct {
	fn     Work[any]
	c      chan Result[any]
	ctx    context.Context
	cancel context.CancelFunc
}

// Scheduler runs work on a fixed number of workers, in FIFO order.
type Scheduler struct {
	mu         sync.Mutex
	cond       *sync.Cond
	queue      []workRequest
	closed     bool
	wg         sync.WaitGroup
	mainCtx    context.Context
	mainCancel context.CancelFunc
}

func NewScheduler(nbWorkers int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		mainCtx:    ctx,
		mainCancel: cancel,
	}
	s.cond = sync.NewCond(&s.mu)

	for range nbWorkers {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// AddWork queues w and returns a future resolved with its result.
// Work added after Close resolves immediately with context.Canceled.
func (s *Scheduler) AddWork(w Work[any]) *Future[Result[any]] {
	c := make(chan Result[any], 1)
	ctx, cancel := context.WithCancel(s.mainCtx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		cancel()
		c <- Result[any]{Err: context.Canceled}
		return NewFuture(c, cancel)
	}

	s.queue = append(s.queue, workRequest{fn: w, c: c, ctx: ctx, cancel: cancel})
	s.cond.Signal()

	return NewFuture(c, cancel)
}

// Close cancels running work, fails queued work and waits for the workers to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mainCancel()
	pending := s.queue
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	for _, r := range pending {
		r.cancel()
		r.c <- Result[any]{Err: context.Canceled}
	}

	s.wg.Wait()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		r, ok := s.next()
		if !ok {
			return
		}
		r.c <- s.run(r)
		r.cancel()
	}
}

func (s *Scheduler) next() (workRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return workRequest{}, false
	}

	r := s.queue[0]
	s.queue = s.queue[1:]
	return r, true
}

func (s *Scheduler) run(r workRequest) (result Result[any]) {
	defer func() {
		if p := recover(); p != nil {
			zap.S().Named("scheduler").Errorw("worker panicked", "panic", p)
			result = Result[any]{Err: fmt.Errorf("worker panicked: %v", p)}
		}
	}()

	v, err := r.fn(r.ctx)
	return Result[any]{Data: v, Err: err}
}
