// Package realtime models live queries: every update is the full, authoritative
// result set, and every subscription must be closed by its consumer.
package realtime

import (
	"context"
	"sync"
)

// Subscription delivers snapshots of a live query.
//
// Delivery is latest-wins: at most one undelivered snapshot is buffered and a
// newer one replaces it, so a slow consumer skips superseded snapshots but
// never sees a partial one.
type Subscription[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	ch     chan []T
	closed bool
	err    error
}

// New returns an open subscription whose context is derived from parent.
// Producers should stop when Context() is done.
func New[T any](parent context.Context) *Subscription[T] {
	ctx, cancel := context.WithCancel(parent)
	s := &Subscription[T]{
		ctx:    ctx,
		cancel: cancel,
		ch:     make(chan []T, 1),
	}
	go func() {
		<-ctx.Done()
		s.finish(nil)
	}()
	return s
}

// Updates yields snapshots until the subscription is closed or fails.
func (s *Subscription[T]) Updates() <-chan []T {
	return s.ch
}

// Context is cancelled once the subscription is closed.
func (s *Subscription[T]) Context() context.Context {
	return s.ctx
}

// Done is closed once the subscription is closed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Publish offers a snapshot to the consumer. It reports false once closed.
func (s *Subscription[T]) Publish(items []T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- items:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- items
	}
	return true
}

// Fail closes the subscription with err.
func (s *Subscription[T]) Fail(err error) {
	s.finish(err)
	s.cancel()
}

// Close releases the listener. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.cancel()
	s.finish(nil)
}

// Err reports why the subscription ended, nil after a plain Close.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription[T]) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.ch)
}

// Map derives a subscription that applies fn to every snapshot of src.
// Closing either side closes both, and a failure of src is reported by dst.
func Map[T, U any](src *Subscription[T], fn func([]T) []U) *Subscription[U] {
	dst := New[U](context.WithoutCancel(src.Context()))
	go func() {
		defer src.Close()
		for {
			select {
			case items, ok := <-src.Updates():
				if !ok {
					if err := src.Err(); err != nil {
						dst.Fail(err)
					} else {
						dst.Close()
					}
					return
				}
				dst.Publish(fn(items))
			case <-dst.Done():
				return
			}
		}
	}()
	return dst
}
