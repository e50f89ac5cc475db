// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gviegas/seascene"
)

// ErrPending is returned by Load.Result while the load is
// in progress.
var ErrPending = errors.New("bootstrap: load pending")

// ErrPanic is wrapped by the error of a load that panicked.
var ErrPanic = errors.New("bootstrap: load panicked")

// Load is an asynchronous, one-shot asset load.
// Its result is set once, before Done is closed.
type Load[T any] struct {
	name string
	done chan struct{}
	val  T
	err  error
}

// load runs f in a new goroutine. If f succeeds and ctx is
// still live, apply is called with the value before the
// load completes. Failures are logged and otherwise
// swallowed. A panic in f is a failure too.
func load[T any](ctx context.Context, name string, f func(context.Context) (T, error), apply func(T)) *Load[T] {
	l := &Load[T]{name: name, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		start := time.Now()
		v, err := call(ctx, f)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			l.err = err
			seascene.Logger().Warn("bootstrap: load failed", "asset", name, "err", err)
			return
		}
		apply(v)
		l.val = v
		seascene.Logger().Info("bootstrap: loaded", "asset", name, "elapsed", time.Since(start))
	}()
	return l
}

func call[T any](ctx context.Context, f func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if x := recover(); x != nil {
			var zero T
			v, err = zero, fmt.Errorf("%w: %v", ErrPanic, x)
		}
	}()
	return f(ctx)
}

// Name returns what is being loaded.
func (l *Load[T]) Name() string { return l.name }

// Done returns a channel that is closed when the load
// completes, successfully or not.
func (l *Load[T]) Done() <-chan struct{} { return l.done }

// Result returns the loaded value, or ErrPending if the
// load has not completed.
func (l *Load[T]) Result() (T, error) {
	select {
	case <-l.done:
		return l.val, l.err
	default:
		var zero T
		return zero, ErrPending
	}
}

// Wait blocks until the load completes or ctx is done.
func (l *Load[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-l.done:
		return l.val, l.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
