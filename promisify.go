package promisio

import (
	"context"
	"fmt"

	"github.com/miguelgrinberg/promisio/loop"
)

// Func is a plain callable that can be wrapped with Promisify.
type Func func(args ...Value) (Value, error)

// AsyncFunc is a callable that performs its work concurrently and respects
// its context for cancellation.
type AsyncFunc func(ctx context.Context, args ...Value) (Value, error)

// Promisify turns fn into a promise-returning callable. A panic or a
// returned error becomes an already-rejected promise, a returned Promise is
// adopted, and any other value becomes an already-fulfilled promise.
func Promisify(l *loop.Loop, fn Func) func(args ...Value) Promise {
	return func(args ...Value) Promise {
		val, err := call(fn, args)
		if err != nil {
			return Reject(l, err)
		}
		return Resolve(l, val)
	}
}

func call(fn Func, args []Value) (val Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while resolving promise: %v", r)
		}
	}()
	return fn(args...)
}

// PromisifyAsync turns fn into a promise-returning callable. Each call
// spawns a cancellable unit of work on the loop and returns a promise bound
// to it: cancelling the promise cancels the unit, and the promise rejects
// with ErrCancelled once the unit's completion observes the cancellation.
func PromisifyAsync(l *loop.Loop, fn AsyncFunc) func(args ...Value) Promise {
	return func(args ...Value) Promise {
		task := l.Spawn(func(ctx context.Context) (loop.Value, error) {
			return fn(ctx, args...)
		})
		return newTaskPromise(l, task)
	}
}

// Run creates a loop, invokes fn on it, drives the loop until the returned
// promise settles, releases the loop and returns the promise's value or
// error.
func Run(fn func(l *loop.Loop) Promise) (Value, error) {
	l := loop.New()
	defer l.Close()
	return fn(l).Await()
}
