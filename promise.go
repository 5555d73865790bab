// Package promisio implements JavaScript-style promises on top of a
// cooperative event loop. Promises settle exactly once, handlers run in
// attachment order on the loop and never inline during attachment, and
// resolving with another promise adopts its eventual state.
package promisio

import (
	"fmt"
	"sync"

	"github.com/miguelgrinberg/promisio/loop"
)

// Value describes the value of a fulfilled promise.
type Value = loop.Value

// State describes the lifecycle state of a promise.
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// OnFulfilledFunc is used in promise fulfillment handlers. Returning a
// non-nil error rejects the downstream promise. Returning a Promise makes
// the downstream promise adopt its eventual state.
type OnFulfilledFunc func(val Value) (Value, error)

// OnRejectedFunc is used in promise rejection handlers. Returning a nil
// error recovers from the rejection: the downstream promise fulfills with
// the returned value. Returning a non-nil error keeps the downstream
// promise rejected.
type OnRejectedFunc func(err error) (Value, error)

// FinallyFunc is used in settlement handlers registered with Finally. It
// observes neither the value nor the error of the settled promise.
type FinallyFunc func() (Value, error)

// ResolveFunc is passed as the first argument to a ResolutionFunc and may be
// called to fulfill the promise with the provided value, or, if the value is
// a Promise, to adopt its eventual state. It returns ErrDoubleSettlement if
// the promise was already resolved or rejected.
type ResolveFunc func(val Value) error

// RejectFunc is passed as the second argument to a ResolutionFunc and may be
// called to reject the promise with the provided error. It returns
// ErrDoubleSettlement if the promise was already resolved or rejected.
type RejectFunc func(err error) error

// ResolutionFunc is passed to a promise in order to expose ResolveFunc and
// RejectFunc to the application logic that decides about fulfillment or
// rejection of a promise. At least one of `resolve` or `reject` must be
// called in order to trigger the resolution of a given promise. Not calling
// any of the two leaves the promise in a pending state.
type ResolutionFunc func(resolve ResolveFunc, reject RejectFunc)

// A Promise represents the eventual completion (or failure) of an
// asynchronous operation, and its resulting value.
type Promise interface {
	// Then registers a fulfillment handler and optionally a rejection
	// handler, and returns the downstream promise settled by their outcome.
	// Handlers never run inline during the Then call; they run on the loop,
	// in attachment order, once the promise settles. A nil fulfillment
	// handler passes the value through; a nil rejection handler propagates
	// the rejection.
	Then(onFulfilled OnFulfilledFunc, onRejected ...OnRejectedFunc) Promise

	// Catch is shorthand for Then(nil, onRejected).
	Catch(onRejected OnRejectedFunc) Promise

	// Finally registers fn to run on settlement regardless of outcome. The
	// original outcome passes through unchanged unless fn panics, returns a
	// non-nil error, or returns a Promise that rejects; that rejection then
	// supersedes the original outcome. A Promise returned by fn is waited
	// for and its fulfillment value discarded.
	Finally(fn FinallyFunc) Promise

	// Cancel requests cancellation of the promise's underlying unit of
	// work, if any. On a plain promise it is a no-op. Cancelling a settled
	// promise is a no-op.
	Cancel()

	// Cancelled reports whether the underlying unit of work was cancelled.
	// It is always false for a plain promise.
	Cancelled() bool

	// State reports whether the promise is pending, fulfilled or rejected.
	State() State

	// Await blocks the calling goroutine until the promise settles and
	// returns its value or error. It must not be called from the loop
	// goroutine.
	Await() (Value, error)

	// Loop returns the loop the promise runs its handlers on.
	Loop() *loop.Loop
}

type promise struct {
	l    *loop.Loop
	cell *loop.Cell

	mu      sync.Mutex
	latched bool
}

// New creates a pending promise on l. If fn is non-nil it is invoked
// synchronously with the resolve and reject functions bound to the new
// promise. A panic in fn rejects the promise.
func New(l *loop.Loop, fn ResolutionFunc) Promise {
	p := newPromise(l)
	if fn != nil {
		func() {
			defer handlePanic(p)
			fn(p.resolve, p.reject)
		}()
	}
	return p
}

// Resolve returns a promise resolved with val. If val is itself a Promise,
// the returned promise adopts its eventual state, through arbitrarily deep
// nesting, one loop turn per level.
func Resolve(l *loop.Loop, val Value) Promise {
	p := newPromise(l)
	_ = p.resolve(val)
	return p
}

// Reject returns a promise that is rejected with err.
func Reject(l *loop.Loop, err error) Promise {
	p := newPromise(l)
	_ = p.reject(err)
	return p
}

func newPromise(l *loop.Loop) *promise {
	return &promise{l: l, cell: l.NewCell()}
}

func handlePanic(p *promise) {
	if r := recover(); r != nil {
		_ = p.reject(fmt.Errorf("panic while resolving promise: %v", r))
	}
}

// resolve latches the promise and settles it with val. Once latched, any
// further resolve or reject attempt fails with ErrDoubleSettlement, even
// while an adopted promise is still pending.
func (p *promise) resolve(val Value) error {
	if err := p.latch(); err != nil {
		return err
	}
	p.settleValue(val)
	return nil
}

func (p *promise) reject(err error) error {
	if lerr := p.latch(); lerr != nil {
		return lerr
	}
	_ = p.cell.SetError(err)
	return nil
}

func (p *promise) latch() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latched {
		return ErrDoubleSettlement
	}
	p.latched = true
	return nil
}

// settleValue completes settlement after the latch was taken. A plain value
// fulfills the cell directly. A Promise value is adopted: the cell stays
// pending until the adopted promise settles, with each level of nesting
// costing one loop turn rather than one stack frame.
func (p *promise) settleValue(val Value) {
	adopted, ok := val.(Promise)
	if !ok {
		_ = p.cell.SetValue(val)
		return
	}
	if adopted == Promise(p) {
		_ = p.cell.SetError(ErrCircularResolutionChain)
		return
	}
	adopted.Then(func(v Value) (Value, error) {
		p.settleValue(v)
		return nil, nil
	}, func(err error) (Value, error) {
		_ = p.cell.SetError(err)
		return nil, nil
	})
}

func (p *promise) Then(onFulfilled OnFulfilledFunc, onRejected ...OnRejectedFunc) Promise {
	var onRej OnRejectedFunc
	if len(onRejected) > 0 {
		onRej = onRejected[0]
	}
	return p.subscribe(onFulfilled, onRej)
}

func (p *promise) Catch(onRejected OnRejectedFunc) Promise {
	return p.Then(nil, onRejected)
}

func (p *promise) Finally(fn FinallyFunc) Promise {
	if fn == nil {
		return p.subscribe(nil, nil)
	}
	return p.subscribe(
		func(val Value) (Value, error) {
			return runFinally(fn, func() (Value, error) { return val, nil })
		},
		func(err error) (Value, error) {
			return runFinally(fn, func() (Value, error) { return nil, err })
		},
	)
}

// runFinally invokes the Finally handler and restores the original outcome
// unless the handler superseded it with a rejection.
func runFinally(fn FinallyFunc, original func() (Value, error)) (Value, error) {
	res, err := fn()
	if err != nil {
		return nil, err
	}
	if fp, ok := res.(Promise); ok {
		return fp.Then(func(Value) (Value, error) {
			return original()
		}), nil
	}
	return original()
}

// subscribe implements the chaining contract shared by Then, Catch and
// Finally: it creates the downstream promise and registers a completion
// callback that runs the appropriate handler once p settles.
func (p *promise) subscribe(onFulfilled OnFulfilledFunc, onRejected OnRejectedFunc) *promise {
	next := newPromise(p.l)
	p.cell.Subscribe(func(val Value, err error) {
		if err == nil {
			if onFulfilled == nil {
				_ = next.resolve(val)
				return
			}
			runHandler(next, func() (Value, error) { return onFulfilled(val) })
			return
		}
		if onRejected == nil {
			_ = next.reject(err)
			return
		}
		runHandler(next, func() (Value, error) { return onRejected(err) })
	})
	return next
}

// runHandler invokes a settlement handler and settles next with its outcome.
// A panic or a returned error becomes next's rejection; it never escapes to
// the scheduler.
func runHandler(next *promise, fn func() (Value, error)) {
	defer handlePanic(next)
	val, err := fn()
	if err != nil {
		_ = next.reject(err)
		return
	}
	_ = next.resolve(val)
}

func (p *promise) Cancel() {}

func (p *promise) Cancelled() bool { return false }

func (p *promise) State() State {
	if !p.cell.Settled() {
		return Pending
	}
	if _, err := p.cell.Result(); err != nil {
		return Rejected
	}
	return Fulfilled
}

func (p *promise) Await() (Value, error) {
	<-p.cell.Done()
	return p.cell.Result()
}

func (p *promise) Loop() *loop.Loop { return p.l }

// taskPromise is a promise bound to a cancellable unit of work. Cancel and
// Cancelled forward to the unit; everything else behaves like a plain
// promise settled by the unit's completion.
type taskPromise struct {
	*promise
	task *loop.Task
}

func newTaskPromise(l *loop.Loop, t *loop.Task) *taskPromise {
	p := newPromise(l)
	p.latched = true // settled exclusively by the task's completion
	t.Cell().Subscribe(func(val Value, err error) {
		if err != nil {
			_ = p.cell.SetError(err)
			return
		}
		p.settleValue(val)
	})
	return &taskPromise{promise: p, task: t}
}

func (p *taskPromise) Cancel() {
	p.task.Cancel()
}

func (p *taskPromise) Cancelled() bool {
	return p.task.Cancelled()
}
