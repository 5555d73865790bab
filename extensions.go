package promisio

import "github.com/miguelgrinberg/promisio/loop"

// Result describes the outcome of one settled input: Status is Fulfilled
// with its Value, or Rejected with its Err.
type Result struct {
	Status State
	Value  Value
	Err    error
}

// The combinators accept raw values alongside promises; every input is
// normalized with Resolve first. "First" always means the order completion
// callbacks fire on the loop, which for inputs that are already settled at
// call time reduces to input order. Per-index results are written into
// pre-allocated slices of the input length, exactly one write per index.
// With zero inputs the combinators settle their promise during construction;
// no handler can be attached that early, so nothing observes a settlement
// inline.

// All returns a promise that fulfills with the values of all inputs,
// aligned by input index regardless of completion order, once every input
// has fulfilled. It rejects with the reason of the first input to reject;
// settlements of the remaining inputs are observed and discarded. With no
// inputs it fulfills with an empty slice.
func All(l *loop.Loop, inputs ...Value) Promise {
	return New(l, func(resolve ResolveFunc, reject RejectFunc) {
		n := len(inputs)
		if n == 0 {
			_ = resolve([]Value{})
			return
		}

		results := make([]Value, n)
		remaining := n

		for i, input := range inputs {
			Resolve(l, input).Then(func(val Value) (Value, error) {
				results[i] = val
				remaining--
				if remaining == 0 {
					_ = resolve(results)
				}
				return nil, nil
			}, func(err error) (Value, error) {
				// First rejection wins; the latch turns the rest into no-ops.
				_ = reject(err)
				return nil, nil
			})
		}
	})
}

// AllSettled returns a promise that fulfills after every input has settled,
// with one Result per input, aligned by index. It never rejects.
func AllSettled(l *loop.Loop, inputs ...Value) Promise {
	return New(l, func(resolve ResolveFunc, _ RejectFunc) {
		n := len(inputs)
		if n == 0 {
			_ = resolve([]Result{})
			return
		}

		results := make([]Result, n)
		remaining := n
		settle := func(i int, res Result) {
			results[i] = res
			remaining--
			if remaining == 0 {
				_ = resolve(results)
			}
		}

		for i, input := range inputs {
			Resolve(l, input).Then(func(val Value) (Value, error) {
				settle(i, Result{Status: Fulfilled, Value: val})
				return nil, nil
			}, func(err error) (Value, error) {
				settle(i, Result{Status: Rejected, Err: err})
				return nil, nil
			})
		}
	})
}

// Any returns a promise that fulfills with the value of the first input to
// fulfill. If every input rejects, it rejects with an AggregateError
// holding one reason per input, aligned by index. With no inputs it rejects
// with an empty AggregateError, since no input can ever fulfill.
func Any(l *loop.Loop, inputs ...Value) Promise {
	return New(l, func(resolve ResolveFunc, reject RejectFunc) {
		n := len(inputs)
		if n == 0 {
			_ = reject(AggregateError{})
			return
		}

		errs := make(AggregateError, n)
		remaining := n

		for i, input := range inputs {
			Resolve(l, input).Then(func(val Value) (Value, error) {
				_ = resolve(val)
				return nil, nil
			}, func(err error) (Value, error) {
				errs[i] = err
				remaining--
				if remaining == 0 {
					_ = reject(errs)
				}
				return nil, nil
			})
		}
	})
}

// Race returns a promise that settles to the outcome of whichever input
// settles first, fulfilled or rejected. Every later settlement is latched
// out as a no-op. With no inputs the promise stays pending forever.
func Race(l *loop.Loop, inputs ...Value) Promise {
	return New(l, func(resolve ResolveFunc, reject RejectFunc) {
		for _, input := range inputs {
			Resolve(l, input).Then(func(val Value) (Value, error) {
				_ = resolve(val)
				return nil, nil
			}, func(err error) (Value, error) {
				_ = reject(err)
				return nil, nil
			})
		}
	})
}
