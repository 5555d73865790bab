package promisio

import (
	"time"

	"github.com/miguelgrinberg/promisio/loop"
)

// Delay returns a promise that fulfills with a nil value once d has
// elapsed, via the loop's timer queue.
func Delay(l *loop.Loop, d time.Duration) Promise {
	var resolve ResolveFunc
	p := New(l, func(res ResolveFunc, _ RejectFunc) {
		resolve = res
	})
	l.After(d, func() {
		_ = resolve(nil)
	})
	return p
}
