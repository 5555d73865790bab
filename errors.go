package promisio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/miguelgrinberg/promisio/loop"
)

// ErrDoubleSettlement is returned by resolve and reject functions when the
// promise was already resolved or rejected. It is the same error the
// underlying settlement cell reports, so errors.Is matches across both
// layers.
var ErrDoubleSettlement = loop.ErrAlreadySettled

// ErrCancelled is the rejection reason of a promise whose underlying unit
// of work was cancelled before completion.
var ErrCancelled = loop.ErrCancelled

// ErrCircularResolutionChain is the error that a promise is rejected with
// if an attempt is made to resolve it with itself.
var ErrCircularResolutionChain = errors.New("circular promise resolution chain detected")

// AggregateError is a collection of errors that are aggregated in a single
// error. Any rejects with an AggregateError holding one reason per input,
// aligned by input index.
type AggregateError []error

// Error implements the error interface. It aggregates the messages of
// multiple errors into a single error string.
func (e AggregateError) Error() string {
	switch len(e) {
	case 0:
		return "all promises were rejected"
	case 1:
		return e[0].Error()
	}

	errStrings := make([]string, len(e))
	for i, err := range e {
		errStrings[i] = fmt.Sprintf("* %s", err)
	}

	return fmt.Sprintf(
		"%d promises rejected due to errors:\n%s",
		len(e), strings.Join(errStrings, "\n"))
}

// Unwrap makes the aggregated errors visible to errors.Is and errors.As.
func (e AggregateError) Unwrap() []error {
	return e
}
