package instrumented

import "github.com/miguelgrinberg/promisio"

// Alias exported promisio package types to allow usage of the
// promisio/instrumented package as drop in replacement.
type (
	// Value describes the value of a fulfilled promise.
	Value = promisio.Value

	// State describes the lifecycle state of a promise.
	State = promisio.State

	// OnFulfilledFunc is used in promise fulfillment handlers.
	OnFulfilledFunc = promisio.OnFulfilledFunc

	// OnRejectedFunc is used in promise rejection handlers.
	OnRejectedFunc = promisio.OnRejectedFunc

	// FinallyFunc is used in settlement handlers registered with Finally.
	FinallyFunc = promisio.FinallyFunc

	// ResolveFunc is passed as the first argument to a ResolutionFunc and may
	// be called by the user to trigger the promise fulfillment handler chain
	// with the provided value.
	ResolveFunc = promisio.ResolveFunc

	// RejectFunc is passed as the second argument to a ResolutionFunc and may
	// be called by the user to trigger the promise rejection handler chain
	// with the provided error value.
	RejectFunc = promisio.RejectFunc

	// ResolutionFunc is passed to a promise in order to expose ResolveFunc
	// and RejectFunc to the application logic that decides about fulfillment
	// or rejection of a promise.
	ResolutionFunc = promisio.ResolutionFunc

	// A Promise represents the eventual completion (or failure) of an
	// asynchronous operation, and its resulting value.
	Promise = promisio.Promise

	// AggregateError is a collection of errors that are aggregated in a
	// single error.
	AggregateError = promisio.AggregateError

	// Result describes the outcome of one settled input.
	Result = promisio.Result
)

// Alias exported promisio package variables to allow usage of the
// promisio/instrumented package as drop in replacement.
var (
	// ErrDoubleSettlement is returned by resolve and reject functions when
	// the promise was already resolved or rejected.
	ErrDoubleSettlement = promisio.ErrDoubleSettlement

	// ErrCancelled is the rejection reason of a promise whose underlying
	// unit of work was cancelled before completion.
	ErrCancelled = promisio.ErrCancelled

	// ErrCircularResolutionChain is the error that a promise is rejected
	// with if an attempt is made to resolve it with itself.
	ErrCircularResolutionChain = promisio.ErrCircularResolutionChain

	// Race returns a promise that settles to the outcome of whichever input
	// settles first, fulfilled or rejected.
	Race = promisio.Race

	// All returns a promise that fulfills with the values of all inputs,
	// aligned by input index, once every input has fulfilled. It rejects
	// with the reason of the first input to reject.
	All = promisio.All

	// Any returns a promise that fulfills with the value of the first input
	// to fulfill, and rejects with an AggregateError when every input
	// rejects.
	Any = promisio.Any

	// AllSettled returns a promise that fulfills after every input has
	// settled, with one Result per input, aligned by index.
	AllSettled = promisio.AllSettled
)
