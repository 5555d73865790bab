package promisio

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/miguelgrinberg/promisio/loop"
)

func TestAll_Empty(t *testing.T) {
	l := loop.New()
	defer l.Close()

	val, err := awaitWithTimeout(t, All(l), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if !reflect.DeepEqual(val, []Value{}) {
		t.Fatalf("expected empty slice, got %#v", val)
	}
}

func TestAll_OrderMatchesInputs(t *testing.T) {
	l := loop.New()
	defer l.Close()

	slow := Delay(l, 50*time.Millisecond).Then(func(Value) (Value, error) {
		return "foo", nil
	})
	fast := Resolve(l, "bar")
	raw := 42

	val, err := awaitWithTimeout(t, All(l, slow, fast, raw), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	expected := []Value{"foo", "bar", 42}

	if !reflect.DeepEqual(val, expected) {
		t.Fatalf("expected %#v, got %#v", expected, val)
	}
}

func TestAll_RejectsOnFirstRejection(t *testing.T) {
	l := loop.New()
	defer l.Close()

	pending := New(l, func(ResolveFunc, RejectFunc) {})
	failed := Reject(l, errors.New("baz"))

	_, err := awaitWithTimeout(t, All(l, pending, failed), 2*time.Second)
	if err == nil || err.Error() != "baz" {
		t.Fatalf("expected error %q, got: %#v", "baz", err)
	}
}

func TestAllSettled_Empty(t *testing.T) {
	l := loop.New()
	defer l.Close()

	val, err := awaitWithTimeout(t, AllSettled(l), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if !reflect.DeepEqual(val, []Result{}) {
		t.Fatalf("expected empty slice, got %#v", val)
	}
}

func TestAllSettled_NeverRejects(t *testing.T) {
	l := loop.New()
	defer l.Close()

	errBaz := errors.New("baz")

	slow := Delay(l, 50*time.Millisecond).Then(func(Value) (Value, error) {
		return nil, errBaz
	})
	fast := Resolve(l, "bar")

	val, err := awaitWithTimeout(t, AllSettled(l, slow, fast, 42), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	expected := []Result{
		{Status: Rejected, Err: errBaz},
		{Status: Fulfilled, Value: "bar"},
		{Status: Fulfilled, Value: 42},
	}

	if !reflect.DeepEqual(val, expected) {
		t.Fatalf("expected %#v, got %#v", expected, val)
	}
}

func TestAny_Empty(t *testing.T) {
	l := loop.New()
	defer l.Close()

	_, err := awaitWithTimeout(t, Any(l), 500*time.Millisecond)

	var aggErr AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected AggregateError, got: %#v", err)
	}

	if len(aggErr) != 0 {
		t.Fatalf("expected empty AggregateError, got %#v", aggErr)
	}
}

func TestAny_FirstFulfillmentWins(t *testing.T) {
	l := loop.New()
	defer l.Close()

	failed := Reject(l, errors.New("foo"))
	slow := Delay(l, 50*time.Millisecond).Then(func(Value) (Value, error) {
		return "slow", nil
	})
	fast := Resolve(l, "fast")

	val, err := awaitWithTimeout(t, Any(l, failed, slow, fast), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if val != "fast" {
		t.Fatalf("expected value %#v, got %#v", "fast", val)
	}
}

func TestAny_AllRejected(t *testing.T) {
	l := loop.New()
	defer l.Close()

	errFoo := errors.New("foo")
	errBar := errors.New("bar")

	slow := Delay(l, 50*time.Millisecond).Then(func(Value) (Value, error) {
		return nil, errFoo
	})
	fast := Reject(l, errBar)

	_, err := awaitWithTimeout(t, Any(l, slow, fast), 2*time.Second)

	var aggErr AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected AggregateError, got: %#v", err)
	}

	// Errors line up with input positions regardless of settlement order.
	expected := AggregateError{errFoo, errBar}

	if !reflect.DeepEqual(aggErr, expected) {
		t.Fatalf("expected %#v, got %#v", expected, aggErr)
	}

	if !errors.Is(err, errBar) {
		t.Fatalf("expected error chain to contain %#v", errBar)
	}
}

func TestRace_FirstSettlementWins(t *testing.T) {
	l := loop.New()
	defer l.Close()

	slowVal := Delay(l, 100*time.Millisecond).Then(func(Value) (Value, error) {
		return "foo", nil
	})
	fast := Resolve(l, "bar")
	slowErr := Delay(l, 50*time.Millisecond).Then(func(Value) (Value, error) {
		return nil, errors.New("baz")
	})

	val, err := awaitWithTimeout(t, Race(l, slowVal, fast, slowErr), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if val != "bar" {
		t.Fatalf("expected value %#v, got %#v", "bar", val)
	}
}

func TestRace_Reject(t *testing.T) {
	l := loop.New()
	defer l.Close()

	slow := Delay(l, 100*time.Millisecond).Then(func(Value) (Value, error) {
		return "foo", nil
	})
	fast := Reject(l, errors.New("baz"))

	_, err := awaitWithTimeout(t, Race(l, slow, fast), 2*time.Second)
	if err == nil || err.Error() != "baz" {
		t.Fatalf("expected error %q, got: %#v", "baz", err)
	}
}

func TestRace_Empty(t *testing.T) {
	l := loop.New()
	defer l.Close()

	p := Race(l)

	time.Sleep(100 * time.Millisecond)

	if p.State() != Pending {
		t.Fatalf("expected state %v, got %v", Pending, p.State())
	}
}

func TestRace_RawValue(t *testing.T) {
	l := loop.New()
	defer l.Close()

	slow := Delay(l, 100*time.Millisecond)

	val, err := awaitWithTimeout(t, Race(l, slow, 42), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if val != 42 {
		t.Fatalf("expected value %#v, got %#v", 42, val)
	}
}
