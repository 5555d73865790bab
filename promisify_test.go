package promisio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/miguelgrinberg/promisio/loop"
)

func TestPromisify_Value(t *testing.T) {
	l := loop.New()
	defer l.Close()

	add := Promisify(l, func(args ...Value) (Value, error) {
		return args[0].(int) + args[1].(int), nil
	})

	val, err := awaitWithTimeout(t, add(1, 2), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if val != 3 {
		t.Fatalf("expected value %#v, got %#v", 3, val)
	}
}

func TestPromisify_Error(t *testing.T) {
	l := loop.New()
	defer l.Close()

	errFoo := errors.New("foo")

	fail := Promisify(l, func(...Value) (Value, error) {
		return nil, errFoo
	})

	_, err := awaitWithTimeout(t, fail(), 2*time.Second)
	if !errors.Is(err, errFoo) {
		t.Fatalf("expected error %#v, got: %#v", errFoo, err)
	}
}

func TestPromisify_Panic(t *testing.T) {
	l := loop.New()
	defer l.Close()

	boom := Promisify(l, func(...Value) (Value, error) {
		panic("bar")
	})

	_, err := awaitWithTimeout(t, boom(), 2*time.Second)
	if err == nil || !strings.Contains(err.Error(), "bar") {
		t.Fatalf("expected panic error containing %q, got: %#v", "bar", err)
	}
}

func TestPromisify_ReturnedPromiseIsAdopted(t *testing.T) {
	l := loop.New()
	defer l.Close()

	inner := Delay(l, 10*time.Millisecond).Then(func(Value) (Value, error) {
		return "foo", nil
	})

	wrapped := Promisify(l, func(...Value) (Value, error) {
		return inner, nil
	})

	val, err := awaitWithTimeout(t, wrapped(), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if val != "foo" {
		t.Fatalf("expected value %#v, got %#v", "foo", val)
	}
}

func TestPromisifyAsync_Completes(t *testing.T) {
	l := loop.New()
	defer l.Close()

	double := PromisifyAsync(l, func(_ context.Context, args ...Value) (Value, error) {
		return args[0].(int) * 2, nil
	})

	val, err := awaitWithTimeout(t, double(21), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if val != 42 {
		t.Fatalf("expected value %#v, got %#v", 42, val)
	}
}

func TestPromisifyAsync_Cancel(t *testing.T) {
	l := loop.New()
	defer l.Close()

	started := make(chan struct{})

	sleepy := PromisifyAsync(l, func(ctx context.Context, _ ...Value) (Value, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	p := sleepy()
	<-started
	p.Cancel()

	_, err := awaitWithTimeout(t, p, 2*time.Second)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got: %#v", err)
	}

	if !p.Cancelled() {
		t.Fatal("expected promise to report cancellation")
	}
}

func TestPromisifyAsync_CancelAfterSettlementIsNoop(t *testing.T) {
	l := loop.New()
	defer l.Close()

	instant := PromisifyAsync(l, func(context.Context, ...Value) (Value, error) {
		return "foo", nil
	})

	p := instant()

	val, err := awaitWithTimeout(t, p, 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	p.Cancel()

	if p.Cancelled() {
		t.Fatal("expected cancel after settlement to be a no-op")
	}

	if val != "foo" {
		t.Fatalf("expected value %#v, got %#v", "foo", val)
	}
}

func TestRun(t *testing.T) {
	val, err := Run(func(l *loop.Loop) Promise {
		return Delay(l, 10*time.Millisecond).Then(func(Value) (Value, error) {
			return "done", nil
		})
	})
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if val != "done" {
		t.Fatalf("expected value %#v, got %#v", "done", val)
	}
}

func TestRun_Error(t *testing.T) {
	errFoo := errors.New("foo")

	_, err := Run(func(l *loop.Loop) Promise {
		return Reject(l, errFoo)
	})
	if !errors.Is(err, errFoo) {
		t.Fatalf("expected error %#v, got: %#v", errFoo, err)
	}
}

func TestDelay(t *testing.T) {
	l := loop.New()
	defer l.Close()

	start := time.Now()

	_, err := awaitWithTimeout(t, Delay(l, 50*time.Millisecond), 2*time.Second)
	if err != nil {
		t.Fatalf("expected nil error, got: %#v", err)
	}

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("expected at least 50ms to elapse, got %v", elapsed)
	}
}
