package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLoop_PostOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()
	defer l.Close()

	var order []int
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		l.Post(func() {
			order = append(order, i)
		})
	}
	l.Post(func() {
		close(done)
	})

	<-done
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoop_PostNeverRunsInline(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()
	defer l.Close()

	// Keep the loop busy so the posted callback cannot run concurrently
	// with the check below.
	gate := make(chan struct{})
	l.Post(func() {
		<-gate
	})

	ran := false
	l.Post(func() {
		ran = true
	})

	require.False(t, ran)
	close(gate)
}

func TestLoop_AfterOrdersByDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()
	defer l.Close()

	var order []string
	done := make(chan struct{})

	l.After(60*time.Millisecond, func() {
		order = append(order, "late")
		close(done)
	})
	l.After(10*time.Millisecond, func() {
		order = append(order, "early")
	})

	<-done
	require.Equal(t, []string{"early", "late"}, order)
}

func TestLoop_CloseDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()

	count := 0
	for i := 0; i < 100; i++ {
		l.Post(func() {
			count++
		})
	}

	l.Close()
	require.Equal(t, 100, count)
}

func TestLoop_CloseDiscardsTimers(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()

	fired := false
	l.After(50*time.Millisecond, func() {
		fired = true
	})

	l.Close()
	require.False(t, fired)
}

func TestLoop_PostAfterCloseIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()
	l.Close()

	l.Post(func() {
		t.Error("callback ran on closed loop")
	})
	l.After(time.Millisecond, func() {
		t.Error("timer fired on closed loop")
	})

	time.Sleep(20 * time.Millisecond)
}

func TestLoop_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()
	l.Close()
	l.Close()
}
