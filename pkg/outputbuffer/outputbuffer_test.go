package outputbuffer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestFillFreeInvariant(t *testing.T) {
	b := New(8)
	if b.Free() != 8 || b.Fill() != 0 {
		t.Fatalf("fresh buffer: fill=%d free=%d", b.Fill(), b.Free())
	}

	n, err := b.Send(context.Background(), []byte{1, 2, 3})
	if err != nil || n != 3 {
		t.Fatalf("Send = %d, %v", n, err)
	}
	if b.Fill() != 3 || b.Free() != 5 {
		t.Fatalf("fill=%d free=%d, want 3,5", b.Fill(), b.Free())
	}
}

func TestReadDrainsAndInvokesFreeCallback(t *testing.T) {
	b := New(8)
	var calls int32
	b.SetFreeCallback(func() { atomic.AddInt32(&calls, 1) })

	b.Send(context.Background(), []byte{1, 2, 3, 4})

	buf := make([]byte, 2)
	n, err := b.Read(buf)
	if err != nil || n != 2 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("free callback called %d times, want 1", calls)
	}
	if b.Fill() != 2 {
		t.Fatalf("fill=%d, want 2", b.Fill())
	}
}

func TestStopDropsWritesAndReportsFullFree(t *testing.T) {
	b := New(8)
	b.Send(context.Background(), []byte{1, 2, 3})
	b.Stop()

	if b.Free() != 8 {
		t.Fatalf("stopped buffer free=%d, want 8", b.Free())
	}

	n, err := b.Send(context.Background(), []byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9})
	if err != nil || n != 10 {
		t.Fatalf("Send on stopped buffer = %d, %v, want 10, nil", n, err)
	}
}

func TestResetClearsFillTimeAndStopped(t *testing.T) {
	b := New(8)
	b.Send(context.Background(), []byte{1, 2, 3})
	b.SetTime(12.5)
	b.Stop()

	b.Reset()

	if b.Fill() != 0 || b.Free() != 8 || b.Time() != 0 {
		t.Fatalf("after reset: fill=%d free=%d time=%v", b.Fill(), b.Free(), b.Time())
	}

	n, err := b.Send(context.Background(), []byte{1})
	if err != nil || n != 1 {
		t.Fatalf("send after reset = %d, %v", n, err)
	}
	if b.Fill() != 1 {
		t.Fatalf("fill after reset send = %d, want 1", b.Fill())
	}
}

func TestSendBlocksUntilSpaceFreed(t *testing.T) {
	b := New(4)
	b.Send(context.Background(), []byte{1, 2, 3, 4})

	done := make(chan struct{})
	go func() {
		b.Send(context.Background(), []byte{5, 6})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Send returned before space was freed")
	case <-time.After(20 * time.Millisecond):
	}

	buf := make([]byte, 2)
	b.Read(buf)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send did not unblock after Read freed space")
	}
}

func TestWaitDrainedUnblocksOnStop(t *testing.T) {
	b := New(4)
	b.Send(context.Background(), []byte{1, 2, 3, 4})

	done := make(chan struct{})
	go func() {
		b.WaitDrained()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitDrained returned before buffer drained or stopped")
	case <-time.After(20 * time.Millisecond):
	}

	b.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitDrained did not unblock after Stop")
	}
}
