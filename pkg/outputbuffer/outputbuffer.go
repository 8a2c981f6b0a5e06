// Package outputbuffer implements the bounded PCM ring between the
// decode loop and the output device (§4.E of the specification): a
// fixed-capacity byte ring guarded by a sync.Cond, the same blocking
// producer/consumer idiom as a generic block buffer, specialized for
// what a player needs from Stop (silently drop further writes, report
// free == capacity, remain reusable after Reset) rather than returning
// io.EOF/io.ErrClosedPipe from in-flight operations.
package outputbuffer

import (
	"context"
	"sync"
)

// Buffer is the bounded PCM byte ring the decode loop writes into and the
// output device consumer drains.
type Buffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf        []byte
	head, tail int64 // tail-head is always in [0, len(buf)]

	stopped bool
	time    float64 // seconds at the oldest byte still unplayed
	freeCB  func()
}

// New returns a Buffer with the given byte capacity.
func New(capacity int) *Buffer {
	b := &Buffer{buf: make([]byte, capacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// SetFreeCallback installs the callback invoked every time a Read frees
// up space in the buffer. It is called with the lock released, from
// whichever goroutine called Read, so it must not block or call back
// into the buffer's own methods reentrantly in a way that deadlocks
// (SetTime and Fill/Free are safe to call from within it).
func (b *Buffer) SetFreeCallback(cb func()) {
	b.mu.Lock()
	b.freeCB = cb
	b.mu.Unlock()
}

// Fill returns the number of unplayed bytes currently buffered.
func (b *Buffer) Fill() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.tail - b.head)
}

// Free returns the number of bytes of spare capacity. A stopped buffer
// always reports free == capacity.
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freeLocked()
}

func (b *Buffer) freeLocked() int {
	if b.stopped {
		return len(b.buf)
	}
	return len(b.buf) - int(b.tail-b.head)
}

// Time returns the playback time cursor: the position, in seconds,
// corresponding to the oldest byte still unplayed. This is what the UI
// should show, not the decoder's position, because the decoder may be
// seconds ahead of what's audible.
func (b *Buffer) Time() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.time
}

// SetTime sets the playback time cursor, used after a seek to anchor the
// displayed position to the new target before any PCM at that position
// has actually played.
func (b *Buffer) SetTime(t float64) {
	b.mu.Lock()
	b.time = t
	b.mu.Unlock()
}

// AdvanceTime advances the time cursor by d seconds of audio that has
// just been consumed by the output device.
func (b *Buffer) AdvanceTime(d float64) {
	b.mu.Lock()
	b.time += d
	b.mu.Unlock()
}

// Send writes p into the buffer, blocking until enough space is free or
// the buffer is stopped or ctx is done. Once stopped it drops all writes
// silently and returns len(p), nil immediately, matching the reference
// out_buf_send's behavior of treating a stopped buffer as a no-op sink
// rather than an error.
func (b *Buffer) Send(ctx context.Context, p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wn := 0
	bufsz := int64(len(b.buf))
	for len(p) > 0 {
		if b.stopped {
			return wn + len(p), nil
		}

		for b.tail-b.head == bufsz && !b.stopped {
			if ctx != nil {
				if err := b.waitOrCtx(ctx); err != nil {
					return wn, err
				}
			} else {
				b.cond.Wait()
			}
		}
		if b.stopped {
			return wn + len(p), nil
		}

		avail := int(bufsz - (b.tail - b.head))
		tail := int(b.tail % bufsz)

		var n int
		if tail+avail <= len(b.buf) {
			n = copy(b.buf[tail:tail+avail], p)
		} else {
			n = copy(b.buf[tail:], p)
			n += copy(b.buf[:avail-n], p[n:])
		}

		b.tail += int64(n)
		b.cond.Broadcast()
		p = p[n:]
		wn += n
	}
	return wn, nil
}

// waitOrCtx waits on the condition variable but wakes early if ctx is
// canceled, by spawning a one-shot watcher that broadcasts on
// cancellation. Cheap because Send/Read hold the lock for short windows.
func (b *Buffer) waitOrCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.cond.Broadcast()
			b.mu.Unlock()
		case <-done:
		}
	}()
	b.cond.Wait()
	close(done)
	return ctx.Err()
}

// Read implements the output device consumer's drain side: it copies up
// to len(p) unplayed bytes into p, blocking until some are available or
// the buffer is stopped (in which case it returns 0, nil — there is
// nothing to play and nothing ever will be until Reset). It invokes the
// free callback, if any, after advancing the read cursor.
func (b *Buffer) Read(p []byte) (int, error) {
	b.mu.Lock()

	for b.head == b.tail && !b.stopped {
		b.cond.Wait()
	}
	if b.stopped {
		b.mu.Unlock()
		return 0, nil
	}

	avail := int(b.tail - b.head)
	head := int(b.head % int64(len(b.buf)))

	var n int
	if head+avail <= len(b.buf) {
		n = copy(p, b.buf[head:head+avail])
	} else {
		n = copy(p, b.buf[head:])
		n += copy(p[n:], b.buf[:avail-n])
	}

	b.head += int64(n)
	cb := b.freeCB
	b.cond.Signal()
	b.mu.Unlock()

	if cb != nil {
		cb()
	}
	return n, nil
}

// Stop marks the buffer stopped: further Sends are silently dropped,
// Free reports the full capacity, and any blocked Send or Read wakes
// immediately. Idempotent.
func (b *Buffer) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Reset clears the buffer: fill and time go to zero and the stopped flag
// is cleared, making the buffer usable again.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.head = 0
	b.tail = 0
	b.time = 0
	b.stopped = false
	b.mu.Unlock()
}

// WaitDrained blocks until the buffer's fill reaches zero or it is
// stopped.
func (b *Buffer) WaitDrained() {
	b.mu.Lock()
	for b.head != b.tail && !b.stopped {
		b.cond.Wait()
	}
	b.mu.Unlock()
}
