package player

import (
	"context"
	"sync"
	"time"
)

// requestKind identifies the pending control request in a Session's
// single coalescing slot (§3 PlayerRequest).
type requestKind int

const (
	reqNone requestKind = iota
	reqSeek
	reqStop
	// reqPause and reqUnpause exist for PlayerRequest's full variant but
	// are never placed in the slot: Session.Pause/Unpause act directly
	// on the output device instead, since the decode loop has nothing
	// to do while paused.
	reqPause
	reqUnpause
)

// pollInterval bounds how long the decode loop can go without
// re-checking output buffer state while idle in wait: signal delivery is
// best-effort (a signal fired between a caller's state check and the
// call to wait can be missed), so a bounded poll makes that harmless
// instead of a lost wakeup.
const pollInterval = 20 * time.Millisecond

// request is the coalescing command slot the decode loop consults each
// iteration. Setting any request overwrites whatever was pending before
// it: this is a slot, not a queue. signal is closed and replaced on every
// change so a waiter can select on it.
type request struct {
	mu     sync.Mutex
	kind   requestKind
	target float64
	signal chan struct{}
}

func newRequest() *request {
	return &request{signal: make(chan struct{})}
}

func (r *request) set(kind requestKind, target float64) {
	r.mu.Lock()
	r.kind = kind
	r.target = target
	close(r.signal)
	r.signal = make(chan struct{})
	r.mu.Unlock()
}

// get returns the current request without clearing it.
func (r *request) get() (requestKind, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kind, r.target
}

// clearIf clears the slot back to reqNone, but only if it still holds
// kind (a newer request may have overwritten it since the caller last
// observed it).
func (r *request) clearIf(kind requestKind) {
	r.mu.Lock()
	if r.kind == kind {
		r.kind = reqNone
	}
	r.mu.Unlock()
}

// wait blocks until a request is set, some other event calls signalAll
// (e.g. the output buffer freed space), or pollInterval elapses,
// whichever comes first. It does not report which of these woke it; the
// decode loop re-derives what to do from current state either way.
func (r *request) wait(ctx context.Context) {
	r.mu.Lock()
	ch := r.signal
	r.mu.Unlock()

	select {
	case <-ch:
	case <-time.After(pollInterval):
	case <-ctx.Done():
	}
}

// signalAll wakes any goroutine blocked in wait without changing the
// slot's contents, used when an external event (buffer drained, space
// freed) makes the decode loop's condition worth re-checking sooner than
// the next poll.
func (r *request) signalAll() {
	r.mu.Lock()
	close(r.signal)
	r.signal = make(chan struct{})
	r.mu.Unlock()
}
