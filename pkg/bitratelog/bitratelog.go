// Package bitratelog tracks an ordered time→bitrate history so the UI can
// show the bitrate of what's currently audible, not what the decoder has
// already produced: the output buffer may hold many seconds of
// already-decoded audio, so decode-time and listen-time diverge.
package bitratelog

import "sync"

// Entry is one point where the bitrate changed.
type Entry struct {
	Time    float64 // seconds
	Bitrate int     // kbps
}

// Log is an append-only, front-trimmed sequence of Entry values, strictly
// increasing in Time. It is safe for concurrent use; the producer calls
// Add while a separate reader calls Get.
type Log struct {
	mu   sync.Mutex
	head []Entry // ring-free: just the remaining suffix of the appended log
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Add appends (t, kbps) to the log. It is a no-op unless both the bitrate
// differs from the tail's AND t strictly exceeds the tail's time. This is
// the literal behavior of the reference implementation's
// bitrate_list_add, preserved rather than refined (see the design notes
// in the top-level specification): refining to "bitrate differs and time
// >= tail's time" would change what a listener sees at a timestamp shared
// by two decode calls, and nothing in this engine depends on sub-second
// resolution.
func (l *Log) Add(t float64, kbps int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.head) == 0 {
		l.head = append(l.head, Entry{Time: t, Bitrate: kbps})
		return
	}

	tail := l.head[len(l.head)-1]
	if tail.Bitrate != kbps && t > tail.Time {
		l.head = append(l.head, Entry{Time: t, Bitrate: kbps})
	}
}

// Get returns the bitrate in effect at time t: the bitrate of the latest
// entry with Time <= t. Entries whose successor's time is <= t are
// discarded (they can never be queried again, since playback time only
// advances). ok is false if the log is empty.
func (l *Log) Get(t float64) (kbps int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for len(l.head) > 1 && l.head[1].Time <= t {
		l.head = l.head[1:]
	}

	if len(l.head) == 0 {
		return 0, false
	}
	return l.head[0].Bitrate, true
}

// Empty discards all entries.
func (l *Log) Empty() {
	l.mu.Lock()
	l.head = nil
	l.mu.Unlock()
}

// Take removes and returns every entry currently in the log, leaving it
// empty. Together with Restore it moves one log's contents into another
// without splicing raw nodes (§9 of the specification).
func (l *Log) Take() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.head
	l.head = nil
	return entries
}

// Restore replaces the log's contents with entries, taking ownership of
// the slice. Used together with Take to move one log's bitrate history
// into another.
func (l *Log) Restore(entries []Entry) {
	l.mu.Lock()
	l.head = entries
	l.mu.Unlock()
}
