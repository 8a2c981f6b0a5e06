package commands

import (
	"testing"
	"time"
)

type fakeController struct {
	stopped    bool
	paused     bool
	seekDeltas []float64
}

func (f *fakeController) Stop()              { f.stopped = true }
func (f *fakeController) Pause()             { f.paused = true }
func (f *fakeController) Unpause()           { f.paused = false }
func (f *fakeController) Seek(delta float64) { f.seekDeltas = append(f.seekDeltas, delta) }

func TestReadControlKeysDispatchesCommands(t *testing.T) {
	f := &fakeController{}
	done := make(chan struct{})

	lines := make(chan string)
	go dispatchControlLines(f, lines, done)

	lines <- "p"
	lines <- ">"
	lines <- "<"
	lines <- "u"
	close(lines)

	select {
	case <-done:
		t.Fatal("done was closed when input ended without a quit command, want it closed only on quit")
	case <-time.After(20 * time.Millisecond):
	}

	if f.paused {
		t.Errorf("expected final state unpaused (unpause was sent last)")
	}
	if len(f.seekDeltas) != 2 || f.seekDeltas[0] != 10 || f.seekDeltas[1] != -10 {
		t.Errorf("seekDeltas = %v, want [10 -10]", f.seekDeltas)
	}
}

func TestReadControlKeysStopOnQuit(t *testing.T) {
	f := &fakeController{}
	done := make(chan struct{})

	lines := make(chan string)
	go dispatchControlLines(f, lines, done)

	lines <- "q"

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected dispatch loop to signal done after quit")
	}
	if !f.stopped {
		t.Errorf("expected Stop to be called on quit")
	}
}
