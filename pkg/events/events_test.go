package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestChanSinkDeliversEvents(t *testing.T) {
	s := NewChanSink(4)
	e := Event{ID: uuid.New(), Kind: AudioStart, At: time.Now()}
	s.Emit(e)

	got := <-s.Events()
	if got.ID != e.ID || got.Kind != AudioStart {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestChanSinkDropsWhenFull(t *testing.T) {
	s := NewChanSink(1)
	s.Emit(Event{Kind: AudioStart})
	s.Emit(Event{Kind: AudioStop}) // dropped, channel full

	got := <-s.Events()
	if got.Kind != AudioStart {
		t.Errorf("got %v, want AudioStart", got.Kind)
	}
	select {
	case extra := <-s.Events():
		t.Errorf("unexpected extra event %v", extra.Kind)
	default:
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	e := Event{ID: uuid.New(), Kind: BitrateChanged, Bitrate: 192, Path: "track.mp3"}

	data, err := Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != e.Kind || got.Bitrate != e.Bitrate || got.Path != e.Path {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestKindString(t *testing.T) {
	if AudioFail.String() != "audio_fail" {
		t.Errorf("String() = %q", AudioFail.String())
	}
}
