// Package events defines the playback-state events the player emits
// without interpreting (§4.H): start/stop/fail, metadata changes, and
// playlist time updates, consumed by the UI or protocol layer.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the type of a playback Event.
type Kind int

const (
	AudioStart Kind = iota
	AudioStop
	AudioFail
	StateChanged
	CTimeChanged
	BitrateChanged
	ChannelsChanged
	RateChanged
	AvgBitrateChanged
	PlaylistTimeUpdated
)

// String renders the kind the way it would appear in a log line or on
// the wire, matching the reference implementation's EV_* names.
func (k Kind) String() string {
	switch k {
	case AudioStart:
		return "audio_start"
	case AudioStop:
		return "audio_stop"
	case AudioFail:
		return "audio_fail"
	case StateChanged:
		return "state_changed"
	case CTimeChanged:
		return "ctime_changed"
	case BitrateChanged:
		return "bitrate_changed"
	case ChannelsChanged:
		return "channels_changed"
	case RateChanged:
		return "rate_changed"
	case AvgBitrateChanged:
		return "avg_bitrate_changed"
	case PlaylistTimeUpdated:
		return "playlist_time_updated"
	default:
		return "unknown"
	}
}

// Event is a single playback-state notification. Only the fields
// relevant to Kind are populated; the rest are zero values.
type Event struct {
	ID       uuid.UUID
	Kind     Kind
	At       time.Time
	Path     string  // AudioFail, PlaylistTimeUpdated
	Seconds  float64 // CTimeChanged, PlaylistTimeUpdated
	Bitrate  int     // BitrateChanged, AvgBitrateChanged
	Channels int     // ChannelsChanged
	Rate     int     // RateChanged
	State    string  // StateChanged
}

// Sink receives playback events. Delivery is fire-and-forget: a Sink
// must not block the caller, so a slow consumer decouples via its own
// queue (e.g. ChanSink).
type Sink interface {
	Emit(Event)
}

// ChanSink is a Sink backed by a buffered channel, used by tests and the
// CLI harness so a slow consumer can't stall the player.
type ChanSink struct {
	ch chan Event
}

// NewChanSink returns a ChanSink with the given channel capacity.
func NewChanSink(capacity int) *ChanSink {
	return &ChanSink{ch: make(chan Event, capacity)}
}

// Emit sends e on the channel. If the channel is full, the event is
// dropped rather than blocking the caller.
func (s *ChanSink) Emit(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

// Events returns the channel events are delivered on.
func (s *ChanSink) Events() <-chan Event {
	return s.ch
}

// NopSink discards every event. Useful as a default when no caller has
// subscribed.
type NopSink struct{}

func (NopSink) Emit(Event) {}
