// Package outputdevice is the thin sink the output buffer's consumer
// drains PCM into. Device is backed by
// github.com/rillplay/engine/pkg/audio/portaudio in production; tests use
// a no-op or recording implementation.
//
// Pause/unpause cooperation for un-pausable streams (internet radio) is
// out of this engine's scope: a caller that needs to "pause" such a
// stream should Close and later reopen the device instead.
package outputdevice

import (
	"time"

	"github.com/rillplay/engine/pkg/audio/portaudio"
	"github.com/rillplay/engine/pkg/audio/soundparams"
)

// Device is the output sink the player's output buffer consumer drains
// PCM into.
type Device interface {
	// WriteBytes writes interleaved little-endian PCM and returns the
	// number of bytes written.
	WriteBytes(buf []byte) (int, error)
	Params() soundparams.Params
	Close() error
}

// bufferDuration sizes the PortAudio device's internal write chunk.
const bufferDuration = 20 * time.Millisecond

// portaudioDevice adapts *portaudio.OutputStream to Device.
type portaudioDevice struct {
	*portaudio.OutputStream
}

// Open opens the default output device at the given PCM layout.
func Open(params soundparams.Params) (Device, error) {
	s, err := portaudio.NewOutputStream(params, bufferDuration)
	if err != nil {
		return nil, err
	}
	return &portaudioDevice{OutputStream: s}, nil
}
