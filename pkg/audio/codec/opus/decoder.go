// Package opus decodes Opus audio frames via github.com/thesyncim/gopus,
// a pure Go Opus codec. It's a thin adapter over gopus's single-stream
// Decoder: this engine only ever opens one elementary Opus stream per
// Ogg/Opus file (no multistream surround), so the richer
// github.com/thesyncim/gopus/multistream API isn't needed here.
package opus

import (
	"fmt"

	"github.com/thesyncim/gopus"
)

// maxFrameSamples is the largest possible Opus frame: 120ms at 48kHz,
// the only rate Opus ever decodes to regardless of the original stream's
// sample rate.
const maxFrameSamples = 5760

// Frame is one raw Opus-encoded packet, as extracted from an Ogg page by
// github.com/rillplay/engine/pkg/audio/codec/ogg.
type Frame []byte

// Decoder decodes successive Opus frames from one logical stream to
// interleaved little-endian S16 PCM at 48kHz.
type Decoder struct {
	dec *gopus.Decoder
}

// NewDecoder returns a Decoder for a stream with the given output sample
// rate (always 48000 for this engine) and channel count, read from the
// stream's OpusHead packet.
func NewDecoder(sampleRate, channels int) (*Decoder, error) {
	dec, err := gopus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opus: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// Decode decodes one Opus frame to interleaved little-endian S16 PCM.
func (d *Decoder) Decode(frame Frame) ([]byte, error) {
	samples, err := d.dec.Decode(frame, maxFrameSamples)
	if err != nil {
		return nil, fmt.Errorf("opus: %w", err)
	}
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out, nil
}

// Close releases decoder resources.
func (d *Decoder) Close() error { return nil }
