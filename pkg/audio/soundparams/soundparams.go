// Package soundparams defines the immutable description of a PCM stream's
// wire shape — sample encoding, rate and channel count — along with the
// small set of audio data chunks built on top of it.
//
// A decoder plugin reports Params on every Decode call; the player compares
// successive reports to detect a mid-stream format change (§4.G of the
// playback engine design).
package soundparams

import (
	"fmt"
	"io"
	"time"
)

// Encoding identifies a PCM sample encoding with a known, fixed
// bytes-per-sample width.
type Encoding int

const (
	// S16LE is signed 16-bit little-endian PCM, the encoding produced by
	// essentially every consumer codec decoder (MP3, Opus, FLAC, WAV/PCM).
	S16LE Encoding = iota
	// S8 is signed 8-bit PCM.
	S8
	// U8 is unsigned 8-bit PCM.
	U8
	// Float32LE is 32-bit IEEE-754 float PCM, little-endian.
	Float32LE
)

// BytesPerSample returns the width, in bytes, of a single sample in this
// encoding.
func (e Encoding) BytesPerSample() int {
	switch e {
	case S16LE:
		return 2
	case S8, U8:
		return 1
	case Float32LE:
		return 4
	}
	panic(fmt.Sprintf("soundparams: invalid encoding %d", int(e)))
}

// String returns a human-readable name for the encoding.
func (e Encoding) String() string {
	switch e {
	case S16LE:
		return "s16le"
	case S8:
		return "s8"
	case U8:
		return "u8"
	case Float32LE:
		return "float32le"
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

// Params is the immutable triple (encoding, sample rate, channels) that
// describes a PCM stream. Two Params are equal iff all three fields match;
// the player reopens the output device whenever the active decoder's
// reported Params change (§4.G).
type Params struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
}

// Equal reports whether p and o describe the same PCM layout.
func (p Params) Equal(o Params) bool {
	return p.Encoding == o.Encoding && p.SampleRate == o.SampleRate && p.Channels == o.Channels
}

// BytesPerFrame returns the number of bytes occupied by one sample across
// all channels (one "frame" of interleaved PCM).
func (p Params) BytesPerFrame() int {
	return p.Encoding.BytesPerSample() * p.Channels
}

// BytesRate returns the number of PCM bytes produced per second of audio.
func (p Params) BytesRate() int {
	return p.BytesPerFrame() * p.SampleRate
}

// Duration returns the playback duration of the given number of PCM bytes.
func (p Params) Duration(bytes int64) time.Duration {
	bpf := p.BytesPerFrame()
	if bpf == 0 || p.SampleRate == 0 {
		return 0
	}
	frames := bytes / int64(bpf)
	return time.Duration(frames) * time.Second / time.Duration(p.SampleRate)
}

// BytesInDuration returns the number of PCM bytes spanning duration d,
// rounded down to a whole frame.
func (p Params) BytesInDuration(d time.Duration) int64 {
	frames := int64(time.Duration(p.SampleRate) * d / time.Second)
	return frames * int64(p.BytesPerFrame())
}

// String renders Params the way the player's logs and events describe a
// stream's format, e.g. "s16le; rate=44100; channels=2".
func (p Params) String() string {
	return fmt.Sprintf("%s; rate=%d; channels=%d", p.Encoding, p.SampleRate, p.Channels)
}

// Chunk is a self-describing span of PCM audio data.
type Chunk interface {
	Len() int64
	Params() Params
	WriteTo(w io.Writer) (int64, error)
}

// DataChunk is a Chunk backed by an in-memory PCM buffer.
type DataChunk struct {
	Data   []byte
	params Params
}

// NewDataChunk wraps data as a Chunk carrying the given Params.
func NewDataChunk(data []byte, params Params) *DataChunk {
	return &DataChunk{Data: data, params: params}
}

// Len returns the length of the audio data in bytes.
func (c *DataChunk) Len() int64 { return int64(len(c.Data)) }

// Params returns the PCM layout of this chunk.
func (c *DataChunk) Params() Params { return c.params }

// WriteTo writes the audio data to the writer.
func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}

var emptyBytes [32000]byte

// SilenceChunk is a Chunk of silence of a given duration, used by the
// output device to fill gaps without allocating large zero buffers.
type SilenceChunk struct {
	params Params
	len    int64
}

// NewSilenceChunk returns a silence chunk spanning duration d in params.
func NewSilenceChunk(params Params, d time.Duration) *SilenceChunk {
	return &SilenceChunk{params: params, len: params.BytesInDuration(d)}
}

// Len returns the length of the silence in bytes.
func (c *SilenceChunk) Len() int64 { return c.len }

// Params returns the PCM layout of this chunk.
func (c *SilenceChunk) Params() Params { return c.params }

// WriteTo writes silence (zero bytes) to the writer.
func (c *SilenceChunk) WriteTo(w io.Writer) (int64, error) {
	remaining := c.len
	var written int64
	for remaining > 0 {
		n := int64(len(emptyBytes))
		if remaining < n {
			n = remaining
		}
		wn, err := w.Write(emptyBytes[:n])
		written += int64(wn)
		remaining -= int64(wn)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Severity classifies a DecoderError (§3).
type Severity int

const (
	// Ok means no error occurred.
	Ok Severity = iota
	// Stream is a recoverable error; the decoder must not abort the track.
	Stream
	// Fatal terminates the decoder.
	Fatal
)

// String renders the severity for log messages.
func (s Severity) String() string {
	switch s {
	case Ok:
		return "ok"
	case Stream:
		return "stream"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// DecoderError carries a decoder's error state. The zero value is Ok with
// an empty message, matching §3's "uninitialized error is Ok with empty
// message" invariant.
type DecoderError struct {
	Severity Severity
	Message  string
}

// Error implements the error interface. Ok errors render as an empty
// string so that callers can format DecoderError directly without special
// casing the no-error case.
func (e DecoderError) Error() string {
	if e.Severity == Ok {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Severity, e.Message)
}

// IsOk reports whether e carries no error.
func (e DecoderError) IsOk() bool { return e.Severity == Ok }

// IsFatal reports whether e should terminate the decoder.
func (e DecoderError) IsFatal() bool { return e.Severity == Fatal }

// StreamError constructs a recoverable DecoderError.
func StreamError(format string, args ...any) DecoderError {
	return DecoderError{Severity: Stream, Message: fmt.Sprintf(format, args...)}
}

// FatalError constructs a terminal DecoderError.
func FatalError(format string, args ...any) DecoderError {
	return DecoderError{Severity: Fatal, Message: fmt.Sprintf(format, args...)}
}
