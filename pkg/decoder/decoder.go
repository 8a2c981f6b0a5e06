// Package decoder defines the capability surface each codec backend
// implements (§4.A of the playback engine design) and the registry that
// dispatches a file or stream to the right plugin (§4.B).
//
// A C vtable with optional function pointers becomes, in Go, a small
// required interface plus a set of optional capability interfaces that a
// plugin implements only if it supports that feature — callers probe for
// them with a type assertion instead of checking a function pointer for
// nil.
package decoder

import (
	"io"

	"github.com/rillplay/engine/pkg/audio/soundparams"
)

// Stream is the minimal I/O surface a plugin needs from the player's
// input source to open a network or otherwise non-seekable source. It is
// satisfied by iostream.Stream; decoder does not import iostream to
// avoid a cycle (the player wires the two together).
type Stream interface {
	io.Reader
	Peek(max int) ([]byte, error)
	MIMEType() string
}

// Plugin is the capability surface every codec backend publishes. Init,
// Destroy, Open, OpenStream, Seek, Duration and bitrate reporting are all
// optional in the source design; here they are reflected as separate
// capability interfaces (Initializer, Destroyer, FileOpener, StreamOpener,
// Seeker, DurationReporter, BitrateReporter, AvgBitrateReporter) that a
// Plugin or Instance implements only when it supports the feature.
type Plugin interface {
	// Name is the plugin's compile-time registration name, e.g. "mp3".
	Name() string

	// OurFormatExt reports whether this plugin handles files with the
	// given filename extension (no leading dot, compared
	// case-insensitively by the caller).
	OurFormatExt(ext string) bool

	// OurFormatMIME reports whether this plugin handles the given
	// normalized "type/subtype" MIME string.
	OurFormatMIME(mime string) bool

	// CanDecode inspects a content sniff (at least 512 bytes, or
	// whatever was available) and reports whether this plugin believes
	// it can decode the stream. Used only by content-based dispatch.
	CanDecode(peek []byte) bool
}

// Initializer is implemented by plugins with one-time, process-wide setup
// performed exactly once at registry startup.
type Initializer interface {
	Init() error
}

// Destroyer is implemented by plugins with process-wide teardown.
type Destroyer interface {
	Destroy() error
}

// FileOpener is implemented by plugins that can open a local path
// directly.
type FileOpener interface {
	Open(path string) (Instance, error)
}

// StreamOpener is implemented by plugins that can decode from an opaque
// I/O stream (used for URLs and content-sniffed sources).
type StreamOpener interface {
	OpenStream(s Stream) (Instance, error)
}

// Instance is a single open decode session produced by Open or
// OpenStream. close must be callable even after a failed open (§4.A).
type Instance interface {
	// Error returns the instance's current error state. It is
	// idempotent and clears nothing; callers call it after Open or
	// OpenStream to observe initialization failure, and after Decode to
	// observe a stream/fatal error.
	Error() soundparams.DecoderError

	// Decode writes up to len(dst) bytes of PCM into dst and reports the
	// Params of the audio it just produced. A return of (0, _, nil)
	// means clean EOF. Emitted Params may differ between calls; the
	// player is responsible for reacting to a change.
	Decode(dst []byte) (n int, params soundparams.Params, err error)

	// Close releases the instance. Safe to call once; plugins should
	// make repeated calls a no-op.
	Close() error
}

// Seeker is implemented by instances that support seeking.
type Seeker interface {
	// Seek requests the decoder resume at t seconds from the start. It
	// returns the effective seek time, or ok=false on failure (the
	// source design's "-1" sentinel).
	Seek(t float64) (effective float64, ok bool)
}

// DurationReporter is implemented by instances that know the track's
// total duration up front (most local file formats; rarely true of
// streams).
type DurationReporter interface {
	Duration() (seconds float64, ok bool)
}

// BitrateReporter is implemented by instances that can report the
// bitrate of the most recently decoded data.
type BitrateReporter interface {
	Bitrate() (kbps int, ok bool)
}

// AvgBitrateReporter is implemented by instances that track a running
// average bitrate over the whole decode, distinct from the
// instantaneous BitrateReporter value.
type AvgBitrateReporter interface {
	AvgBitrate() (kbps int, ok bool)
}
