package player

import "github.com/rillplay/engine/pkg/precache"

// PCMBufSize is the decode-burst unit shared with the precache engine.
const PCMBufSize = precache.PCMBufSize

// PrebufferThreshold is the output-buffer fill level below which a
// streaming source requests another prebuffer chunk mid-track.
const PrebufferThreshold = PCMBufSize / 2

// Config holds the playback-affecting settings a Session needs at
// construction time, normally loaded from internal/config.
type Config struct {
	// PrebufferingKiB is how much of a network stream to buffer before
	// starting playback. Zero means use PrebufferThreshold.
	PrebufferingKiB int
	// AutoNext enables arming the precache for the next playlist entry
	// once the current track reaches EOF.
	AutoNext bool
}

func (c Config) prebufferBytes() int {
	if c.PrebufferingKiB <= 0 {
		return PrebufferThreshold
	}
	return c.PrebufferingKiB * 1024
}
