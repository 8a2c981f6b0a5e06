// Package oggopus registers an Ogg/Opus decoder.Plugin backed by
// github.com/rillplay/engine/pkg/audio/codec/ogg's pure-Go container
// demuxer and github.com/rillplay/engine/pkg/audio/codec/opus's
// github.com/thesyncim/gopus-backed decoder.
//
// This plugin needs the channel count carried in the stream's OpusHead
// packet before it can construct an opus.Decoder, so it drives the
// lower-level ogg.NewDecoder/StreamState page/packet loop directly
// rather than a higher-level "give me PCM" helper.
package oggopus

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/rillplay/engine/pkg/audio/codec/ogg"
	"github.com/rillplay/engine/pkg/audio/codec/opus"
	"github.com/rillplay/engine/pkg/audio/soundparams"
	"github.com/rillplay/engine/pkg/decoder"
)

// opusSampleRate is the rate the Opus decoder is always opened at,
// regardless of the stream's original sample rate advertised in OpusHead.
const opusSampleRate = 48000

// Plugin is the Ogg/Opus decoder.Plugin.
type Plugin struct{}

// New returns the Ogg/Opus plugin.
func New() *Plugin { return &Plugin{} }

func (Plugin) Name() string { return "oggopus" }

func (Plugin) OurFormatExt(ext string) bool {
	switch strings.ToLower(ext) {
	case "ogg", "oga", "opus":
		return true
	default:
		return false
	}
}

func (Plugin) OurFormatMIME(mime string) bool {
	switch strings.ToLower(mime) {
	case "audio/ogg", "application/ogg", "audio/opus":
		return true
	default:
		return false
	}
}

func (Plugin) CanDecode(peek []byte) bool {
	return bytes.HasPrefix(peek, []byte("OggS"))
}

func (p Plugin) Open(path string) (decoder.Instance, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return &instance{oggDec: mustNewOggDecoder(f), closer: f}, nil
}

func (p Plugin) OpenStream(s decoder.Stream) (decoder.Instance, error) {
	return &instance{oggDec: mustNewOggDecoder(s)}, nil
}

func mustNewOggDecoder(r io.Reader) *ogg.Decoder {
	d, err := ogg.NewDecoder(r)
	if err != nil {
		return nil
	}
	return d
}

type instance struct {
	oggDec  *ogg.Decoder
	closer  io.Closer
	streams map[int32]*ogg.StreamState
	serial  int32
	hasOpus bool

	opusDec  *opus.Decoder
	channels int

	pending []byte // undelivered PCM from the last decoded Opus packet
	eof     bool
	err     soundparams.DecoderError
}

func (i *instance) Error() soundparams.DecoderError { return i.err }

func (i *instance) params() soundparams.Params {
	return soundparams.Params{Encoding: soundparams.S16LE, SampleRate: opusSampleRate, Channels: i.channels}
}

func (i *instance) Decode(dst []byte) (int, soundparams.Params, error) {
	if i.oggDec == nil {
		i.err = soundparams.FatalError("oggopus: failed to open ogg stream")
		return 0, i.params(), nil
	}

	n := 0
	for n < len(dst) {
		if len(i.pending) > 0 {
			c := copy(dst[n:], i.pending)
			n += c
			i.pending = i.pending[c:]
			continue
		}
		if i.eof {
			break
		}
		if !i.decodeNextPacket() {
			break
		}
	}
	return n, i.params(), nil
}

// decodeNextPacket advances the ogg/opus pipeline until it has produced
// PCM into i.pending, hit EOF, or hit an error. Returns false on EOF or
// error (both recorded on the instance).
func (i *instance) decodeNextPacket() bool {
	if i.streams == nil {
		i.streams = make(map[int32]*ogg.StreamState)
	}

	for {
		page, err := i.oggDec.ReadPage()
		if err != nil {
			if err == io.EOF {
				i.eof = true
			} else {
				i.err = soundparams.FatalError("oggopus: %v", err)
			}
			return false
		}

		serial := page.SerialNo()
		if page.IsBOS() {
			ss, err := ogg.NewStreamState(serial)
			if err != nil {
				i.err = soundparams.StreamError("oggopus: %v", err)
				continue
			}
			i.streams[serial] = ss
		}

		ss := i.streams[serial]
		if ss == nil {
			continue
		}
		if err := ss.PageIn(page); err != nil {
			i.err = soundparams.StreamError("oggopus: %v", err)
			continue
		}

		var packet ogg.Packet
		for {
			err := ss.PacketOut(&packet)
			if errors.Is(err, ogg.ErrNoPacket) {
				break
			}
			if errors.Is(err, ogg.ErrHole) {
				continue
			}
			if err != nil {
				i.err = soundparams.StreamError("oggopus: %v", err)
				break
			}

			data := packet.Data()
			if channels, ok := parseOpusHead(data); ok {
				i.channels = channels
				dec, derr := opus.NewDecoder(opusSampleRate, channels)
				if derr != nil {
					i.err = soundparams.FatalError("oggopus: %v", derr)
					return false
				}
				i.opusDec = dec
				i.hasOpus = true
				continue
			}
			if isOpusTags(data) || len(data) == 0 {
				continue
			}
			if !i.hasOpus {
				// Audio packet arrived before a recognized header; skip it
				// rather than feeding garbage to a not-yet-created decoder.
				continue
			}

			pcm, derr := i.opusDec.Decode(opus.Frame(data))
			if derr != nil {
				i.err = soundparams.StreamError("oggopus: %v", derr)
				continue
			}
			i.pending = pcm
			return true
		}
	}
}

func isOpusTags(data []byte) bool {
	return bytes.HasPrefix(data, []byte("OpusTags"))
}

// parseOpusHead extracts the channel count from an OpusHead packet.
// Layout: "OpusHead"(8) version(1) channels(1) preskip(2) origRate(4) gain(2) mapping(1).
func parseOpusHead(data []byte) (channels int, ok bool) {
	if len(data) < 19 || !bytes.HasPrefix(data, []byte("OpusHead")) {
		return 0, false
	}
	return int(data[9]), true
}

func (i *instance) Close() error {
	for _, ss := range i.streams {
		ss.Clear()
	}
	if i.oggDec != nil {
		i.oggDec.Close()
	}
	if i.opusDec != nil {
		i.opusDec.Close()
	}
	if i.closer != nil {
		return i.closer.Close()
	}
	return nil
}

var (
	_ decoder.Plugin       = Plugin{}
	_ decoder.FileOpener   = Plugin{}
	_ decoder.StreamOpener = Plugin{}
	_ decoder.Instance     = (*instance)(nil)
)
