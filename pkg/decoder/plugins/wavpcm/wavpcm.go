// Package wavpcm registers a pure-Go RIFF/WAVE decoder.Plugin. It needs
// no codec library, since a WAVE file's PCM payload is already in the
// target wire format and only needs its "fmt " chunk parsed.
package wavpcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rillplay/engine/pkg/audio/soundparams"
	"github.com/rillplay/engine/pkg/decoder"
)

// Plugin is the RIFF/WAVE decoder.Plugin. Raw PCM without a RIFF header
// is not accepted.
type Plugin struct{}

// New returns the wavpcm plugin.
func New() *Plugin { return &Plugin{} }

func (Plugin) Name() string { return "wavpcm" }

func (Plugin) OurFormatExt(ext string) bool {
	return strings.EqualFold(ext, "wav") || strings.EqualFold(ext, "wave")
}

func (Plugin) OurFormatMIME(mime string) bool {
	switch strings.ToLower(mime) {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return true
	default:
		return false
	}
}

func (Plugin) CanDecode(peek []byte) bool {
	return len(peek) >= 12 && bytes.HasPrefix(peek, []byte("RIFF")) && bytes.Equal(peek[8:12], []byte("WAVE"))
}

func (p Plugin) Open(path string) (decoder.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	inst, err := newInstance(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return inst, nil
}

func (p Plugin) OpenStream(s decoder.Stream) (decoder.Instance, error) {
	return newInstance(s, nil)
}

type instance struct {
	r         io.Reader
	closer    io.Closer
	params    soundparams.Params
	remaining int64 // bytes left in the data chunk, or -1 if unknown
	err       soundparams.DecoderError
}

func newInstance(r io.Reader, closer io.Closer) (*instance, error) {
	params, dataLen, err := readWAVHeader(r)
	if err != nil {
		return nil, err
	}
	return &instance{r: r, closer: closer, params: params, remaining: dataLen}, nil
}

func (i *instance) Error() soundparams.DecoderError { return i.err }

func (i *instance) Decode(dst []byte) (int, soundparams.Params, error) {
	if i.remaining == 0 {
		return 0, i.params, nil
	}

	want := len(dst)
	if i.remaining > 0 && int64(want) > i.remaining {
		want = int(i.remaining)
	}

	n, err := i.r.Read(dst[:want])
	if i.remaining > 0 {
		i.remaining -= int64(n)
	}
	if err != nil && err != io.EOF {
		i.err = soundparams.FatalError("wavpcm: %v", err)
	}
	return n, i.params, nil
}

func (i *instance) Close() error {
	if i.closer != nil {
		return i.closer.Close()
	}
	return nil
}

var (
	errTruncatedHeader  = errors.New("wavpcm: truncated RIFF header")
	errNotWAVE          = errors.New("wavpcm: not a WAVE file")
	errNoFmtChunk       = errors.New("wavpcm: missing fmt chunk")
	errUnsupportedCodec = errors.New("wavpcm: unsupported wFormatTag/bits-per-sample combination")
)

// readWAVHeader parses a RIFF/WAVE header from r, returning the PCM
// layout and the length of the data chunk in bytes (-1 if the chunk size
// is absent or implausible, meaning "read until EOF"). On return, r is
// positioned at the start of PCM sample data.
func readWAVHeader(r io.Reader) (soundparams.Params, int64, error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return soundparams.Params{}, 0, errTruncatedHeader
	}
	if !bytes.Equal(riffHeader[0:4], []byte("RIFF")) || !bytes.Equal(riffHeader[8:12], []byte("WAVE")) {
		return soundparams.Params{}, 0, errNotWAVE
	}

	var (
		haveFmt       bool
		channels      int
		sampleRate    int
		bitsPerSample int
		formatTag     uint16
	)

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return soundparams.Params{}, 0, errNoFmtChunk
			}
			return soundparams.Params{}, 0, err
		}
		id := string(chunkHeader[0:4])
		size := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))

		if id == "fmt " {
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return soundparams.Params{}, 0, err
			}
			if size < 16 {
				return soundparams.Params{}, 0, errUnsupportedCodec
			}
			formatTag = binary.LittleEndian.Uint16(buf[0:2])
			channels = int(binary.LittleEndian.Uint16(buf[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(buf[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(buf[14:16]))
			haveFmt = true
			if size%2 == 1 {
				io.CopyN(io.Discard, r, 1)
			}
			continue
		}

		if id == "data" {
			if !haveFmt {
				return soundparams.Params{}, 0, errNoFmtChunk
			}
			encoding, err := encodingFor(formatTag, bitsPerSample)
			if err != nil {
				return soundparams.Params{}, 0, err
			}
			dataLen := size
			if dataLen <= 0 {
				dataLen = -1
			}
			return soundparams.Params{Encoding: encoding, SampleRate: sampleRate, Channels: channels}, dataLen, nil
		}

		if _, err := io.CopyN(io.Discard, r, size+size%2); err != nil {
			return soundparams.Params{}, 0, err
		}
	}
}

func encodingFor(formatTag uint16, bitsPerSample int) (soundparams.Encoding, error) {
	const (
		wavFormatPCM   = 1
		wavFormatFloat = 3
	)
	switch {
	case formatTag == wavFormatPCM && bitsPerSample == 16:
		return soundparams.S16LE, nil
	case formatTag == wavFormatPCM && bitsPerSample == 8:
		return soundparams.U8, nil
	case formatTag == wavFormatFloat && bitsPerSample == 32:
		return soundparams.Float32LE, nil
	default:
		return 0, errUnsupportedCodec
	}
}

var (
	_ decoder.Plugin       = Plugin{}
	_ decoder.FileOpener   = Plugin{}
	_ decoder.StreamOpener = Plugin{}
	_ decoder.Instance     = (*instance)(nil)
)
