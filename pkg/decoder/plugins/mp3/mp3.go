// Package mp3 registers an MP3 decoder.Plugin backed by
// github.com/hajimehoshi/go-mp3, a pure-Go MP3 decoder.
package mp3

import (
	"io"
	"strings"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/rillplay/engine/pkg/audio/soundparams"
	"github.com/rillplay/engine/pkg/decoder"
)

// Plugin is the mp3 decoder.Plugin.
type Plugin struct{}

// New returns the mp3 plugin.
func New() *Plugin { return &Plugin{} }

func (Plugin) Name() string { return "mp3" }

func (Plugin) OurFormatExt(ext string) bool {
	return strings.EqualFold(ext, "mp3")
}

func (Plugin) OurFormatMIME(mime string) bool {
	switch strings.ToLower(mime) {
	case "audio/mpeg", "audio/mp3":
		return true
	default:
		return false
	}
}

// CanDecode looks for an MP3 frame sync word (0xFFE.) or an ID3 tag near
// the start of the stream.
func (Plugin) CanDecode(peek []byte) bool {
	if len(peek) >= 3 && peek[0] == 'I' && peek[1] == 'D' && peek[2] == '3' {
		return true
	}
	for i := 0; i+1 < len(peek) && i < 4096; i++ {
		if peek[i] == 0xFF && peek[i+1]&0xE0 == 0xE0 {
			return true
		}
	}
	return false
}

func (p Plugin) Open(path string) (decoder.Instance, error) {
	f, err := openFile(path)
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

// instance adapts *gomp3.Decoder to decoder.Instance. go-mp3 always
// decodes to 16-bit stereo PCM at the stream's native sample rate; it
// doesn't expose a per-frame bitrate, so this plugin doesn't implement
// decoder.BitrateReporter (see DESIGN.md).
type instance struct {
	dec    *gomp3.Decoder
	closer io.Closer
	err    soundparams.DecoderError
}

func newInstance(r io.Reader, closer io.Closer) (*instance, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &instance{dec: dec, closer: closer}, nil
}

func (i *instance) Error() soundparams.DecoderError { return i.err }

func (i *instance) Decode(dst []byte) (int, soundparams.Params, error) {
	n, err := i.dec.Read(dst)
	params := soundparams.Params{
		Encoding:   soundparams.S16LE,
		SampleRate: i.dec.SampleRate(),
		Channels:   2,
	}
	if err == io.EOF {
		return n, params, nil
	}
	if err != nil {
		i.err = soundparams.FatalError("mp3: %v", err)
		return n, params, nil
	}
	return n, params, nil
}

func (i *instance) Close() error {
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
