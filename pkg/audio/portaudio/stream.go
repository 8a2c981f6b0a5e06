// Package portaudio adapts github.com/gordonklaus/portaudio's default
// output stream to the engine's PCM layout (pkg/audio/soundparams) and
// byte-oriented write contract. It never resamples or reformats; the
// caller reopens a stream whenever the active decoder's Params change
// (§4.G of the playback engine design).
package portaudio

import (
	"errors"
	"sync"
	"time"

	pa "github.com/gordonklaus/portaudio"

	"github.com/rillplay/engine/pkg/audio/soundparams"
)

var (
	initOnce sync.Once
	initErr  error
)

func initialize() error {
	initOnce.Do(func() {
		initErr = pa.Initialize()
	})
	return initErr
}

// OutputStream plays 16-bit PCM audio to the default output device at a
// fixed Params.
type OutputStream struct {
	stream *pa.Stream
	params soundparams.Params
	frames int
	out    []int16
	mu     sync.Mutex
	closed bool
}

// NewOutputStream opens an output stream for playback in the given Params.
// bufferDuration sizes each device write (e.g. 20ms); smaller values
// reduce latency at the cost of more frequent writes. Only S16LE is
// supported; PortAudio's native sample format here is 16-bit signed PCM.
func NewOutputStream(params soundparams.Params, bufferDuration time.Duration) (*OutputStream, error) {
	if params.Encoding != soundparams.S16LE {
		return nil, errors.New("portaudio: only s16le output is supported")
	}
	if err := initialize(); err != nil {
		return nil, err
	}

	framesPerBuffer := int(params.BytesInDuration(bufferDuration)) / params.BytesPerFrame()
	out := make([]int16, framesPerBuffer*params.Channels)

	stream, err := pa.OpenDefaultStream(0, params.Channels, float64(params.SampleRate), framesPerBuffer, out)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &OutputStream{
		stream: stream,
		params: params,
		frames: framesPerBuffer,
		out:    out,
	}, nil
}

// Write writes PCM samples to the output. Returns the number of samples
// written.
func (os *OutputStream) Write(samples []int16) (int, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return 0, errors.New("portaudio: stream closed")
	}

	n := copy(os.out, samples)
	for i := n; i < len(os.out); i++ {
		os.out[i] = 0
	}

	if err := os.stream.Write(); err != nil {
		return 0, err
	}
	return n, nil
}

// WriteBytes writes PCM samples from interleaved little-endian int16 bytes.
func (os *OutputStream) WriteBytes(buf []byte) (int, error) {
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(buf[i*2]) | int16(buf[i*2+1])<<8
	}
	n, err := os.Write(samples)
	return n * 2, err
}

// Params returns the PCM layout this stream was opened with.
func (os *OutputStream) Params() soundparams.Params {
	return os.params
}

// FramesPerBuffer returns the device buffer size in frames.
func (os *OutputStream) FramesPerBuffer() int {
	return os.frames
}

// Close stops and closes the stream. Idempotent.
func (os *OutputStream) Close() error {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return nil
	}
	os.closed = true

	os.stream.Stop()
	return os.stream.Close()
}
