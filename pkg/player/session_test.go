package player

import (
	"context"
	"testing"
	"time"

	"github.com/rillplay/engine/pkg/audio/soundparams"
	"github.com/rillplay/engine/pkg/decoder"
	"github.com/rillplay/engine/pkg/events"
	"github.com/rillplay/engine/pkg/outputdevice"
)

var testParams = soundparams.Params{Encoding: soundparams.S16LE, SampleRate: 8000, Channels: 1}

type fakeInstance struct {
	chunks   [][]byte
	params   soundparams.Params
	idx      int
	closed   bool
	hasDur   bool
	duration float64
	seekTo   float64
	seekable bool
}

func (f *fakeInstance) Error() soundparams.DecoderError { return soundparams.DecoderError{} }

func (f *fakeInstance) Decode(dst []byte) (int, soundparams.Params, error) {
	if f.idx >= len(f.chunks) {
		return 0, f.params, nil
	}
	n := copy(dst, f.chunks[f.idx])
	f.idx++
	return n, f.params, nil
}

func (f *fakeInstance) Close() error {
	f.closed = true
	return nil
}

func (f *fakeInstance) Duration() (float64, bool) { return f.duration, f.hasDur }

func (f *fakeInstance) Seek(t float64) (float64, bool) {
	if !f.seekable {
		return 0, false
	}
	f.seekTo = t
	f.idx = 0
	return t, true
}

type fakePlugin struct {
	name string
	ext  string
	make func() *fakeInstance
}

func (p *fakePlugin) Name() string                  { return p.name }
func (p *fakePlugin) OurFormatExt(ext string) bool   { return ext == p.ext }
func (p *fakePlugin) OurFormatMIME(mime string) bool { return false }
func (p *fakePlugin) CanDecode(peek []byte) bool     { return false }

func (p *fakePlugin) Open(path string) (decoder.Instance, error) {
	return p.make(), nil
}

func chunkOf(n int, fill byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return b
}

func newTestSession(t *testing.T, reg *decoder.Registry, cfg Config) (*Session, *events.ChanSink, func() *outputdevice.MemDevice) {
	t.Helper()
	sink := events.NewChanSink(32)
	var lastDevice *outputdevice.MemDevice
	open := func(p soundparams.Params) (outputdevice.Device, error) {
		lastDevice = outputdevice.NewMemDevice(p)
		return lastDevice, nil
	}
	s := NewSession(reg, sink, cfg, open, nil)
	return s, sink, func() *outputdevice.MemDevice { return lastDevice }
}

func drainEvents(sink *events.ChanSink) []events.Kind {
	var kinds []events.Kind
	for {
		select {
		case e := <-sink.Events():
			kinds = append(kinds, e.Kind)
		default:
			return kinds
		}
	}
}

func TestPlayLocalFileWritesAllPCMAndEmitsStartStop(t *testing.T) {
	payload := chunkOf(5000, 0x7A)
	plugin := &fakePlugin{name: "fake", ext: "snd", make: func() *fakeInstance {
		return &fakeInstance{chunks: [][]byte{payload}, params: testParams, hasDur: true, duration: 1.5}
	}}
	reg := decoder.NewRegistry(false)
	reg.Register(plugin)

	s, sink, device := newTestSession(t, reg, Config{AutoNext: false})

	done := make(chan struct{})
	go func() {
		s.Play(context.Background(), "track.snd", "")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return")
	}

	dev := device()
	if dev == nil {
		t.Fatal("no device was opened")
	}
	if len(dev.Writes) != len(payload) {
		t.Fatalf("wrote %d bytes, want %d", len(dev.Writes), len(payload))
	}

	kinds := drainEvents(sink)
	if len(kinds) < 2 || kinds[0] != events.AudioStart || kinds[len(kinds)-1] != events.AudioStop {
		t.Fatalf("unexpected event sequence: %v", kinds)
	}
}

func TestStopEndsPlaybackPromptly(t *testing.T) {
	// A huge decode so the track never reaches EOF on its own; Stop must
	// cut it short.
	chunks := make([][]byte, 0)
	for i := 0; i < 1000; i++ {
		chunks = append(chunks, chunkOf(4096, byte(i)))
	}
	plugin := &fakePlugin{name: "fake", ext: "snd", make: func() *fakeInstance {
		return &fakeInstance{chunks: chunks, params: testParams}
	}}
	reg := decoder.NewRegistry(false)
	reg.Register(plugin)

	s, _, _ := newTestSession(t, reg, Config{})

	done := make(chan struct{})
	go func() {
		s.Play(context.Background(), "long.snd", "")
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return after Stop")
	}
}

func TestJumpToSeeksWithinTrack(t *testing.T) {
	chunks := [][]byte{chunkOf(PCMBufSize, 1), chunkOf(PCMBufSize, 2), chunkOf(PCMBufSize, 3)}
	plugin := &fakePlugin{name: "fake", ext: "snd", make: func() *fakeInstance {
		return &fakeInstance{chunks: chunks, params: testParams, seekable: true}
	}}
	reg := decoder.NewRegistry(false)
	reg.Register(plugin)

	s, _, _ := newTestSession(t, reg, Config{})

	done := make(chan struct{})
	go func() {
		s.Play(context.Background(), "seek.snd", "")
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	s.JumpTo(42)
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return")
	}
}

func TestAutoNextPrecacheHandoffAvoidsReopeningDecoder(t *testing.T) {
	firstPayload := chunkOf(1000, 0x11)
	var secondOpened int
	firstPlugin := &fakePlugin{name: "first", ext: "snd", make: func() *fakeInstance {
		return &fakeInstance{chunks: [][]byte{firstPayload}, params: testParams}
	}}

	// Large enough to fill a full precache burst without ever hitting a
	// zero-byte Decode before PCMBufSize is reached (which would discard
	// the whole precache, per the reference's early-EOF semantics).
	secondChunks := make([][]byte, 0)
	remaining := PCMBufSize + 1000
	for remaining > 0 {
		n := 4096
		if n > remaining {
			n = remaining
		}
		secondChunks = append(secondChunks, chunkOf(n, 0x22))
		remaining -= n
	}
	secondPlugin := &fakePlugin{name: "second", ext: "nxt", make: func() *fakeInstance {
		secondOpened++
		return &fakeInstance{chunks: secondChunks, params: testParams}
	}}

	reg := decoder.NewRegistry(false)
	reg.Register(firstPlugin)
	reg.Register(secondPlugin)

	s, _, device := newTestSession(t, reg, Config{AutoNext: true})

	// Pause the consumer so the first track's decoded bytes stay in the
	// output buffer past EOF, keeping Fill() > 0 long enough to
	// deterministically hit the precache-arming branch rather than racing
	// the in-memory device's instant drain.
	s.Pause()

	done := make(chan struct{})
	go func() {
		s.Play(context.Background(), "a.snd", "b.nxt")
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	s.Unpause()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first Play did not return")
	}

	dev := device()
	if len(dev.Writes) != len(firstPayload) {
		t.Fatalf("first track wrote %d bytes, want %d", len(dev.Writes), len(firstPayload))
	}

	done2 := make(chan struct{})
	go func() {
		s.Play(context.Background(), "b.nxt", "")
		close(done2)
	}()

	select {
	case <-done2:
	case <-time.After(2 * time.Second):
		t.Fatal("second Play did not return")
	}

	if secondOpened != 1 {
		t.Errorf("second track's decoder was opened %d times, want exactly 1 (by the precache)", secondOpened)
	}
}
