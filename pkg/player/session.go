// Package player implements the decode loop and request API described in
// §4.G: a single long-lived Session per server process that plays one
// track at a time, optionally handing off to a precached next track
// without a gap.
package player

import (
	"context"
	"sync"

	"github.com/rillplay/engine/pkg/audio/soundparams"
	"github.com/rillplay/engine/pkg/bitratelog"
	"github.com/rillplay/engine/pkg/decoder"
	"github.com/rillplay/engine/pkg/events"
	"github.com/rillplay/engine/pkg/iostream"
	"github.com/rillplay/engine/pkg/outputbuffer"
	"github.com/rillplay/engine/pkg/outputdevice"
	"github.com/rillplay/engine/pkg/precache"
)

// DeviceOpener opens the output device for a given PCM layout. Production
// callers pass outputdevice.Open; tests pass a constructor returning an
// outputdevice.MemDevice.
type DeviceOpener func(soundparams.Params) (outputdevice.Device, error)

// Pauser is implemented by output devices that can suspend and resume
// hardware playback in place. Devices that can't (e.g. a live internet
// radio stream) simply don't implement it; for them Session.Pause only
// stops the consumer from draining the output buffer, per
// pkg/outputdevice's documented scope.
type Pauser interface {
	Pause() error
	Unpause() error
}

// Session is the single playback session a server process owns: the
// output buffer, the live bitrate log, the precache, and the pending
// request slot, plus the command API of §6.
type Session struct {
	reg  *decoder.Registry
	sink events.Sink
	cfg  Config
	open DeviceOpener
	log  Logger

	outBuf *outputbuffer.Buffer
	pre    *precache.Precache
	req    *request

	mu           sync.Mutex
	cond         *sync.Cond
	bitrateLog   *bitratelog.Log
	device       outputdevice.Device
	streamHandle iostream.Stream
	paused       bool
	pauseSignal  chan struct{}
	consumerBusy bool
}

// NewSession constructs a Session. sink may be nil (events.NopSink is
// used then); open is normally outputdevice.Open. log may be nil, in
// which case decoder warnings and errors are discarded; pass an
// internal/logging.Logger in production.
func NewSession(reg *decoder.Registry, sink events.Sink, cfg Config, open DeviceOpener, log Logger) *Session {
	if sink == nil {
		sink = events.NopSink{}
	}
	if log == nil {
		log = noopLogger{}
	}
	s := &Session{
		reg:         reg,
		sink:        sink,
		cfg:         cfg,
		open:        open,
		log:         log,
		outBuf:      outputbuffer.New(2 * PCMBufSize),
		bitrateLog:  bitratelog.New(),
		req:         newRequest(),
		pauseSignal: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	s.pre = precache.New(reg, sink)
	s.outBuf.SetFreeCallback(func() {
		// Read only calls this after copying bytes out, just before
		// returning them to the consumer goroutine: marking the consumer
		// busy here, rather than after Read returns to it, closes the
		// window where WaitDrained could report the buffer empty while a
		// device write for the bytes it just yielded hasn't happened yet.
		s.mu.Lock()
		s.consumerBusy = true
		s.mu.Unlock()
		s.req.signalAll()
	})
	go s.runConsumer()
	return s
}

// waitConsumerIdle blocks until the consumer goroutine has finished
// writing any bytes it has already read from the output buffer. Callers
// that need to know playback has truly stopped (not just that the
// buffer is empty) should call outBuf.WaitDrained() first, then this.
func (s *Session) waitConsumerIdle() {
	s.mu.Lock()
	for s.consumerBusy {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *Session) markConsumerIdle() {
	s.mu.Lock()
	s.consumerBusy = false
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Time returns the output buffer's playback time cursor, i.e. the
// position of the oldest byte still unplayed.
func (s *Session) Time() float64 { return s.outBuf.Time() }

// Bitrate returns the bitrate in effect at the current playback time.
func (s *Session) Bitrate() (kbps int, ok bool) {
	s.mu.Lock()
	l := s.bitrateLog
	s.mu.Unlock()
	if l == nil {
		return 0, false
	}
	return l.Get(s.outBuf.Time())
}

// Stop requests the decode loop stop the current track. It also aborts
// the active network stream, if any, so a blocked Read unblocks.
func (s *Session) Stop() {
	s.req.set(reqStop, 0)
	s.mu.Lock()
	stream := s.streamHandle
	s.mu.Unlock()
	if stream != nil {
		stream.Abort()
	}
}

// Seek requests a relative seek of delta seconds from the current
// playback time.
func (s *Session) Seek(delta float64) {
	s.req.set(reqSeek, s.outBuf.Time()+delta)
}

// JumpTo requests an absolute seek to abs seconds.
func (s *Session) JumpTo(abs float64) {
	s.req.set(reqSeek, abs)
}

// Pause suspends output device playback in place, if the active device
// supports it (Pauser); for a device that doesn't (e.g. live internet
// radio), this stops the consumer from draining the output buffer but
// can't suspend hardware already committed to playing.
func (s *Session) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.applyDevicePause(true)
}

// Unpause resumes output device playback.
func (s *Session) Unpause() {
	s.mu.Lock()
	s.paused = false
	close(s.pauseSignal)
	s.pauseSignal = make(chan struct{})
	s.mu.Unlock()
	s.applyDevicePause(false)
}

func (s *Session) applyDevicePause(pause bool) {
	s.mu.Lock()
	device := s.device
	s.mu.Unlock()
	if device == nil {
		return
	}
	p, ok := device.(Pauser)
	if !ok {
		return
	}
	if pause {
		p.Pause()
	} else {
		p.Unpause()
	}
}

func (s *Session) setDevice(d outputdevice.Device) {
	s.mu.Lock()
	s.device = d
	s.mu.Unlock()
}

func (s *Session) setStreamHandle(h iostream.Stream) {
	s.mu.Lock()
	s.streamHandle = h
	s.mu.Unlock()
}

func (s *Session) setBitrateLog(l *bitratelog.Log) {
	s.mu.Lock()
	s.bitrateLog = l
	s.mu.Unlock()
}

func (s *Session) addBitrate(t float64, kbps int) {
	s.mu.Lock()
	l := s.bitrateLog
	s.mu.Unlock()
	if l != nil {
		l.Add(t, kbps)
	}
}

// Play routes to a URL or local-file source and blocks until the track
// (plus any gapless handoff decode started along the way) finishes.
func (s *Session) Play(ctx context.Context, file, nextFile string) {
	if iostream.IsURL(file) {
		s.playURLEntry(ctx, file)
		return
	}
	s.playLocalEntry(ctx, file, nextFile)
}

func (s *Session) playLocalEntry(ctx context.Context, file, nextFile string) {
	plugin := s.reg.FindDecoder(file, "")
	if plugin == nil {
		s.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
		return
	}
	s.sink.Emit(events.Event{Kind: events.AudioStart, Path: file})
	s.playFile(ctx, plugin, file, nextFile)
	s.sink.Emit(events.Event{Kind: events.AudioStop, Path: file})
}

func (s *Session) playURLEntry(ctx context.Context, url string) {
	stream, err := iostream.Open(ctx, url)
	if err != nil {
		s.sink.Emit(events.Event{Kind: events.AudioFail, Path: url})
		return
	}

	if err := stream.Prebuffer(ctx, 512); err != nil {
		stream.Close()
		s.sink.Emit(events.Event{Kind: events.AudioFail, Path: url})
		return
	}
	plugin := s.reg.FindDecoderByContent(stream)
	if plugin == nil {
		stream.Close()
		s.sink.Emit(events.Event{Kind: events.AudioFail, Path: url})
		return
	}
	opener, ok := plugin.(decoder.StreamOpener)
	if !ok {
		stream.Close()
		s.sink.Emit(events.Event{Kind: events.AudioFail, Path: url})
		return
	}

	if err := stream.Prebuffer(ctx, s.cfg.prebufferBytes()); err != nil {
		stream.Close()
		s.sink.Emit(events.Event{Kind: events.AudioFail, Path: url})
		return
	}

	inst, err := opener.OpenStream(stream)
	if err != nil || !inst.Error().IsOk() {
		stream.Close()
		s.sink.Emit(events.Event{Kind: events.AudioFail, Path: url})
		return
	}

	s.setStreamHandle(stream)
	s.sink.Emit(events.Event{Kind: events.AudioStart, Path: url})
	s.playStream(ctx, inst, url)
	s.sink.Emit(events.Event{Kind: events.AudioStop, Path: url})

	s.setStreamHandle(nil)
	stream.Close()
}
