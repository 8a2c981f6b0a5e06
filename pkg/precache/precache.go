// Package precache implements background decode of the next track into a
// staging buffer so the player can hand off to it on clean EOF without a
// gap (§4.F of the specification).
package precache

import (
	"context"
	"sync"

	"github.com/rillplay/engine/pkg/audio/soundparams"
	"github.com/rillplay/engine/pkg/bitratelog"
	"github.com/rillplay/engine/pkg/decoder"
	"github.com/rillplay/engine/pkg/events"
)

// PCMBufSize is the reference decode-burst and staging-slot unit (36 KiB).
const PCMBufSize = 36 * 1024

// stagingCapacity is the precache staging buffer's fixed size: it must
// hold at least one full PCM_BUF_SIZE decode burst plus whatever was
// already in flight when the terminal decode landed.
const stagingCapacity = 2 * PCMBufSize

// Precache is the next-track staging area. The zero value is an idle
// precache ready for Start.
type Precache struct {
	reg  *decoder.Registry
	sink events.Sink

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	File       string
	buf        [stagingCapacity]byte
	Fill       int
	Params     soundparams.Params
	Decoder    decoder.Instance
	BitrateLog *bitratelog.Log
	DecodedSec float64
	OK         bool
}

// New returns an idle Precache that resolves decoders via reg and emits
// failures to sink.
func New(reg *decoder.Registry, sink events.Sink) *Precache {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Precache{reg: reg, sink: sink}
}

// Running reports whether a precache goroutine is currently active.
func (p *Precache) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start arms the precache for nextFile. The caller must have already
// verified nextFile is a local sound file and that the precache is idle
// (§4.F, condition (i)-(iii)); Start panics if called while running.
func (p *Precache) Start(ctx context.Context, nextFile string) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		panic("precache: Start called while already running")
	}
	p.running = true
	p.File = nextFile
	p.Fill = 0
	p.Params = soundparams.Params{}
	p.BitrateLog = bitratelog.New()
	p.DecodedSec = 0
	p.OK = false

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.run(runCtx, nextFile)
	}()
}

func (p *Precache) run(ctx context.Context, file string) {
	plugin := p.reg.FindDecoder(file, "")
	if plugin == nil {
		p.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
		return
	}
	opener, ok := plugin.(decoder.FileOpener)
	if !ok {
		p.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
		return
	}

	inst, err := opener.Open(file)
	if err != nil {
		p.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
		return
	}
	if derr := inst.Error(); !derr.IsOk() {
		inst.Close()
		p.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
		return
	}

	if dr, ok := inst.(decoder.DurationReporter); ok {
		if secs, ok := dr.Duration(); ok {
			p.sink.Emit(events.Event{Kind: events.PlaylistTimeUpdated, Path: file, Seconds: secs})
		}
	}

	p.mu.Lock()
	p.Decoder = inst
	buf := p.buf[:]
	p.mu.Unlock()

	fill := 0
	decodedSec := 0.0

	for fill < PCMBufSize {
		select {
		case <-ctx.Done():
			inst.Close()
			return
		default:
		}

		n, params, _ := inst.Decode(buf[fill:])
		if n == 0 {
			// EOF so fast there's nothing usable to precache.
			inst.Close()
			p.mu.Lock()
			p.Decoder = nil
			p.mu.Unlock()
			return
		}

		if derr := inst.Error(); derr.Severity == soundparams.Fatal {
			inst.Close()
			p.mu.Lock()
			p.Decoder = nil
			p.mu.Unlock()
			p.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
			return
		}

		p.mu.Lock()
		if p.Params == (soundparams.Params{}) {
			p.Params = params
		} else if !p.Params.Equal(params) {
			// Sound parameters changed mid-precache: can't stage mixed
			// formats, abandon.
			p.mu.Unlock()
			inst.Close()
			p.mu.Lock()
			p.Decoder = nil
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		if br, hasBR := inst.(decoder.BitrateReporter); hasBR {
			if kbps, bok := br.Bitrate(); bok {
				p.BitrateLog.Add(decodedSec, kbps)
			}
		}

		fill += n
		if params.BytesRate() > 0 {
			decodedSec += float64(n) / float64(params.BytesRate())
		}

		// A Stream-severity error is recoverable but the precache can't
		// keep decoding past it without risking the same error forever;
		// preserve what's already staged and stop here, matching the
		// reference's "don't lose the error message" break.
		if derr := inst.Error(); derr.Severity == soundparams.Stream {
			break
		}
	}

	p.mu.Lock()
	p.Fill = fill
	p.DecodedSec = decodedSec
	p.OK = true
	p.mu.Unlock()
}

// Wait blocks until the precache goroutine finishes and clears the
// running flag.
func (p *Precache) Wait() {
	p.mu.Lock()
	done := p.done
	cancel := p.cancel
	p.mu.Unlock()

	if done == nil {
		return
	}
	<-done
	if cancel != nil {
		cancel()
	}

	p.mu.Lock()
	p.running = false
	p.done = nil
	p.mu.Unlock()
}

// Reset clears the precache's state. Valid only when not running.
func (p *Precache) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		panic("precache: Reset called while running")
	}
	p.File = ""
	p.Fill = 0
	p.Params = soundparams.Params{}
	p.Decoder = nil
	p.BitrateLog = nil
	p.DecodedSec = 0
	p.OK = false
}

// Status reports whether the precache goroutine is still running and,
// if not, whether its last run succeeded. Reading Running and OK
// together under one lock avoids a caller observing OK while run is
// still writing it.
func (p *Precache) Status() (running, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running, p.OK
}

// Matches reports whether the precache's target file equals file,
// case-sensitively (filesystem paths are compared literally, URLs are
// never precached per §4.F condition (ii)).
func (p *Precache) Matches(file string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.File != "" && p.File == file
}

// StagingBytes returns the precached PCM payload.
func (p *Precache) StagingBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf[:p.Fill]
}
