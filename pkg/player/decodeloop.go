package player

import (
	"context"

	"github.com/rillplay/engine/pkg/audio/soundparams"
	"github.com/rillplay/engine/pkg/bitratelog"
	"github.com/rillplay/engine/pkg/decoder"
	"github.com/rillplay/engine/pkg/events"
	"github.com/rillplay/engine/pkg/iostream"
	"github.com/rillplay/engine/pkg/outputdevice"
)

// playFile reconciles any armed precache against file, then runs the
// common decode loop (§4.G).
func (s *Session) playFile(ctx context.Context, plugin decoder.Plugin, file, nextFile string) {
	var (
		inst       decoder.Instance
		params     soundparams.Params
		haveParams bool
		decodeTime float64
		log        *bitratelog.Log
	)

	if s.pre.Running() {
		s.pre.Wait()
	}

	switch {
	case s.pre.Matches(file) && s.pre.OK:
		params = s.pre.Params
		haveParams = true
		inst = s.pre.Decoder
		decodeTime = s.pre.DecodedSec
		log = s.pre.BitrateLog

		device, err := s.open(params)
		if err != nil {
			inst.Close()
			s.pre.Reset()
			s.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
			return
		}
		s.setDevice(device)
		s.outBuf.Reset()
		s.outBuf.Send(ctx, s.pre.StagingBytes())
		s.pre.Reset()

	case s.pre.File != "":
		// Either the precache targeted this file but failed, or it
		// targeted a different file entirely (a user skip invalidated
		// it). Either way it can't be reused.
		if s.pre.Decoder != nil {
			s.pre.Decoder.Close()
		}
		s.pre.Reset()
	}

	if inst == nil {
		opener, ok := plugin.(decoder.FileOpener)
		if !ok {
			s.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
			return
		}
		var err error
		inst, err = opener.Open(file)
		if err != nil || !inst.Error().IsOk() {
			if inst != nil {
				inst.Close()
			}
			s.sink.Emit(events.Event{Kind: events.AudioFail, Path: file})
			return
		}
	}

	if log == nil {
		log = bitratelog.New()
	}
	s.setBitrateLog(log)

	if dr, ok := inst.(decoder.DurationReporter); ok {
		if secs, ok := dr.Duration(); ok {
			s.sink.Emit(events.Event{Kind: events.PlaylistTimeUpdated, Path: file, Seconds: secs})
		}
	}

	s.decodeLoop(ctx, inst, nil, params, haveParams, decodeTime, file, nextFile, false)
}

// playStream runs the decode loop for an already-open network stream.
// There is no next-file precache for streams.
func (s *Session) playStream(ctx context.Context, inst decoder.Instance, url string) {
	s.setBitrateLog(bitratelog.New())
	s.decodeLoop(ctx, inst, s.currentStream(), soundparams.Params{}, false, 0, url, "", true)
}

func (s *Session) currentStream() iostream.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamHandle
}

// decodeLoop is the common loop of §4.G, parameterized over whether the
// source is a network stream (which needs prebuffering and never arms a
// next-file precache).
func (s *Session) decodeLoop(
	ctx context.Context,
	inst decoder.Instance,
	stream iostream.Stream,
	initialParams soundparams.Params,
	haveParams bool,
	initialDecodeTime float64,
	file, nextFile string,
	streaming bool,
) {
	var (
		eof               bool
		stopped           bool
		decoded           []byte
		soundParams       = initialParams
		newSoundParams    soundparams.Params
		soundParamsChange bool
		decodeTime        = initialDecodeTime
		lastStreamErr     string
	)
	scratch := make([]byte, PCMBufSize)

	if !haveParams {
		// Fresh start (no precache handoff): clear whatever state a
		// prior track's Stop left behind (stopped flag, stale time
		// cursor) so this track isn't born already stopped.
		s.outBuf.Reset()
	}

	defer func() {
		inst.Close()
		s.outBuf.WaitDrained()
		s.waitConsumerIdle()
		s.setBitrateLog(nil)

		if stopped || !s.cfg.AutoNext {
			// A precache armed during this track won't be consumed by a
			// follow-up playFile after a stop or with AutoNext off, so
			// wait for it and discard it here if it succeeded.
			if s.pre.Running() {
				s.pre.Wait()
			}
			if _, ok := s.pre.Status(); ok {
				if s.pre.Decoder != nil {
					s.pre.Decoder.Close()
				}
				s.pre.Reset()
			}
		}
	}()

	for {
		if !eof && len(decoded) == 0 {
			if streaming && stream != nil && s.outBuf.Fill() < PrebufferThreshold {
				stream.Prebuffer(ctx, s.cfg.prebufferBytes())
			}

			n, params, _ := inst.Decode(scratch)
			if derr := inst.Error(); derr.IsFatal() {
				s.log.Errorf("decode %s: %s", file, derr.Message)
				eof = true
			} else if derr.Severity == soundparams.Stream && derr.Message != lastStreamErr {
				s.log.Warnf("decode %s: %s", file, derr.Message)
				lastStreamErr = derr.Message
			}

			if n == 0 {
				eof = true
			} else {
				if !haveParams {
					device, err := s.open(params)
					if err != nil {
						return
					}
					s.setDevice(device)
					soundParams = params
					haveParams = true
				} else if !soundParams.Equal(params) {
					newSoundParams = params
					soundParamsChange = true
				}

				if br, ok := inst.(decoder.BitrateReporter); ok {
					if kbps, ok := br.Bitrate(); ok {
						s.addBitrate(decodeTime, kbps)
					}
				}
				if params.BytesRate() > 0 {
					decodeTime += float64(n) / float64(params.BytesRate())
				}
				decoded = scratch[:n]
			}
		}

		if len(decoded) > s.outBuf.Free() || (eof && s.outBuf.Fill() > 0) {
			if eof && nextFile != "" && !iostream.IsURL(nextFile) && s.reg.IsSoundFile(nextFile) &&
				s.cfg.AutoNext && !s.pre.Running() && s.pre.File == "" {
				s.pre.Start(ctx, nextFile)
			}
			s.req.wait(ctx)
		}

		kind, target := s.req.get()
		switch kind {
		case reqStop:
			stopped = true
			s.outBuf.Stop()
			s.req.clearIf(reqStop)
			return

		case reqSeek:
			if target < 0 {
				target = 0
			}
			if seeker, ok := inst.(decoder.Seeker); ok {
				if effective, ok := seeker.Seek(target); ok {
					s.outBuf.Stop()
					s.outBuf.Reset()
					s.outBuf.SetTime(effective)
					if bl, ok := s.snapshotBitrateLog(); ok {
						bl.Empty()
					}
					decodeTime = effective
					eof = false
					decoded = nil
				} else if dr, ok := inst.(decoder.DurationReporter); ok {
					if dur, ok := dr.Duration(); ok && target >= dur {
						s.outBuf.Stop()
						s.outBuf.Reset()
						s.outBuf.SetTime(dur)
						if bl, ok := s.snapshotBitrateLog(); ok {
							bl.Empty()
						}
						eof = true
						decoded = nil
					}
				}
			}
			s.req.clearIf(reqSeek)

		default:
			// Pause/Unpause never enter this slot: they act directly on
			// the output device (Session.Pause/Unpause). The decode
			// loop's buffering logic runs the same whether paused or
			// not; only the consumer draining to hardware cares.
			switch {
			case len(decoded) <= s.outBuf.Free() && !soundParamsChange:
				s.outBuf.Send(ctx, decoded)
				decoded = nil

			case soundParamsChange && s.outBuf.Fill() == 0:
				s.waitConsumerIdle()
				soundParams = newSoundParams
				s.emitParamsChange(file, soundParams)
				device, err := s.open(soundParams)
				if err != nil {
					return
				}
				s.setDevice(device)
				soundParamsChange = false

			case eof && s.outBuf.Fill() == 0:
				return
			}
		}
	}
}

func (s *Session) currentDevice() outputdevice.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

func (s *Session) snapshotBitrateLog() (*bitratelog.Log, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bitrateLog, s.bitrateLog != nil
}

func (s *Session) emitParamsChange(file string, p soundparams.Params) {
	s.sink.Emit(events.Event{Kind: events.ChannelsChanged, Path: file, Channels: p.Channels})
	s.sink.Emit(events.Event{Kind: events.RateChanged, Path: file, Rate: p.SampleRate})
}
