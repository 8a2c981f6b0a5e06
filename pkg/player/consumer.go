package player

import "time"

// idlePoll bounds how long the consumer sleeps after finding the output
// buffer stopped (between tracks) before checking again, so it doesn't
// spin a CPU core while idle.
const idlePoll = 5 * time.Millisecond

// runConsumer is the single goroutine, started once per Session and
// alive for the process's lifetime, that drains the output buffer to
// whichever device is currently installed. Reading the device fresh on
// every iteration (rather than capturing it once) is what lets the
// decode loop swap devices out from under it on a sound-parameter change
// without any handoff synchronization: the consumer just picks up the
// new one on its next write.
func (s *Session) runConsumer() {
	buf := make([]byte, 4096)
	for {
		s.waitUnpaused()

		n, _ := s.outBuf.Read(buf)
		if n == 0 {
			time.Sleep(idlePoll)
			continue
		}

		device := s.currentDevice()
		if device == nil {
			s.markConsumerIdle()
			continue
		}
		if _, err := device.WriteBytes(buf[:n]); err == nil {
			s.outBuf.AdvanceTime(device.Params().Duration(int64(n)).Seconds())
		}
		s.markConsumerIdle()
	}
}

// waitUnpaused blocks while the session is paused.
func (s *Session) waitUnpaused() {
	s.mu.Lock()
	for s.paused {
		ch := s.pauseSignal
		s.mu.Unlock()
		<-ch
		s.mu.Lock()
	}
	s.mu.Unlock()
}
