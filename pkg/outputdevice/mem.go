package outputdevice

import (
	"sync"

	"github.com/rillplay/engine/pkg/audio/soundparams"
)

// MemDevice is an in-memory Device that records every byte written to
// it, used by player tests so they don't depend on a real
// PortAudio device being available.
type MemDevice struct {
	mu     sync.Mutex
	params soundparams.Params
	closed bool
	Writes []byte
}

// NewMemDevice returns a MemDevice opened at params.
func NewMemDevice(params soundparams.Params) *MemDevice {
	return &MemDevice{params: params}
}

func (d *MemDevice) WriteBytes(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Writes = append(d.Writes, buf...)
	return len(buf), nil
}

func (d *MemDevice) Params() soundparams.Params { return d.params }

func (d *MemDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called.
func (d *MemDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

var _ Device = (*MemDevice)(nil)
