package ogg

import "errors"

// ErrNoPacket is returned by PacketOut when no fully-reassembled packet
// is buffered yet; the caller should read and feed in another page.
var ErrNoPacket = errors.New("ogg: no packet available")

// ErrHole is returned by PacketOut once, after PageIn observes a gap in
// the page sequence number for this stream, meaning at least one page
// (and the data it carried) was lost.
var ErrHole = errors.New("ogg: hole in packet data (lost page)")

// Packet is one demuxed elementary-stream packet, reassembled from one
// or more page segments.
type Packet struct {
	data     []byte
	granule  int64
	packetNo int64
	bos      bool
	eos      bool
}

func (p *Packet) Data() []byte      { return p.data }
func (p *Packet) Bytes() int64      { return int64(len(p.data)) }
func (p *Packet) BOS() bool         { return p.bos }
func (p *Packet) EOS() bool         { return p.eos }
func (p *Packet) GranulePos() int64 { return p.granule }
func (p *Packet) PacketNo() int64   { return p.packetNo }

// StreamState reassembles packets for one logical Ogg stream (serial
// number) from the pages fed to it via PageIn.
type StreamState struct {
	serial   int32
	packets  [][]byte
	granules []int64
	bos      []bool
	eos      []bool
	next     int
	packetNo int64

	partial      []byte // packet continued across a page boundary
	lastPageNo   int64
	sawFirstPage bool
	holePending  bool
}

// NewStreamState returns a StreamState for the logical stream identified
// by serial.
func NewStreamState(serial int32) (*StreamState, error) {
	return &StreamState{serial: serial}, nil
}

// Clear releases any buffered state. Safe to call multiple times.
func (s *StreamState) Clear() {
	s.packets = nil
	s.granules = nil
	s.bos = nil
	s.eos = nil
	s.partial = nil
}

// PageIn splits page's body into zero or more complete packets using its
// segment table, carrying over a packet continued from the previous
// page. It records a pending hole if page's sequence number isn't
// exactly one past the last page seen.
func (s *StreamState) PageIn(page Page) error {
	if page.SerialNo() != s.serial {
		return errSerialMismatch
	}

	if s.sawFirstPage && page.PageNo() != s.lastPageNo+1 {
		s.holePending = true
	}
	s.lastPageNo = page.PageNo()
	s.sawFirstPage = true

	off := 0
	cur := s.partial
	s.partial = nil

	for idx := 0; idx < len(page.segments); {
		segLen := 0
		complete := false
		for idx < len(page.segments) {
			v := int(page.segments[idx])
			idx++
			segLen += v
			if v < 255 {
				complete = true
				break
			}
		}
		cur = append(cur, page.body[off:off+segLen]...)
		off += segLen

		if !complete {
			// Page ended mid-packet; the rest arrives on the next page.
			s.partial = cur
			cur = nil
			break
		}

		pkt := make([]byte, len(cur))
		copy(pkt, cur)
		s.packets = append(s.packets, pkt)
		s.granules = append(s.granules, page.GranulePos())
		s.bos = append(s.bos, page.IsBOS() && len(s.packets) == 1)
		s.eos = append(s.eos, page.IsEOS())
		cur = nil
	}
	return nil
}

// PacketOut returns the next reassembled packet into p, ErrNoPacket if
// none is buffered yet, or ErrHole (once) if a page was lost since the
// last call.
func (s *StreamState) PacketOut(p *Packet) error {
	if s.holePending {
		s.holePending = false
		return ErrHole
	}
	if s.next >= len(s.packets) {
		return ErrNoPacket
	}

	p.data = s.packets[s.next]
	p.granule = s.granules[s.next]
	p.bos = s.bos[s.next]
	p.eos = s.eos[s.next]
	p.packetNo = s.packetNo

	s.packetNo++
	s.next++
	return nil
}
