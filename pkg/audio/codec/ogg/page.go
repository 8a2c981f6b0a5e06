// Package ogg demuxes the Ogg bitstream container (RFC 3533): pages are
// read from a byte stream and split into the elementary-stream packets
// they carry. It's a from-scratch, pure-Go reader scoped to what this
// engine's Ogg/Opus decode plugin needs (single or chained logical
// streams, no multiplexed interleave beyond what PageIn/PacketOut
// already handle) rather than a binding to libogg: no pure-Go Ogg
// container library turned up among this engine's other dependencies,
// and libogg itself has no engine-specific logic worth preserving as a
// cgo binding.
package ogg

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

const capturePattern = "OggS"

// Page header type flags.
const (
	Continued = 0x01 // page starts with data continued from the previous page
	BOS       = 0x02 // first page of a logical stream
	EOS       = 0x04 // last page of a logical stream
)

// Page is one demuxed Ogg page.
type Page struct {
	headerType byte
	granule    int64
	serial     int32
	pageNo     int64
	segments   []byte
	body       []byte
}

func (p Page) SerialNo() int32   { return p.serial }
func (p Page) PageNo() int64     { return p.pageNo }
func (p Page) IsBOS() bool       { return p.headerType&BOS != 0 }
func (p Page) IsEOS() bool       { return p.headerType&EOS != 0 }
func (p Page) GranulePos() int64 { return p.granule }
func (p Page) Body() []byte      { return p.body }

// Decoder reads successive Ogg pages from a byte stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading pages from r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	return &Decoder{r: bufio.NewReaderSize(r, 8192)}, nil
}

// Close releases the decoder. The underlying reader is the caller's to
// close.
func (d *Decoder) Close() error { return nil }

// ReadPage reads and returns the next page, resyncing past any bytes
// that don't begin a valid page header (e.g. ID3 padding some encoders
// leave between streams).
func (d *Decoder) ReadPage() (Page, error) {
	if err := d.sync(); err != nil {
		return Page{}, err
	}

	// Fixed header fields after the 4-byte capture pattern: version(1),
	// header_type(1), granule_position(8), serial(4), page_seq(4),
	// crc(4), page_segments(1) = 23 bytes.
	var hdr [23]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return Page{}, err
	}

	headerType := hdr[1]
	granule := int64(binary.LittleEndian.Uint64(hdr[2:10]))
	serial := int32(binary.LittleEndian.Uint32(hdr[10:14]))
	pageNo := int64(binary.LittleEndian.Uint32(hdr[14:18]))
	// hdr[18:22] is the page CRC; not verified here.
	segCount := int(hdr[22])

	segTable := make([]byte, segCount)
	if _, err := io.ReadFull(d.r, segTable); err != nil {
		return Page{}, err
	}

	bodyLen := 0
	for _, s := range segTable {
		bodyLen += int(s)
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return Page{}, err
	}

	return Page{
		headerType: headerType,
		granule:    granule,
		serial:     serial,
		pageNo:     pageNo,
		segments:   segTable,
		body:       body,
	}, nil
}

// sync advances the reader to the next occurrence of the capture
// pattern.
func (d *Decoder) sync() error {
	var window [4]byte
	if _, err := io.ReadFull(d.r, window[:]); err != nil {
		return err
	}
	for string(window[:]) != capturePattern {
		b, err := d.r.ReadByte()
		if err != nil {
			return err
		}
		copy(window[:], window[1:])
		window[3] = b
	}
	return nil
}

var errSerialMismatch = errors.New("ogg: page serial doesn't match stream")
