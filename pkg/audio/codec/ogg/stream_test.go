package ogg

import (
	"bytes"
	"testing"
)

func TestStreamStateReassemblesMultiplePacketsInOnePage(t *testing.T) {
	page := buildPage(BOS, 10, 7, 0, []byte("first"), []byte("second"))
	pageStruct := mustParsePage(t, page)

	ss, err := NewStreamState(7)
	if err != nil {
		t.Fatalf("NewStreamState: %v", err)
	}
	if err := ss.PageIn(pageStruct); err != nil {
		t.Fatalf("PageIn: %v", err)
	}

	var p Packet
	if err := ss.PacketOut(&p); err != nil {
		t.Fatalf("PacketOut: %v", err)
	}
	if !bytes.Equal(p.Data(), []byte("first")) || !p.BOS() {
		t.Errorf("first packet = %q bos=%v, want %q bos=true", p.Data(), p.BOS(), "first")
	}

	if err := ss.PacketOut(&p); err != nil {
		t.Fatalf("PacketOut: %v", err)
	}
	if !bytes.Equal(p.Data(), []byte("second")) || p.BOS() {
		t.Errorf("second packet = %q bos=%v, want %q bos=false", p.Data(), p.BOS(), "second")
	}

	if err := ss.PacketOut(&p); err != ErrNoPacket {
		t.Errorf("PacketOut after draining = %v, want ErrNoPacket", err)
	}
}

func TestStreamStateReassemblesPacketContinuedAcrossPages(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 510) // exactly two 255-byte lacing segments, no terminator

	page0 := mustParsePage(t, buildContinuedPage(BOS, 0, 1, 0, big))
	page1 := mustParsePage(t, buildPage(0, 48, 1, 1, []byte("tail")))

	ss, err := NewStreamState(1)
	if err != nil {
		t.Fatalf("NewStreamState: %v", err)
	}
	if err := ss.PageIn(page0); err != nil {
		t.Fatalf("PageIn(page0): %v", err)
	}

	var p Packet
	if err := ss.PacketOut(&p); err != ErrNoPacket {
		t.Fatalf("PacketOut before continuation completes = %v, want ErrNoPacket", err)
	}

	if err := ss.PageIn(page1); err != nil {
		t.Fatalf("PageIn(page1): %v", err)
	}
	if err := ss.PacketOut(&p); err != nil {
		t.Fatalf("PacketOut: %v", err)
	}
	want := append(append([]byte{}, big...), []byte("tail")...)
	if !bytes.Equal(p.Data(), want) {
		t.Errorf("reassembled packet len = %d, want %d", len(p.Data()), len(want))
	}
}

func TestStreamStatePacketOutReportsHoleAfterPageGap(t *testing.T) {
	page0 := mustParsePage(t, buildPage(BOS, 0, 1, 0, []byte("a")))
	page2 := mustParsePage(t, buildPage(0, 0, 1, 2, []byte("c"))) // page 1 missing

	ss, err := NewStreamState(1)
	if err != nil {
		t.Fatalf("NewStreamState: %v", err)
	}
	if err := ss.PageIn(page0); err != nil {
		t.Fatalf("PageIn(page0): %v", err)
	}
	var p Packet
	if err := ss.PacketOut(&p); err != nil {
		t.Fatalf("PacketOut: %v", err)
	}

	if err := ss.PageIn(page2); err != nil {
		t.Fatalf("PageIn(page2): %v", err)
	}
	if err := ss.PacketOut(&p); err != ErrHole {
		t.Errorf("PacketOut after page gap = %v, want ErrHole", err)
	}
	if err := ss.PacketOut(&p); err != nil {
		t.Fatalf("PacketOut after hole consumed: %v", err)
	}
	if !bytes.Equal(p.Data(), []byte("c")) {
		t.Errorf("Data() = %q, want %q", p.Data(), "c")
	}
}

func mustParsePage(t *testing.T, raw []byte) Page {
	t.Helper()
	dec, err := NewDecoder(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	page, err := dec.ReadPage()
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	return page
}
