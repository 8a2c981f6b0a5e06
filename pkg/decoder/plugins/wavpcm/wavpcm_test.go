package wavpcm

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/rillplay/engine/pkg/audio/soundparams"
)

// buildWAV constructs a minimal 16-bit PCM WAV file with the given
// sample rate, channel count and raw PCM payload.
func buildWAV(t *testing.T, sampleRate, channels int, pcm []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+24+8+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

func TestCanDecodeRecognizesRIFFWAVE(t *testing.T) {
	wav := buildWAV(t, 44100, 2, []byte{1, 2, 3, 4})
	p := New()
	if !p.CanDecode(wav[:32]) {
		t.Error("CanDecode should accept a RIFF/WAVE header")
	}
	if p.CanDecode([]byte("not a wav file at all")) {
		t.Error("CanDecode should reject non-WAV data")
	}
}

func TestOpenStreamDecodesPCMAndParams(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	wav := buildWAV(t, 48000, 2, pcm)

	p := New()
	inst, err := p.OpenStream(&fakeStream{Reader: bytes.NewReader(wav)})
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	dst := make([]byte, 1024)
	n, params, err := inst.Decode(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst[:n], pcm) {
		t.Errorf("decoded %v, want %v", dst[:n], pcm)
	}
	want := soundparams.Params{Encoding: soundparams.S16LE, SampleRate: 48000, Channels: 2}
	if params != want {
		t.Errorf("params = %+v, want %+v", params, want)
	}

	n, _, err = inst.Decode(dst)
	if n != 0 || err != nil {
		t.Errorf("second Decode = %d, %v, want 0, nil (EOF)", n, err)
	}
}

func TestOpenStreamRejectsNonWAV(t *testing.T) {
	p := New()
	_, err := p.OpenStream(&fakeStream{Reader: bytes.NewReader([]byte("garbage"))})
	if err == nil {
		t.Error("expected an error opening a non-WAV stream")
	}
}

type fakeStream struct {
	io.Reader
}

func (fakeStream) Peek(max int) ([]byte, error) { return nil, nil }
func (fakeStream) MIMEType() string             { return "" }
