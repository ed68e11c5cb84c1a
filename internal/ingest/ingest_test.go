package ingest

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/divyam234/pgwire/internal/wire"
)

func frame(typ byte, payload []byte) []byte {
	buf := []byte{typ}
	buf = wire.AppendUint32BE(buf, uint32(len(payload)+4))
	buf = append(buf, payload...)
	return buf
}

func TestPullerNextAssemblesSplitMessage(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame('Q', []byte("SELECT 1")))
	src.Write(frame('Q', []byte("SELECT 2")))

	p := NewPuller(&src, nil)
	ctx := context.Background()

	msg, err := p.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Type.Byte != 'Q' || string(msg.Payload) != "SELECT 1" {
		t.Fatalf("got %+v", msg)
	}

	msg2, err := p.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg2.Payload) != "SELECT 2" {
		t.Fatalf("got %+v", msg2)
	}

	if _, err := p.Next(ctx); err != io.EOF {
		t.Fatalf("got err=%v, want io.EOF", err)
	}
}

func TestPullerNextPropagatesMalformedHeader(t *testing.T) {
	bad := []byte{'Q', 0x00, 0x00, 0x00, 0x02} // length 2 < 4
	p := NewPuller(bytes.NewReader(bad), nil)

	_, err := p.Next(context.Background())
	if err == nil {
		t.Fatal("expected an error for a malformed header")
	}
}

func TestDrainCopyStopsAtTerminator(t *testing.T) {
	var src bytes.Buffer
	src.Write([]byte{'d', 0x00, 0x00, 0x00, 0x05, 'x'})
	src.Write([]byte{'C', 0x00, 0x00, 0x00, 0x04})

	p := NewPuller(&src, nil)
	tracker := wire.NewWireTracker()

	final, err := DrainCopy(context.Background(), p, tracker, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{'C', 0x00, 0x00, 0x00, 0x04}
	if !bytes.Equal(final, want) {
		t.Errorf("got %x, want %x", final, want)
	}
}
