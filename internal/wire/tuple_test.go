package wire

import (
	"bytes"
	"testing"
)

func TestPackRowAbsentAndEmpty(t *testing.T) {
	row := Row{[]byte("hi"), nil, []byte("")}
	got, err := PackRow(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{
		0x00, 0x00, 0x00, 0x02, 'h', 'i',
		0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestPackRowEmptyRow(t *testing.T) {
	got, err := PackRow(Row{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %x, want empty", got)
	}
}

func TestParseRowRoundTrip(t *testing.T) {
	row := Row{[]byte("a"), nil, []byte("bcd")}
	packed, err := PackRow(row)
	if err != nil {
		t.Fatalf("PackRow: %v", err)
	}

	payload := AppendUint16BE(nil, uint16(len(row)))
	payload = append(payload, packed...)

	got, perr := ParseRow(payload)
	if perr != nil {
		t.Fatalf("ParseRow: %v", perr)
	}
	if len(got) != 3 || got[1] != nil {
		t.Fatalf("got %v, want 3 attrs with attr[1] absent", got)
	}
	if string(got[0]) != "a" || string(got[2]) != "bcd" {
		t.Errorf("got %q %q, want a bcd", got[0], got[2])
	}
}

func TestParseRowTruncatedHeader(t *testing.T) {
	_, err := ParseRow([]byte{0x00})
	if err == nil || err.Kind != KindTruncatedHeader {
		t.Fatalf("got err=%v, want KindTruncatedHeader", err)
	}
}

func TestParseRowTruncatedAttrSize(t *testing.T) {
	payload := AppendUint16BE(nil, 1)
	payload = append(payload, 0x00, 0x00) // only 2 of 4 size bytes
	_, err := ParseRow(payload)
	if err == nil || err.Kind != KindTruncatedAttrSize {
		t.Fatalf("got err=%v, want KindTruncatedAttrSize", err)
	}
}

func TestParseRowInvalidAttrSize(t *testing.T) {
	payload := AppendUint16BE(nil, 1)
	payload = AppendUint32BE(payload, 100) // declares far more than remains
	_, err := ParseRow(payload)
	if err == nil || err.Kind != KindInvalidAttrSize {
		t.Fatalf("got err=%v, want KindInvalidAttrSize", err)
	}
}

func TestParseRowTrailingBytes(t *testing.T) {
	payload := AppendUint16BE(nil, 0)
	payload = append(payload, 0xFF) // extra byte after zero attributes
	_, err := ParseRow(payload)
	if err == nil || err.Kind != KindTrailingBytes {
		t.Fatalf("got err=%v, want KindTrailingBytes", err)
	}
}

func TestConsumeTupleMessagesStopsAtNonD(t *testing.T) {
	rowPayload := AppendUint16BE(nil, 0)
	msgs := []Message{
		{Type: TypeTag{Byte: 'D'}, Payload: rowPayload},
		{Type: TypeTag{Byte: 'D'}, Payload: rowPayload},
		{Type: TypeTag{Byte: 'C'}, Payload: []byte("SELECT 2")},
	}
	rows, err := ConsumeTupleMessages(msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestConsumeTupleMessagesMalformedFailsWhole(t *testing.T) {
	msgs := []Message{
		{Type: TypeTag{Byte: 'D'}, Payload: []byte{0x00}}, // truncated
	}
	_, err := ConsumeTupleMessages(msgs)
	if err == nil {
		t.Fatal("expected error for malformed tuple payload")
	}
}
