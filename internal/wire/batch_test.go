package wire

import (
	"bytes"
	"testing"
)

type fakeQuery struct{ sql string }

func (fakeQuery) MessageType() []byte          { return []byte{'Q'} }
func (f fakeQuery) Serialize() ([]byte, error) { return []byte(f.sql), nil }

func TestCatMessagesRawRun(t *testing.T) {
	got, err := CatMessages([]any{[]byte("A"), []byte("BC")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{
		'd', 0x00, 0x00, 0x00, 0x05, 'A',
		'd', 0x00, 0x00, 0x00, 0x06, 'B', 'C',
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestCatMessagesRow(t *testing.T) {
	got, err := CatMessages([]any{Row{[]byte("x")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{
		'D', 0x00, 0x00, 0x00, 0x0B, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 'x',
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestCatMessagesGeneric(t *testing.T) {
	got, err := CatMessages([]any{fakeQuery{sql: "SEL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{'Q', 0x00, 0x00, 0x00, 0x07, 'S', 'E', 'L'}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestCatMessagesMixedRuns(t *testing.T) {
	got, err := CatMessages([]any{[]byte("A"), Row{[]byte("x")}, fakeQuery{sql: "SEL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var want []byte
	want = append(want, 'd', 0x00, 0x00, 0x00, 0x05, 'A')
	want = append(want, 'D', 0x00, 0x00, 0x00, 0x0B, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 'x')
	want = append(want, 'Q', 0x00, 0x00, 0x00, 0x07, 'S', 'E', 'L')
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestCatMessagesUnsupportedType(t *testing.T) {
	_, err := CatMessages([]any{42})
	if err == nil || err.Kind != KindTypeMismatch {
		t.Fatalf("got err=%v, want KindTypeMismatch", err)
	}
}

func TestCatMessagesEmpty(t *testing.T) {
	got, err := CatMessages(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %x, want empty", got)
	}
}

func TestCatMessagesRowAttributeCountOverflow(t *testing.T) {
	row := make(Row, 0x10000) // one past the 16-bit attribute count limit
	_, err := CatMessages([]any{row})
	if err == nil || err.Kind != KindOverflow {
		t.Fatalf("got err=%v, want KindOverflow", err)
	}
}
