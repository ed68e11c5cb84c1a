package wire

import (
	"errors"
	"fmt"
	"testing"
)

func parseInt4(raw []byte) (any, error) {
	if len(raw) != 4 {
		return nil, errors.New("int4 wants exactly 4 bytes")
	}
	return int32(Uint32BE(raw)), nil
}

func upperFailure(cause error, processors []Processor, inputs Row, index int) error {
	return fmt.Errorf("attribute %d: %w", index, cause)
}

func TestProcessTupleAbsentPassthrough(t *testing.T) {
	row := Row{AppendUint32BE(nil, 7), nil}
	out, err := ProcessTuple([]Processor{parseInt4, parseInt4}, row, upperFailure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].(int32) != 7 {
		t.Errorf("out[0] = %v, want 7", out[0])
	}
	if out[1] != nil {
		t.Errorf("out[1] = %v, want nil (ABSENT passthrough)", out[1])
	}
}

func TestProcessTupleArityMismatch(t *testing.T) {
	_, err := ProcessTuple([]Processor{parseInt4}, Row{nil, nil}, upperFailure)
	if err == nil {
		t.Fatal("expected an arity mismatch error")
	}
	var werr *Error
	if !errors.As(err, &werr) || werr.Kind != KindArityMismatch {
		t.Fatalf("got err=%v, want KindArityMismatch", err)
	}
}

func TestProcessTupleProcessorFailureGeneralized(t *testing.T) {
	row := Row{[]byte{0x01, 0x02}} // too short for parseInt4
	_, err := ProcessTuple([]Processor{parseInt4}, row, upperFailure)
	if err == nil {
		t.Fatal("expected a processor error")
	}
}

func TestProcessChunk(t *testing.T) {
	rows := []Row{
		{AppendUint32BE(nil, 1)},
		{AppendUint32BE(nil, 2)},
	}
	out, err := ProcessChunk([]Processor{parseInt4}, rows, upperFailure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0][0].(int32) != 1 || out[1][0].(int32) != 2 {
		t.Errorf("got %v", out)
	}
}

func TestCompose(t *testing.T) {
	double := func(v any) (any, error) { return v.(int) * 2, nil }
	addOne := func(v any) (any, error) { return v.(int) + 1, nil }

	out, err := Compose([]Transform{double, addOne}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int) != 7 {
		t.Errorf("Compose result = %v, want 7", out)
	}
}

func TestComposeShortCircuitsOnError(t *testing.T) {
	fails := func(v any) (any, error) { return nil, errors.New("boom") }
	neverRuns := func(v any) (any, error) {
		t.Fatal("should not run after an earlier stage failed")
		return v, nil
	}
	_, err := Compose([]Transform{fails, neverRuns}, 1)
	if err == nil {
		t.Fatal("expected an error")
	}
}
