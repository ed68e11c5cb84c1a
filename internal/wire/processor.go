package wire

// Processor transforms one decoded attribute's raw bytes into a
// caller-defined value (e.g. parsing an int4 column out of its 4 raw
// bytes). It is the callable half of spec.md §4.5's tuple-of-processors
// applicator.
type Processor func(raw []byte) (any, error)

// FailureGeneralizer turns a processor's error into the value-visible
// error for ProcessTuple/ProcessChunk, given the original cause, the
// processor vector, the input row, and the index that failed. This is
// the Go shape of the "user-supplied failure generalizer" in spec.md
// §4.5/§9 — a plain function value in place of a callback object.
type FailureGeneralizer func(cause error, processors []Processor, inputs Row, index int) error

// ProcessTuple applies processors[i] to inputs[i] for every i, except
// that a nil (ABSENT) input passes through unchanged rather than being
// handed to its processor. If any processor call fails, fail is invoked
// with (cause, processors, inputs, index) to produce the error returned
// to the caller; len(processors) must equal len(inputs) or the call fails
// with ArityMismatch before any processor runs.
func ProcessTuple(processors []Processor, inputs Row, fail FailureGeneralizer) ([]any, error) {
	if len(processors) != len(inputs) {
		return nil, wrapErr(KindArityMismatch, nil,
			"%d processors for %d input attributes", len(processors), len(inputs))
	}

	out := make([]any, len(inputs))
	for i, in := range inputs {
		if in == nil {
			out[i] = nil
			continue
		}
		v, err := processors[i](in)
		if err != nil {
			return nil, fail(err, processors, inputs, i)
		}
		out[i] = v
	}
	return out, nil
}

// ProcessChunk applies ProcessTuple to every row of rows, returning the
// transformed rows in order. Go slices are already random-access, so
// unlike the original's separate "new list" vs "from list" paths there is
// only one code path here; it's still named Chunk to mirror spec.md
// §4.5's "chunked variant."
func ProcessChunk(processors []Processor, rows []Row, fail FailureGeneralizer) ([][]any, error) {
	out := make([][]any, len(rows))
	for i, row := range rows {
		r, err := ProcessTuple(processors, row, fail)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Transform is one stage of a Compose pipeline.
type Transform func(any) (any, error)

// Compose threads input through fns in order, short-circuiting on the
// first error. It is carried over from original_source's functools.c
// "compose" (sequential callable composition) as a small, closely related
// utility; spec.md does not name it directly, but ProcessTuple's
// per-attribute application is itself a single-stage case of it, and it
// costs nothing extra to keep available.
func Compose(fns []Transform, input any) (any, error) {
	value := input
	for _, fn := range fns {
		v, err := fn(value)
		if err != nil {
			return nil, err
		}
		value = v
	}
	return value, nil
}
