package wire

// Row is an ordered tuple attribute vector: a nil element is ABSENT (SQL
// NULL, the wire's 0xFFFFFFFF sentinel); a non-nil element, including an
// empty one, is present with that many value bytes.
type Row [][]byte

const nullSentinel uint32 = 0xFFFFFFFF

// maxAttrSize is the largest value an attribute may carry; 0xFFFFFFFF is
// reserved for the NULL sentinel, so the true limit is one less.
const maxAttrSize = 0xFFFFFFFE

// PackRow serializes row per spec.md §4.2: a concatenation of, for each
// attribute, either the NULL sentinel or a big-endian length followed by
// the value bytes. An empty row yields an empty slice.
func PackRow(row Row) ([]byte, *Error) {
	if len(row) == 0 {
		return []byte{}, nil
	}

	size := 0
	for i, v := range row {
		if v == nil {
			size += 4
			continue
		}
		if len(v) > maxAttrSize {
			return nil, newErr(KindOverflow, "attribute %d size %d exceeds capacity %d", i, len(v), maxAttrSize)
		}
		size += 4 + len(v)
	}

	buf := make([]byte, 0, size)
	for _, v := range row {
		if v == nil {
			buf = AppendUint32BE(buf, nullSentinel)
			continue
		}
		buf = AppendUint32BE(buf, uint32(len(v)))
		buf = append(buf, v...)
	}
	return buf, nil
}

// ParseRow decodes a 'D' message payload per spec.md §4.2: a 16-bit
// attribute count followed by that many length-prefixed fields. Returned
// attribute slices are views into data, not copies; callers that retain a
// Row past the lifetime of data should copy it themselves.
func ParseRow(data []byte) (Row, *Error) {
	if len(data) < 2 {
		return nil, newErr(KindTruncatedHeader, "tuple payload is %d bytes, need at least 2 for the attribute count", len(data))
	}
	natts := Uint16BE(data[:2])
	row := make(Row, natts)
	pos := 2

	for i := 0; i < int(natts); i++ {
		remaining := len(data) - pos
		if remaining < 4 {
			return nil, newErr(KindTruncatedAttrSize,
				"attribute %d's size header needs 4 bytes, only %d remain", i, remaining)
		}
		length := Uint32BE(data[pos : pos+4])
		pos += 4

		if length == nullSentinel {
			row[i] = nil
			continue
		}

		if uint64(length) > uint64(len(data)-pos) {
			return nil, newErr(KindInvalidAttrSize, "attribute %d has invalid size %d", i, length)
		}

		end := pos + int(length)
		row[i] = data[pos:end]
		pos = end
	}

	if pos != len(data) {
		return nil, newErr(KindTrailingBytes,
			"%d bytes remain after processing %d attributes", len(data)-pos, natts)
	}

	return row, nil
}

// ConsumeTupleMessages decodes the leading run of 'D'-typed messages in
// msgs via ParseRow, stopping (without error) at the first non-'D'
// message. A malformed 'D' payload anywhere in the run fails the whole
// call, per spec.md §4.2.
func ConsumeTupleMessages(msgs []Message) ([]Row, *Error) {
	out := make([]Row, 0, len(msgs))
	for _, m := range msgs {
		if m.Type.Byte != 'D' {
			break
		}
		row, err := ParseRow(m.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
