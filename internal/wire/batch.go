package wire

// OutgoingMessage is the capability interface spec.md §9's Design Notes
// recommend in place of the original's duck-typed ".type"/".serialize()"
// attribute access: a message supplies its own type byte (or none, for
// the startup message, which has no type byte at all) and its own
// payload, and CatMessages does the framing.
type OutgoingMessage interface {
	// MessageType returns the message's single type byte as a one-element
	// slice, or an empty slice for a message with no type byte (e.g. the
	// startup message).
	MessageType() []byte
	// Serialize returns the message's payload, without any type or
	// length prefix.
	Serialize() ([]byte, error)
}

// CatMessages flattens a heterogeneous sequence of outgoing elements —
// raw COPY payloads ([]byte), tuple rows (Row, framed as 'D'), and
// OutgoingMessage values — into one contiguous outgoing buffer, per
// spec.md §4.4. It walks the input in runs of homogeneous element kinds,
// sizing each run before writing it so that the run's framing overhead is
// allocated once rather than on every append.
//
// Row attributes are already statically constrained to []byte-or-nil by
// Go's type system, so unlike the original there is no dynamic
// "non-bytes attribute" check to perform for that variant — the compiler
// already rejects it.
func CatMessages(elements []any) ([]byte, *Error) {
	var buf []byte
	i, n := 0, len(elements)

	for i < n {
		switch elements[i].(type) {
		case []byte:
			run, next, err := catRawRun(elements, i, n)
			if err != nil {
				return nil, err
			}
			buf = append(buf, run...)
			i = next

		case Row:
			run, next, err := catRowRun(elements, i, n)
			if err != nil {
				return nil, err
			}
			buf = append(buf, run...)
			i = next

		case OutgoingMessage:
			msg := elements[i].(OutgoingMessage)
			framed, err := catGenericMessage(msg, i)
			if err != nil {
				return nil, err
			}
			buf = append(buf, framed...)
			i++

		default:
			return nil, newErr(KindTypeMismatch, "element %d has unsupported type %T", i, elements[i])
		}
	}

	if buf == nil {
		return []byte{}, nil
	}
	return buf, nil
}

// catRawRun frames the maximal run of []byte elements starting at i as
// 'd' (COPY data) messages, returning the serialized run and the index of
// the first element past it.
func catRawRun(elements []any, i, n int) ([]byte, int, *Error) {
	j := i
	size := 0
	for j < n {
		b, ok := elements[j].([]byte)
		if !ok {
			break
		}
		size += 5 + len(b) // type byte + 4-byte length + payload
		j++
	}

	run := make([]byte, 0, size)
	for k := i; k < j; k++ {
		b := elements[k].([]byte)
		run = append(run, 'd')
		run = AppendUint32BE(run, uint32(len(b)+4))
		run = append(run, b...)
	}
	return run, j, nil
}

// catRowRun frames the maximal run of Row elements starting at i as 'D'
// (tuple data) messages.
func catRowRun(elements []any, i, n int) ([]byte, int, *Error) {
	j := i
	size := 0
	for j < n {
		row, ok := elements[j].(Row)
		if !ok {
			break
		}
		if len(row) > 0xFFFF {
			return nil, 0, newErr(KindOverflow, "tuple message at index %d has %d attributes, exceeding 65535", j, len(row))
		}
		rowSize := 1 + 4 + 2 // type + length + attribute count
		for _, v := range row {
			if v == nil {
				rowSize += 4
			} else {
				rowSize += 4 + len(v)
			}
		}
		size += rowSize
		j++
	}

	run := make([]byte, 0, size)
	for k := i; k < j; k++ {
		row := elements[k].(Row)

		msgLen := uint32(4 + 2)
		for idx, v := range row {
			if v == nil {
				msgLen += 4
				continue
			}
			if len(v) > maxAttrSize {
				return nil, 0, newErr(KindOverflow, "tuple message %d, attribute %d size %d exceeds capacity", k, idx, len(v))
			}
			next := msgLen + uint32(4+len(v))
			if next < msgLen {
				return nil, 0, newErr(KindOverflow, "tuple message %d exceeds maximum message size", k)
			}
			msgLen = next
		}

		run = append(run, 'D')
		run = AppendUint32BE(run, msgLen)
		run = AppendUint16BE(run, uint16(len(row)))
		for _, v := range row {
			if v == nil {
				run = AppendUint32BE(run, nullSentinel)
				continue
			}
			run = AppendUint32BE(run, uint32(len(v)))
			run = append(run, v...)
		}
	}
	return run, j, nil
}

// catGenericMessage frames a single OutgoingMessage, calling Serialize and
// reading its type byte.
func catGenericMessage(msg OutgoingMessage, index int) ([]byte, *Error) {
	payload, serr := msg.Serialize()
	if serr != nil {
		return nil, wrapErr(KindTypeMismatch, serr, "element %d: serialize failed", index)
	}
	typ := msg.MessageType()
	if len(typ) > 1 {
		return nil, newErr(KindTypeMismatch, "element %d: message type must be 0 or 1 bytes, got %d", index, len(typ))
	}

	totalLen := uint64(len(payload)) + 4
	if totalLen > 0xFFFFFFFF {
		return nil, newErr(KindOverflow, "element %d: message length %d overflows a 32-bit frame", index, totalLen)
	}

	out := make([]byte, 0, len(typ)+4+len(payload))
	out = append(out, typ...)
	out = AppendUint32BE(out, uint32(totalLen))
	out = append(out, payload...)
	return out, nil
}
