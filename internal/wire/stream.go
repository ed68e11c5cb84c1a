package wire

// Message is a single framed wire message as handed back by the stream
// buffer: a decoded type tag and its opaque payload (header and length
// prefix stripped).
type Message struct {
	Type    TypeTag
	Payload []byte
}

// ReadAll, passed to MessageStream.Read, means "as many complete messages
// as are currently buffered."
const ReadAll = -1

// MessageStream is the chunked stream buffer of spec.md §4.1: it accepts
// arbitrary-size byte pushes from a socket reader (via Write), identifies
// framed messages incrementally, and hands them out one at a time without
// ever concatenating the whole stream. It is not safe for concurrent use;
// per spec.md §5 each instance assumes a single, exclusive caller.
type MessageStream struct {
	chunks [][]byte // FIFO of pushed chunks; chunks[0] is the active one
	offset int      // read position within chunks[0]
}

// NewMessageStream returns an empty stream buffer.
func NewMessageStream() *MessageStream {
	return &MessageStream{}
}

// Write appends data to the tail of the buffer. Empty input is a no-op and
// never allocates a list node. The buffer retains data by reference; it is
// never copied and never mutated here, so callers must not mutate it after
// handing it to Write.
func (s *MessageStream) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	s.chunks = append(s.chunks, data)
}

// cursor is a non-owning, non-mutating read position: idx indexes into the
// stream's current chunk slice (0 is the active chunk, s.offset applies to
// it), off is the byte offset within chunks[idx].
type cursor struct {
	idx, off int
}

func (s *MessageStream) start() cursor { return cursor{idx: 0, off: s.offset} }

// atLeast reports whether at least n bytes are available starting at c,
// without mutating the buffer or the cursor.
func (s *MessageStream) atLeast(c cursor, n int) bool {
	if n <= 0 {
		return true
	}
	idx, off := c.idx, c.off
	for idx < len(s.chunks) {
		avail := len(s.chunks[idx]) - off
		if avail >= n {
			return true
		}
		n -= avail
		idx++
		off = 0
	}
	return false
}

// advance walks c forward by n bytes without copying, assuming the caller
// has already verified (via atLeast) that n bytes are available.
func (s *MessageStream) advance(c cursor, n int) cursor {
	for n > 0 {
		chunk := s.chunks[c.idx]
		avail := len(chunk) - c.off
		if n < avail {
			c.off += n
			return c
		}
		n -= avail
		c.idx++
		c.off = 0
	}
	return c
}

// copyN copies exactly n bytes starting at c into a freshly allocated
// slice (nil/empty for n == 0), returning the cursor positioned just past
// them. The caller must have verified availability first.
func (s *MessageStream) copyN(c cursor, n int) ([]byte, cursor) {
	if n == 0 {
		return []byte{}, c
	}
	dst := make([]byte, n)
	pos := 0
	for pos < n {
		chunk := s.chunks[c.idx]
		avail := len(chunk) - c.off
		take := n - pos
		if take > avail {
			take = avail
		}
		copy(dst[pos:pos+take], chunk[c.off:c.off+take])
		pos += take
		c.off += take
		if c.off == len(chunk) {
			c.idx++
			c.off = 0
		}
	}
	return dst, c
}

// commit installs c as the new read position, releasing references to any
// chunks now strictly before it so they can be collected promptly (per
// spec.md §5's memory discipline) rather than waiting on a future append
// to outgrow the backing array.
func (s *MessageStream) commit(c cursor) {
	for i := 0; i < c.idx; i++ {
		s.chunks[i] = nil
	}
	s.chunks = s.chunks[c.idx:]
	s.offset = c.off
	if len(s.chunks) == 0 {
		s.chunks = nil
		s.offset = 0
	}
}

// frameHeader decodes the 5-byte type+length header at cur without
// consulting the type registry: it is the framing-only step spec.md §4.1
// describes for has_message/length (step 6, "fails if the decoded length
// field is less than 4"), which is distinct from next_message's registry
// lookup (step 7). ok is false (nil error) when fewer than 5 bytes are
// buffered; a non-nil error means the length field itself is invalid.
func (s *MessageStream) frameHeader(cur cursor) (typeByte byte, payloadLen int, afterHeader cursor, ok bool, err *Error) {
	if !s.atLeast(cur, 5) {
		return 0, 0, cur, false, nil
	}
	header, after := s.copyN(cur, 5)
	length := Uint32BE(header[1:5])
	if length < 4 {
		return 0, 0, cur, false, newErr(KindInvalidMessageSize,
			"framed length %d is less than the 4-byte length field itself", length)
	}
	return header[0], int(length) - 4, after, true, nil
}

// peekFrame reports whether one complete framed message is available
// starting at cur, advancing past it without copying the payload or
// resolving its type byte through the registry. Used by HasMessage and Len,
// which per spec.md §4.1 only need length-field validity and byte
// availability, not the type lookup that's part of next_message alone.
func (s *MessageStream) peekFrame(cur cursor) (next cursor, ok bool, err *Error) {
	_, payloadLen, afterHeader, ok, err := s.frameHeader(cur)
	if err != nil || !ok {
		return cur, false, err
	}
	if !s.atLeast(afterHeader, payloadLen) {
		return cur, false, nil
	}
	return s.advance(afterHeader, payloadLen), true, nil
}

// peekNext attempts to decode one complete message starting at cur,
// without mutating the buffer. ok is false (with a nil error) when there
// is not yet enough data; a non-nil error means the header was malformed,
// in which case the caller must not advance the buffer's position.
func (s *MessageStream) peekNext(cur cursor) (msg Message, next cursor, ok bool, err *Error) {
	typeByte, payloadLen, afterHeader, ok, err := s.frameHeader(cur)
	if err != nil || !ok {
		return Message{}, cur, false, err
	}
	if !s.atLeast(afterHeader, payloadLen) {
		return Message{}, cur, false, nil
	}
	payload, afterPayload := s.copyN(afterHeader, payloadLen)

	tag, terr := TypeOf(typeByte)
	if terr != nil {
		return Message{}, cur, false, terr
	}
	return Message{Type: tag, Payload: payload}, afterPayload, true, nil
}

// HasMessage reports whether a complete framed message is available from
// the current read position. It does not consult the type registry, so an
// unregistered type byte does not make a fully-buffered message report
// false here (see NextMessage, which does resolve the type and can fail on
// one).
func (s *MessageStream) HasMessage() (bool, *Error) {
	_, ok, err := s.peekFrame(s.start())
	if err != nil {
		return false, err
	}
	return ok, nil
}

// NextMessage extracts and returns one complete message, advancing the
// read position and discarding now-unreachable chunks. ok is false when
// the buffer does not yet hold a complete message; the position is
// unchanged in that case, and also unchanged on error.
func (s *MessageStream) NextMessage() (msg Message, ok bool, err *Error) {
	msg, next, ok, err := s.peekNext(s.start())
	if err != nil || !ok {
		return Message{}, false, err
	}
	s.commit(next)
	return msg, true, nil
}

// Read extracts up to n complete messages (or all available ones, if n is
// ReadAll or exceeds what's buffered). Consumption commits exactly the
// messages returned; a malformed header aborts and returns the error
// without disturbing messages already decoded in this call... except that
// per spec.md §4.1 a failed operation must not advance the position at
// all, so on error nothing from this call is committed, not even earlier
// messages in the same batch.
func (s *MessageStream) Read(n int) ([]Message, *Error) {
	cur := s.start()
	var out []Message
	for n == ReadAll || len(out) < n {
		msg, next, ok, err := s.peekNext(cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, msg)
		cur = next
	}
	s.commit(cur)
	return out, nil
}

// Truncate discards all buffered data and resets the read position.
func (s *MessageStream) Truncate() {
	for i := range s.chunks {
		s.chunks[i] = nil
	}
	s.chunks = nil
	s.offset = 0
}

// GetValue returns a freshly allocated, contiguous copy of all unconsumed
// bytes from the current read position to the buffer's end. It is used
// when handing control of the wire to another framer, e.g. entering COPY
// mode where the wire tracker takes over raw byte views.
func (s *MessageStream) GetValue() []byte {
	total := 0
	if len(s.chunks) > 0 {
		total += len(s.chunks[0]) - s.offset
		for _, c := range s.chunks[1:] {
			total += len(c)
		}
	}
	out := make([]byte, 0, total)
	if len(s.chunks) > 0 {
		out = append(out, s.chunks[0][s.offset:]...)
		for _, c := range s.chunks[1:] {
			out = append(out, c...)
		}
	}
	return out
}

// Len reports the number of complete framed messages currently available
// from the current position, without consuming any of them or resolving any
// of their type bytes through the registry.
func (s *MessageStream) Len() (int, *Error) {
	cur := s.start()
	count := 0
	for {
		next, ok, err := s.peekFrame(cur)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		count++
		cur = next
	}
	return count, nil
}

// Iterator pulls messages one at a time from a MessageStream, stopping
// (Next returning ok=false) once the next message is incomplete or
// malformed. It is not restartable and shares the stream's read position,
// so advancing the iterator advances the stream.
type Iterator struct {
	s   *MessageStream
	err *Error
}

// Iterate returns an iterator equivalent to repeated calls to
// NextMessage, ending when the stream runs out of complete messages.
func (s *MessageStream) Iterate() *Iterator { return &Iterator{s: s} }

// Next returns the next message and true, or a zero Message and false once
// the stream is exhausted or the next header is malformed (check Err in
// the latter case).
func (it *Iterator) Next() (Message, bool) {
	msg, ok, err := it.s.NextMessage()
	if err != nil {
		it.err = err
		return Message{}, false
	}
	return msg, ok
}

// Err returns the error, if any, that ended iteration.
func (it *Iterator) Err() *Error { return it.err }
