// Package ingest adapts a raw socket (or any io.Reader) into a
// wire.MessageStream, pulling bytes with github.com/jackc/chunkreader/v2
// and logging connection-level events with zap.
package ingest

import (
	"context"
	"errors"
	"io"

	"github.com/jackc/chunkreader/v2"
	"go.uber.org/zap"

	"github.com/divyam234/pgwire/internal/wire"
)

// Puller pulls framed messages off a reader, one chunk at a time, and
// hands each chunk to a wire.MessageStream. chunkreader owns the pull
// buffer reuse so repeated small reads don't churn allocations.
type Puller struct {
	cr     *chunkreader.ChunkReader
	stream *wire.MessageStream
	log    *zap.Logger
}

// NewPuller wraps r with a chunkreader.ChunkReader feeding a fresh
// wire.MessageStream. A nil log disables logging.
func NewPuller(r io.Reader, log *zap.Logger) *Puller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Puller{
		cr:     chunkreader.New(r),
		stream: wire.NewMessageStream(),
		log:    log,
	}
}

// Stream returns the underlying buffer, for callers that want direct
// access to Read/HasMessage/Iterate.
func (p *Puller) Stream() *wire.MessageStream { return p.stream }

// fill pulls one chunk from the reader and writes it into the stream,
// returning io.EOF once the reader is exhausted.
func (p *Puller) fill() error {
	chunk, err := p.cr.Next(1)
	if err != nil {
		return err
	}
	// chunk aliases chunkreader's reused buffer, while MessageStream keeps
	// what it is given by reference, so hand it a copy.
	p.stream.Write(append([]byte(nil), chunk...))
	return nil
}

// Next blocks, pulling chunks from the reader as needed, until one
// complete message is available or the reader is exhausted/errors. It
// returns a zero Message and io.EOF once the reader is exhausted; a partial
// message still buffered at that point is not reported separately.
func (p *Puller) Next(ctx context.Context) (wire.Message, error) {
	for {
		if ctx.Err() != nil {
			return wire.Message{}, ctx.Err()
		}

		msg, ok, werr := p.stream.NextMessage()
		if werr != nil {
			p.log.Warn("malformed message header", zap.Error(werr))
			return wire.Message{}, werr
		}
		if ok {
			p.log.Debug("decoded message", zap.String("type", msg.Type.Name), zap.Int("payload_len", len(msg.Payload)))
			return msg, nil
		}

		if err := p.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				p.log.Debug("reader closed")
			} else {
				p.log.Warn("reader error", zap.Error(err))
			}
			return wire.Message{}, err
		}
	}
}

// DrainCopy pulls chunks from the reader, feeding each raw view to
// tracker.Update, until the tracker terminates (a non-'d' message
// appears) or the reader errors. It returns the tracker's final view —
// the bytes starting at the terminating message — so the caller can
// hand it back to a wire.MessageStream for normal framed decoding.
func DrainCopy(ctx context.Context, p *Puller, tracker *wire.WireTracker, log *zap.Logger) ([]byte, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		chunk, err := p.cr.Next(1)
		if err != nil {
			return nil, err
		}
		n, werr := tracker.Update(chunk)
		if werr != nil {
			return nil, werr
		}
		if n > 0 {
			log.Debug("copy messages consumed", zap.Uint32("count", n))
		}
		if view, done := tracker.FinalView(); done {
			return append([]byte(nil), view...), nil
		}
	}
}
