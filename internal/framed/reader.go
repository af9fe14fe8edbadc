package framed

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/meigma/seqview/internal/seqtype"
	"github.com/meigma/seqview/metrics"
)

// Decoder attempts to decode one value from the start of data.
//
// On success it returns the value and the number of bytes it accepted. When
// data ends before a complete value it returns a *seqtype.ShortError; atEOF
// tells it no further input will arrive. It may return io.EOF when the
// remaining input holds no further value. Any other error is fatal.
type Decoder[T any] func(data []byte, atEOF bool) (T, int, error)

// Refill pulls more input into b after a decoder asked for need more bytes.
// Returning io.EOF or io.ErrUnexpectedEOF marks the source exhausted and
// lets the decoder make a final attempt; other errors are fatal.
type Refill func(b *Buffer, need int) error

// AtLeast pulls exactly the requested number of bytes.
func AtLeast(b *Buffer, need int) error {
	return b.ReadFull(need)
}

// Lines pulls whole lines, at least one, until the buffer has about doubled.
// Text decoders rescan a record from its first line on every attempt, so
// growing geometrically keeps a long record linear to decode.
func Lines(b *Buffer, _ int) error {
	target := b.Len()
	got := 0
	for {
		n, err := b.ReadLine()
		got += n
		switch {
		case errors.Is(err, io.EOF) && got > 0:
			return nil
		case err != nil:
			return err
		case got >= target || b.EOF():
			return nil
		}
	}
}

// State is the lifecycle of a Reader.
type State uint8

const (
	// StateReading means further values may be produced.
	StateReading State = iota

	// StateComplete means the source was exhausted cleanly.
	StateComplete

	// StateFailed means a fatal error ended the stream.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Decode runs decode against buf, refilling until it produces a value, fails,
// or the source ends. Clean exhaustion with an empty buffer yields io.EOF;
// exhaustion with leftover bytes yields seqtype.ErrUnexpectedEOF.
func Decode[T any](buf *Buffer, decode Decoder[T], refill Refill) (T, error) {
	var zero T
	for {
		v, n, err := decode(buf.Bytes(), buf.EOF())
		if err == nil {
			buf.Advance(n)
			return v, nil
		}
		if errors.Is(err, io.EOF) {
			return zero, io.EOF
		}
		short, ok := seqtype.AsShort(err)
		if !ok {
			return zero, err
		}
		if buf.EOF() {
			if buf.Len() == 0 {
				return zero, io.EOF
			}
			return zero, fmt.Errorf("%w: %d bytes left at offset %d", seqtype.ErrUnexpectedEOF, buf.Len(), buf.Offset())
		}
		if err := refill(buf, short.Need); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				continue
			}
			if errors.Is(err, seqtype.ErrUnexpectedEOF) {
				return zero, err
			}
			return zero, fmt.Errorf("read input at offset %d: %w", buf.Offset(), err)
		}
	}
}

// Reader produces values from a Buffer until the source is exhausted or a
// decode fails. It is an exhaustible producer: after Complete or Failed every
// call to Next returns io.EOF.
type Reader[T any] struct {
	buf     *Buffer
	decode  Decoder[T]
	refill  Refill
	state   State
	err     error
	format  string
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewReader creates a Reader over buf.
func NewReader[T any](buf *Buffer, decode Decoder[T], refill Refill, cfg Config) *Reader[T] {
	return &Reader[T]{
		buf:     buf,
		decode:  decode,
		refill:  refill,
		format:  cfg.Format,
		logger:  cfg.Log(),
		metrics: cfg.Metrics,
	}
}

// Next returns the next value, io.EOF at the end of input, or the fatal
// error that ended the stream.
func (r *Reader[T]) Next() (T, error) {
	var zero T
	if r.state != StateReading {
		return zero, io.EOF
	}
	v, err := Decode(r.buf, r.decode, r.refill)
	switch {
	case err == nil:
		r.metrics.RecordDecoded(r.format)
		if r.buf.Compact() {
			r.metrics.RecordCompaction(r.format)
			r.logger.Debug("compacted read buffer", "offset", r.buf.Offset())
		}
		return v, nil
	case errors.Is(err, io.EOF):
		r.state = StateComplete
		r.logger.Debug("input exhausted", "offset", r.buf.Offset())
		return zero, io.EOF
	default:
		r.state = StateFailed
		r.err = err
		r.metrics.RecordFailure(r.format)
		r.logger.Warn("decode failed", "offset", r.buf.Offset(), "error", err)
		return zero, err
	}
}

// All returns an iterator over the remaining values. Iteration stops after
// the first error, which is yielded with a zero value.
func (r *Reader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := r.Next()
			if err == io.EOF { //nolint:errorlint // Next returns io.EOF unwrapped
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// State returns the reader's lifecycle state.
func (r *Reader[T]) State() State {
	return r.state
}

// Err returns the error that moved the reader to StateFailed, if any.
func (r *Reader[T]) Err() error {
	return r.err
}

// Buffer returns the underlying buffer.
func (r *Reader[T]) Buffer() *Buffer {
	return r.buf
}
