package bam

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/meigma/seqview/internal/framed"
	"github.com/meigma/seqview/metrics"
)

// State is the position of a Reader in the stream layout.
type State uint8

// Reader states. Header and Reference are only observable while NewReader
// runs; a returned Reader starts in StateAlignment.
const (
	StateHeader State = iota
	StateReference
	StateAlignment
	StateComplete
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateHeader:
		return "header"
	case StateReference:
		return "reference"
	case StateAlignment:
		return "alignment"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reader decodes a BAM stream record by record.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	header  Header
	refs    []Reference
	records *framed.Reader[*Record]
	logger  *slog.Logger
}

// NewReader reads the header and reference catalog from r and returns a
// Reader positioned at the first alignment record.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := framed.NewConfig(metrics.FormatBAM, opts...)
	buf := framed.NewBuffer(r, cfg.BufferOptions...)
	logger := cfg.Log()

	logger.Debug("reading header", "state", StateHeader)
	header, err := framed.Decode(buf, decodeHeader, framed.AtLeast)
	if err != nil {
		cfg.Metrics.RecordFailure(cfg.Format)
		return nil, eofIsTruncation(err, "header")
	}

	var refs []Reference
	if header.NumRefs > 0 {
		logger.Debug("reading reference catalog", "state", StateReference, "count", header.NumRefs)
		refs = make([]Reference, 0, min(header.NumRefs, 1<<16))
		for i := range header.NumRefs {
			ref, err := framed.Decode(buf, decodeReference, framed.AtLeast)
			if err != nil {
				cfg.Metrics.RecordFailure(cfg.Format)
				return nil, fmt.Errorf("reference %d: %w", i, eofIsTruncation(err, "reference catalog"))
			}
			refs = append(refs, ref)
		}
	}
	buf.Compact()

	br := &Reader{
		header: header,
		refs:   refs,
		logger: logger,
	}
	br.records = framed.NewReader(buf, br.decodeAlignment, blockRefill, cfg)
	logger.Debug("reading alignments", "state", StateAlignment, "offset", buf.Offset())
	return br, nil
}

func decodeHeader(b []byte, _ bool) (Header, int, error) {
	return DecodeHeader(b)
}

func decodeReference(b []byte, _ bool) (Reference, int, error) {
	return DecodeReference(b)
}

func (r *Reader) decodeAlignment(b []byte, _ bool) (*Record, int, error) {
	return DecodeAlignment(b, r.refs)
}

// eofIsTruncation maps a clean end of input inside the header or catalog to
// a truncation error.
func eofIsTruncation(err error, what string) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: input ends before %s", ErrUnexpectedEOF, what)
	}
	return err
}

// blockRefill pulls exactly the 4-byte block length and then exactly the
// declared block. A source that ends inside either is a truncated record.
func blockRefill(b *framed.Buffer, need int) error {
	if b.Len() < 4 {
		err := b.ReadFull(4 - b.Len())
		switch {
		case err == nil:
			return nil
		case errors.Is(err, io.EOF) && b.Len() == 0:
			return io.EOF
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return fmt.Errorf("%w: truncated block length at offset %d", ErrUnexpectedEOF, b.Offset())
		default:
			return err
		}
	}
	if err := b.ReadFull(need); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: alignment block at offset %d is missing bytes", ErrUnexpectedEOF, b.Offset())
		}
		return err
	}
	return nil
}

// Header returns the decoded header.
func (r *Reader) Header() Header {
	return r.header
}

// References returns the reference catalog. The slice must not be modified.
func (r *Reader) References() []Reference {
	return r.refs
}

// Read returns the next record, io.EOF once the stream is exhausted, or the
// error that halted the stream. After any error every call returns io.EOF.
func (r *Reader) Read() (*Record, error) {
	return r.records.Next()
}

// All returns an iterator over the remaining records. Iteration ends after
// the first error.
func (r *Reader) All() iter.Seq2[*Record, error] {
	return r.records.All()
}

// State returns the reader's current state.
func (r *Reader) State() State {
	switch r.records.State() {
	case framed.StateReading:
		return StateAlignment
	case framed.StateComplete:
		return StateComplete
	case framed.StateFailed:
		return StateFailed
	default:
		return StateFailed
	}
}

// Err returns the error that halted the stream, if any.
func (r *Reader) Err() error {
	return r.records.Err()
}
