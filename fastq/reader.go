package fastq

import (
	"io"
	"iter"
	"log/slog"

	"github.com/meigma/seqview/internal/framed"
	"github.com/meigma/seqview/metrics"
)

// Option configures a Reader.
type Option = framed.Option

// WithLogger sets the logger for reader events.
func WithLogger(logger *slog.Logger) Option {
	return framed.WithLogger(logger)
}

// WithMetrics records decoded records and failures on m.
func WithMetrics(m *metrics.Collector) Option {
	return framed.WithMetrics(m)
}

// WithCompactThreshold sets how many consumed bytes the read buffer holds
// before it drops them.
func WithCompactThreshold(n int) Option {
	return framed.WithBufferOptions(framed.WithCompactThreshold(n))
}

// WithReadBufferSize sets the size of the buffered reader wrapped around the
// source.
func WithReadBufferSize(n int) Option {
	return framed.WithBufferOptions(framed.WithReadBufferSize(n))
}

// Reader decodes FASTQ records from a stream. The first error halts the
// stream. A Reader is not safe for concurrent use.
type Reader struct {
	records *framed.Reader[Record]
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	cfg := framed.NewConfig(metrics.FormatFASTQ, opts...)
	buf := framed.NewBuffer(r, cfg.BufferOptions...)
	return &Reader{records: framed.NewReader(buf, Decode, framed.Lines, cfg)}
}

// Read returns the next record, io.EOF at the end of input, or the error
// that halted the stream.
func (r *Reader) Read() (Record, error) {
	return r.records.Next()
}

// All returns an iterator over the remaining records. Iteration ends after
// the first error.
func (r *Reader) All() iter.Seq2[Record, error] {
	return r.records.All()
}

// State returns the reader's lifecycle state.
func (r *Reader) State() framed.State {
	return r.records.State()
}

// Err returns the error that halted the stream, if any.
func (r *Reader) Err() error {
	return r.records.Err()
}
