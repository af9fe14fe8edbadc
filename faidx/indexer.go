package faidx

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/meigma/seqview/fasta"
	"github.com/meigma/seqview/fastq"
	"github.com/meigma/seqview/internal/framed"
	"github.com/meigma/seqview/metrics"
)

// Option configures an Indexer or Build.
type Option = framed.Option

// WithLogger sets the logger for index events.
func WithLogger(logger *slog.Logger) Option {
	return framed.WithLogger(logger)
}

// WithMetrics counts indexed entries on m.
func WithMetrics(m *metrics.Collector) Option {
	return framed.WithMetrics(m)
}

// WithReadBufferSize sets the size of the buffered reader used to scan.
func WithReadBufferSize(n int) Option {
	return framed.WithBufferOptions(framed.WithReadBufferSize(n))
}

// Indexer scans a seekable FASTA or FASTQ source and produces one Entry per
// record. FASTQ quality blocks are skipped by seeking rather than reading.
//
// An Indexer is an exhaustible producer: after the last record, or after an
// error, Next returns the empty Entry.
type Indexer struct {
	rs     io.ReadSeeker
	br     *bufio.Reader
	format Format
	pos    int64
	done   bool

	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewIndexer returns an Indexer that scans rs from its current position.
func NewIndexer(rs io.ReadSeeker, format Format, opts ...Option) (*Indexer, error) {
	if !format.valid() {
		return nil, fmt.Errorf("faidx: unsupported format %d", format)
	}
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locate scan start: %w", err)
	}
	cfg := framed.NewConfig(format.String(), opts...)
	return &Indexer{
		rs:      rs,
		br:      bufio.NewReaderSize(rs, cfg.ReadBufferSize()),
		format:  format,
		pos:     pos,
		logger:  cfg.Log(),
		metrics: cfg.Metrics,
	}, nil
}

// Next returns the next entry. The empty Entry marks the end of the scan
// and is returned for every later call. The first error also ends the scan.
func (ix *Indexer) Next() (Entry, error) {
	if ix.done {
		return Entry{}, nil
	}
	var (
		e   Entry
		err error
	)
	if ix.format == FASTQ {
		e, err = ix.nextFASTQ()
	} else {
		e, err = ix.nextFASTA()
	}
	if err != nil || e.IsZero() {
		ix.done = true
	}
	if err != nil {
		ix.logger.Warn("index scan failed", "offset", ix.pos, "error", err)
		return Entry{}, err
	}
	if !e.IsZero() {
		ix.metrics.RecordIndexed(ix.format.String())
		ix.logger.Debug("indexed record", "name", e.Name, "length", e.Length, "offset", e.Offset)
	}
	return e, nil
}

// All returns an iterator over the remaining entries. Iteration ends at the
// empty entry or after the first error.
func (ix *Indexer) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			e, err := ix.Next()
			if err == nil && e.IsZero() {
				return
			}
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// readLine reads through the next '\n'. It returns io.EOF only when no bytes
// remain.
func (ix *Indexer) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := ix.br.ReadSlice('\n')
		line = append(line, chunk...)
		ix.pos += int64(len(chunk))
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, nil
		default:
			return nil, fmt.Errorf("read at offset %d: %w", ix.pos, err)
		}
	}
}

// peek returns the next byte without consuming it.
func (ix *Indexer) peek() (byte, error) {
	b, err := ix.br.Peek(1)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("read at offset %d: %w", ix.pos, err)
	}
	return b[0], nil
}

// header skips blank lines and parses the next header line. It returns an
// empty name at the end of input.
func (ix *Indexer) header(marker byte) (string, error) {
	for {
		start := ix.pos
		line, err := ix.readLine()
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		line = trimEOL(line)
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if line[0] != marker {
			return "", fmt.Errorf("%w: line at offset %d starts with %q", ErrMissingMarker, start, line[0])
		}
		name, _ := fasta.SplitHeader(line[1:])
		if name == "" {
			return "", ErrTruncatedID
		}
		return name, nil
	}
}

// addLine folds one sequence line into e, taking the line geometry from the
// first line that holds bases. Bases after a blank line would not sit where
// the geometry puts them, so that layout is rejected.
func addLine(e *Entry, raw []byte, blank *bool) error {
	content := trimEOL(raw)
	if len(content) == 0 {
		*blank = true
		return nil
	}
	if *blank {
		return fmt.Errorf("%w: record %q has a blank line inside its sequence at offset %d", ErrMalformedIndex, e.Name, e.Offset)
	}
	if e.LineBases == 0 {
		e.LineBases = int64(len(content))
		e.LineWidth = int64(len(raw))
	}
	e.Length += int64(len(content))
	return nil
}

func (ix *Indexer) nextFASTA() (Entry, error) {
	name, err := ix.header(fasta.Marker)
	if err != nil || name == "" {
		return Entry{}, err
	}
	e := Entry{Name: name, Offset: ix.pos}
	lines := 0
	blank := false
	for {
		c, err := ix.peek()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Entry{}, err
		}
		if c == fasta.Marker {
			break
		}
		raw, err := ix.readLine()
		if err != nil {
			return Entry{}, err
		}
		if err := addLine(&e, raw, &blank); err != nil {
			return Entry{}, err
		}
		lines++
	}
	if lines == 0 || e.Length == 0 {
		return Entry{}, fmt.Errorf("%w: record %q", ErrMissingSequence, name)
	}
	return e, nil
}

func (ix *Indexer) nextFASTQ() (Entry, error) {
	name, err := ix.header(fastq.Marker)
	if err != nil || name == "" {
		return Entry{}, err
	}
	e := Entry{Name: name, Offset: ix.pos}
	lines := int64(0)
	terminator := int64(0)
	blank := false
	for {
		raw, err := ix.readLine()
		if errors.Is(err, io.EOF) {
			return Entry{}, fmt.Errorf("%w: record %q has no separator line", ErrUnexpectedEOF, name)
		}
		if err != nil {
			return Entry{}, err
		}
		if raw[0] == fastq.Separator {
			break
		}
		if lines == 0 {
			terminator = int64(len(raw) - len(trimEOL(raw)))
		}
		if err := addLine(&e, raw, &blank); err != nil {
			return Entry{}, err
		}
		lines++
	}
	if lines == 0 {
		return Entry{}, fmt.Errorf("%w: record %q", ErrMissingSequence, name)
	}
	if e.LineBases == 0 {
		e.LineWidth = terminator
	}
	e.QualOffset = ix.pos

	// Quality lines mirror the sequence lines, so the block is the bases
	// plus one terminator per line.
	skip := e.Length + lines*(e.LineWidth-e.LineBases)
	if err := ix.skip(skip); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// skip advances n bytes, discarding from the buffer when possible and
// seeking the source otherwise.
func (ix *Indexer) skip(n int64) error {
	if n <= int64(ix.br.Buffered()) {
		d, _ := ix.br.Discard(int(n))
		ix.pos += int64(d)
		return nil
	}
	target := ix.pos + n
	if _, err := ix.rs.Seek(target, io.SeekStart); err != nil {
		return fmt.Errorf("seek past quality block: %w", err)
	}
	ix.br.Reset(ix.rs)
	ix.pos = target
	return nil
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte{'\n'})
	return bytes.TrimSuffix(b, []byte{'\r'})
}
