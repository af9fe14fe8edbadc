package faidx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Record is a record fetched by name. Qual is nil for FASTA.
type Record struct {
	Name string
	Seq  []byte
	Qual []byte
}

// Reader fetches records by name from a seekable source using a shared
// Index. Each Reader owns its source handle; a Reader is not safe for
// concurrent use, but any number of Readers may share one Index.
type Reader struct {
	idx *Index
	rs  io.ReadSeeker
}

// NewReader returns a Reader over rs.
func NewReader(idx *Index, rs io.ReadSeeker) *Reader {
	return &Reader{idx: idx, rs: rs}
}

// Index returns the index the Reader consults.
func (r *Reader) Index() *Index {
	return r.idx
}

// Fetch returns the full record stored under name.
func (r *Reader) Fetch(name string) (Record, error) {
	e, ok := r.idx.Lookup(name)
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	seq, err := r.readSpan(e, e.Offset, e.Span(), e.Length)
	if err != nil {
		return Record{}, fmt.Errorf("fetch %q sequence: %w", name, err)
	}
	rec := Record{Name: e.Name, Seq: seq}
	if r.idx.format == FASTQ {
		qual, err := r.readSpan(e, e.QualOffset, e.Span(), e.Length)
		if err != nil {
			return Record{}, fmt.Errorf("fetch %q quality: %w", name, err)
		}
		rec.Qual = qual
	}
	return rec, nil
}

// FetchRange returns bases [start, end) of the sequence stored under name.
// end is clamped to the sequence length.
func (r *Reader) FetchRange(name string, start, end int64) ([]byte, error) {
	e, ok := r.idx.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	end = min(end, e.Length)
	if start < 0 || start > end {
		return nil, fmt.Errorf("faidx: invalid range [%d, %d) for %q of length %d", start, end, name, e.Length)
	}
	if start == end {
		return []byte{}, nil
	}
	from := e.position(start)
	to := e.position(end-1) + 1
	seq, err := r.readSpan(e, from, to-from, end-start)
	if err != nil {
		return nil, fmt.Errorf("fetch %q range: %w", name, err)
	}
	return seq, nil
}

// readSpan reads span bytes at off and strips line terminators, checking
// that want bases remain.
func (r *Reader) readSpan(e Entry, off, span, want int64) ([]byte, error) {
	if span == 0 {
		return []byte{}, nil
	}
	size, err := r.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("size source: %w", err)
	}
	if off > size || span > size-off {
		return nil, fmt.Errorf("%w: %d bytes at offset %d past end of %d-byte source", ErrUnexpectedEOF, span, off, size)
	}
	if _, err := r.rs.Seek(off, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to %d: %w", off, err)
	}
	buf := make([]byte, span)
	if _, err := io.ReadFull(r.rs, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrUnexpectedEOF, span, off)
		}
		return nil, err
	}
	out := stripTerminators(buf)
	if int64(len(out)) != want {
		return nil, fmt.Errorf("%w: %q: read %d bases, index records %d", ErrMalformedIndex, e.Name, len(out), want)
	}
	return out, nil
}

func stripTerminators(b []byte) []byte {
	out := b[:0]
	for len(b) > 0 {
		i := bytes.IndexAny(b, "\r\n")
		if i < 0 {
			out = append(out, b...)
			break
		}
		out = append(out, b[:i]...)
		b = b[i+1:]
	}
	return out
}
