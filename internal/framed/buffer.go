// Package framed implements the incremental buffer protocol shared by the
// BAM, FASTA, and FASTQ readers.
//
// A Buffer owns one growable byte slice and a consumed offset over a
// blocking byte source. A Decoder is attempted against the unconsumed bytes;
// it either produces a value and the number of bytes it accepted, reports
// that it needs more input with a *seqtype.ShortError, or fails. A Refill
// strategy decides how much to pull from the source before the next attempt.
package framed

import (
	"bufio"
	"errors"
	"io"
	"slices"
)

const (
	// DefaultCompactThreshold is the consumed byte count after which the
	// buffer drops its consumed prefix (1MB).
	DefaultCompactThreshold = 1 << 20

	// DefaultReadBufferSize is the size of the bufio.Reader wrapped around
	// the source (64KB).
	DefaultReadBufferSize = 64 << 10
)

// Buffer is a growable byte buffer with a consumed cursor over a source.
type Buffer struct {
	src       *bufio.Reader
	data      []byte
	consumed  int
	threshold int
	readSize  int
	eof       bool
	pulled    int64
}

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithCompactThreshold sets the consumed byte count that triggers compaction.
// Values <= 0 compact after every record.
func WithCompactThreshold(n int) BufferOption {
	return func(b *Buffer) {
		if n < 0 {
			n = 0
		}
		b.threshold = n
	}
}

// WithReadBufferSize sets the size of the underlying bufio.Reader.
func WithReadBufferSize(n int) BufferOption {
	return func(b *Buffer) {
		if n > 0 {
			b.readSize = n
		}
	}
}

// NewBuffer creates a Buffer reading from r. An existing *bufio.Reader of
// sufficient size is used directly.
func NewBuffer(r io.Reader, opts ...BufferOption) *Buffer {
	b := &Buffer{
		threshold: DefaultCompactThreshold,
		readSize:  DefaultReadBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	if br, ok := r.(*bufio.Reader); ok && br.Size() >= b.readSize {
		b.src = br
	} else {
		b.src = bufio.NewReaderSize(r, b.readSize)
	}
	return b
}

// Bytes returns the unconsumed bytes. The slice is only valid until the next
// call that reads, advances, or compacts.
func (b *Buffer) Bytes() []byte {
	return b.data[b.consumed:]
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.data) - b.consumed
}

// EOF reports whether the source has been exhausted.
func (b *Buffer) EOF() bool {
	return b.eof
}

// Offset returns the stream offset of the first unconsumed byte.
func (b *Buffer) Offset() int64 {
	return b.pulled - int64(b.Len())
}

// Advance marks n unconsumed bytes as consumed.
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.Len() {
		panic("framed: advance out of range")
	}
	b.consumed += n
}

// Compact drops the consumed prefix once it exceeds the threshold and
// reports whether it did.
func (b *Buffer) Compact() bool {
	if b.consumed == 0 || b.consumed < b.threshold {
		return false
	}
	n := copy(b.data, b.data[b.consumed:])
	b.data = b.data[:n]
	b.consumed = 0
	return true
}

// ReadFull appends exactly n bytes from the source. It returns io.EOF if no
// bytes were available and io.ErrUnexpectedEOF if the source ended early.
// The buffer grows at most one read buffer ahead of the bytes received, so a
// corrupt length cannot allocate more than the source delivers.
func (b *Buffer) ReadFull(n int) error {
	total := 0
	for total < n {
		chunk := min(n-total, b.readSize)
		start := len(b.data)
		b.data = slices.Grow(b.data, chunk)[:start+chunk]
		got, err := io.ReadFull(b.src, b.data[start:])
		b.data = b.data[:start+got]
		b.pulled += int64(got)
		total += got
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			b.eof = true
			if total == 0 {
				return io.EOF
			}
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// ReadLine appends bytes through the next '\n' (inclusive). The final line
// of a source may lack a terminator. It returns io.EOF only when no bytes
// were available.
func (b *Buffer) ReadLine() (int, error) {
	n := 0
	for {
		chunk, err := b.src.ReadSlice('\n')
		b.data = append(b.data, chunk...)
		n += len(chunk)
		b.pulled += int64(len(chunk))
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			b.eof = true
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		default:
			return n, err
		}
	}
}
