package bam

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/meigma/seqview/internal/seqtype"
)

// fieldReader is a little-endian cursor over an in-memory byte slice.
// Reads past the end return a *seqtype.ShortError.
type fieldReader struct {
	buf []byte
	pos int
}

func (r *fieldReader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *fieldReader) read(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrInvalidEncoding, n)
	}
	if r.remaining() < n {
		return nil, seqtype.Short(n - r.remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *fieldReader) Uint8() (uint8, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *fieldReader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *fieldReader) Uint16() (uint16, error) {
	b, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *fieldReader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *fieldReader) Uint32() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *fieldReader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *fieldReader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// CString reads bytes up to a NUL and consumes the NUL.
func (r *fieldReader) CString() ([]byte, error) {
	i := bytes.IndexByte(r.buf[r.pos:], 0)
	if i < 0 {
		return nil, seqtype.Short(1)
	}
	b := r.buf[r.pos : r.pos+i]
	r.pos += i + 1
	return b, nil
}

// overrun converts a short read inside a complete block into a fatal
// truncation error.
func overrun(err error, field string) error {
	if errors.Is(err, seqtype.ErrShortBuffer) {
		return fmt.Errorf("%w: %s overruns alignment block", ErrUnexpectedEOF, field)
	}
	return err
}

// shortBy returns the incomplete signal for a read of n bytes.
func (r *fieldReader) shortBy(n int) error {
	return seqtype.Short(n - r.remaining())
}
