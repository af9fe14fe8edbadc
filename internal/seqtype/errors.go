// Package seqtype holds the error values shared by every decoder in seqview.
package seqtype

import (
	"errors"
	"fmt"
)

// Sentinel errors for decode, index, and lookup operations.
var (
	// ErrBadMagic is returned when a binary stream does not start with the BAM magic.
	ErrBadMagic = errors.New("seqview: invalid BAM magic")

	// ErrUnexpectedEOF is returned when input ends inside a record or block.
	ErrUnexpectedEOF = errors.New("seqview: unexpected end of input")

	// ErrInvalidEncoding is returned when text fields are not valid UTF-8.
	ErrInvalidEncoding = errors.New("seqview: invalid text encoding")

	// ErrMissingMarker is returned when a text record does not begin with its marker character.
	ErrMissingMarker = errors.New("seqview: missing record marker")

	// ErrTruncatedID is returned when a record identifier is missing or empty.
	ErrTruncatedID = errors.New("seqview: missing or truncated identifier")

	// ErrMissingSequence is returned when a record has a header but no sequence content.
	ErrMissingSequence = errors.New("seqview: missing sequence")

	// ErrLengthMismatch is returned when sequence and quality lengths differ.
	ErrLengthMismatch = errors.New("seqview: sequence and quality lengths differ")

	// ErrUnknownCode is returned for unrecognized CIGAR kinds and auxiliary type codes.
	ErrUnknownCode = errors.New("seqview: unknown type code")

	// ErrInvalidReferenceName is returned when a reference name fails validation.
	ErrInvalidReferenceName = errors.New("seqview: invalid reference name")

	// ErrReferenceOutOfRange is returned when a record points outside the reference catalog.
	ErrReferenceOutOfRange = errors.New("seqview: reference id out of range")

	// ErrNotFound is returned when a name is absent from an index.
	ErrNotFound = errors.New("seqview: record not found in index")

	// ErrMalformedIndex is returned when a persisted index row cannot be parsed.
	ErrMalformedIndex = errors.New("seqview: malformed index row")

	// ErrShortBuffer matches every *ShortError.
	ErrShortBuffer = errors.New("seqview: insufficient input")
)

// ShortError reports that a byte slice ended before a complete value could
// be decoded. Need is the minimum number of additional bytes required; it is
// at least 1.
type ShortError struct {
	Need int
}

// Short returns a *ShortError asking for at least need more bytes.
func Short(need int) *ShortError {
	if need < 1 {
		need = 1
	}
	return &ShortError{Need: need}
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("seqview: insufficient input: need %d more bytes", e.Need)
}

// Is reports whether target is ErrShortBuffer.
func (e *ShortError) Is(target error) bool {
	return target == ErrShortBuffer
}

// AsShort returns the *ShortError wrapped by err, if any.
func AsShort(err error) (*ShortError, bool) {
	var short *ShortError
	if errors.As(err, &short) {
		return short, true
	}
	return nil, false
}
