package seqview

import (
	"errors"

	"github.com/meigma/seqview/internal/seqtype"
)

// Errors shared by every format package.
var (
	// ErrBadMagic is returned when a binary stream does not open with the BAM magic.
	ErrBadMagic = seqtype.ErrBadMagic

	// ErrUnexpectedEOF is returned when input ends inside a record.
	ErrUnexpectedEOF = seqtype.ErrUnexpectedEOF

	// ErrInvalidEncoding is returned for text that is not valid UTF-8 or a
	// negative length field.
	ErrInvalidEncoding = seqtype.ErrInvalidEncoding

	// ErrMissingMarker is returned when a text record does not start with its marker.
	ErrMissingMarker = seqtype.ErrMissingMarker

	// ErrTruncatedID is returned when a header line has no identifier.
	ErrTruncatedID = seqtype.ErrTruncatedID

	// ErrMissingSequence is returned when a record has no sequence.
	ErrMissingSequence = seqtype.ErrMissingSequence

	// ErrLengthMismatch is returned when quality and sequence lengths differ.
	ErrLengthMismatch = seqtype.ErrLengthMismatch

	// ErrUnknownCode is returned for an unrecognized CIGAR or auxiliary type code.
	ErrUnknownCode = seqtype.ErrUnknownCode

	// ErrInvalidReferenceName is returned for a reference name that breaks naming rules.
	ErrInvalidReferenceName = seqtype.ErrInvalidReferenceName

	// ErrReferenceOutOfRange is returned when a record names a reference outside the catalog.
	ErrReferenceOutOfRange = seqtype.ErrReferenceOutOfRange

	// ErrNotFound is returned when an index has no record of the requested name.
	ErrNotFound = seqtype.ErrNotFound

	// ErrMalformedIndex is returned for an unreadable index table or an entry
	// that disagrees with the file.
	ErrMalformedIndex = seqtype.ErrMalformedIndex

	// ErrUnknownFormat is returned by Open when the content is not a supported format.
	ErrUnknownFormat = errors.New("seqview: unknown format")
)
