package bam

import "github.com/meigma/seqview/internal/seqtype"

// Errors returned while decoding.
var (
	ErrBadMagic             = seqtype.ErrBadMagic
	ErrUnexpectedEOF        = seqtype.ErrUnexpectedEOF
	ErrInvalidEncoding      = seqtype.ErrInvalidEncoding
	ErrUnknownCode          = seqtype.ErrUnknownCode
	ErrInvalidReferenceName = seqtype.ErrInvalidReferenceName
	ErrReferenceOutOfRange  = seqtype.ErrReferenceOutOfRange
	ErrShortBuffer          = seqtype.ErrShortBuffer
)
