// Package faidx builds, persists, and uses indexes for random access into
// uncompressed FASTA and FASTQ files.
//
// An index records, per record name, the byte offset of the first sequence
// byte and the line geometry of the record. Records are assumed to wrap at a
// uniform line width; the width is taken from the first sequence line and is
// not re-validated. A blank line followed by more sequence is rejected.
package faidx

import (
	"fmt"
	"math"

	"github.com/meigma/seqview/internal/seqtype"
	"github.com/meigma/seqview/metrics"
)

// Errors returned by this package.
var (
	ErrMissingMarker   = seqtype.ErrMissingMarker
	ErrTruncatedID     = seqtype.ErrTruncatedID
	ErrMissingSequence = seqtype.ErrMissingSequence
	ErrUnexpectedEOF   = seqtype.ErrUnexpectedEOF
	ErrNotFound        = seqtype.ErrNotFound
	ErrMalformedIndex  = seqtype.ErrMalformedIndex
)

// Format selects the record layout an index describes.
type Format uint8

// Supported formats.
const (
	FASTA Format = iota + 1
	FASTQ
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FASTA:
		return metrics.FormatFASTA
	case FASTQ:
		return metrics.FormatFASTQ
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name as returned by Format.String.
func ParseFormat(s string) (Format, error) {
	switch s {
	case metrics.FormatFASTA:
		return FASTA, nil
	case metrics.FormatFASTQ:
		return FASTQ, nil
	default:
		return 0, fmt.Errorf("faidx: unknown format %q", s)
	}
}

func (f Format) columns() int {
	if f == FASTQ {
		return 6
	}
	return 5
}

func (f Format) valid() bool {
	return f == FASTA || f == FASTQ
}

// Entry locates one record.
type Entry struct {
	Name string

	// Length is the number of sequence bases.
	Length int64

	// Offset is the byte offset of the first sequence byte.
	Offset int64

	// LineBases is the number of bases per full sequence line.
	LineBases int64

	// LineWidth is LineBases plus the line terminator width.
	LineWidth int64

	// QualOffset is the byte offset of the first quality byte (FASTQ only).
	QualOffset int64
}

// IsZero reports whether e is the empty entry that ends a scan.
func (e Entry) IsZero() bool {
	return e == Entry{}
}

// Span returns the number of bytes the record's sequence occupies from
// Offset through its last base, including the terminators of every line but
// the last.
func (e Entry) Span() int64 {
	span, _ := e.span()
	return span
}

// maxField bounds every numeric column so geometry arithmetic cannot
// overflow.
const maxField = math.MaxInt64 / 2

// span computes Span and reports false when it does not fit in an int64.
func (e Entry) span() (int64, bool) {
	if e.Length <= 0 || e.LineBases <= 0 {
		return 0, true
	}
	lines := (e.Length-1)/e.LineBases + 1
	pad := e.LineWidth - e.LineBases
	if pad > 0 && lines-1 > (math.MaxInt64-e.Length)/pad {
		return 0, false
	}
	return e.Length + (lines-1)*pad, true
}

// position returns the byte offset of base pos (0-based) of the sequence.
func (e Entry) position(pos int64) int64 {
	return e.Offset + pos/e.LineBases*e.LineWidth + pos%e.LineBases
}

func (e Entry) validate() error {
	switch {
	case e.Name == "":
		return fmt.Errorf("%w: empty name", ErrMalformedIndex)
	case e.Length < 0 || e.Offset < 0 || e.QualOffset < 0:
		return fmt.Errorf("%w: %s: negative length or offset", ErrMalformedIndex, e.Name)
	case e.Length > 0 && e.LineBases <= 0:
		return fmt.Errorf("%w: %s: zero line bases", ErrMalformedIndex, e.Name)
	case e.LineWidth < e.LineBases:
		return fmt.Errorf("%w: %s: line width %d below line bases %d", ErrMalformedIndex, e.Name, e.LineWidth, e.LineBases)
	case e.Length > maxField || e.Offset > maxField || e.QualOffset > maxField || e.LineWidth > maxField:
		return fmt.Errorf("%w: %s: field out of range", ErrMalformedIndex, e.Name)
	}
	span, ok := e.span()
	if !ok || span > maxField-max(e.Offset, e.QualOffset) {
		return fmt.Errorf("%w: %s: record extent overflows", ErrMalformedIndex, e.Name)
	}
	return nil
}
