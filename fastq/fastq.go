// Package fastq decodes FASTQ records: an '@' header line, one or more
// sequence lines, a '+' separator line, and as many quality lines as there
// were sequence lines.
package fastq

import (
	"bytes"
	"fmt"
	"io"

	"github.com/meigma/seqview/fasta"
	"github.com/meigma/seqview/internal/framed"
	"github.com/meigma/seqview/internal/seqtype"
)

// Markers of the header and separator lines.
const (
	Marker    = '@'
	Separator = '+'
)

// Errors returned while decoding.
var (
	ErrMissingMarker   = seqtype.ErrMissingMarker
	ErrTruncatedID     = seqtype.ErrTruncatedID
	ErrMissingSequence = seqtype.ErrMissingSequence
	ErrLengthMismatch  = seqtype.ErrLengthMismatch
	ErrUnexpectedEOF   = seqtype.ErrUnexpectedEOF
)

// Record is one FASTQ record. Qual holds the quality characters as written,
// one per base.
type Record struct {
	ID   string
	Desc string
	Seq  []byte
	Qual []byte
}

// String returns the record in four-line FASTQ form.
func (r Record) String() string {
	var sb bytes.Buffer
	sb.WriteByte(Marker)
	sb.WriteString(r.ID)
	if r.Desc != "" {
		sb.WriteByte(' ')
		sb.WriteString(r.Desc)
	}
	sb.WriteByte('\n')
	sb.Write(r.Seq)
	sb.WriteString("\n+\n")
	sb.Write(r.Qual)
	sb.WriteByte('\n')
	return sb.String()
}

// Decode decodes one record from the start of data. Blank lines before a
// record are skipped; io.EOF reports that only blank input remains.
func Decode(data []byte, atEOF bool) (Record, int, error) {
	pos, ok := framed.SkipBlank(data, 0, atEOF)
	if !ok {
		return Record{}, 0, seqtype.Short(1)
	}
	if pos == len(data) {
		return Record{}, 0, io.EOF
	}

	header, pos, ok := framed.Line(data, pos, atEOF)
	if !ok {
		return Record{}, 0, seqtype.Short(1)
	}
	if header[0] != Marker {
		return Record{}, 0, fmt.Errorf("%w: line starts with %q", ErrMissingMarker, header[0])
	}
	id, desc := fasta.SplitHeader(header[1:])
	if id == "" {
		return Record{}, 0, ErrTruncatedID
	}

	var seq []byte
	lines := 0
	for {
		line, next, ok := framed.Line(data, pos, atEOF)
		if !ok {
			return Record{}, 0, seqtype.Short(1)
		}
		pos = next
		if len(line) > 0 && line[0] == Separator {
			break
		}
		seq = append(seq, line...)
		lines++
	}
	if lines == 0 {
		return Record{}, 0, fmt.Errorf("%w: record %q", ErrMissingSequence, id)
	}

	qual := make([]byte, 0, len(seq))
	for range lines {
		line, next, ok := framed.Line(data, pos, atEOF)
		if !ok {
			return Record{}, 0, seqtype.Short(1)
		}
		qual = append(qual, line...)
		pos = next
	}
	if len(qual) != len(seq) {
		return Record{}, 0, fmt.Errorf("%w: record %q has %d bases and %d quality scores",
			ErrLengthMismatch, id, len(seq), len(qual))
	}
	return Record{ID: id, Desc: desc, Seq: seq, Qual: qual}, pos, nil
}
