// Package fasta decodes FASTA records: a '>' header line followed by one or
// more sequence lines, terminated by the next header or the end of input.
package fasta

import (
	"bytes"
	"fmt"
	"io"

	"github.com/meigma/seqview/internal/framed"
	"github.com/meigma/seqview/internal/seqtype"
)

// Marker opens every record header line.
const Marker = '>'

// Errors returned while decoding.
var (
	ErrMissingMarker   = seqtype.ErrMissingMarker
	ErrTruncatedID     = seqtype.ErrTruncatedID
	ErrMissingSequence = seqtype.ErrMissingSequence
	ErrUnexpectedEOF   = seqtype.ErrUnexpectedEOF
)

// Record is one FASTA record. Seq holds the concatenated sequence lines
// without terminators.
type Record struct {
	ID   string
	Desc string
	Seq  []byte
}

// String returns the record in FASTA form with the sequence on one line.
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
	sb.WriteByte('\n')
	return sb.String()
}

// SplitHeader splits a header line, without its marker, into the identifier
// (up to the first whitespace) and the trimmed description.
func SplitHeader(line []byte) (id, desc string) {
	i := bytes.IndexAny(line, " \t")
	if i < 0 {
		return string(bytes.TrimSpace(line)), ""
	}
	return string(line[:i]), string(bytes.TrimSpace(line[i+1:]))
}

// Decode decodes one record from the start of data. The record ends at the
// next header line, which is not consumed, or at the end of input. Blank
// lines before a record are skipped; io.EOF reports that only blank input
// remains.
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
	id, desc := SplitHeader(header[1:])
	if id == "" {
		return Record{}, 0, ErrTruncatedID
	}

	var seq []byte
	lines := 0
	for {
		line, next, ok := framed.Line(data, pos, atEOF)
		if !ok {
			if atEOF || (pos < len(data) && data[pos] == Marker) {
				break
			}
			return Record{}, 0, seqtype.Short(1)
		}
		if len(line) > 0 && line[0] == Marker {
			break
		}
		seq = append(seq, line...)
		lines++
		pos = next
	}
	if lines == 0 || len(seq) == 0 {
		return Record{}, 0, fmt.Errorf("%w: record %q", ErrMissingSequence, id)
	}
	return Record{ID: id, Desc: desc, Seq: seq}, pos, nil
}
