package bam

import (
	"bufio"
	"io"
	"strconv"
)

// AppendSAM appends the SAM text line for rec, without a newline, to dst.
// refs resolves reference ids to names.
func (rec *Record) AppendSAM(dst []byte, refs []Reference) []byte {
	dst = appendField(dst, orStar(rec.Name))
	dst = appendTab(strconv.AppendUint(dst, uint64(rec.Flag), 10))
	dst = appendField(dst, refName(refs, rec.RefID))
	dst = appendTab(strconv.AppendInt(dst, int64(rec.Pos)+1, 10))
	dst = appendTab(strconv.AppendUint(dst, uint64(rec.MapQ), 10))
	dst = appendField(dst, rec.Cigar.String())
	if rec.NextRefID >= 0 && rec.NextRefID == rec.RefID {
		dst = appendField(dst, "=")
	} else {
		dst = appendField(dst, refName(refs, rec.NextRefID))
	}
	dst = appendTab(strconv.AppendInt(dst, int64(rec.NextPos)+1, 10))
	dst = appendTab(strconv.AppendInt(dst, int64(rec.TLen), 10))
	if len(rec.Seq) == 0 {
		dst = append(dst, '*')
	} else {
		dst = append(dst, rec.Seq...)
	}
	dst = append(dst, '\t')
	if rec.Qual == nil {
		dst = append(dst, '*')
	} else {
		for _, q := range rec.Qual {
			dst = append(dst, q+33)
		}
	}
	for _, f := range rec.Aux {
		dst = append(dst, '\t')
		dst = append(dst, f.String()...)
	}
	return dst
}

// Format returns the SAM text line for rec.
func (rec *Record) Format(refs []Reference) string {
	return string(rec.AppendSAM(nil, refs))
}

func appendField(dst []byte, s string) []byte {
	return appendTab(append(dst, s...))
}

func appendTab(dst []byte) []byte {
	return append(dst, '\t')
}

func orStar(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func refName(refs []Reference, id int32) string {
	if id < 0 || int(id) >= len(refs) {
		return "*"
	}
	return refs[id].Name
}

// Writer writes records as SAM text lines.
type Writer struct {
	w    *bufio.Writer
	refs []Reference
	line []byte
}

// NewWriter returns a Writer that resolves reference ids through refs.
func NewWriter(w io.Writer, refs []Reference) *Writer {
	return &Writer{w: bufio.NewWriter(w), refs: refs}
}

// WriteHeader writes the header text, adding a final newline if missing.
func (w *Writer) WriteHeader(h Header) error {
	if h.Text == "" {
		return nil
	}
	if _, err := w.w.WriteString(h.Text); err != nil {
		return err
	}
	if h.Text[len(h.Text)-1] != '\n' {
		return w.w.WriteByte('\n')
	}
	return nil
}

// Write writes one record line.
func (w *Writer) Write(rec *Record) error {
	w.line = rec.AppendSAM(w.line[:0], w.refs)
	w.line = append(w.line, '\n')
	_, err := w.w.Write(w.line)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
