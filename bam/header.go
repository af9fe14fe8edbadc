package bam

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/meigma/seqview/internal/seqtype"
)

// Magic opens every BAM stream.
var Magic = [4]byte{'B', 'A', 'M', 0x01}

// Header is the free-text header of a stream.
type Header struct {
	// Text is the SAM header text with trailing NUL padding removed.
	Text string

	// NumRefs is the declared size of the reference catalog.
	NumRefs int
}

// Reference is one entry of the reference catalog.
type Reference struct {
	Name   string
	Length uint32
}

// DecodeHeader decodes the magic number, header text, and declared reference
// count from the start of b. A magic mismatch is reported as soon as the
// available bytes disagree with it.
func DecodeHeader(b []byte) (Header, int, error) {
	n := min(len(b), len(Magic))
	if !bytes.Equal(b[:n], Magic[:n]) {
		return Header{}, 0, fmt.Errorf("%w: got %q", ErrBadMagic, b[:n])
	}
	if n < len(Magic) {
		return Header{}, 0, seqtype.Short(len(Magic) - n)
	}

	r := fieldReader{buf: b, pos: len(Magic)}
	textLen, err := r.Int32()
	if err != nil {
		return Header{}, 0, err
	}
	text, err := r.read(int(textLen))
	if err != nil {
		return Header{}, 0, err
	}
	numRefs, err := r.Int32()
	if err != nil {
		return Header{}, 0, err
	}
	if numRefs < 0 {
		return Header{}, 0, fmt.Errorf("%w: negative reference count %d", ErrInvalidEncoding, numRefs)
	}
	text = bytes.TrimRight(text, "\x00")
	if !utf8.Valid(text) {
		return Header{}, 0, fmt.Errorf("%w: header text is not UTF-8", ErrInvalidEncoding)
	}
	return Header{Text: string(text), NumRefs: int(numRefs)}, r.pos, nil
}

// DecodeReference decodes one reference catalog entry from the start of b.
func DecodeReference(b []byte) (Reference, int, error) {
	r := fieldReader{buf: b}
	nameLen, err := r.Int32()
	if err != nil {
		return Reference{}, 0, err
	}
	raw, err := r.read(int(nameLen))
	if err != nil {
		return Reference{}, 0, err
	}
	length, err := r.Uint32()
	if err != nil {
		return Reference{}, 0, err
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	name := string(raw)
	if err := ValidateReferenceName(name); err != nil {
		return Reference{}, 0, err
	}
	return Reference{Name: name, Length: length}, r.pos, nil
}

const forbiddenNameChars = `\{}[]<>(),`

// ValidateReferenceName checks a reference name: printable ASCII without
// spaces, not starting with '=' or '*', and free of \ { } [ ] < > ( ) and
// commas.
func ValidateReferenceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidReferenceName)
	}
	if name[0] == '=' || name[0] == '*' {
		return fmt.Errorf("%w: %q starts with %q", ErrInvalidReferenceName, name, name[0])
	}
	for i := range len(name) {
		c := name[i]
		if c < '!' || c > '~' {
			return fmt.Errorf("%w: %q contains non-graphic byte 0x%02x", ErrInvalidReferenceName, name, c)
		}
		if strings.IndexByte(forbiddenNameChars, c) >= 0 {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidReferenceName, name, c)
		}
	}
	return nil
}
