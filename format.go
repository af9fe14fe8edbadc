package seqview

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/seqview/bam"
	"github.com/meigma/seqview/fasta"
	"github.com/meigma/seqview/fastq"
	"github.com/meigma/seqview/source"
)

// Format identifies a sequence file format.
type Format uint8

// Supported formats.
const (
	FormatUnknown Format = iota
	FormatBAM
	FormatFASTA
	FormatFASTQ
)

func (f Format) String() string {
	switch f {
	case FormatBAM:
		return "bam"
	case FormatFASTA:
		return "fasta"
	case FormatFASTQ:
		return "fastq"
	default:
		return "unknown"
	}
}

// sniffLen bounds how far past leading blank lines detection looks.
const sniffLen = 512

// DetectFormat reports the format of decompressed content starting with
// header. Text formats are recognized by the marker of their first non-blank
// line.
func DetectFormat(header []byte) Format {
	if bytes.HasPrefix(header, bam.Magic[:]) {
		return FormatBAM
	}
	text := bytes.TrimLeft(header, " \t\r\n")
	if len(text) == 0 {
		return FormatUnknown
	}
	switch text[0] {
	case fasta.Marker:
		return FormatFASTA
	case fastq.Marker:
		return FormatFASTQ
	default:
		return FormatUnknown
	}
}

// Input is decompressed content with its detected format.
type Input struct {
	io.Reader
	Format      Format
	Compression source.Compression

	closer io.Closer
}

// NewInput decompresses r and detects its format. Closing the Input releases
// decompressor resources but does not close r.
func NewInput(r io.Reader, opts ...source.Option) (*Input, error) {
	rc, c, err := source.Open(r, opts...)
	if err != nil {
		return nil, err
	}
	in, err := newInput(rc, c)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return in, nil
}

// Open opens the file at path, decompresses it, and detects its format.
func Open(path string, opts ...source.Option) (*Input, error) {
	f, err := source.OpenFile(path, opts...)
	if err != nil {
		return nil, err
	}
	in, err := newInput(f, f.Compression)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return in, nil
}

func newInput(rc io.ReadCloser, c source.Compression) (*Input, error) {
	br := bufio.NewReader(rc)
	header, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("sniff format: %w", err)
	}
	f := DetectFormat(header)
	if f == FormatUnknown {
		return nil, ErrUnknownFormat
	}
	return &Input{Reader: br, Format: f, Compression: c, closer: rc}, nil
}

// Close releases the underlying reader.
func (in *Input) Close() error {
	return in.closer.Close()
}
