// Package source opens byte streams for the format readers, transparently
// decompressing gzip, BGZF, and zstd input.
//
// The compression is sniffed from the first bytes of the stream, so callers
// can hand any file or pipe to Open and pass the result to bam.NewReader,
// fasta.NewReader, or fastq.NewReader.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies a stream's compression.
type Compression uint8

// Supported compressions.
const (
	None Compression = iota
	Gzip
	BGZF
	Zstd
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case BGZF:
		return "bgzf"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// sniffLen covers the gzip header through the first extra subfield id.
const sniffLen = 14

var (
	gzipMagic = []byte{0x1f, 0x8b, 0x08}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect reports the compression indicated by the leading bytes of a
// stream. BGZF is gzip with a "BC" extra subfield in the first member.
func Detect(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, gzipMagic):
		const fextra = 0x04
		if len(header) >= sniffLen && header[3]&fextra != 0 && header[12] == 'B' && header[13] == 'C' {
			return BGZF
		}
		return Gzip
	default:
		return None
	}
}

// Option configures Open.
type Option func(*config)

type config struct {
	bgzfWorkers      int
	maxDecoderMemory uint64
	decoderLowmem    bool
	logger           *slog.Logger
}

// WithBGZFWorkers sets the number of concurrent BGZF block decompressors.
// Values below 1 use one.
func WithBGZFWorkers(n int) Option {
	return func(c *config) {
		c.bgzfWorkers = max(n, 1)
	}
}

// WithMaxDecoderMemory caps the memory a zstd decoder may allocate.
// Zero means no limit.
func WithMaxDecoderMemory(n uint64) Option {
	return func(c *config) {
		c.maxDecoderMemory = n
	}
}

// WithDecoderLowmem enables the zstd decoder's low-memory mode.
func WithDecoderLowmem(enabled bool) Option {
	return func(c *config) {
		c.decoderLowmem = enabled
	}
}

// WithLogger sets the logger for source events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Open sniffs r and returns a reader over its decompressed bytes. Closing
// the returned reader releases decompressor resources but does not close r.
func Open(r io.Reader, opts ...Option) (io.ReadCloser, Compression, error) {
	cfg := config{bgzfWorkers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	br := bufio.NewReader(r)
	header, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, None, fmt.Errorf("sniff compression: %w", err)
	}
	c := Detect(header)
	cfg.log().Debug("opened source", "compression", c)

	switch c {
	case Zstd:
		dopts := []zstd.DOption{
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(cfg.decoderLowmem),
		}
		if cfg.maxDecoderMemory > 0 {
			dopts = append(dopts, zstd.WithDecoderMaxMemory(cfg.maxDecoderMemory))
		}
		dec, err := zstd.NewReader(br, dopts...)
		if err != nil {
			return nil, c, fmt.Errorf("open zstd stream: %w", err)
		}
		return dec.IOReadCloser(), c, nil
	case BGZF:
		bg, err := bgzf.NewReader(br, cfg.bgzfWorkers)
		if err != nil {
			return nil, c, fmt.Errorf("open bgzf stream: %w", err)
		}
		return bg, c, nil
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("open gzip stream: %w", err)
		}
		return gz, c, nil
	case None:
		return io.NopCloser(br), c, nil
	default:
		return nil, c, fmt.Errorf("source: unsupported compression %s", c)
	}
}

// File is a decompressed view of an opened file.
type File struct {
	io.Reader
	Compression Compression

	dec io.Closer
	f   *os.File
}

// OpenFile opens path and sniffs its compression.
func OpenFile(path string, opts ...Option) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // caller-selected input file
	if err != nil {
		return nil, err
	}
	rc, c, err := Open(f, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &File{Reader: rc, Compression: c, dec: rc, f: f}, nil
}

// Close releases the decompressor and closes the file.
func (f *File) Close() error {
	return errors.Join(f.dec.Close(), f.f.Close())
}
