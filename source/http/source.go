// Package http serves remote FASTA, FASTQ, and BAM files over HTTP range
// requests.
//
// A Source is an io.ReaderAt with a known size, so a remote file can back a
// faidx.Reader through Source.SectionReader, or be streamed into a format
// reader with Source.Stream.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"strconv"
	"strings"
)

// ErrRangeUnsupported is returned when the server ignores range requests.
var ErrRangeUnsupported = errors.New("seqview: range requests not supported")

// Source reads a remote file with HTTP range requests. Requests carry the
// validators seen when the Source was created, so a file that changes
// underneath fails instead of mixing versions.
type Source struct {
	url          string
	client       *nethttp.Client
	headers      nethttp.Header
	size         int64
	etag         string
	lastModified string
	logger       *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithLogger sets the logger for request events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource probes url for its size and validators.
func NewSource(url string, opts ...Option) (*Source, error) {
	s := &Source{url: url}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	size, etag, lastModified, err := s.probe()
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	s.size = size
	s.etag = etag
	s.lastModified = lastModified
	s.logger.Debug("opened remote source", "url", url, "size", size, "etag", etag)
	return s, nil
}

// Size returns the size of the remote file.
func (s *Source) Size() int64 {
	return s.size
}

// SectionReader returns a seekable reader over the whole file.
func (s *Source) SectionReader() *io.SectionReader {
	return io.NewSectionReader(s, 0, s.size)
}

// ReadAt reads len(p) bytes at off with one range request.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	end := min(off+int64(len(p)), s.size) - 1
	want := int(end - off + 1)

	resp, err := s.get(fmt.Sprintf("bytes=%d-%d", off, end))
	if err != nil {
		return 0, err
	}
	defer drain(resp.Body)
	if resp.StatusCode == nethttp.StatusRequestedRangeNotSatisfiable {
		return 0, io.EOF
	}
	if err := checkPartial(resp); err != nil {
		return 0, err
	}

	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		return n, err
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Stream returns the bytes from off to the end of the file as one response
// body.
func (s *Source) Stream(off int64) (io.ReadCloser, error) {
	if off < 0 {
		return nil, fmt.Errorf("stream from %d: negative offset", off)
	}
	if off >= s.size {
		return io.NopCloser(strings.NewReader("")), nil
	}
	resp, err := s.get(fmt.Sprintf("bytes=%d-", off))
	if err != nil {
		return nil, err
	}
	if err := checkPartial(resp); err != nil {
		drain(resp.Body)
		return nil, err
	}
	return &body{ReadCloser: resp.Body, r: io.LimitReader(resp.Body, s.size-off)}, nil
}

func (s *Source) get(rng string) (*nethttp.Response, error) {
	req, err := s.newRequest(nethttp.MethodGet)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", rng)
	s.logger.Debug("range request", "url", s.url, "range", rng)
	return s.client.Do(req)
}

func checkPartial(resp *nethttp.Response) error {
	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		return nil
	case nethttp.StatusOK:
		return ErrRangeUnsupported
	default:
		return fmt.Errorf("range request failed: %s", resp.Status)
	}
}

func (s *Source) probe() (int64, string, string, error) {
	resp, err := s.get("bytes=0-0")
	if err != nil {
		return 0, "", "", err
	}
	defer drain(resp.Body)
	if err := checkPartial(resp); err != nil {
		return 0, "", "", err
	}
	size, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return 0, "", "", err
	}
	return size, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

func (s *Source) newRequest(method string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequest(method, s.url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if s.etag != "" && req.Header.Get("If-Match") == "" {
		req.Header.Set("If-Match", s.etag)
	}
	if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
		req.Header.Set("If-Unmodified-Since", s.lastModified)
	}
	return req, nil
}

type body struct {
	io.ReadCloser
	r io.Reader
}

func (b *body) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

func (b *body) Close() error {
	drain(b.ReadCloser)
	return nil
}

func drain(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}

func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
