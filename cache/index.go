package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/seqview/faidx"
	"github.com/meigma/seqview/metrics"
)

// IndexCache builds faidx indexes on demand and keeps them in a Store.
//
// Concurrent requests for the same file share one build.
type IndexCache struct {
	store   Store
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Collector
	opts    []faidx.Option
}

// Option configures an IndexCache.
type Option func(*IndexCache)

// WithLogger sets the logger for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *IndexCache) {
		c.logger = logger
	}
}

// WithMetrics records cache hits and misses on m. The collector is also
// handed to the indexer on a miss.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *IndexCache) {
		c.metrics = m
	}
}

// WithIndexerOptions passes options to faidx.Build on a miss.
func WithIndexerOptions(opts ...faidx.Option) Option {
	return func(c *IndexCache) {
		c.opts = append(c.opts, opts...)
	}
}

// NewIndexCache returns an IndexCache backed by store.
func NewIndexCache(store Store, opts ...Option) *IndexCache {
	c := &IndexCache{store: store}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Index returns the index of rs, building and storing it when the store has
// none for the current content. rs is digested from offset 0 and left
// positioned at offset 0.
func (c *IndexCache) Index(rs io.ReadSeeker, format faidx.Format) (*faidx.Index, error) {
	sum, err := contentDigest(rs)
	if err != nil {
		return nil, err
	}
	key := indexKey(sum, format)
	log := c.logger.With("digest", sum.String(), "format", format.String())

	if idx, ok := c.lookup(key, format, log); ok {
		c.metrics.RecordCacheHit(format.String())
		log.Debug("index cache hit")
		return idx, nil
	}

	res, err, shared := c.group.Do(key.String(), func() (any, error) {
		if idx, ok := c.lookup(key, format, log); ok {
			return idx, nil
		}
		c.metrics.RecordCacheMiss(format.String())
		log.Debug("index cache miss")

		opts := append([]faidx.Option{faidx.WithLogger(c.logger), faidx.WithMetrics(c.metrics)}, c.opts...)
		idx, err := faidx.Build(rs, format, opts...)
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		var buf bytes.Buffer
		if _, err := idx.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("encode index: %w", err)
		}
		if err := c.store.Put(key, buf.Bytes()); err != nil {
			log.Warn("index cache store failed", "error", err)
		}
		return idx, nil
	})
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil && err == nil {
		err = fmt.Errorf("rewind source: %w", serr)
	}
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("index build shared")
	}
	idx, _ := res.(*faidx.Index) //nolint:errcheck // always *faidx.Index when err is nil
	return idx, nil
}

func (c *IndexCache) lookup(key digest.Digest, format faidx.Format, log *slog.Logger) (*faidx.Index, bool) {
	data, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	idx, err := faidx.Load(bytes.NewReader(data), format)
	if err != nil {
		log.Warn("discarding unreadable cached index", "error", err)
		return nil, false
	}
	return idx, true
}

// contentDigest hashes rs from offset 0 and rewinds it.
func contentDigest(rs io.ReadSeeker) (digest.Digest, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind source: %w", err)
	}
	sum, err := digest.SHA256.FromReader(rs)
	if err != nil {
		return "", fmt.Errorf("digest source: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind source: %w", err)
	}
	if err := sum.Validate(); err != nil {
		return "", errors.Join(errors.New("digest source"), err)
	}
	return sum, nil
}

// indexKey separates the FASTA and FASTQ indexes of the same bytes.
func indexKey(content digest.Digest, format faidx.Format) digest.Digest {
	return digest.SHA256.FromString(format.String() + "\x00" + content.String())
}
