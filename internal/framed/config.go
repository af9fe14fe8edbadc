package framed

import (
	"log/slog"

	"github.com/meigma/seqview/metrics"
)

// Config carries the ambient settings shared by every format reader.
type Config struct {
	// Format labels log lines and metrics.
	Format string

	Logger        *slog.Logger
	Metrics       *metrics.Collector
	BufferOptions []BufferOption
}

// Option configures a Config.
type Option func(*Config)

// NewConfig applies opts over the defaults for format.
func NewConfig(format string, opts ...Option) Config {
	cfg := Config{Format: format}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Log returns the configured logger, or a discarding logger.
func (c Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger.With("format", c.Format)
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithBufferOptions appends options applied to the reader's Buffer.
func WithBufferOptions(opts ...BufferOption) Option {
	return func(c *Config) {
		c.BufferOptions = append(c.BufferOptions, opts...)
	}
}

// ReadBufferSize returns the bufio.Reader size selected by the buffer
// options.
func (c Config) ReadBufferSize() int {
	b := Buffer{readSize: DefaultReadBufferSize}
	for _, opt := range c.BufferOptions {
		opt(&b)
	}
	return b.readSize
}
