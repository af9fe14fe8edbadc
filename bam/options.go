package bam

import (
	"log/slog"

	"github.com/meigma/seqview/internal/framed"
	"github.com/meigma/seqview/metrics"
)

// Option configures a Reader.
type Option = framed.Option

// WithLogger sets the logger for reader events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return framed.WithLogger(logger)
}

// WithMetrics records decoded records and failures on m.
func WithMetrics(m *metrics.Collector) Option {
	return framed.WithMetrics(m)
}

// WithCompactThreshold sets how many consumed bytes the read buffer holds
// before it drops them (default framed.DefaultCompactThreshold).
func WithCompactThreshold(n int) Option {
	return framed.WithBufferOptions(framed.WithCompactThreshold(n))
}

// WithReadBufferSize sets the size of the buffered reader wrapped around the
// source (default framed.DefaultReadBufferSize).
func WithReadBufferSize(n int) Option {
	return framed.WithBufferOptions(framed.WithReadBufferSize(n))
}
