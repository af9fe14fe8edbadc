// Package metrics exposes Prometheus counters for seqview readers, indexers,
// and the index cache.
//
// A nil *Collector is valid and records nothing, so components accept one
// unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Format labels used on every counter.
const (
	FormatBAM   = "bam"
	FormatFASTA = "fasta"
	FormatFASTQ = "fastq"
)

// Collector groups the counters recorded by seqview components.
type Collector struct {
	records     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	compactions *prometheus.CounterVec
	indexed     *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

// New creates a Collector and registers its counters with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seqview_records_decoded_total",
			Help: "Count of records decoded, labeled by format.",
		}, []string{"format"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seqview_decode_failures_total",
			Help: "Count of readers halted by a decode error, labeled by format.",
		}, []string{"format"}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seqview_buffer_compactions_total",
			Help: "Count of read buffer compactions, labeled by format.",
		}, []string{"format"}),
		indexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seqview_index_entries_total",
			Help: "Count of index entries produced by scans, labeled by format.",
		}, []string{"format"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seqview_index_cache_requests_total",
			Help: "Count of index cache lookups labeled by format and result.",
		}, []string{"format", "result"}),
	}
	for _, col := range []prometheus.Collector{c.records, c.failures, c.compactions, c.indexed, c.cache} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on registration failure.
func MustNew(reg prometheus.Registerer) *Collector {
	c, err := New(reg)
	if err != nil {
		panic(err)
	}
	return c
}

// RecordDecoded counts one decoded record.
func (c *Collector) RecordDecoded(format string) {
	if c == nil {
		return
	}
	c.records.WithLabelValues(format).Inc()
}

// RecordFailure counts one reader halted by a fatal error.
func (c *Collector) RecordFailure(format string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(format).Inc()
}

// RecordCompaction counts one buffer compaction.
func (c *Collector) RecordCompaction(format string) {
	if c == nil {
		return
	}
	c.compactions.WithLabelValues(format).Inc()
}

// RecordIndexed counts one index entry produced by a scan.
func (c *Collector) RecordIndexed(format string) {
	if c == nil {
		return
	}
	c.indexed.WithLabelValues(format).Inc()
}

// RecordCacheHit counts an index cache hit.
func (c *Collector) RecordCacheHit(format string) {
	if c == nil {
		return
	}
	c.cache.WithLabelValues(format, "hit").Inc()
}

// RecordCacheMiss counts an index cache miss.
func (c *Collector) RecordCacheMiss(format string) {
	if c == nil {
		return
	}
	c.cache.WithLabelValues(format, "miss").Inc()
}
