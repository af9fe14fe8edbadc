package cache_test

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/seqview/cache"
	"github.com/meigma/seqview/cache/disk"
	"github.com/meigma/seqview/faidx"
	"github.com/meigma/seqview/metrics"
	seqtest "github.com/meigma/seqview/internal/testutil"
)

const genome = ">chr1\nACGTA\nCG\n>chr2 second\nTTTT\n"

func TestIndexCacheMissThenHit(t *testing.T) {
	t.Parallel()

	store := seqtest.NewMockCache()
	reg := prometheus.NewRegistry()
	m := metrics.MustNew(reg)
	ic := cache.NewIndexCache(store, cache.WithMetrics(m))

	src := strings.NewReader(genome)
	first, err := ic.Index(src, faidx.FASTA)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chr2"}, first.Names())
	assert.Equal(t, 1, store.Puts())

	pos, err := src.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Zero(t, pos, "source rewound")

	second, err := ic.Index(strings.NewReader(genome), faidx.FASTA)
	require.NoError(t, err)
	assert.Equal(t, first.Entries(), second.Entries())
	assert.Equal(t, 1, store.Puts(), "hit does not rebuild")

	assert.InDelta(t, 1, cacheRequests(t, reg, "miss"), 0)
	assert.InDelta(t, 1, cacheRequests(t, reg, "hit"), 0)
}

func cacheRequests(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "seqview_index_cache_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestIndexCacheKeysByContentAndFormat(t *testing.T) {
	t.Parallel()

	store := seqtest.NewMockCache()
	ic := cache.NewIndexCache(store)

	_, err := ic.Index(strings.NewReader(genome), faidx.FASTA)
	require.NoError(t, err)
	_, err = ic.Index(strings.NewReader(genome+">chr3\nGG\n"), faidx.FASTA)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Puts())

	_, err = ic.Index(strings.NewReader("@r\nAC\n+\nII\n"), faidx.FASTQ)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Puts())
}

func TestIndexCacheBuildError(t *testing.T) {
	t.Parallel()

	store := seqtest.NewMockCache()
	ic := cache.NewIndexCache(store)

	_, err := ic.Index(strings.NewReader("chr1\nACGT\n"), faidx.FASTA)
	require.ErrorIs(t, err, faidx.ErrMissingMarker)
	assert.Zero(t, store.Puts())
}

func TestIndexCacheCorruptEntryRebuilds(t *testing.T) {
	t.Parallel()

	store := seqtest.NewMockCache()
	ic := cache.NewIndexCache(store)
	_, err := ic.Index(strings.NewReader(genome), faidx.FASTA)
	require.NoError(t, err)

	// Overwrite every stored entry with garbage.
	for _, d := range store.Keys() {
		require.NoError(t, store.Put(d, []byte("not\tan\tindex\n")))
	}

	idx, err := ic.Index(strings.NewReader(genome), faidx.FASTA)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestIndexCacheConcurrent(t *testing.T) {
	t.Parallel()

	store := seqtest.NewMockCache()
	ic := cache.NewIndexCache(store)

	data := []byte(genome + ">chr3\n" + strings.Repeat("ACGT\n", 200))
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := ic.Index(bytes.NewReader(data), faidx.FASTA)
			if err == nil && idx.Len() != 3 {
				err = io.ErrUnexpectedEOF
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, store.Puts(), 1)
}

func TestIndexCacheWithDiskStore(t *testing.T) {
	t.Parallel()

	store, err := disk.New(t.TempDir())
	require.NoError(t, err)

	ic := cache.NewIndexCache(store)
	idx, err := ic.Index(strings.NewReader(genome), faidx.FASTA)
	require.NoError(t, err)

	again, err := cache.NewIndexCache(store).Index(strings.NewReader(genome), faidx.FASTA)
	require.NoError(t, err)
	assert.Equal(t, idx.Entries(), again.Entries())

	r := faidx.NewReader(again, strings.NewReader(genome))
	rec, err := r.Fetch("chr1")
	require.NoError(t, err)
	assert.Equal(t, "ACGTACG", string(rec.Seq))
}
