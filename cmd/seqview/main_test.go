package main

import (
	"bytes"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/seqview/internal/testutil"
)

const genome = ">chr1 first\nACGTA\nCGTAC\nGG\n>chr2\nTTTT\n"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestUsage(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: seqview")

	code, _, stderr = runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, _, _ = runCLI(t, "fetch", "only-a-file")
	assert.Equal(t, 2, code)
}

func TestView(t *testing.T) {
	t.Parallel()

	stream := testutil.NewBAM("@HD\tVN:1.6", testutil.Ref{Name: "chr1", Length: 1000}).
		Add(testutil.Alignment{
			RefID: 0, Pos: 9, NextRefID: -1, NextPos: -1,
			Name: "r1", Cigar: []uint32{testutil.Op(4, 'M')}, Seq: "ACGT",
		}).
		Bytes()
	path := writeFile(t, "reads.bam", stream)

	code, stdout, stderr := runCLI(t, "view", "-H", path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "@HD\tVN:1.6\nr1\t0\tchr1\t10\t0\t4M\t*\t0\t0\tACGT\t*\n", stdout)

	code, stdout, _ = runCLI(t, "view", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "r1\t0\tchr1\t10\t0\t4M\t*\t0\t0\tACGT\t*\n", stdout)

	code, _, stderr = runCLI(t, "view", writeFile(t, "ref.fa", []byte(genome)))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "want bam")
}

func TestViewTruncated(t *testing.T) {
	t.Parallel()

	stream := testutil.NewBAM("", testutil.Ref{Name: "chr1", Length: 10}).
		Add(testutil.Alignment{RefID: 0, NextRefID: -1, Name: "r1", Seq: "AC"}).
		Bytes()
	path := writeFile(t, "cut.bam", stream[:len(stream)-3])

	code, _, stderr := runCLI(t, "view", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "seqview:")
}

func TestCatCompressed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(genome))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	path := writeFile(t, "ref.fa.gz", buf.Bytes())

	code, stdout, stderr := runCLI(t, "-v", "cat", path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, ">chr1 first\nACGTACGTACGG\n>chr2\nTTTT\n", stdout)
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestCatFASTQ(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "reads.fq", []byte("@r1\nACGT\n+\nIIII\n@r2 x\nGG\n+\n!!\n"))
	code, stdout, _ := runCLI(t, "cat", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "@r1\nACGT\n+\nIIII\n@r2 x\nGG\n+\n!!\n", stdout)
}

func TestFaidxThenFetch(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "ref.fa", []byte(genome))

	code, _, stderr := runCLI(t, "faidx", path)
	require.Equal(t, 0, code, stderr)
	table, err := os.ReadFile(path + ".fai")
	require.NoError(t, err)
	assert.Equal(t, "chr1\t12\t12\t5\t6\nchr2\t4\t33\t4\t5\n", string(table))

	code, stdout, _ := runCLI(t, "faidx", "-o", "-", path)
	require.Equal(t, 0, code)
	assert.Equal(t, string(table), stdout)

	code, stdout, stderr = runCLI(t, "fetch", path, "chr2", "chr1:4-8")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, ">chr2\nTTTT\n>chr1:4-8\nTACGT\n", stdout)

	code, _, stderr = runCLI(t, "fetch", path, "chrX")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")
}

func TestFetchFASTQWithCache(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "reads.fq", []byte("@r1\nACGT\n+\nIIII\n@r2\nGG\n+\n!#\n"))
	cacheDir := t.TempDir()

	for range 2 {
		code, stdout, stderr := runCLI(t, "fetch", "-cache-dir", cacheDir, path, "r2")
		require.Equal(t, 0, code, stderr)
		assert.Equal(t, "@r2\nGG\n+\n!#\n", stdout)
	}
	entries, err := os.ReadDir(filepath.Join(cacheDir, "sha256"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestFetchRemote(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "ref.fa", time.Time{}, strings.NewReader(genome))
	}))
	t.Cleanup(server.Close)

	code, stdout, stderr := runCLI(t, "fetch", server.URL+"/ref.fa", "chr1")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, ">chr1\nACGTACGTACGG\n", stdout)
}

func TestParseRegion(t *testing.T) {
	t.Parallel()

	name, start, end, ok := parseRegion("chr1:1,000-2,000")
	require.True(t, ok)
	assert.Equal(t, "chr1", name)
	assert.Equal(t, int64(1000), start)
	assert.Equal(t, int64(2000), end)

	for _, bad := range []string{"chr1", ":1-2", "chr1:5-1", "chr1:0-4", "chr1:a-b", "chr1:5"} {
		_, _, _, ok := parseRegion(bad)
		assert.False(t, ok, bad)
	}
}
