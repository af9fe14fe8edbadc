package main

import (
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/meigma/seqview"
	"github.com/meigma/seqview/cache"
	"github.com/meigma/seqview/cache/disk"
	"github.com/meigma/seqview/faidx"
	"github.com/meigma/seqview/fasta"
	"github.com/meigma/seqview/fastq"
	seqhttp "github.com/meigma/seqview/source/http"
)

func (a *app) faidx(args []string) error {
	fs := a.subcommand("faidx", "[-o out.fai] file")
	out := fs.String("o", "", "index output path (default <file>.fai, - for stdout)")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	path := fs.Arg(0)

	f, err := os.Open(path) //nolint:gosec // caller-selected input file
	if err != nil {
		return err
	}
	defer f.Close()

	format, err := sniff(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	idx, err := faidx.Build(f, format, faidx.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}

	dst := *out
	if dst == "" {
		dst = path + ".fai"
	}
	if dst == "-" {
		_, err = idx.WriteTo(a.stdout)
		return err
	}
	w, err := os.Create(dst) //nolint:gosec // caller-selected output file
	if err != nil {
		return err
	}
	if _, err := idx.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (a *app) fetch(args []string) error {
	fs := a.subcommand("fetch", "[-i index] [-cache-dir dir] file|url name|name:start-end...")
	indexPath := fs.String("i", "", "index table (default <file>.fai when present)")
	cacheDir := fs.String("cache-dir", "", "keep built indexes in dir")
	timeout := fs.Duration("timeout", 30*time.Second, "HTTP request timeout")
	if err := parse(fs, args, 2); err != nil {
		return err
	}
	target := fs.Arg(0)

	rs, closer, err := a.openSeekable(target, *timeout)
	if err != nil {
		return err
	}
	defer closer.Close()

	format, err := sniff(rs)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	idx, err := a.loadIndex(rs, target, *indexPath, *cacheDir, format)
	if err != nil {
		return err
	}

	r := faidx.NewReader(idx, rs)
	for _, query := range fs.Args()[1:] {
		out, err := fetchOne(r, query)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(a.stdout, out); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) openSeekable(target string, timeout time.Duration) (io.ReadSeeker, io.Closer, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		src, err := seqhttp.NewSource(target,
			seqhttp.WithClient(&nethttp.Client{Timeout: timeout}),
			seqhttp.WithLogger(a.logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return src.SectionReader(), nopCloser{}, nil
	}
	f, err := os.Open(target) //nolint:gosec // caller-selected input file
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func (a *app) loadIndex(rs io.ReadSeeker, target, indexPath, cacheDir string, format faidx.Format) (*faidx.Index, error) {
	if indexPath == "" && !strings.Contains(target, "://") {
		if _, err := os.Stat(target + ".fai"); err == nil {
			indexPath = target + ".fai"
		}
	}
	if indexPath != "" {
		f, err := os.Open(indexPath) //nolint:gosec // caller-selected index file
		if err != nil {
			return nil, err
		}
		defer f.Close()
		idx, err := faidx.Load(f, format)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", indexPath, err)
		}
		return idx, nil
	}
	if cacheDir != "" {
		store, err := disk.New(cacheDir)
		if err != nil {
			return nil, err
		}
		return cache.NewIndexCache(store, cache.WithLogger(a.logger)).Index(rs, format)
	}
	idx, err := faidx.Build(rs, format, faidx.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", target, err)
	}
	return idx, nil
}

// fetchOne resolves query as a record name, or as name:start-end with
// 1-based inclusive coordinates.
func fetchOne(r *faidx.Reader, query string) (string, error) {
	if _, ok := r.Index().Lookup(query); !ok {
		if name, start, end, ok := parseRegion(query); ok {
			seq, err := r.FetchRange(name, start-1, end)
			if err != nil {
				return "", err
			}
			return fasta.Record{ID: query, Seq: seq}.String(), nil
		}
	}
	rec, err := r.Fetch(query)
	if err != nil {
		return "", err
	}
	if r.Index().Format() == faidx.FASTQ {
		return fastq.Record{ID: rec.Name, Seq: rec.Seq, Qual: rec.Qual}.String(), nil
	}
	return fasta.Record{ID: rec.Name, Seq: rec.Seq}.String(), nil
}

func parseRegion(query string) (string, int64, int64, bool) {
	i := strings.LastIndexByte(query, ':')
	if i <= 0 {
		return "", 0, 0, false
	}
	from, to, ok := strings.Cut(query[i+1:], "-")
	if !ok {
		return "", 0, 0, false
	}
	start, err1 := strconv.ParseInt(strings.ReplaceAll(from, ",", ""), 10, 64)
	end, err2 := strconv.ParseInt(strings.ReplaceAll(to, ",", ""), 10, 64)
	if err1 != nil || err2 != nil || start < 1 || end < start {
		return "", 0, 0, false
	}
	return query[:i], start, end, true
}

// sniff reads the start of rs to pick the index layout and rewinds it.
func sniff(rs io.ReadSeeker) (faidx.Format, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(rs, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	switch seqview.DetectFormat(head[:n]) {
	case seqview.FormatFASTA:
		return faidx.FASTA, nil
	case seqview.FormatFASTQ:
		return faidx.FASTQ, nil
	default:
		return 0, errors.New("indexing needs an uncompressed fasta or fastq file")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
