package faidx

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Load parses a tab-separated index table. FASTA rows hold name, length,
// offset, line bases, and line width; FASTQ rows add the quality offset.
// Blank lines are ignored.
func Load(r io.Reader, format Format) (*Index, error) {
	if !format.valid() {
		return nil, fmt.Errorf("faidx: unsupported format %d", format)
	}
	idx := newIndex(format)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := parseRow(line, format)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		idx.add(e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return idx, nil
}

func parseRow(line string, format Format) (Entry, error) {
	cols := strings.Split(line, "\t")
	if len(cols) != format.columns() {
		return Entry{}, fmt.Errorf("%w: %d columns, want %d", ErrMalformedIndex, len(cols), format.columns())
	}
	var nums [5]int64
	for i, col := range cols[1:] {
		v, err := strconv.ParseInt(col, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: column %d: %q is not a number", ErrMalformedIndex, i+2, col)
		}
		nums[i] = v
	}
	e := Entry{
		Name:       cols[0],
		Length:     nums[0],
		Offset:     nums[1],
		LineBases:  nums[2],
		LineWidth:  nums[3],
		QualOffset: nums[4],
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// WriteTo writes the index table in insertion order.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, e := range ix.entries {
		n, err := bw.WriteString(ix.row(e))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

func (ix *Index) row(e Entry) string {
	fields := []string{
		e.Name,
		strconv.FormatInt(e.Length, 10),
		strconv.FormatInt(e.Offset, 10),
		strconv.FormatInt(e.LineBases, 10),
		strconv.FormatInt(e.LineWidth, 10),
	}
	if ix.format == FASTQ {
		fields = append(fields, strconv.FormatInt(e.QualOffset, 10))
	}
	return strings.Join(fields, "\t") + "\n"
}
