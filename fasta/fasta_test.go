package fasta

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/seqview/internal/framed"
	"github.com/meigma/seqview/internal/seqtype"
)

func readAll(t *testing.T, r *Reader) ([]Record, error) {
	t.Helper()
	var out []Record
	for rec, err := range r.All() {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestReader(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader(">seq1\nATGC\nATGC\n>seq2\nGGGG\n"))
	recs, err := readAll(t, r)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{ID: "seq1", Seq: []byte("ATGCATGC")},
		{ID: "seq2", Seq: []byte("GGGG")},
	}, recs)
	assert.Equal(t, framed.StateComplete, r.State())

	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []Record
	}{
		{
			name:  "crlf and description",
			input: ">chr1 human chromosome 1\r\nAC\r\nGT\r\n",
			want:  []Record{{ID: "chr1", Desc: "human chromosome 1", Seq: []byte("ACGT")}},
		},
		{
			name:  "no final newline",
			input: ">a\nAC\n>b\nGT",
			want:  []Record{{ID: "a", Seq: []byte("AC")}, {ID: "b", Seq: []byte("GT")}},
		},
		{
			name:  "blank lines",
			input: "\n\n>a\nAC\n\nGT\n\n\n",
			want:  []Record{{ID: "a", Seq: []byte("ACGT")}},
		},
		{
			name:  "trailing whitespace is sequence",
			input: ">a\nACGT \nAC\t\n",
			want:  []Record{{ID: "a", Seq: []byte("ACGT AC\t")}},
		},
		{
			name:  "empty input",
			input: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			recs, err := readAll(t, NewReader(iotest.OneByteReader(strings.NewReader(tt.input)), WithReadBufferSize(16)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, recs)
		})
	}
}

func TestReaderLongRecord(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("ACGT", 15) + "\n"
	input := ">big\n" + strings.Repeat(line, 5000) + ">small\nA\n"
	recs, err := readAll(t, NewReader(strings.NewReader(input), WithCompactThreshold(0)))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Len(t, recs[0].Seq, 60*5000)
	assert.Equal(t, "small", recs[1].ID)
}

func TestReaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		good  int
		err   error
	}{
		{"missing marker", "seq1\nACGT\n", 0, ErrMissingMarker},
		{"truncated id", ">\nACGT\n", 0, ErrTruncatedID},
		{"truncated id with description", "> desc\nACGT\n", 0, ErrTruncatedID},
		{"missing sequence", ">a\nAC\n>b\n>c\nGT\n", 1, ErrMissingSequence},
		{"missing sequence at eof", ">a\n", 0, ErrMissingSequence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewReader(strings.NewReader(tt.input))
			recs, err := readAll(t, r)
			require.ErrorIs(t, err, tt.err)
			assert.Len(t, recs, tt.good)
			assert.Equal(t, framed.StateFailed, r.State())
			require.ErrorIs(t, r.Err(), tt.err)
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	t.Parallel()

	_, _, err := Decode([]byte(">a\nAC\n"), false)
	assert.ErrorIs(t, err, seqtype.ErrShortBuffer)

	rec, n, err := Decode([]byte(">a\nAC\n>b"), false)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.ID)
	assert.Equal(t, 6, n)

	_, _, err = Decode([]byte("\n\n"), true)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecordString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ">a x y\nAC\n", Record{ID: "a", Desc: "x y", Seq: []byte("AC")}.String())
	assert.Equal(t, ">a\nAC\n", Record{ID: "a", Seq: []byte("AC")}.String())
}
