package bam

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/seqview/internal/seqtype"
	"github.com/meigma/seqview/internal/testutil"
)

var testRefs = []Reference{{Name: "chr1", Length: 1000}, {Name: "chr2", Length: 500}}

func TestDecodeHeader(t *testing.T) {
	t.Parallel()

	stream := testutil.NewBAM("@HD\tVN:1.6\n\x00\x00", testutil.Ref{Name: "chr1", Length: 1000}).Bytes()

	h, n, err := DecodeHeader(stream)
	require.NoError(t, err)
	assert.Equal(t, "@HD\tVN:1.6\n", h.Text)
	assert.Equal(t, 1, h.NumRefs)
	assert.Equal(t, 4+4+13+4, n)

	ref, m, err := DecodeReference(stream[n:])
	require.NoError(t, err)
	assert.Equal(t, Reference{Name: "chr1", Length: 1000}, ref)
	assert.Equal(t, len(stream)-n, m)
}

func TestDecodeHeaderIncremental(t *testing.T) {
	t.Parallel()

	stream := testutil.NewBAM("@HD\tVN:1.6\n").Bytes()
	for i := range len(stream) {
		_, _, err := DecodeHeader(stream[:i])
		short, ok := seqtype.AsShort(err)
		require.True(t, ok, "prefix %d: %v", i, err)
		assert.Positive(t, short.Need)
		assert.LessOrEqual(t, i+short.Need, len(stream))
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	t.Parallel()

	t.Run("bad magic", func(t *testing.T) {
		t.Parallel()
		_, _, err := DecodeHeader([]byte("BAX\x01rest"))
		require.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("bad magic on partial input", func(t *testing.T) {
		t.Parallel()
		_, _, err := DecodeHeader([]byte("CR"))
		require.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		t.Parallel()
		_, _, err := DecodeHeader(testutil.NewBAM("\xff\xfe").Bytes())
		require.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("negative text length", func(t *testing.T) {
		t.Parallel()
		b := binary.LittleEndian.AppendUint32(append([]byte(nil), Magic[:]...), 0xFFFFFFFF)
		_, _, err := DecodeHeader(append(b, 0, 0, 0, 0))
		require.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("negative name length", func(t *testing.T) {
		t.Parallel()
		_, _, err := DecodeReference([]byte{0xFE, 0xFF, 0xFF, 0xFF, 'c', 0, 1, 0, 0, 0})
		require.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("negative block size", func(t *testing.T) {
		t.Parallel()
		_, _, err := DecodeAlignment([]byte{0x00, 0x00, 0x00, 0x80, 1, 2, 3}, testRefs)
		require.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("invalid reference name", func(t *testing.T) {
		t.Parallel()
		_, _, err := DecodeReference(testutil.EncodeReference(testutil.Ref{Name: "*bad", Length: 1}))
		require.ErrorIs(t, err, ErrInvalidReferenceName)
	})
}

func TestDecodeAlignment(t *testing.T) {
	t.Parallel()

	block := testutil.EncodeAlignment(testutil.Alignment{
		RefID: 0, Pos: 99, MapQ: 60, Bin: 4681, Flag: 0x63,
		NextRefID: 0, NextPos: 199, TLen: 150,
		Name:  "read1",
		Cigar: []uint32{testutil.Op(2, 'S'), testutil.Op(4, 'M')},
		Seq:   "ACGTAC",
		Qual:  []byte{30, 31, 32, 33, 34, 35},
		Aux:   testutil.Concat(testutil.AuxUint8("NM", 2), testutil.AuxString("RG", "grp")),
	})

	rec, n, err := DecodeAlignment(block, testRefs)
	require.NoError(t, err)
	assert.Equal(t, len(block), n)
	assert.Equal(t, int32(0), rec.RefID)
	assert.Equal(t, int32(99), rec.Pos)
	assert.Equal(t, uint8(60), rec.MapQ)
	assert.Equal(t, uint16(4681), rec.Bin)
	assert.Equal(t, uint16(0x63), rec.Flag)
	assert.Equal(t, int32(199), rec.NextPos)
	assert.Equal(t, int32(150), rec.TLen)
	assert.Equal(t, "read1", rec.Name)
	assert.Equal(t, "2S4M", rec.Cigar.String())
	assert.Equal(t, "ACGTAC", string(rec.Seq))
	assert.Equal(t, []byte{30, 31, 32, 33, 34, 35}, rec.Qual)
	assert.Equal(t, "NM:i:2\tRG:Z:grp", rec.Aux.String())
}

func TestDecodeAlignmentIncremental(t *testing.T) {
	t.Parallel()

	block := testutil.EncodeAlignment(testutil.Alignment{RefID: -1, Pos: -1, NextRefID: -1, NextPos: -1, Name: "r", Seq: "ACG"})
	for i := range len(block) {
		_, _, err := DecodeAlignment(block[:i], testRefs)
		short, ok := seqtype.AsShort(err)
		require.True(t, ok, "prefix %d", i)
		if i >= 4 {
			assert.Equal(t, len(block)-i, short.Need)
		}
	}
}

func TestDecodeAlignmentQualityAbsent(t *testing.T) {
	t.Parallel()

	block := testutil.EncodeAlignment(testutil.Alignment{RefID: -1, NextRefID: -1, Name: "r", Seq: "ACGT"})
	rec, _, err := DecodeAlignment(block, nil)
	require.NoError(t, err)
	assert.Nil(t, rec.Qual)

	block = testutil.EncodeAlignment(testutil.Alignment{RefID: -1, NextRefID: -1, Name: "r"})
	rec, _, err = DecodeAlignment(block, nil)
	require.NoError(t, err)
	assert.Empty(t, rec.Seq)
	assert.Nil(t, rec.Qual)
}

func TestDecodeAlignmentDuplicateTags(t *testing.T) {
	t.Parallel()

	block := testutil.EncodeAlignment(testutil.Alignment{
		RefID: -1, NextRefID: -1, Name: "r",
		Aux: testutil.Concat(testutil.AuxUint8("NM", 1), testutil.AuxChar("XA", 'a'), testutil.AuxUint8("NM", 7)),
	})
	rec, _, err := DecodeAlignment(block, nil)
	require.NoError(t, err)
	assert.Equal(t, "NM:i:7\tXA:A:a", rec.Aux.String())
}

func TestDecodeAlignmentErrors(t *testing.T) {
	t.Parallel()

	t.Run("reference out of range", func(t *testing.T) {
		t.Parallel()
		block := testutil.EncodeAlignment(testutil.Alignment{RefID: 2, NextRefID: -1, Name: "r"})
		_, _, err := DecodeAlignment(block, testRefs)
		require.ErrorIs(t, err, ErrReferenceOutOfRange)
	})

	t.Run("mate reference out of range", func(t *testing.T) {
		t.Parallel()
		block := testutil.EncodeAlignment(testutil.Alignment{RefID: 0, NextRefID: -2, Name: "r"})
		_, _, err := DecodeAlignment(block, testRefs)
		require.ErrorIs(t, err, ErrReferenceOutOfRange)
	})

	t.Run("unknown cigar code", func(t *testing.T) {
		t.Parallel()
		block := testutil.EncodeAlignment(testutil.Alignment{RefID: -1, NextRefID: -1, Name: "r", Cigar: []uint32{3<<4 | 12}})
		_, _, err := DecodeAlignment(block, nil)
		require.ErrorIs(t, err, ErrUnknownCode)
	})

	t.Run("block shorter than fixed fields", func(t *testing.T) {
		t.Parallel()
		_, _, err := DecodeAlignment([]byte{4, 0, 0, 0, 1, 2, 3, 4}, nil)
		require.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("field overruns block", func(t *testing.T) {
		t.Parallel()
		block := testutil.EncodeAlignment(testutil.Alignment{RefID: -1, NextRefID: -1, Name: "r", Seq: "ACGT"})
		// Shrink the declared size and drop the last byte of the block.
		block = block[:len(block)-1]
		block[0]--
		_, _, err := DecodeAlignment(block, nil)
		require.ErrorIs(t, err, ErrUnexpectedEOF)
		assert.NotErrorIs(t, err, ErrShortBuffer)
	})

	t.Run("truncated aux", func(t *testing.T) {
		t.Parallel()
		block := testutil.EncodeAlignment(testutil.Alignment{RefID: -1, NextRefID: -1, Name: "r", Aux: []byte{'N', 'M', 'i', 1}})
		_, _, err := DecodeAlignment(block, nil)
		require.ErrorIs(t, err, ErrUnexpectedEOF)
	})
}

func TestLongCigarCorrection(t *testing.T) {
	t.Parallel()

	trueOps := []uint32{testutil.Op(3, 'M'), testutil.Op(1, 'I'), testutil.Op(2, 'M')}
	base := testutil.Alignment{RefID: 0, NextRefID: -1, Name: "long", Seq: "ACGTAC"}

	t.Run("fires", func(t *testing.T) {
		t.Parallel()
		a := base
		a.Cigar = []uint32{testutil.Op(6, 'S'), testutil.Op(1000, 'N')}
		a.Aux = testutil.Concat(testutil.AuxUint8("NM", 0), testutil.AuxUint32Array("CG", trueOps...))
		rec, _, err := DecodeAlignment(testutil.EncodeAlignment(a), testRefs)
		require.NoError(t, err)
		assert.Equal(t, "3M1I2M", rec.Cigar.String())
		_, ok := rec.Aux.Get("CG")
		assert.False(t, ok, "CG removed")
		assert.Equal(t, "NM:i:0", rec.Aux.String())
	})

	t.Run("wrong skip length", func(t *testing.T) {
		t.Parallel()
		a := base
		a.Cigar = []uint32{testutil.Op(6, 'S'), testutil.Op(999, 'N')}
		a.Aux = testutil.AuxUint32Array("CG", trueOps...)
		rec, _, err := DecodeAlignment(testutil.EncodeAlignment(a), testRefs)
		require.NoError(t, err)
		assert.Equal(t, "6S999N", rec.Cigar.String())
		_, ok := rec.Aux.Get("CG")
		assert.True(t, ok)
	})

	t.Run("wrong clip length", func(t *testing.T) {
		t.Parallel()
		a := base
		a.Cigar = []uint32{testutil.Op(5, 'S'), testutil.Op(1000, 'N')}
		a.Aux = testutil.AuxUint32Array("CG", trueOps...)
		rec, _, err := DecodeAlignment(testutil.EncodeAlignment(a), testRefs)
		require.NoError(t, err)
		assert.Equal(t, "5S1000N", rec.Cigar.String())
	})

	t.Run("CG not an uint32 array", func(t *testing.T) {
		t.Parallel()
		a := base
		a.Cigar = []uint32{testutil.Op(6, 'S'), testutil.Op(1000, 'N')}
		a.Aux = testutil.AuxInt16Array("CG", 1, 2)
		rec, _, err := DecodeAlignment(testutil.EncodeAlignment(a), testRefs)
		require.NoError(t, err)
		assert.Equal(t, "6S1000N", rec.Cigar.String())
	})

	t.Run("three ops", func(t *testing.T) {
		t.Parallel()
		a := base
		a.Cigar = []uint32{testutil.Op(6, 'S'), testutil.Op(1000, 'N'), testutil.Op(1, 'M')}
		a.Aux = testutil.AuxUint32Array("CG", trueOps...)
		rec, _, err := DecodeAlignment(testutil.EncodeAlignment(a), testRefs)
		require.NoError(t, err)
		assert.Len(t, rec.Cigar, 3)
	})

	t.Run("bad CG code", func(t *testing.T) {
		t.Parallel()
		a := base
		a.Cigar = []uint32{testutil.Op(6, 'S'), testutil.Op(1000, 'N')}
		a.Aux = testutil.AuxUint32Array("CG", 6<<4|15)
		_, _, err := DecodeAlignment(testutil.EncodeAlignment(a), testRefs)
		require.ErrorIs(t, err, ErrUnknownCode)
	})
}
