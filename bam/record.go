package bam

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/meigma/seqview/internal/seqtype"
)

// Flag bits of an alignment record.
const (
	FlagPaired        uint16 = 0x1
	FlagProperPair    uint16 = 0x2
	FlagUnmapped      uint16 = 0x4
	FlagMateUnmapped  uint16 = 0x8
	FlagReverse       uint16 = 0x10
	FlagMateReverse   uint16 = 0x20
	FlagRead1         uint16 = 0x40
	FlagRead2         uint16 = 0x80
	FlagSecondary     uint16 = 0x100
	FlagQCFail        uint16 = 0x200
	FlagDuplicate     uint16 = 0x400
	FlagSupplementary uint16 = 0x800
)

// fixedBlockLen is the size of the fixed-width fields that open every
// alignment block.
const fixedBlockLen = 32

// Record is one decoded alignment. RefID and NextRefID index the reference
// catalog; -1 means none. Positions are 0-based.
type Record struct {
	RefID     int32
	Pos       int32
	MapQ      uint8
	Bin       uint16
	Flag      uint16
	NextRefID int32
	NextPos   int32
	TLen      int32
	Name      string
	Cigar     Cigar
	Seq       []byte

	// Qual holds raw Phred scores, or nil when the stream marks quality as
	// absent.
	Qual []byte

	Aux AuxFields
}

// DecodeAlignment decodes one length-prefixed alignment block from the start
// of b. The whole block must be present; otherwise a *seqtype.ShortError
// reports the missing byte count. refs bounds the reference ids and supplies
// reference lengths for long-CIGAR correction.
func DecodeAlignment(b []byte, refs []Reference) (*Record, int, error) {
	if len(b) < 4 {
		return nil, 0, seqtype.Short(4 - len(b))
	}
	size := int32(binary.LittleEndian.Uint32(b))
	if size < 0 {
		return nil, 0, fmt.Errorf("%w: negative block size %d", ErrInvalidEncoding, size)
	}
	total := 4 + int(size)
	if len(b) < total {
		return nil, 0, seqtype.Short(total - len(b))
	}
	rec, err := decodeBlock(b[4:total], refs)
	if err != nil {
		return nil, 0, err
	}
	return rec, int(total), nil
}

func decodeBlock(block []byte, refs []Reference) (*Record, error) {
	if len(block) < fixedBlockLen {
		return nil, fmt.Errorf("%w: block of %d bytes is shorter than the fixed fields", ErrUnexpectedEOF, len(block))
	}
	r := &fieldReader{buf: block}
	rec := &Record{}

	// The fixed fields are bounds-checked above.
	rec.RefID, _ = r.Int32()
	rec.Pos, _ = r.Int32()
	nameLen, _ := r.Uint8()
	rec.MapQ, _ = r.Uint8()
	rec.Bin, _ = r.Uint16()
	numCigar, _ := r.Uint16()
	rec.Flag, _ = r.Uint16()
	seqLen, _ := r.Uint32()
	rec.NextRefID, _ = r.Int32()
	rec.NextPos, _ = r.Int32()
	rec.TLen, _ = r.Int32()

	if err := checkRefID(rec.RefID, refs, "reference"); err != nil {
		return nil, err
	}
	if err := checkRefID(rec.NextRefID, refs, "mate reference"); err != nil {
		return nil, err
	}

	name, err := r.read(int(nameLen))
	if err != nil {
		return nil, overrun(err, "read name")
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	rec.Name = string(name)

	raw, err := r.read(4 * int(numCigar))
	if err != nil {
		return nil, overrun(err, "cigar")
	}
	if rec.Cigar, err = UnpackCigar(raw, int(numCigar)); err != nil {
		return nil, err
	}

	if uint64(seqLen) > uint64(r.remaining()) {
		return nil, fmt.Errorf("%w: sequence length %d overruns alignment block", ErrUnexpectedEOF, seqLen)
	}
	n := int(seqLen)
	packed, err := r.read((n + 1) / 2)
	if err != nil {
		return nil, overrun(err, "sequence")
	}
	if rec.Seq, err = UnpackSequence(packed, n); err != nil {
		return nil, overrun(err, "sequence")
	}

	qual, err := r.read(n)
	if err != nil {
		return nil, overrun(err, "quality")
	}
	if !qualityAbsent(qual) {
		rec.Qual = bytes.Clone(qual)
	}

	for r.remaining() > 0 {
		f, err := decodeAux(r)
		if err != nil {
			return nil, overrun(err, "aux field")
		}
		rec.Aux.Set(f.Tag, f.Value)
	}

	if err := correctLongCigar(rec, refs); err != nil {
		return nil, err
	}
	return rec, nil
}

func checkRefID(id int32, refs []Reference, what string) error {
	if id < -1 || int(id) >= len(refs) {
		return fmt.Errorf("%w: %s id %d with %d references", ErrReferenceOutOfRange, what, id, len(refs))
	}
	return nil
}

// qualityAbsent reports whether q is the absent marker: every byte 0xFF.
// An empty quality string is absent.
func qualityAbsent(q []byte) bool {
	for _, c := range q {
		if c != 0xFF {
			return false
		}
	}
	return true
}

// correctLongCigar restores a CIGAR too long for the 16-bit op count. Such
// records carry a placeholder of a read-length soft clip followed by a skip
// of the reference length, with the real operations in a CG:B:I field.
func correctLongCigar(rec *Record, refs []Reference) error {
	if len(rec.Cigar) != 2 || rec.RefID < 0 {
		return nil
	}
	cg, ok := rec.Aux.Get("CG")
	if !ok {
		return nil
	}
	words, ok := cg.Uint32s()
	if !ok {
		return nil
	}
	clip := CigarOp{Type: CigarSoftClipped, Len: uint32(len(rec.Seq))}
	skip := CigarOp{Type: CigarSkipped, Len: refs[rec.RefID].Length}
	if rec.Cigar[0] != clip || rec.Cigar[1] != skip {
		return nil
	}

	ops := make(Cigar, len(words))
	for i, w := range words {
		op, err := UnpackCigarOp(w)
		if err != nil {
			return fmt.Errorf("CG field: %w", err)
		}
		ops[i] = op
	}
	rec.Cigar = ops
	rec.Aux.Delete("CG")
	return nil
}
