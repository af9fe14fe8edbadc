package bam

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/meigma/seqview/internal/seqtype"
)

// CigarOpType is the kind of a CIGAR operation.
type CigarOpType uint8

// CIGAR operation kinds in their packed code order.
const (
	CigarMatch CigarOpType = iota
	CigarInsertion
	CigarDeletion
	CigarSkipped
	CigarSoftClipped
	CigarHardClipped
	CigarPadded
	CigarEqual
	CigarMismatch
)

const cigarCodes = "MIDNSHP=X"

// MaxCigarOpLen is the largest run length a packed operation can carry.
const MaxCigarOpLen = 1<<28 - 1

// String returns the single-character SAM code.
func (t CigarOpType) String() string {
	if int(t) < len(cigarCodes) {
		return cigarCodes[t : t+1]
	}
	return "?"
}

// ConsumesQuery reports whether the operation advances along the read.
func (t CigarOpType) ConsumesQuery() bool {
	switch t {
	case CigarMatch, CigarInsertion, CigarSoftClipped, CigarEqual, CigarMismatch:
		return true
	case CigarDeletion, CigarSkipped, CigarHardClipped, CigarPadded:
		return false
	default:
		return false
	}
}

// ConsumesReference reports whether the operation advances along the
// reference.
func (t CigarOpType) ConsumesReference() bool {
	switch t {
	case CigarMatch, CigarDeletion, CigarSkipped, CigarEqual, CigarMismatch:
		return true
	case CigarInsertion, CigarSoftClipped, CigarHardClipped, CigarPadded:
		return false
	default:
		return false
	}
}

// CigarOp is one run-length CIGAR operation.
type CigarOp struct {
	Type CigarOpType
	Len  uint32
}

// String returns the operation in SAM text form, for example "10M".
func (o CigarOp) String() string {
	return strconv.FormatUint(uint64(o.Len), 10) + o.Type.String()
}

// Pack returns the packed uint32 form: length in the upper 28 bits, kind in
// the low 4.
func (o CigarOp) Pack() uint32 {
	return o.Len<<4 | uint32(o.Type)
}

// UnpackCigarOp decodes one packed operation.
func UnpackCigarOp(v uint32) (CigarOp, error) {
	kind := v & 0xF
	if int(kind) >= len(cigarCodes) {
		return CigarOp{}, fmt.Errorf("%w: cigar operation code %d", ErrUnknownCode, kind)
	}
	return CigarOp{Type: CigarOpType(kind), Len: v >> 4}, nil
}

// Cigar is an ordered list of operations.
type Cigar []CigarOp

// String returns the SAM text form, or "*" when empty.
func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var sb strings.Builder
	for _, op := range c {
		sb.WriteString(op.String())
	}
	return sb.String()
}

// QueryLength returns the number of read bases the operations cover.
func (c Cigar) QueryLength() int {
	n := 0
	for _, op := range c {
		if op.Type.ConsumesQuery() {
			n += int(op.Len)
		}
	}
	return n
}

// ReferenceLength returns the number of reference bases the operations span.
func (c Cigar) ReferenceLength() int {
	n := 0
	for _, op := range c {
		if op.Type.ConsumesReference() {
			n += int(op.Len)
		}
	}
	return n
}

// PackCigar encodes operations as consecutive little-endian uint32 values.
func PackCigar(c Cigar) []byte {
	out := make([]byte, 0, 4*len(c))
	for _, op := range c {
		out = binary.LittleEndian.AppendUint32(out, op.Pack())
	}
	return out
}

// UnpackCigar decodes n packed operations from the start of b.
func UnpackCigar(b []byte, n int) (Cigar, error) {
	if len(b) < 4*n {
		return nil, seqtype.Short(4*n - len(b))
	}
	if n == 0 {
		return nil, nil
	}
	ops := make(Cigar, n)
	for i := range n {
		op, err := UnpackCigarOp(binary.LittleEndian.Uint32(b[4*i:]))
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
