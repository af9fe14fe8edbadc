package testutil

import (
	"encoding/binary"
	"math"
	"strings"
)

const (
	cigarCodes  = "MIDNSHP=X"
	nibbleCodes = "=ACMGRSVTWYHKDBN"
)

// Ref is a reference catalog entry for a built BAM stream.
type Ref struct {
	Name   string
	Length uint32
}

// Alignment holds the raw fields of one alignment block. Cigar holds packed
// operations, Seq holds symbols that are packed on encode, and Aux holds the
// concatenated encoded auxiliary fields.
type Alignment struct {
	RefID     int32
	Pos       int32
	MapQ      uint8
	Bin       uint16
	Flag      uint16
	NextRefID int32
	NextPos   int32
	TLen      int32
	Name      string
	Cigar     []uint32
	Seq       string
	Qual      []byte
	Aux       []byte
}

// BAMBuilder assembles an uncompressed BAM byte stream.
type BAMBuilder struct {
	buf []byte
}

// NewBAM starts a stream with the magic, header text, and reference catalog.
func NewBAM(text string, refs ...Ref) *BAMBuilder {
	b := &BAMBuilder{buf: []byte("BAM\x01")}
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(text)))
	b.buf = append(b.buf, text...)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(refs)))
	for _, r := range refs {
		b.buf = append(b.buf, EncodeReference(r)...)
	}
	return b
}

// Add appends an alignment block.
func (b *BAMBuilder) Add(a Alignment) *BAMBuilder {
	b.buf = append(b.buf, EncodeAlignment(a)...)
	return b
}

// Raw appends arbitrary bytes.
func (b *BAMBuilder) Raw(p []byte) *BAMBuilder {
	b.buf = append(b.buf, p...)
	return b
}

// Bytes returns the assembled stream.
func (b *BAMBuilder) Bytes() []byte {
	return b.buf
}

// EncodeReference encodes one catalog entry with a NUL-terminated name.
func EncodeReference(r Ref) []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(r.Name)+1))
	out = append(out, r.Name...)
	out = append(out, 0)
	return binary.LittleEndian.AppendUint32(out, r.Length)
}

// EncodeAlignment encodes a length-prefixed alignment block. A nil Qual is
// written as the all-0xFF absent marker.
func EncodeAlignment(a Alignment) []byte {
	body := binary.LittleEndian.AppendUint32(nil, uint32(a.RefID))
	body = binary.LittleEndian.AppendUint32(body, uint32(a.Pos))
	body = append(body, byte(len(a.Name)+1), a.MapQ)
	body = binary.LittleEndian.AppendUint16(body, a.Bin)
	body = binary.LittleEndian.AppendUint16(body, uint16(len(a.Cigar)))
	body = binary.LittleEndian.AppendUint16(body, a.Flag)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(a.Seq)))
	body = binary.LittleEndian.AppendUint32(body, uint32(a.NextRefID))
	body = binary.LittleEndian.AppendUint32(body, uint32(a.NextPos))
	body = binary.LittleEndian.AppendUint32(body, uint32(a.TLen))
	body = append(body, a.Name...)
	body = append(body, 0)
	for _, op := range a.Cigar {
		body = binary.LittleEndian.AppendUint32(body, op)
	}
	body = append(body, PackSeq(a.Seq)...)
	if a.Qual == nil {
		for range len(a.Seq) {
			body = append(body, 0xFF)
		}
	} else {
		body = append(body, a.Qual...)
	}
	body = append(body, a.Aux...)

	out := binary.LittleEndian.AppendUint32(nil, uint32(len(body)))
	return append(out, body...)
}

// Op packs a CIGAR operation of the given length and code (one of MIDNSHP=X).
func Op(n uint32, code byte) uint32 {
	k := strings.IndexByte(cigarCodes, code)
	if k < 0 {
		panic("testutil: unknown cigar code " + string(code))
	}
	return n<<4 | uint32(k)
}

// PackSeq packs symbols two per byte, high nibble first.
func PackSeq(seq string) []byte {
	out := make([]byte, (len(seq)+1)/2)
	for i := range len(seq) {
		k := strings.IndexByte(nibbleCodes, seq[i])
		if k < 0 {
			k = len(nibbleCodes) - 1
		}
		if i%2 == 0 {
			out[i/2] |= byte(k) << 4
		} else {
			out[i/2] |= byte(k)
		}
	}
	return out
}

func auxHead(tag string, typ byte) []byte {
	if len(tag) != 2 {
		panic("testutil: aux tag must be two bytes")
	}
	return []byte{tag[0], tag[1], typ}
}

// AuxChar encodes an A field.
func AuxChar(tag string, v byte) []byte {
	return append(auxHead(tag, 'A'), v)
}

// AuxInt8 encodes a c field.
func AuxInt8(tag string, v int8) []byte {
	return append(auxHead(tag, 'c'), byte(v))
}

// AuxUint8 encodes a C field.
func AuxUint8(tag string, v uint8) []byte {
	return append(auxHead(tag, 'C'), v)
}

// AuxInt16 encodes an s field.
func AuxInt16(tag string, v int16) []byte {
	return binary.LittleEndian.AppendUint16(auxHead(tag, 's'), uint16(v))
}

// AuxUint16 encodes an S field.
func AuxUint16(tag string, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(auxHead(tag, 'S'), v)
}

// AuxInt32 encodes an i field.
func AuxInt32(tag string, v int32) []byte {
	return binary.LittleEndian.AppendUint32(auxHead(tag, 'i'), uint32(v))
}

// AuxUint32 encodes an I field.
func AuxUint32(tag string, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(auxHead(tag, 'I'), v)
}

// AuxFloat encodes an f field.
func AuxFloat(tag string, v float32) []byte {
	return binary.LittleEndian.AppendUint32(auxHead(tag, 'f'), math.Float32bits(v))
}

// AuxString encodes a NUL-terminated Z field.
func AuxString(tag, v string) []byte {
	return append(append(auxHead(tag, 'Z'), v...), 0)
}

// AuxHex encodes a NUL-terminated H field.
func AuxHex(tag, digits string) []byte {
	return append(append(auxHead(tag, 'H'), digits...), 0)
}

// AuxUint32Array encodes a B:I field.
func AuxUint32Array(tag string, vs ...uint32) []byte {
	out := append(auxHead(tag, 'B'), 'I')
	out = binary.LittleEndian.AppendUint32(out, uint32(len(vs)))
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

// AuxInt16Array encodes a B:s field.
func AuxInt16Array(tag string, vs ...int16) []byte {
	out := append(auxHead(tag, 'B'), 's')
	out = binary.LittleEndian.AppendUint32(out, uint32(len(vs)))
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

// AuxUint8Array encodes a B:C field.
func AuxUint8Array(tag string, vs ...uint8) []byte {
	out := append(auxHead(tag, 'B'), 'C')
	out = binary.LittleEndian.AppendUint32(out, uint32(len(vs)))
	return append(out, vs...)
}

// AuxFloatArray encodes a B:f field.
func AuxFloatArray(tag string, vs ...float32) []byte {
	out := append(auxHead(tag, 'B'), 'f')
	out = binary.LittleEndian.AppendUint32(out, uint32(len(vs)))
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

// Concat joins encoded auxiliary fields.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
