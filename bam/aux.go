package bam

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// AuxKind identifies the variant held by an AuxValue.
type AuxKind uint8

// Auxiliary value kinds.
const (
	AuxInvalid AuxKind = iota
	AuxChar
	AuxInt8
	AuxUint8
	AuxInt16
	AuxUint16
	AuxInt32
	AuxUint32
	AuxFloat32
	AuxString
	AuxHex
	AuxArray
)

// Code returns the BAM type code for the kind, or 0 for AuxInvalid.
func (k AuxKind) Code() byte {
	switch k {
	case AuxChar:
		return 'A'
	case AuxInt8:
		return 'c'
	case AuxUint8:
		return 'C'
	case AuxInt16:
		return 's'
	case AuxUint16:
		return 'S'
	case AuxInt32:
		return 'i'
	case AuxUint32:
		return 'I'
	case AuxFloat32:
		return 'f'
	case AuxString:
		return 'Z'
	case AuxHex:
		return 'H'
	case AuxArray:
		return 'B'
	case AuxInvalid:
		return 0
	default:
		return 0
	}
}

func (k AuxKind) isInteger() bool {
	switch k {
	case AuxInt8, AuxUint8, AuxInt16, AuxUint16, AuxInt32, AuxUint32:
		return true
	case AuxInvalid, AuxChar, AuxFloat32, AuxString, AuxHex, AuxArray:
		return false
	default:
		return false
	}
}

// elemSize is the encoded width of an array element kind.
func (k AuxKind) elemSize() int {
	switch k {
	case AuxInt8, AuxUint8:
		return 1
	case AuxInt16, AuxUint16:
		return 2
	case AuxInt32, AuxUint32, AuxFloat32:
		return 4
	case AuxInvalid, AuxChar, AuxString, AuxHex, AuxArray:
		return 0
	default:
		return 0
	}
}

// HexArray is a decoded H value: hex digits grouped into words of up to
// eight digits, most significant first. Digits records the original digit
// count so the text form round-trips.
type HexArray struct {
	Words  []uint32
	Digits int
}

// String returns the upper-case hex digits.
func (h HexArray) String() string {
	var sb strings.Builder
	left := h.Digits
	for _, w := range h.Words {
		n := min(left, 8)
		fmt.Fprintf(&sb, "%0*X", n, w)
		left -= n
	}
	return sb.String()
}

// AuxValue is a tagged union over the auxiliary field value kinds. Exactly
// the variant named by Kind is populated.
type AuxValue struct {
	kind   AuxKind
	elem   AuxKind
	num    int64
	flt    float32
	str    string
	hex    HexArray
	ints   []int64
	floats []float32
}

// CharValue returns an A value.
func CharValue(c byte) AuxValue {
	return AuxValue{kind: AuxChar, num: int64(c)}
}

// IntValue returns an integer value of the given integer kind.
func IntValue(kind AuxKind, v int64) (AuxValue, error) {
	if !kind.isInteger() {
		return AuxValue{}, fmt.Errorf("%w: %d is not an integer kind", ErrUnknownCode, kind)
	}
	return AuxValue{kind: kind, num: v}, nil
}

// FloatValue returns an f value.
func FloatValue(v float32) AuxValue {
	return AuxValue{kind: AuxFloat32, flt: v}
}

// StringValue returns a Z value.
func StringValue(s string) AuxValue {
	return AuxValue{kind: AuxString, str: s}
}

// HexValue returns an H value.
func HexValue(h HexArray) AuxValue {
	return AuxValue{kind: AuxHex, hex: h}
}

// IntArrayValue returns a B value with integer elements of kind elem.
func IntArrayValue(elem AuxKind, vs []int64) (AuxValue, error) {
	if !elem.isInteger() {
		return AuxValue{}, fmt.Errorf("%w: %d is not an integer element kind", ErrUnknownCode, elem)
	}
	return AuxValue{kind: AuxArray, elem: elem, ints: vs}, nil
}

// FloatArrayValue returns a B:f value.
func FloatArrayValue(vs []float32) AuxValue {
	return AuxValue{kind: AuxArray, elem: AuxFloat32, floats: vs}
}

// Kind returns the populated variant.
func (v AuxValue) Kind() AuxKind { return v.kind }

// Elem returns the element kind of an array, or AuxInvalid.
func (v AuxValue) Elem() AuxKind { return v.elem }

// Char returns an A value.
func (v AuxValue) Char() (byte, bool) {
	return byte(v.num), v.kind == AuxChar
}

// Int returns any integer-kind value widened to int64.
func (v AuxValue) Int() (int64, bool) {
	return v.num, v.kind.isInteger()
}

// Float returns an f value.
func (v AuxValue) Float() (float32, bool) {
	return v.flt, v.kind == AuxFloat32
}

// Text returns a Z value.
func (v AuxValue) Text() (string, bool) {
	return v.str, v.kind == AuxString
}

// Hex returns an H value.
func (v AuxValue) Hex() (HexArray, bool) {
	return v.hex, v.kind == AuxHex
}

// Ints returns the elements of an integer array.
func (v AuxValue) Ints() ([]int64, bool) {
	return v.ints, v.kind == AuxArray && v.elem.isInteger()
}

// Floats returns the elements of a B:f array.
func (v AuxValue) Floats() ([]float32, bool) {
	return v.floats, v.kind == AuxArray && v.elem == AuxFloat32
}

// Uint32s returns the elements of a B:I array.
func (v AuxValue) Uint32s() ([]uint32, bool) {
	if v.kind != AuxArray || v.elem != AuxUint32 {
		return nil, false
	}
	out := make([]uint32, len(v.ints))
	for i, x := range v.ints {
		out[i] = uint32(x)
	}
	return out, true
}

// Len returns the element count of an array, or 0.
func (v AuxValue) Len() int {
	if v.kind != AuxArray {
		return 0
	}
	if v.elem == AuxFloat32 {
		return len(v.floats)
	}
	return len(v.ints)
}

// String renders the value in SAM TYPE:VALUE form. Every integer kind
// renders with type i.
func (v AuxValue) String() string {
	switch v.kind {
	case AuxChar:
		return "A:" + string(rune(byte(v.num)))
	case AuxInt8, AuxUint8, AuxInt16, AuxUint16, AuxInt32, AuxUint32:
		return "i:" + strconv.FormatInt(v.num, 10)
	case AuxFloat32:
		return "f:" + formatFloat(v.flt)
	case AuxString:
		return "Z:" + v.str
	case AuxHex:
		return "H:" + v.hex.String()
	case AuxArray:
		var sb strings.Builder
		sb.WriteString("B:")
		sb.WriteByte(v.elem.Code())
		if v.elem == AuxFloat32 {
			for _, f := range v.floats {
				sb.WriteByte(',')
				sb.WriteString(formatFloat(f))
			}
		} else {
			for _, x := range v.ints {
				sb.WriteByte(',')
				sb.WriteString(strconv.FormatInt(x, 10))
			}
		}
		return sb.String()
	case AuxInvalid:
		return ""
	default:
		return ""
	}
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// AuxField is one tagged auxiliary value.
type AuxField struct {
	Tag   string
	Value AuxValue
}

// String renders the field as TAG:TYPE:VALUE.
func (f AuxField) String() string {
	return f.Tag + ":" + f.Value.String()
}

// AuxFields holds a record's auxiliary fields in stream order with unique
// tags.
type AuxFields []AuxField

// Get returns the value stored under tag.
func (a AuxFields) Get(tag string) (AuxValue, bool) {
	for _, f := range a {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return AuxValue{}, false
}

// Set stores v under tag, replacing an existing value in place.
func (a *AuxFields) Set(tag string, v AuxValue) {
	for i := range *a {
		if (*a)[i].Tag == tag {
			(*a)[i].Value = v
			return
		}
	}
	*a = append(*a, AuxField{Tag: tag, Value: v})
}

// Delete removes tag and reports whether it was present.
func (a *AuxFields) Delete(tag string) bool {
	for i := range *a {
		if (*a)[i].Tag == tag {
			*a = append((*a)[:i], (*a)[i+1:]...)
			return true
		}
	}
	return false
}

// String renders the fields tab-separated.
func (a AuxFields) String() string {
	parts := make([]string, len(a))
	for i, f := range a {
		parts[i] = f.String()
	}
	return strings.Join(parts, "\t")
}

// kindForCode maps a BAM type code to its kind.
func kindForCode(c byte) (AuxKind, bool) {
	switch c {
	case 'A':
		return AuxChar, true
	case 'c':
		return AuxInt8, true
	case 'C':
		return AuxUint8, true
	case 's':
		return AuxInt16, true
	case 'S':
		return AuxUint16, true
	case 'i':
		return AuxInt32, true
	case 'I':
		return AuxUint32, true
	case 'f':
		return AuxFloat32, true
	case 'Z':
		return AuxString, true
	case 'H':
		return AuxHex, true
	case 'B':
		return AuxArray, true
	default:
		return AuxInvalid, false
	}
}

// decodeAux reads one tagged field.
func decodeAux(r *fieldReader) (AuxField, error) {
	tag, err := r.read(2)
	if err != nil {
		return AuxField{}, err
	}
	code, err := r.Uint8()
	if err != nil {
		return AuxField{}, err
	}
	kind, ok := kindForCode(code)
	if !ok {
		return AuxField{}, fmt.Errorf("%w: aux type %q for tag %s", ErrUnknownCode, code, tag)
	}
	v, err := decodeAuxValue(r, kind)
	if err != nil {
		return AuxField{}, fmt.Errorf("aux tag %s: %w", tag, err)
	}
	return AuxField{Tag: string(tag), Value: v}, nil
}

func decodeAuxValue(r *fieldReader, kind AuxKind) (AuxValue, error) {
	switch kind {
	case AuxChar:
		c, err := r.Uint8()
		return CharValue(c), err
	case AuxInt8, AuxUint8, AuxInt16, AuxUint16, AuxInt32, AuxUint32:
		n, err := readInt(r, kind)
		return AuxValue{kind: kind, num: n}, err
	case AuxFloat32:
		f, err := r.Float32()
		return FloatValue(f), err
	case AuxString:
		s, err := r.CString()
		if err != nil {
			return AuxValue{}, err
		}
		if !utf8.Valid(s) {
			return AuxValue{}, fmt.Errorf("%w: string value is not UTF-8", ErrInvalidEncoding)
		}
		return StringValue(string(s)), nil
	case AuxHex:
		return HexValue(readHex(r)), nil
	case AuxArray:
		return decodeArray(r)
	case AuxInvalid:
		return AuxValue{}, fmt.Errorf("%w: invalid aux kind", ErrUnknownCode)
	default:
		return AuxValue{}, fmt.Errorf("%w: aux kind %d", ErrUnknownCode, kind)
	}
}

func readInt(r *fieldReader, kind AuxKind) (int64, error) {
	switch kind {
	case AuxInt8:
		v, err := r.Int8()
		return int64(v), err
	case AuxUint8:
		v, err := r.Uint8()
		return int64(v), err
	case AuxInt16:
		v, err := r.Int16()
		return int64(v), err
	case AuxUint16:
		v, err := r.Uint16()
		return int64(v), err
	case AuxInt32:
		v, err := r.Int32()
		return int64(v), err
	case AuxUint32:
		v, err := r.Uint32()
		return int64(v), err
	case AuxInvalid, AuxChar, AuxFloat32, AuxString, AuxHex, AuxArray:
		return 0, fmt.Errorf("%w: %c is not an integer type", ErrUnknownCode, kind.Code())
	default:
		return 0, fmt.Errorf("%w: aux kind %d", ErrUnknownCode, kind)
	}
}

// readHex consumes hex digits until the first non-hex byte, grouping them
// into words of up to eight digits. A terminating NUL is consumed.
func readHex(r *fieldReader) HexArray {
	start := r.pos
	for r.pos < len(r.buf) && isHexDigit(r.buf[r.pos]) {
		r.pos++
	}
	digits := r.buf[start:r.pos]
	if r.pos < len(r.buf) && r.buf[r.pos] == 0 {
		r.pos++
	}
	h := HexArray{Digits: len(digits), Words: make([]uint32, 0, (len(digits)+7)/8)}
	for i := 0; i < len(digits); i += 8 {
		var w uint32
		for _, c := range digits[i:min(i+8, len(digits))] {
			w = w<<4 | uint32(hexNibble(c))
		}
		h.Words = append(h.Words, w)
	}
	return h
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func decodeArray(r *fieldReader) (AuxValue, error) {
	sub, err := r.Uint8()
	if err != nil {
		return AuxValue{}, err
	}
	elem, ok := kindForCode(sub)
	if !ok || elem.elemSize() == 0 {
		return AuxValue{}, fmt.Errorf("%w: array subtype %q", ErrUnknownCode, sub)
	}
	count, err := r.Uint32()
	if err != nil {
		return AuxValue{}, err
	}
	size := uint64(count) * uint64(elem.elemSize())
	if size > uint64(r.remaining()) {
		if size > math.MaxInt32 {
			return AuxValue{}, fmt.Errorf("%w: array of %d elements", ErrInvalidEncoding, count)
		}
		return AuxValue{}, r.shortBy(int(size))
	}
	if elem == AuxFloat32 {
		vs := make([]float32, count)
		for i := range vs {
			vs[i], _ = r.Float32()
		}
		return FloatArrayValue(vs), nil
	}
	vs := make([]int64, count)
	for i := range vs {
		vs[i], _ = readInt(r, elem)
	}
	return AuxValue{kind: AuxArray, elem: elem, ints: vs}, nil
}
