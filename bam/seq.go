package bam

import "github.com/meigma/seqview/internal/seqtype"

const nibbleSymbols = "=ACMGRSVTWYHKDBN"

var symbolNibble = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 0xF
	}
	for i := range len(nibbleSymbols) {
		c := nibbleSymbols[i]
		t[c] = byte(i)
		if c >= 'A' && c <= 'Z' {
			t[c+'a'-'A'] = byte(i)
		}
	}
	return t
}()

// UnpackSequence expands n symbols packed two per byte, high nibble first.
// When n is odd the low nibble of the final byte is ignored.
func UnpackSequence(packed []byte, n int) ([]byte, error) {
	need := (n + 1) / 2
	if len(packed) < need {
		return nil, seqtype.Short(need - len(packed))
	}
	out := make([]byte, n)
	for i := range n {
		b := packed[i/2]
		if i%2 == 0 {
			b >>= 4
		}
		out[i] = nibbleSymbols[b&0xF]
	}
	return out, nil
}

// PackSequence packs symbols two per byte. Symbols outside the nibble
// alphabet are packed as N; lower-case letters pack as their upper-case form.
func PackSequence(seq []byte) []byte {
	out := make([]byte, (len(seq)+1)/2)
	for i, c := range seq {
		v := symbolNibble[c]
		if i%2 == 0 {
			out[i/2] = v << 4
		} else {
			out[i/2] |= v
		}
	}
	return out
}
