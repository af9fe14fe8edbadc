package framed

import "bytes"

// Line returns the line of data starting at pos without its "\n" or "\r\n"
// terminator, and the position after the terminator. A final line without a
// terminator is only returned when atEOF is set; otherwise ok is false and
// the caller needs more input.
func Line(data []byte, pos int, atEOF bool) (line []byte, next int, ok bool) {
	if pos >= len(data) {
		return nil, pos, false
	}
	i := bytes.IndexByte(data[pos:], '\n')
	if i < 0 {
		if !atEOF {
			return nil, pos, false
		}
		return bytes.TrimSuffix(data[pos:], []byte{'\r'}), len(data), true
	}
	return bytes.TrimSuffix(data[pos:pos+i], []byte{'\r'}), pos + i + 1, true
}

// SkipBlank returns the position of the first line at or after pos that
// holds anything besides whitespace. ok is false when more input is needed
// to find one; at EOF with only blank lines left it returns len(data), true.
func SkipBlank(data []byte, pos int, atEOF bool) (int, bool) {
	for {
		line, next, ok := Line(data, pos, atEOF)
		if !ok {
			if atEOF {
				return len(data), true
			}
			return pos, false
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return pos, true
		}
		pos = next
	}
}
