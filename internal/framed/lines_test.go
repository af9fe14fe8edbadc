package framed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	t.Parallel()

	data := []byte("ab\r\ncd\nef")

	line, next, ok := Line(data, 0, false)
	assert.True(t, ok)
	assert.Equal(t, "ab", string(line))
	assert.Equal(t, 4, next)

	line, next, ok = Line(data, next, false)
	assert.True(t, ok)
	assert.Equal(t, "cd", string(line))

	_, _, ok = Line(data, next, false)
	assert.False(t, ok, "unterminated line needs more input")

	line, next, ok = Line(data, next, true)
	assert.True(t, ok)
	assert.Equal(t, "ef", string(line))
	assert.Equal(t, len(data), next)

	_, _, ok = Line(data, next, true)
	assert.False(t, ok)
}

func TestSkipBlank(t *testing.T) {
	t.Parallel()

	data := []byte("\n  \r\n>x\n")
	pos, ok := SkipBlank(data, 0, false)
	assert.True(t, ok)
	assert.Equal(t, 5, pos)

	pos, ok = SkipBlank([]byte("\n\n"), 0, false)
	assert.False(t, ok)
	assert.Equal(t, 2, pos)

	pos, ok = SkipBlank([]byte("\n \n"), 0, true)
	assert.True(t, ok)
	assert.Equal(t, 3, pos)
}
