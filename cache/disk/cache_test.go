package disk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	content := []byte("chr1\t4\t6\t4\t5\n")
	d := digest.FromBytes(content)
	require.NoError(t, c.Put(d, content))

	got, ok := c.Get(d)
	require.True(t, ok)
	assert.Equal(t, content, got)

	enc := d.Encoded()
	_, err = os.Stat(filepath.Join(dir, "sha256", enc[:defaultShardPrefixLen], enc))
	require.NoError(t, err)

	// A second Put keeps the first content.
	require.NoError(t, c.Put(d, []byte("other")))
	got, ok = c.Get(d)
	require.True(t, ok)
	assert.Equal(t, content, got)
}

func TestCacheMiss(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get(digest.FromString("absent"))
	assert.False(t, ok)
	_, ok = c.Get(digest.Digest("sha256:not-hex"))
	assert.False(t, ok)
	require.Error(t, c.Put(digest.Digest("bogus"), []byte("x")))
}

func TestCacheShardDisable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithShardPrefixLen(0))
	require.NoError(t, err)

	d := digest.FromString("flat")
	require.NoError(t, c.Put(d, []byte("flat")))
	_, err = os.Stat(filepath.Join(dir, "sha256", d.Encoded()))
	require.NoError(t, err)
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)

	d := digest.FromString("gone")
	require.NoError(t, c.Put(d, []byte("gone")))
	require.NoError(t, c.Delete(d))
	_, ok := c.Get(d)
	assert.False(t, ok)
	require.NoError(t, c.Delete(d))
}

func TestCachePrune(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	old := digest.FromString("old")
	fresh := digest.FromString("fresh")
	require.NoError(t, c.Put(old, []byte("0123456789")))
	require.NoError(t, c.Put(fresh, []byte("abcdefghij")))

	past := time.Now().Add(-time.Hour)
	path, err := c.path(old)
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(path, past, past))

	size, err := c.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(20), size)

	freed, err := c.Prune(10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), freed)

	_, ok := c.Get(old)
	assert.False(t, ok)
	_, ok = c.Get(fresh)
	assert.True(t, ok)
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)
	_, err = New(t.TempDir(), WithShardPrefixLen(-1))
	require.Error(t, err)
}
