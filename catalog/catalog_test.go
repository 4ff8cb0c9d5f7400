package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "akatsuki.db"))
	require.NoError(t, err)
	defer c.Close()

	e, err := c.Find("missing")
	require.NoError(t, err)
	assert.Nil(t, e)

	first := Entry{
		ImageSHA1:   "AAAA",
		Image:       "out.png",
		Name:        "a.txt",
		Size:        50,
		PayloadSHA1: "BBBB",
		Created:     time.Unix(1000, 0),
	}
	second := Entry{
		ImageSHA1:   "CCCC",
		Image:       "other.png",
		Name:        "b.bin.zst",
		Size:        12,
		PayloadSHA1: "DDDD",
		Compressed:  true,
		Created:     time.Unix(2000, 0),
	}
	require.NoError(t, c.Record(second))
	require.NoError(t, c.Record(first))

	e, err = c.Find("AAAA")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "a.txt", e.Name)
	assert.Equal(t, int64(50), e.Size)
	assert.False(t, e.Compressed)
	assert.Equal(t, int64(1000), e.Created.Unix())

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "AAAA", entries[0].ImageSHA1)
	assert.Equal(t, "CCCC", entries[1].ImageSHA1)
	assert.True(t, entries[1].Compressed)

	// Same image replaces the existing entry
	first.Name = "c.txt"
	require.NoError(t, c.Record(first))

	entries, err = c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e, err = c.Find("AAAA")
	require.NoError(t, err)
	assert.Equal(t, "c.txt", e.Name)
}
