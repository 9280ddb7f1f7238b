package caching

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Set("hashing\x00pricing page", []byte("[0.5,0.5]")))
	data, ok := c.Get("hashing\x00pricing page")
	require.True(t, ok)
	assert.Equal(t, "[0.5,0.5]", string(data))
}

func TestCacheExpiry(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Set("k", []byte("v")))

	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(c.file("k"), old, old))

	_, ok := c.Get("k")
	assert.False(t, ok)
}
