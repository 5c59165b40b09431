package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf/pkg/cache"
)

func TestKeyIsDeterministic(t *testing.T) {
	k1, err := cache.Key("var a = 1;", 8, "salt")
	require.NoError(t, err)
	k2, err := cache.Key("var a = 1;", 8, "salt")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestKeyDiffersOnSourceConfigOrSalt(t *testing.T) {
	base, err := cache.Key("var a = 1;", 8, "salt")
	require.NoError(t, err)

	diffSource, err := cache.Key("var a = 2;", 8, "salt")
	require.NoError(t, err)
	assert.NotEqual(t, base, diffSource)

	diffIterations, err := cache.Key("var a = 1;", 4, "salt")
	require.NoError(t, err)
	assert.NotEqual(t, base, diffIterations)

	diffSalt, err := cache.Key("var a = 1;", 8, "other-salt")
	require.NoError(t, err)
	assert.NotEqual(t, base, diffSalt)
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	key, err := cache.Key("var a = 1;", 8, "salt")
	require.NoError(t, err)

	_, ok := c.Get(key)
	assert.False(t, ok, "empty cache should miss")

	entry := cache.Entry{Output: "var a = 1;\n", Iterations: 2}
	require.NoError(t, c.Put(key, entry))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get("0000000000000000000000000000000000000000000000000000000000000000")
	assert.False(t, ok)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	key, err := cache.Key("var a = 1;", 8, "salt")
	require.NoError(t, err)

	require.NoError(t, c.Put(key, cache.Entry{Output: "first", Iterations: 1}))
	require.NoError(t, c.Put(key, cache.Entry{Output: "second", Iterations: 2}))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "second", got.Output)
	assert.Equal(t, 2, got.Iterations)
}
