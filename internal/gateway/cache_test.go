// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("sparql", "exact", "David Bowie")
	b := Key("sparql", "exact", "David Bowie")
	c := Key("sparql", "fuzzy", "David Bowie")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestKeySeparatorCollision(t *testing.T) {
	// Joining with a separator must distinguish ("ab","c") from ("a","bc").
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestMemCacheRoundTrip(t *testing.T) {
	c := NewMemCache()
	c.Set("k", []byte("v"), time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestMemCacheExpiry(t *testing.T) {
	c := NewMemCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"), 50*time.Millisecond)

	_, ok := c.Get("k")
	assert.True(t, ok)

	// Advance past the TTL: the entry becomes invisible and is evicted.
	now = now.Add(51 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSQLCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLCache(path)
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", []byte("v"), time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestSQLCacheExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLCache(path)
	require.NoError(t, err)
	defer c.Close()

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"), 50*time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(51 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSQLCacheOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLCache(path)
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", []byte("old"), time.Minute)
	c.Set("k", []byte("new"), time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestSQLCachePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := NewSQLCache(path)
	require.NoError(t, err)
	c.Set("k", []byte("v"), time.Minute)
	require.NoError(t, c.Close())

	c2, err := NewSQLCache(path)
	require.NoError(t, err)
	defer c2.Close()

	got, ok := c2.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
