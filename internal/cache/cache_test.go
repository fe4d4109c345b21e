package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenAddr = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

// TestTokenCache_SetGet verifies storage and retrieval with keying by
// chain and address.
func TestTokenCache_SetGet(t *testing.T) {
	t.Parallel()
	c := NewTokenCache()

	_, ok, _ := c.Get(1, tokenAddr)
	assert.False(t, ok)

	c.Set(TokenEntry{ChainID: 1, Address: tokenAddr, Symbol: "USDC", Decimals: 6})

	entry, ok, age := c.Get(1, tokenAddr)
	require.True(t, ok)
	assert.Equal(t, "USDC", entry.Symbol)
	assert.Equal(t, 6, entry.Decimals)
	assert.Less(t, age, time.Minute)

	// A different chain id is a different entry.
	_, ok, _ = c.Get(5, tokenAddr)
	assert.False(t, ok)

	assert.Equal(t, 1, c.Size())
}

// TestTokenCache_IsStale verifies the staleness horizon.
func TestTokenCache_IsStale(t *testing.T) {
	t.Parallel()
	c := NewTokenCache()

	assert.True(t, c.IsStale(1, tokenAddr))

	c.Set(TokenEntry{ChainID: 1, Address: tokenAddr, Symbol: "USDC", Decimals: 6})
	assert.False(t, c.IsStale(1, tokenAddr))

	// Backdate the entry past the horizon.
	entry := c.Entries[Key(1, tokenAddr)]
	entry.UpdatedAt = time.Now().Add(-DefaultStaleness - time.Hour)
	c.Entries[Key(1, tokenAddr)] = entry
	assert.True(t, c.IsStale(1, tokenAddr))
}

// TestTokenCache_Delete verifies removal.
func TestTokenCache_Delete(t *testing.T) {
	t.Parallel()
	c := NewTokenCache()
	c.Set(TokenEntry{ChainID: 1, Address: tokenAddr, Symbol: "USDC", Decimals: 6})

	c.Delete(1, tokenAddr)
	assert.Equal(t, 0, c.Size())
}

// TestFileStorage_RoundTrip verifies persistence.
func TestFileStorage_RoundTrip(t *testing.T) {
	t.Parallel()
	store := NewFileStorage(filepath.Join(t.TempDir(), "nested", "tokens.json"))

	c := NewTokenCache()
	c.Set(TokenEntry{ChainID: 1, Address: tokenAddr, Symbol: "USDC", Decimals: 6})
	require.NoError(t, store.Save(c))

	loaded, err := store.Load()
	require.NoError(t, err)
	entry, ok, _ := loaded.Get(1, tokenAddr)
	require.True(t, ok)
	assert.Equal(t, "USDC", entry.Symbol)
}

// TestFileStorage_MissingFile verifies the empty-cache fallback.
func TestFileStorage_MissingFile(t *testing.T) {
	t.Parallel()
	store := NewFileStorage(filepath.Join(t.TempDir(), "tokens.json"))

	c, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Size())
}

// TestFileStorage_UnreadableFile verifies that a read failure still
// hands back a usable empty cache alongside the error.
func TestFileStorage_UnreadableFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.Mkdir(path, 0o750))

	store := NewFileStorage(path)
	c, err := store.Load()
	require.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 0, c.Size())

	// Callers that only log the error keep going with the empty cache.
	_, ok, _ := c.Get(1, tokenAddr)
	assert.False(t, ok)
}

// TestFileStorage_CorruptFile verifies the sideline-and-reset path.
func TestFileStorage_CorruptFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o640))

	store := NewFileStorage(path)
	c, err := store.Load()
	require.ErrorIs(t, err, ErrCorruptCache)
	require.NotNil(t, c)
	assert.Equal(t, 0, c.Size())

	// The broken file was moved aside.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "tokens.json.corrupt.")
}
