// Package cache provides token metadata caching. Symbol and decimals
// are immutable per contract, so caching them avoids two RPC reads on
// every invocation that touches a token by address.
package cache

import (
	"strconv"
	"sync"
	"time"
)

// DefaultStaleness is the duration after which entries are refreshed
// anyway. Metadata does not change, but a long horizon keeps a bad
// cached read from sticking forever.
const DefaultStaleness = 30 * 24 * time.Hour

// TokenEntry is the cached metadata for one token contract.
type TokenEntry struct {
	ChainID   int64     `json:"chain_id"`
	Address   string    `json:"address"`
	Symbol    string    `json:"symbol"`
	Decimals  int       `json:"decimals"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenCache stores token metadata keyed by chain and contract address.
type TokenCache struct {
	mu      sync.RWMutex
	Entries map[string]TokenEntry `json:"entries"`
}

// NewTokenCache creates an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{
		Entries: make(map[string]TokenEntry),
	}
}

// Key generates the cache key for a chain and contract address.
func Key(chainID int64, address string) string {
	return strconv.FormatInt(chainID, 10) + ":" + address
}

// Get retrieves a cached entry and its age.
func (c *TokenCache) Get(chainID int64, address string) (*TokenEntry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[Key(chainID, address)]
	if !ok {
		return nil, false, 0
	}
	return &entry, true, time.Since(entry.UpdatedAt)
}

// Set stores an entry, stamping the update time.
func (c *TokenCache) Set(entry TokenEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.UpdatedAt = time.Now()
	c.Entries[Key(entry.ChainID, entry.Address)] = entry
}

// IsStale reports whether an entry is missing or past the default
// staleness horizon.
func (c *TokenCache) IsStale(chainID int64, address string) bool {
	_, ok, age := c.Get(chainID, address)
	return !ok || age > DefaultStaleness
}

// Delete removes an entry.
func (c *TokenCache) Delete(chainID int64, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, Key(chainID, address))
}

// Size returns the number of entries.
func (c *TokenCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}
