// Package chunkcache bounds the in-memory cache of decoded chunk payloads
// shared across files that reference the same chunk, replacing the
// teacher's manual chunkCache/chunkParentCount map pair (splash.go) with a
// size-capped LRU: a chunk shared by many files stays resident until
// evicted instead of forever.
package chunkcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/realitylauncher/splash/internal/guid"
)

// Cache holds decoded (post-decompress, post-verify) chunk payloads keyed
// by GUID.
type Cache struct {
	lru *lru.Cache[guid.GUID, []byte]
}

// New builds a Cache holding at most size decoded chunks.
func New(size int) (*Cache, error) {
	c, err := lru.New[guid.GUID, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached payload for g, if present.
func (c *Cache) Get(g guid.GUID) ([]byte, bool) {
	return c.lru.Get(g)
}

// Put stores data as the decoded payload for g, possibly evicting the
// least-recently-used entry.
func (c *Cache) Put(g guid.GUID, data []byte) {
	c.lru.Add(g, data)
}

// Len returns the number of chunks currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}
