package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/golang/groupcache/lru"

	"stylusguard/internal/parser"
)

// ModelCache memoizes built contract models by source hash so repeated
// analysis of unchanged files skips the lex and build. Detectors never
// mutate the model, sharing one instance across runs is safe.
type ModelCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// New builds a cache holding at most maxEntries models. maxEntries <= 0
// means unbounded.
func New(maxEntries int) *ModelCache {
	return &ModelCache{lru: lru.New(maxEntries)}
}

// Key derives the cache key for a source blob.
func Key(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

func (c *ModelCache) Get(key string) (*parser.ParseResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.lru.Get(lru.Key(key))
	if !ok {
		return nil, false
	}
	result, ok := value.(*parser.ParseResult)
	return result, ok
}

func (c *ModelCache) Put(key string, result *parser.ParseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(lru.Key(key), result)
}
