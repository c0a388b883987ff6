package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching fetched pages
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey generates a cache key for one fetched page. The full request URL
// already encodes endpoint, filters, page size and cursor, so equal
// (query, cursor) pairs map to equal keys.
func PageKey(requestURL string) string {
	hash := sha256.Sum256([]byte(requestURL))
	return "govsift:v1:" + hex.EncodeToString(hash[:])
}
