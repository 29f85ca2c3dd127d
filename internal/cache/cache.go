// Package cache stores fetched articles so repeated audits of the same
// URL do not refetch the page.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from an article URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "veedor-v1-" + hex.EncodeToString(hash[:])
}

// DefaultDir returns the on-disk cache location under the user's home
// directory, falling back to the system temp dir.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "veedor-cache")
	}
	return filepath.Join(home, ".veedor", "cache")
}
