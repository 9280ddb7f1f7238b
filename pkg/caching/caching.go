package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-based key/value cache with a TTL. Each entry is one file
// named by the SHA-256 of its key.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist. A zero ttl never expires.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

func (c *Cache) file(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.path, fmt.Sprintf("%x", hash))
}

// Get returns the cached data and true if the entry exists and has not expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	filePath := c.file(key)

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes an entry, replacing any previous value.
func (c *Cache) Set(key string, data []byte) error {
	tmp := c.file(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp, c.file(key)); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
