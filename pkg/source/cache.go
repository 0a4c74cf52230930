package source

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskCache provides persistent, file-based caching for fetched sources.
// Each entry is stored as a JSON file keyed by a SHA-256 hash of the
// source reference.
type DiskCache struct {
	cacheDir string
	cacheTTL time.Duration
}

// cachedContent is the on-disk representation of a fetched source.
type cachedContent struct {
	Source    string      `json:"source"`
	Content   []byte      `json:"content"`
	Kind      ContentKind `json:"kind"`
	FetchedAt time.Time   `json:"fetched_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// NewDiskCache creates a disk cache in the given directory with the
// specified TTL, creating the directory if needed.
func NewDiskCache(cacheDir string, cacheTTL time.Duration) (*DiskCache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}
	return &DiskCache{cacheDir: cacheDir, cacheTTL: cacheTTL}, nil
}

// Get retrieves cached content for a source reference. The second result
// is false when no unexpired entry exists.
func (cache *DiskCache) Get(sourceRef string) ([]byte, ContentKind, bool) {
	data, err := os.ReadFile(cache.pathFor(sourceRef))
	if err != nil {
		return nil, "", false
	}

	var entry cachedContent
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, "", false
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(cache.pathFor(sourceRef))
		return nil, "", false
	}

	return entry.Content, entry.Kind, true
}

// Set stores fetched content for a source reference.
func (cache *DiskCache) Set(sourceRef string, content []byte, kind ContentKind) error {
	entry := cachedContent{
		Source:    sourceRef,
		Content:   content,
		Kind:      kind,
		FetchedAt: time.Now(),
		ExpiresAt: time.Now().Add(cache.cacheTTL),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	cacheFilePath := cache.pathFor(sourceRef)
	if err := os.WriteFile(cacheFilePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", cacheFilePath, err)
	}
	return nil
}

// pathFor returns the cache file path for a source reference.
func (cache *DiskCache) pathFor(sourceRef string) string {
	hash := sha256.Sum256([]byte(sourceRef))
	return filepath.Join(cache.cacheDir, hex.EncodeToString(hash[:])+".json")
}
