package fal

import (
	"context"
	"sync"
)

// AssetCache remembers the storage URL of static assets so each is uploaded
// at most once per cache lifetime. The cache is owned by the adapter that
// creates it, not the process, so multiple adapters can coexist.
type AssetCache struct {
	storage Storage
	mu      sync.Mutex
	urls    map[string]string // local path → uploaded URL
}

// NewAssetCache creates an empty cache over the given storage.
func NewAssetCache(storage Storage) *AssetCache {
	return &AssetCache{
		storage: storage,
		urls:    make(map[string]string),
	}
}

// URLFor uploads the file at path unless a previous upload is cached, and
// returns the storage URL.
func (c *AssetCache) URLFor(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	if url, ok := c.urls[path]; ok {
		c.mu.Unlock()
		return url, nil
	}
	c.mu.Unlock()

	url, err := c.storage.UploadFile(ctx, path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.urls[path] = url
	c.mu.Unlock()
	return url, nil
}

// URLForBytes uploads data under a cache key unless already cached.
func (c *AssetCache) URLForBytes(ctx context.Context, key, fileName string, data []byte) (string, error) {
	c.mu.Lock()
	if url, ok := c.urls[key]; ok {
		c.mu.Unlock()
		return url, nil
	}
	c.mu.Unlock()

	url, err := c.storage.Upload(ctx, fileName, data)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.urls[key] = url
	c.mu.Unlock()
	return url, nil
}
