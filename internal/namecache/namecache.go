// Package namecache implements the card-name catalog cache: the full
// list of canonical names, a freshness timestamp, and an in-memory
// fuzzy lookup index rebuilt on every load.
package namecache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/proxysheets/proxycore/internal/errs"
	"github.com/proxysheets/proxycore/internal/resolver"
)

const freshnessWindow = 24 * time.Hour

// fileFormat is the card_names.json on-disk layout.
type fileFormat struct {
	Timestamp time.Time `json:"timestamp"`
	Names     []string  `json:"names"`
}

// Fetcher downloads the full catalog name list from the remote.
type Fetcher interface {
	FetchNames(ctx context.Context) ([]string, error)
}

// Cache is the process-wide card-name catalog cache.
type Cache struct {
	mu        sync.RWMutex
	path      string
	names     []string
	timestamp time.Time
	index     *resolver.Index
}

// New constructs an empty Cache backed by the JSON file at path.
func New(path string) *Cache {
	return &Cache{path: path}
}

// LoadFromDisk reads card_names.json, if present, and rebuilds the
// in-memory index. A missing or corrupt file is treated as an empty
// cache.
func (c *Cache) LoadFromDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.index = resolver.BuildIndex(nil)
			return nil
		}
		return errs.Wrap(errs.Cache, "namecache.LoadFromDisk", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		c.names, c.timestamp = nil, time.Time{}
		c.index = resolver.BuildIndex(nil)
		return nil
	}

	c.names = ff.Names
	c.timestamp = ff.Timestamp
	c.index = resolver.BuildIndex(c.names)
	return nil
}

// IsFresh reports whether the cache was refreshed within the last 24h
// relative to now.
func (c *Cache) IsFresh(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.timestamp.IsZero() {
		return false
	}
	return now.Sub(c.timestamp) < freshnessWindow
}

// RefreshFromNetwork downloads the global catalog, replaces the name
// list, rebuilds the index, and persists the result.
func (c *Cache) RefreshFromNetwork(ctx context.Context, f Fetcher) error {
	names, err := f.FetchNames(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.names = names
	c.timestamp = time.Now()
	c.index = resolver.BuildIndex(names)
	snapshot := fileFormat{Timestamp: c.timestamp, Names: append([]string(nil), names...)}
	c.mu.Unlock()

	return writeAtomicJSON(c.path, snapshot)
}

// Lookup resolves a free-form name against the current index.
func (c *Cache) Lookup(query string) (canonicalName string, mode resolver.FaceMatchMode, ok bool) {
	c.mu.RLock()
	idx := c.index
	c.mu.RUnlock()
	if idx == nil {
		return "", resolver.FaceMatchMode{}, false
	}
	return idx.Lookup(query)
}

// Names returns a copy of the current canonical name list.
func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.names...)
}

func writeAtomicJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.Cache, "namecache.save", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Cache, "namecache.save", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.Cache, "namecache.save", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.Cache, "namecache.save", err)
	}
	return nil
}
