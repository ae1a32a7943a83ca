// Package setcache implements the set-code catalog cache: symmetric to
// namecache, but a flat membership set rather than a fuzzy
// index, since it's consulted only by the tokenizer to classify a
// bracketed token as a set code versus a language tag.
package setcache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/proxysheets/proxycore/internal/errs"
)

const freshnessWindow = 24 * time.Hour

type fileFormat struct {
	Timestamp time.Time `json:"timestamp"`
	Codes     []string  `json:"codes"`
}

// Fetcher downloads the full set-code list from the remote.
type Fetcher interface {
	FetchCodes(ctx context.Context) ([]string, error)
}

// Cache is the process-wide set-code catalog cache.
type Cache struct {
	mu        sync.RWMutex
	path      string
	codes     map[string]struct{}
	timestamp time.Time
}

// New constructs an empty Cache backed by the JSON file at path.
func New(path string) *Cache {
	return &Cache{path: path, codes: make(map[string]struct{})}
}

// LoadFromDisk reads set_codes.json, if present. A missing or corrupt
// file is treated as an empty cache.
func (c *Cache) LoadFromDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.Cache, "setcache.LoadFromDisk", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		c.codes = make(map[string]struct{})
		c.timestamp = time.Time{}
		return nil
	}

	c.codes = toSet(ff.Codes)
	c.timestamp = ff.Timestamp
	return nil
}

// IsFresh reports whether the cache was refreshed within the last 24h.
func (c *Cache) IsFresh(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.timestamp.IsZero() {
		return false
	}
	return now.Sub(c.timestamp) < freshnessWindow
}

// RefreshFromNetwork downloads the global set-code list and persists it.
func (c *Cache) RefreshFromNetwork(ctx context.Context, f Fetcher) error {
	codes, err := f.FetchCodes(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.codes = toSet(codes)
	c.timestamp = time.Now()
	snapshot := fileFormat{Timestamp: c.timestamp, Codes: append([]string(nil), codes...)}
	c.mu.Unlock()

	return writeAtomicJSON(c.path, snapshot)
}

// Contains reports whether code (case-insensitive) is a known set code.
func (c *Cache) Contains(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.codes[strings.ToLower(code)]
	return ok
}

// Count returns the number of known set codes, for cache-stat reporting.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.codes)
}

func toSet(codes []string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		m[strings.ToLower(code)] = struct{}{}
	}
	return m
}

func writeAtomicJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.Cache, "setcache.save", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Cache, "setcache.save", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.Cache, "setcache.save", err)
	}
	return os.Rename(tmp, path)
}
