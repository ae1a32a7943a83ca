// Package searchcache implements the search-results cache: canonical
// name -> printings, permanent entries with access-time tracking,
// merged by (set, lang, name) on put.
package searchcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/errs"
)

type entry struct {
	Cards        []domain.Card `json:"cards"`
	LastAccessed time.Time     `json:"last_accessed"`
}

// fileFormat is the search_results.json on-disk layout.
type fileFormat struct {
	Entries map[string]entry `json:"entries"`
}

// Cache is the process-wide search-results cache.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]entry
}

// New constructs an empty Cache backed by the JSON file at path.
func New(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]entry)}
}

// LoadAll reads search_results.json, if present. A missing or corrupt
// file is treated as an empty cache.
func (c *Cache) LoadAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.Cache, "searchcache.LoadAll", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		c.entries = make(map[string]entry)
		return nil
	}
	if ff.Entries == nil {
		ff.Entries = make(map[string]entry)
	}
	c.entries = ff.Entries
	return nil
}

// SaveAll flushes the full cache to disk, write-temp-then-rename.
func (c *Cache) SaveAll() error {
	c.mu.RLock()
	snapshot := fileFormat{Entries: cloneEntries(c.entries)}
	c.mu.RUnlock()

	if c.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errs.Wrap(errs.Cache, "searchcache.SaveAll", err)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Cache, "searchcache.SaveAll", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.Cache, "searchcache.SaveAll", err)
	}
	return errWrap(os.Rename(tmp, c.path))
}

// Get returns the cached printings for name, if present. It does not
// update last-access time; that's TouchAccess's job.
func (c *Cache) Get(name string) ([]domain.Card, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key(name)]
	if !ok {
		return nil, false
	}
	return append([]domain.Card(nil), e.Cards...), true
}

// TouchAccess updates the last-access timestamp for name, if present.
func (c *Cache) TouchAccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(name)
	if e, ok := c.entries[k]; ok {
		e.LastAccessed = time.Now()
		c.entries[k] = e
	}
}

// Put writes the printings for name, merging with any existing entry by
// the (set, lang, name) triple and preferring the newer descriptor.
func (c *Cache) Put(name string, cards []domain.Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(name)
	existing := c.entries[k].Cards
	merged := mergeCards(existing, cards)
	c.entries[k] = entry{Cards: merged, LastAccessed: time.Now()}
}

func key(name string) string { return strings.ToLower(name) }

func mergeCards(existing, incoming []domain.Card) []domain.Card {
	type triple struct{ name, set, lang string }
	byTriple := make(map[triple]int, len(existing))
	result := append([]domain.Card(nil), existing...)
	for i, c := range result {
		n, s, l := c.Key()
		byTriple[triple{n, s, l}] = i
	}
	for _, c := range incoming {
		n, s, l := c.Key()
		t := triple{n, s, l}
		if i, ok := byTriple[t]; ok {
			result[i] = c // prefer the newer descriptor
		} else {
			byTriple[t] = len(result)
			result = append(result, c)
		}
	}
	return result
}

func cloneEntries(m map[string]entry) map[string]entry {
	out := make(map[string]entry, len(m))
	for k, v := range m {
		out[k] = entry{Cards: append([]domain.Card(nil), v.Cards...), LastAccessed: v.LastAccessed}
	}
	return out
}

func errWrap(err error) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.Cache, "searchcache.save", err)
}
