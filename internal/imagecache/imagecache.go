// Package imagecache implements the content-addressed, byte-budget LRU
// image cache: one blob file per cached image named by its SHA-256 hex
// digest, one JSON sidecar index, and an orphan-reconciliation sweep.
//
// Recency tracking is layered on hashicorp/golang-lru/v2 with its
// count-based capacity set far above any realistic working set, so this
// package's byte-budget loop is the only thing that ever evicts —
// golang-lru bounds by entry count, and the invariant here is
// sum(entry.size) <= maxBytes.
package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/proxysheets/proxycore/internal/errs"
	"github.com/proxysheets/proxycore/internal/events"
)

// DefaultMaxBytes is the default 1 GiB budget.
const DefaultMaxBytes = 1 << 30

// lruCapacity bounds golang-lru's own count-based eviction far above any
// realistic number of cached blobs, so it never fires before this
// package's byte-budget eviction does.
const lruCapacity = 1 << 20

type blobEntry struct {
	Hash         string    `json:"hash"`
	Ext          string    `json:"ext"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	LastAccessed time.Time `json:"last_accessed"`
}

// fileFormat is the image_cache_metadata.json on-disk layout.
type fileFormat struct {
	Entries   []blobEntry `json:"entries"`
	MaxSizeMB int         `json:"max_size_mb"`
}

// Cache is the process-wide image cache.
type Cache struct {
	mu        sync.RWMutex
	dir       string // directory holding blobs and the sidecar index
	indexPath string
	maxBytes  int64
	total     int64
	recency   *lru.Cache[string, *blobEntry]
	bytes     map[string][]byte // in-memory mirror of blob contents
	publisher events.Publisher
	log       *logrus.Logger
}

// New constructs a Cache rooted at dir, with metadata at
// dir/image_cache_metadata.json. A zero maxBytes defaults to 1 GiB. A nil
// publisher disables event emission. The logger defaults to
// logrus.StandardLogger(); SetLogger overrides it.
func New(dir string, maxBytes int64, publisher events.Publisher) (*Cache, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	recency, err := lru.New[string, *blobEntry](lruCapacity)
	if err != nil {
		return nil, errs.Wrap(errs.Cache, "imagecache.New", err)
	}
	return &Cache{
		dir:       dir,
		indexPath: filepath.Join(dir, "image_cache_metadata.json"),
		maxBytes:  maxBytes,
		recency:   recency,
		bytes:     make(map[string][]byte),
		publisher: publisher,
		log:       logrus.StandardLogger(),
	}, nil
}

// SetLogger overrides the logger used for degrade-to-memory-only
// warnings.
func (c *Cache) SetLogger(log *logrus.Logger) {
	if log == nil {
		return
	}
	c.mu.Lock()
	c.log = log
	c.mu.Unlock()
}

// hashOf returns the SHA-256 hex digest of an image URL, the cache key
// and on-disk blob file stem.
func hashOf(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// LoadMetadata reads image_cache_metadata.json and reconciles it against
// the blob directory: entries whose blob file is missing are dropped
// from the index; blob files with no sidecar entry are left for
// Reconcile's orphan sweep to remove.
func (c *Cache) LoadMetadata() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.Cache, "imagecache.LoadMetadata", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil // corrupt sidecar: treated as an empty cache, overwritten on next save
	}
	if ff.MaxSizeMB > 0 {
		c.maxBytes = int64(ff.MaxSizeMB) << 20
	}

	var total int64
	for _, e := range ff.Entries {
		blobPath := c.blobPath(e.Hash, e.Ext)
		if _, err := os.Stat(blobPath); err != nil {
			continue // blob missing: sidecar entry dropped
		}
		entry := e
		c.recency.Add(urlKey(e.URL), &entry)
		total += e.Size
	}
	c.total = total
	return nil
}

// Reconcile removes on-disk blob files that have no sidecar entry.
func (c *Cache) Reconcile() error {
	c.mu.RLock()
	known := make(map[string]struct{}, c.recency.Len())
	for _, e := range c.recency.Values() {
		known[e.Hash] = struct{}{}
	}
	dir := c.dir
	c.mu.RUnlock()

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.Cache, "imagecache.Reconcile", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		hash := stemOf(f.Name())
		if hash == "" {
			continue
		}
		if _, ok := known[hash]; !ok {
			_ = os.Remove(filepath.Join(dir, f.Name()))
		}
	}
	return nil
}

// GetBytes returns the cached bytes for url, if present, updating
// last-access as a side effect.
func (c *Cache) GetBytes(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.recency.Get(urlKey(url)) // Get bumps recency
	if !ok {
		return nil, false
	}
	e.LastAccessed = time.Now()

	if b, ok := c.bytes[e.Hash]; ok {
		return append([]byte(nil), b...), true
	}
	data, err := os.ReadFile(c.blobPath(e.Hash, e.Ext))
	if err != nil {
		return nil, false
	}
	c.bytes[e.Hash] = data
	return append([]byte(nil), data...), true
}

// Contains is a pure lookup: it does not update last-access.
func (c *Cache) Contains(url string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.recency.Peek(urlKey(url)) // Peek does not bump recency
	return ok
}

// Put writes bytes to memory, and best-effort to disk, updates metadata,
// and evicts least-recently-accessed blobs until the total is under the
// byte budget. Every successful Put and every eviction emits an event.
//
// A disk write failure degrades this entry to memory-only rather than
// failing the call: cache-layer disk errors never fail an operation
// whose data is still available in memory, so Put only logs a warning
// and keeps going.
func (c *Cache) Put(url string, data []byte) error {
	hash := hashOf(url)
	ext := blobExtFor(data)

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.log.WithError(err).Warnf("imagecache: degrading to memory-only for %s", url)
	} else if err := os.WriteFile(c.blobPath(hash, ext), data, 0o644); err != nil {
		c.log.WithError(err).Warnf("imagecache: degrading to memory-only for %s", url)
	}

	c.mu.Lock()
	key := urlKey(url)
	if old, ok := c.recency.Peek(key); ok {
		c.total -= old.Size
	}
	entry := &blobEntry{Hash: hash, Ext: ext, URL: url, Size: int64(len(data)), LastAccessed: time.Now()}
	c.recency.Add(key, entry)
	c.bytes[hash] = append([]byte(nil), data...)
	c.total += entry.Size
	c.mu.Unlock()

	c.emit(events.Cached, url)
	return c.evictToBudget()
}

// evictToBudget drops least-recently-accessed blobs until the total size
// is at or below the byte budget. Reads never trigger this; only Put
// does.
func (c *Cache) evictToBudget() error {
	for {
		c.mu.Lock()
		if c.total <= c.maxBytes {
			c.mu.Unlock()
			return nil
		}
		keys := c.recency.Keys() // oldest first
		if len(keys) == 0 {
			c.mu.Unlock()
			return nil
		}
		oldestKey := keys[0]
		victim, _ := c.recency.Peek(oldestKey)
		c.recency.Remove(oldestKey)
		delete(c.bytes, victim.Hash)
		c.total -= victim.Size
		blobPath := c.blobPath(victim.Hash, victim.Ext)
		c.mu.Unlock()

		_ = os.Remove(blobPath)
		c.emit(events.Removed, victim.URL)
	}
}

// Clear immediately purges memory and disk state.
func (c *Cache) Clear() error {
	c.mu.Lock()
	for _, e := range c.recency.Values() {
		_ = os.Remove(c.blobPath(e.Hash, e.Ext))
	}
	c.recency.Purge()
	c.bytes = make(map[string][]byte)
	c.total = 0
	c.mu.Unlock()
	return nil
}

// SaveMetadata flushes the sidecar index, atomically.
func (c *Cache) SaveMetadata() error {
	c.mu.RLock()
	entries := make([]blobEntry, 0, c.recency.Len())
	for _, e := range c.recency.Values() {
		entries = append(entries, *e)
	}
	snapshot := fileFormat{Entries: entries, MaxSizeMB: int(c.maxBytes >> 20)}
	c.mu.RUnlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errs.Wrap(errs.Cache, "imagecache.SaveMetadata", err)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Cache, "imagecache.SaveMetadata", err)
	}
	tmp := c.indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.Cache, "imagecache.SaveMetadata", err)
	}
	if err := os.Rename(tmp, c.indexPath); err != nil {
		return errs.Wrap(errs.Cache, "imagecache.SaveMetadata", err)
	}
	return nil
}

// TotalBytes reports the current tracked total, for cache-stats reporting.
func (c *Cache) TotalBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

func (c *Cache) blobPath(hash, ext string) string {
	if ext == "" {
		ext = fallbackBlobExt
	}
	return filepath.Join(c.dir, hash+ext)
}

// fallbackBlobExt covers sidecar entries persisted before content-type
// sniffing was added, or bytes http.DetectContentType can't classify.
const fallbackBlobExt = ".blob"

// recognizedBlobExts are the file suffixes this package ever writes,
// used by Reconcile/stemOf to recognize a blob file on disk.
var recognizedBlobExts = []string{".jpg", ".png", ".gif", ".webp", fallbackBlobExt}

// blobExtFor sniffs data's content type and returns the extension its
// blob file is written with, so a cached JPEG lands on disk as
// <sha256>.jpg rather than under a neutral suffix.
func blobExtFor(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return fallbackBlobExt
	}
}

func (c *Cache) emit(kind events.Kind, url string) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(events.Event{Kind: kind, URL: url, Timestamp: time.Now()})
}

func urlKey(url string) string { return hashOf(url) }

func stemOf(filename string) string {
	ext := filepath.Ext(filename)
	for _, known := range recognizedBlobExts {
		if ext == known {
			return filename[:len(filename)-len(ext)]
		}
	}
	return ""
}
