// Package proxycore resolves Magic: The Gathering decklist text into
// concrete printings and their proxy-sheet images, caching every layer
// of that pipeline on disk between runs.
//
// One process-wide instance is lazily created on first use, guarded by
// sync.Once plus a sync.RWMutex for the rare case callers construct a
// second instance explicitly via New.
package proxycore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/proxysheets/proxycore/internal/catalog"
	"github.com/proxysheets/proxycore/internal/catalogclient"
	"github.com/proxysheets/proxycore/internal/decklist"
	"github.com/proxysheets/proxycore/internal/entryresolver"
	"github.com/proxysheets/proxycore/internal/errs"
	"github.com/proxysheets/proxycore/internal/eventbus"
	"github.com/proxysheets/proxycore/internal/expand"
	"github.com/proxysheets/proxycore/internal/imagecache"
	"github.com/proxysheets/proxycore/internal/namecache"
	"github.com/proxysheets/proxycore/internal/prefetch"
	"github.com/proxysheets/proxycore/internal/resolver"
	"github.com/proxysheets/proxycore/internal/searchcache"
	"github.com/proxysheets/proxycore/internal/setcache"
)

// catalogSource is everything Core needs from its catalog API layer:
// printing search (entryresolver.PrintingSource) plus the two catalog
// refresh fetchers (namecache.Fetcher, setcache.Fetcher). internal/catalog.Catalog
// satisfies it; tests substitute a fake to exercise RefreshCatalog's
// freshness gating without touching the network.
type catalogSource interface {
	entryresolver.PrintingSource
	namecache.Fetcher
	setcache.Fetcher
}

// Core is one fully-wired instance of the resolution pipeline: a
// catalog client, the four on-disk caches, the entry resolver, the
// decklist tokenizer, and the background prefetcher, all sharing one
// event bus.
type Core struct {
	cfg *Config
	log *logrus.Logger

	client  *catalogclient.Client
	names   *namecache.Cache
	sets    *setcache.Cache
	search  *searchcache.Cache
	images  *imagecache.Cache
	bus     *eventbus.Bus
	cat     catalogSource
	fetcher *prefetch.Prefetcher
}

var (
	initOnce sync.Once
	mu       sync.RWMutex
	current  *Core
)

// New wires a fresh Core from cfg. Most callers should use Initialize
// instead, which maintains the process-wide singleton returned by
// Current.
func New(cfg *Config) (*Core, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Cache.Dir == "" {
		dir, err := cacheDir()
		if err != nil {
			return nil, err
		}
		cfg.Cache.Dir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := cfg.logger()

	client := catalogclient.New(catalogclient.Options{
		BaseURL:       "https://api.scryfall.com",
		UserAgent:     cfg.App.UserAgent,
		MinIntervalMS: cfg.RateLimit.MinIntervalMS,
	})

	namesCache := namecache.New(filepath.Join(cfg.Cache.Dir, "card_names.json"))
	if err := namesCache.LoadFromDisk(); err != nil {
		log.WithError(err).Warn("proxycore: card name cache failed to load, starting empty")
	}

	setsCache := setcache.New(filepath.Join(cfg.Cache.Dir, "set_codes.json"))
	if err := setsCache.LoadFromDisk(); err != nil {
		log.WithError(err).Warn("proxycore: set code cache failed to load, starting empty")
	}

	searchResults := searchcache.New(filepath.Join(cfg.Cache.Dir, "search_results.json"))
	if err := searchResults.LoadAll(); err != nil {
		log.WithError(err).Warn("proxycore: search result cache failed to load, starting empty")
	}

	bus := eventbus.New()

	imageBudget := int64(cfg.Cache.MaxSizeMB) * 1024 * 1024
	images, err := imagecache.New(filepath.Join(cfg.Cache.Dir, "images"), imageBudget, bus)
	if err != nil {
		return nil, fmt.Errorf("open image cache: %w", err)
	}
	images.SetLogger(log)
	if err := images.LoadMetadata(); err != nil {
		log.WithError(err).Warn("proxycore: image cache metadata failed to load, starting empty")
	}
	if err := images.Reconcile(); err != nil {
		log.WithError(err).Warn("proxycore: image cache reconciliation failed")
	}

	cat := catalog.New(client, searchResults)
	fetcher := prefetch.New(client, images, cat)

	return &Core{
		cfg:     cfg,
		log:     log,
		client:  client,
		names:   namesCache,
		sets:    setsCache,
		search:  searchResults,
		images:  images,
		bus:     bus,
		cat:     cat,
		fetcher: fetcher,
	}, nil
}

// Initialize creates (or recreates) the process-wide Core from cfg. A
// nil cfg loads the on-disk configuration, falling back to
// DefaultConfig. Safe to call more than once; each call replaces the
// current singleton.
func Initialize(cfg *Config) error {
	var err error
	if cfg == nil {
		cfg, err = LoadConfig()
		if err != nil {
			return err
		}
	}

	core, buildErr := New(cfg)
	if buildErr != nil {
		return buildErr
	}

	mu.Lock()
	current = core
	mu.Unlock()
	return nil
}

// Current returns the process-wide singleton, lazily building it from
// DefaultConfig on first use.
func Current() *Core {
	mu.RLock()
	c := current
	mu.RUnlock()
	if c != nil {
		return c
	}

	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if current != nil {
			return
		}
		core, err := New(DefaultConfig())
		if err != nil {
			// DefaultConfig never fails Validate and cacheDir failures are
			// the only other source; logged rather than panicked since
			// this runs lazily on an arbitrary caller's goroutine.
			logrus.StandardLogger().WithError(err).Error("proxycore: failed to create default instance")
			return
		}
		current = core
	})

	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Shutdown flushes every on-disk cache and drops the process-wide
// singleton. Safe to call even if Initialize/Current was never called.
func Shutdown() error {
	mu.Lock()
	c := current
	current = nil
	mu.Unlock()
	if c == nil {
		return nil
	}
	return c.SaveCaches()
}

// SaveCaches flushes every cache this Core owns to disk.
func (c *Core) SaveCaches() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(c.images.SaveMetadata())
	record(c.search.SaveAll())
	return firstErr
}

// ClearCaches discards every cached image blob. The name/set/search
// caches are left alone; RefreshCatalog rebuilds the name and set-code
// catalogs from the network, and search results are refreshed by later
// searches.
func (c *Core) ClearCaches() error {
	return c.images.Clear()
}

// RefreshCatalog re-downloads the name and set-code catalogs, but only
// the ones whose 24-hour freshness window has lapsed. Call
// RefreshCatalogForce to bypass the freshness check.
func (c *Core) RefreshCatalog(ctx context.Context) error {
	return c.refreshCatalog(ctx, false)
}

// RefreshCatalogForce unconditionally re-downloads both catalogs,
// regardless of their current freshness.
func (c *Core) RefreshCatalogForce(ctx context.Context) error {
	return c.refreshCatalog(ctx, true)
}

func (c *Core) refreshCatalog(ctx context.Context, force bool) error {
	now := time.Now()
	var firstErr error
	if force || !c.names.IsFresh(now) {
		if err := c.names.RefreshFromNetwork(ctx, c.cat); err != nil {
			firstErr = err
		}
	}
	if force || !c.sets.IsFresh(now) {
		if err := c.sets.RefreshFromNetwork(ctx, c.cat); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// nameResolverAdapter bridges namecache.Cache.Lookup (the resolver.FaceMatchMode
// return) to decklist.NameResolver without decklist importing namecache.
type nameResolverAdapter struct{ cache *namecache.Cache }

func (a nameResolverAdapter) Lookup(query string) (string, resolver.FaceMatchMode, bool) {
	return a.cache.Lookup(query)
}

// ParseDecklist tokenizes decklistText using this Core's name and set
// catalogs, splitting out a "Sideboard" header section.
func (c *Core) ParseDecklist(decklistText string, globalFaceMode FaceMode) (Decklist, []error) {
	return decklist.ParseDecklist(decklistText, globalFaceMode, c.sets, nameResolverAdapter{c.names})
}

// ResolveEntries resolves a batch of decklist entries to concrete
// printings, searching and caching printings through this Core's
// catalog layer.
func (c *Core) ResolveEntries(ctx context.Context, entries []DecklistEntry) ([]ResolvedCard, []error) {
	return entryresolver.ResolveAll(ctx, entries, c.cat)
}

// SearchPrintings returns every known printing of name, consulting the
// search-results cache before the remote catalog.
func (c *Core) SearchPrintings(ctx context.Context, name string) ([]Card, error) {
	if cached, ok := c.search.Get(name); ok {
		c.search.TouchAccess(name)
		return cached, nil
	}
	return c.cat.SearchPrintings(ctx, name)
}

// ExpandImageURLs returns the ordered image URLs a resolved card
// contributes to the final proxy sheet.
func ExpandImageURLs(card ResolvedCard) []string {
	return expand.Expand(card)
}

// GetCachedImage returns the cached bytes for url, if present.
func (c *Core) GetCachedImage(url string) ([]byte, bool) {
	return c.images.GetBytes(url)
}

// HasCachedImage reports whether url is already cached.
func (c *Core) HasCachedImage(url string) bool {
	return c.images.Contains(url)
}

// CacheImage downloads and caches url, bypassing the prefetcher — used
// when a caller needs one specific image synchronously.
func (c *Core) CacheImage(ctx context.Context, url string) ([]byte, error) {
	if data, ok := c.images.GetBytes(url); ok {
		return data, nil
	}
	data, err := c.client.GetBytes(ctx, url)
	if err != nil {
		return nil, errs.Wrap(errs.Network, "Core.CacheImage", err)
	}
	if err := c.images.Put(url, data); err != nil {
		return nil, err
	}
	return data, nil
}

// CacheStats summarizes the on-disk caches.
type CacheStats struct {
	TotalBytes     int64
	HumanTotal     string
	BudgetBytes    int64
	HumanBudget    string
	CacheDir       string
	CachedNames    int
	CachedSetCodes int
}

// Stats reports the current size of every on-disk cache, human-readable
// byte counts included for display.
func (c *Core) Stats() CacheStats {
	total := c.images.TotalBytes()
	budget := int64(c.cfg.Cache.MaxSizeMB) * 1024 * 1024
	return CacheStats{
		TotalBytes:     total,
		HumanTotal:     humanize.Bytes(uint64(total)),
		BudgetBytes:    budget,
		HumanBudget:    humanize.Bytes(uint64(budget)),
		CacheDir:       c.cfg.Cache.Dir,
		CachedNames:    len(c.names.Names()),
		CachedSetCodes: c.sets.Count(),
	}
}

// StartPrefetch launches a background two-phase prefetch over entries
// and returns a handle for progress polling and cancellation.
func (c *Core) StartPrefetch(ctx context.Context, entries []ResolvedCard) *PrefetchHandle {
	return c.fetcher.Start(ctx, entries)
}

// CancelPrefetch cancels a running prefetch handle by ID.
func (c *Core) CancelPrefetch(id uuid.UUID) {
	c.fetcher.Cancel(id)
}

// Subscribe registers a new image-cache event listener.
func (c *Core) Subscribe() *EventSubscription {
	return c.bus.Subscribe()
}
