package proxycore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/proxysheets/proxycore/internal/prefetch"
)

func TestNew_WiresCoreAgainstTempCacheDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	cfg.App.UserAgent = "proxycore-test/1.0"

	core, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stats := core.Stats()
	if stats.CacheDir != cfg.Cache.Dir {
		t.Errorf("CacheDir = %q, want %q", stats.CacheDir, cfg.Cache.Dir)
	}
	if stats.BudgetBytes != int64(cfg.Cache.MaxSizeMB)*1024*1024 {
		t.Errorf("BudgetBytes = %d, want %d", stats.BudgetBytes, int64(cfg.Cache.MaxSizeMB)*1024*1024)
	}
}

func TestExpandImageURLs_FrontOnlySingleCopy(t *testing.T) {
	card := ResolvedCard{
		Card:     Card{Name: "Lightning Bolt", FrontImageURL: "https://example.com/bolt.jpg"},
		Quantity: 1,
		FaceMode: FrontOnly,
	}
	urls := ExpandImageURLs(card)
	if len(urls) != 1 || urls[0] != "https://example.com/bolt.jpg" {
		t.Fatalf("got %v", urls)
	}
}

func TestCore_ParseDecklistSplitsSideboard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = t.TempDir()

	// Seed card_names.json so the name resolver has something to match
	// against; Core.ParseDecklist resolves every line through the same
	// on-disk name catalog a running instance would build from the
	// network.
	seedNames(t, cfg.Cache.Dir, "Lightning Bolt", "Abrade")

	core, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "4 Lightning Bolt\nSideboard\n2 Abrade\n"
	deck, errs := core.ParseDecklist(text, FrontOnly)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if deck.NumberOfCards() != 4 || deck.NumberOfSideboardCards() != 2 {
		t.Fatalf("got totals %d/%d", deck.NumberOfCards(), deck.NumberOfSideboardCards())
	}
}

func seedNames(t *testing.T, cacheDir string, names ...string) {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"timestamp": time.Now(),
		"names":     names,
	})
	if err != nil {
		t.Fatalf("marshal seed names: %v", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatalf("mkdir cache dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "card_names.json"), data, 0o644); err != nil {
		t.Fatalf("write seed names: %v", err)
	}
}

func TestCurrent_LazilyBuildsDefaultSingleton(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	mu.Lock()
	current = nil
	initOnce = sync.Once{}
	mu.Unlock()

	c := Current()
	if c == nil {
		t.Fatal("expected Current() to lazily build a singleton")
	}
	if c2 := Current(); c2 != c {
		t.Fatal("expected Current() to return the same instance on repeat calls")
	}
}

type countingFetcher struct {
	nameCalls, codeCalls int
}

func (f *countingFetcher) FetchNames(ctx context.Context) ([]string, error) {
	f.nameCalls++
	return []string{"Lightning Bolt"}, nil
}

func (f *countingFetcher) FetchCodes(ctx context.Context) ([]string, error) {
	f.codeCalls++
	return []string{"lea"}, nil
}

func (f *countingFetcher) SearchPrintings(ctx context.Context, name string) ([]Card, error) {
	return nil, nil
}

func TestCore_RefreshCatalog_SkipsFreshCatalogs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	core, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fetcher := &countingFetcher{}
	if err := core.names.RefreshFromNetwork(context.Background(), fetcher); err != nil {
		t.Fatalf("seed names: %v", err)
	}
	if err := core.sets.RefreshFromNetwork(context.Background(), fetcher); err != nil {
		t.Fatalf("seed sets: %v", err)
	}
	if fetcher.nameCalls != 1 || fetcher.codeCalls != 1 {
		t.Fatalf("unexpected seed call counts: %+v", fetcher)
	}

	// Both catalogs are now fresh; RefreshCatalog must not re-fetch.
	core.cat = nil // would panic if refreshCatalog tried to use it
	if err := core.RefreshCatalog(context.Background()); err != nil {
		t.Fatalf("RefreshCatalog: %v", err)
	}
}

var _ catalogSource = (*countingFetcher)(nil)

func TestCore_RefreshCatalogForce_AlwaysRefetches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	core, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fetcher := &countingFetcher{}
	if err := core.names.RefreshFromNetwork(context.Background(), fetcher); err != nil {
		t.Fatalf("seed names: %v", err)
	}
	if err := core.sets.RefreshFromNetwork(context.Background(), fetcher); err != nil {
		t.Fatalf("seed sets: %v", err)
	}

	core.cat = fetcher
	if err := core.RefreshCatalogForce(context.Background()); err != nil {
		t.Fatalf("RefreshCatalogForce: %v", err)
	}
	if fetcher.nameCalls != 2 || fetcher.codeCalls != 2 {
		t.Fatalf("expected force to re-fetch both catalogs, got %+v", fetcher)
	}
}

func TestStartPrefetch_EmitsCompletedTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	core, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// No entries to walk: the two-phase schedule should still reach
	// PhaseCompleted immediately.
	handle := core.StartPrefetch(context.Background(), nil)
	deadline := time.After(2 * time.Second)
	sawCompleted := false
	for {
		select {
		case p, ok := <-handle.Progress():
			if !ok {
				if !sawCompleted {
					t.Fatal("expected a Completed tick before the progress channel closed")
				}
				return
			}
			if p.Phase == prefetch.PhaseCompleted {
				sawCompleted = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for prefetch completion")
		}
	}
}
