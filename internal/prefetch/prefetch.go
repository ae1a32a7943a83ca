// Package prefetch implements the background image prefetcher: a
// handle-based, two-phase (Selected, then Alternatives) task that fills
// the image cache for a resolved entry list and surfaces progress on a
// per-handle channel.
package prefetch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/expand"
)

// Phase identifies which stage of a handle's two-phase schedule a
// Progress tick describes.
type Phase int

const (
	PhaseSelected Phase = iota
	PhaseAlternatives
	PhaseCompleted
)

// Progress is one tick delivered on a handle's progress channel.
type Progress struct {
	Phase              Phase
	SelectedLoaded     int
	TotalEntries       int
	AlternativesLoaded int
	TotalAlternatives  int
	Errors             int
}

// ImageFetcher downloads the raw bytes for an image URL. internal/catalogclient.Client satisfies this.
type ImageFetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageCache is the subset of internal/imagecache.Cache the prefetcher needs.
type ImageCache interface {
	Contains(url string) bool
	Put(url string, data []byte) error
}

// PrintingSource retrieves every known printing of a canonical card name.
// internal/catalog.Catalog satisfies this.
type PrintingSource interface {
	SearchPrintings(ctx context.Context, name string) ([]domain.Card, error)
}

// Prefetcher launches and tracks background prefetch handles. Multiple
// handles may run concurrently; each has its own progress channel and no
// ordering is guaranteed across handles.
type Prefetcher struct {
	client ImageFetcher
	cache  ImageCache
	source PrintingSource

	mu      sync.Mutex
	handles map[uuid.UUID]*Handle
}

// New constructs a Prefetcher. client fetches image bytes, cache is the
// destination for fetched bytes, source resolves a card name's full
// printing list for Phase B.
func New(client ImageFetcher, cache ImageCache, source PrintingSource) *Prefetcher {
	return &Prefetcher{
		client:  client,
		cache:   cache,
		source:  source,
		handles: make(map[uuid.UUID]*Handle),
	}
}

// Handle is a running (or completed) prefetch task. Cancellation is
// checked at the next entry or phase boundary; partial work within the
// in-flight entry is not rolled back.
type Handle struct {
	ID uuid.UUID

	cancelOnce sync.Once
	cancel     chan struct{}
	progress   chan Progress
}

// Cancel halts the handle at its next entry or phase boundary. Calling
// Cancel more than once is a no-op.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() { close(h.cancel) })
}

// Progress returns the channel on which this handle's ticks are
// delivered. The channel is closed after the Completed tick, or, after
// cancellation, at the next entry or phase boundary.
func (h *Handle) Progress() <-chan Progress {
	return h.progress
}

// Start launches a new prefetch handle over entries and returns
// immediately; the two-phase walk runs on its own goroutine.
func (p *Prefetcher) Start(ctx context.Context, entries []domain.ResolvedCard) *Handle {
	h := &Handle{
		ID:       uuid.New(),
		cancel:   make(chan struct{}),
		progress: make(chan Progress, 64),
	}

	p.mu.Lock()
	p.handles[h.ID] = h
	p.mu.Unlock()

	go p.run(ctx, h, entries)
	return h
}

// Cancel looks up a handle by ID and cancels it, if still running. It is
// a no-op for an unknown or already-completed handle ID.
func (p *Prefetcher) Cancel(id uuid.UUID) {
	p.mu.Lock()
	h := p.handles[id]
	p.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

func (p *Prefetcher) forget(id uuid.UUID) {
	p.mu.Lock()
	delete(p.handles, id)
	p.mu.Unlock()
}

func (p *Prefetcher) run(ctx context.Context, h *Handle, entries []domain.ResolvedCard) {
	defer close(h.progress)
	defer p.forget(h.ID)

	errCount := 0

	// Phase A — Selected: ensure each entry's chosen printing images are
	// cached, in decklist order.
	for i, entry := range entries {
		if cancelled(h.cancel) {
			return
		}
		for _, url := range expand.Expand(entry) {
			errCount += p.ensureCached(ctx, url)
		}
		h.progress <- Progress{
			Phase:          PhaseSelected,
			SelectedLoaded: i + 1,
			TotalEntries:   len(entries),
			Errors:         errCount,
		}
	}

	if cancelled(h.cancel) {
		return
	}

	// Phase B — Alternatives: for each entry, every other printing's
	// front image. The full alternative URL set is gathered first so
	// TotalAlternatives is known for every progress tick.
	perEntryAlternatives := make([][]string, len(entries))
	total := 0
	for i, entry := range entries {
		urls, err := p.alternativeURLs(ctx, entry)
		if err != nil {
			errCount++
			log.WithError(err).WithField("name", entry.Card.Name).Warn("prefetch: alternatives lookup failed")
			continue
		}
		perEntryAlternatives[i] = urls
		total += len(urls)
	}

	loaded := 0
	for _, urls := range perEntryAlternatives {
		if cancelled(h.cancel) {
			return
		}
		for _, url := range urls {
			errCount += p.ensureCached(ctx, url)
			loaded++
			h.progress <- Progress{
				Phase:              PhaseAlternatives,
				AlternativesLoaded: loaded,
				TotalAlternatives:  total,
				Errors:             errCount,
			}
		}
	}

	h.progress <- Progress{Phase: PhaseCompleted, Errors: errCount}
}

// ensureCached downloads and caches url if not already present. Errors
// are counted and swallowed; a failed download never aborts the task.
func (p *Prefetcher) ensureCached(ctx context.Context, url string) (errCount int) {
	if url == "" || p.cache.Contains(url) {
		return 0
	}
	data, err := p.client.GetBytes(ctx, url)
	if err != nil {
		log.WithError(err).WithField("url", url).Warn("prefetch: image download failed")
		return 1
	}
	if err := p.cache.Put(url, data); err != nil {
		log.WithError(err).WithField("url", url).Warn("prefetch: image cache write failed")
		return 1
	}
	return 0
}

// alternativeURLs returns the front-image URLs of every printing of
// entry's card other than the one already selected.
func (p *Prefetcher) alternativeURLs(ctx context.Context, entry domain.ResolvedCard) ([]string, error) {
	printings, err := p.source.SearchPrintings(ctx, entry.Card.Name)
	if err != nil {
		return nil, err
	}
	selectedName, selectedSet, selectedLang := entry.Card.Key()
	var urls []string
	for _, printing := range printings {
		name, set, lang := printing.Key()
		if name == selectedName && set == selectedSet && lang == selectedLang {
			continue
		}
		if printing.FrontImageURL != "" {
			urls = append(urls, printing.FrontImageURL)
		}
	}
	return urls, nil
}

func cancelled(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
