package proxycore

import "context"

// The functions in this file are convenience wrappers over the
// process-wide singleton (Current), so a caller who only needs one
// pipeline instance never has to touch Core directly.

// ParseDecklist tokenizes decklistText against the process-wide
// singleton's catalogs.
func ParseDecklist(decklistText string, globalFaceMode FaceMode) (Decklist, []error) {
	return Current().ParseDecklist(decklistText, globalFaceMode)
}

// ResolveEntries resolves decklist entries to concrete printings using
// the process-wide singleton.
func ResolveEntries(ctx context.Context, entries []DecklistEntry) ([]ResolvedCard, []error) {
	return Current().ResolveEntries(ctx, entries)
}

// ResolveEntry resolves a single decklist entry, a convenience for
// callers that don't already have a batch.
func ResolveEntry(ctx context.Context, entry DecklistEntry) (ResolvedCard, error) {
	resolved, errs := Current().ResolveEntries(ctx, []DecklistEntry{entry})
	if len(errs) > 0 {
		return ResolvedCard{}, errs[0]
	}
	return resolved[0], nil
}

// SearchPrintings returns every known printing of name, using the
// process-wide singleton.
func SearchPrintings(ctx context.Context, name string) ([]Card, error) {
	return Current().SearchPrintings(ctx, name)
}

// GetCachedImage returns url's cached bytes, if present, from the
// process-wide singleton's image cache.
func GetCachedImage(url string) ([]byte, bool) {
	return Current().GetCachedImage(url)
}

// CacheImage synchronously fetches and caches url through the
// process-wide singleton.
func CacheImage(ctx context.Context, url string) ([]byte, error) {
	return Current().CacheImage(ctx, url)
}

// Stats reports the process-wide singleton's cache statistics.
func Stats() CacheStats {
	return Current().Stats()
}

// SaveCaches flushes the process-wide singleton's caches to disk.
func SaveCaches() error {
	return Current().SaveCaches()
}

// ClearCaches discards the process-wide singleton's cached image blobs.
func ClearCaches() error {
	return Current().ClearCaches()
}

// RefreshCatalog refreshes the process-wide singleton's name and
// set-code catalogs if stale.
func RefreshCatalog(ctx context.Context) error {
	return Current().RefreshCatalog(ctx)
}

// RefreshCatalogForce unconditionally refreshes the process-wide
// singleton's name and set-code catalogs.
func RefreshCatalogForce(ctx context.Context) error {
	return Current().RefreshCatalogForce(ctx)
}
