// Command proxycorelib is the C-ABI facade over the proxycore pipeline:
// a small set of handle-based, integer-error-coded entry points a host
// application (a native UI, a PDF-layout tool written in another
// language) links against as a shared library.
//
// Go values never cross the boundary as live pointers; resolved card
// lists and running prefetches are parked in handle tables and addressed
// by int64 IDs. Must live in package main: cgo only honors //export
// comments there.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/proxysheets/proxycore"
)

// Result codes returned by every entry point below. Domain errors
// (parse and resolution failures both report ErrParseFailed; the host
// does not distinguish) are separated from host programming errors
// (null pointers, bad handles) so a caller can decide whether to retry
// or abort. ErrPdfGenerationFailed and ErrOutOfMemory are produced by
// the host-side PDF layer sharing this enum, never by this library.
const (
	Success                 int32 = 0
	ErrNullPointer          int32 = -1
	ErrInvalidInput         int32 = -2
	ErrInitializationFailed int32 = -3
	ErrParseFailed          int32 = -4
	ErrPdfGenerationFailed  int32 = -5
	ErrOutOfMemory          int32 = -6
)

var (
	handleSeq    int64
	resultsMu    sync.Mutex
	resultTables = make(map[int64][]proxycore.ResolvedCard)

	prefetchMu      sync.Mutex
	prefetchHandles = make(map[int64]*prefetchEntry)

	subsMu        sync.Mutex
	subscriptions = make(map[int64]*subscriptionEntry)
)

type prefetchEntry struct {
	cancel context.CancelFunc
	done   <-chan struct{}
}

// subscriptionEntry parks the most recently drained event batch so the
// host can walk it with indexed getters between drains.
type subscriptionEntry struct {
	sub   *proxycore.EventSubscription
	batch []proxycore.CacheEvent
}

func nextHandle() int64 {
	return atomic.AddInt64(&handleSeq, 1)
}

//export proxycore_initialize
func proxycore_initialize() C.int32_t {
	if err := proxycore.Initialize(nil); err != nil {
		return C.int32_t(ErrInitializationFailed)
	}
	return C.int32_t(Success)
}

//export proxycore_shutdown
func proxycore_shutdown() C.int32_t {
	if err := proxycore.Shutdown(); err != nil {
		return C.int32_t(ErrInitializationFailed)
	}
	return C.int32_t(Success)
}

// proxycore_resolve_decklist parses and resolves decklistText in one
// call, the common host-application path. On
// success *outHandle identifies the resolved card list for the getters
// below; the caller must release it with proxycore_free_resolved.
//
//export proxycore_resolve_decklist
func proxycore_resolve_decklist(decklistText *C.char, faceMode C.int, outHandle *C.int64_t) C.int32_t {
	if decklistText == nil || outHandle == nil {
		return C.int32_t(ErrNullPointer)
	}
	text := C.GoString(decklistText)

	list, parseErrs := proxycore.ParseDecklist(text, proxycore.FaceMode(faceMode))
	if len(parseErrs) > 0 && list.NumberOfCards() == 0 {
		return C.int32_t(ErrParseFailed)
	}

	resolved, resolveErrs := proxycore.ResolveEntries(context.Background(), list.Maindeck)
	if len(resolveErrs) > 0 && len(resolved) == 0 {
		return C.int32_t(ErrParseFailed)
	}

	h := nextHandle()
	resultsMu.Lock()
	resultTables[h] = resolved
	resultsMu.Unlock()

	*outHandle = C.int64_t(h)
	return C.int32_t(Success)
}

//export proxycore_resolved_count
func proxycore_resolved_count(handle C.int64_t) C.int32_t {
	resultsMu.Lock()
	defer resultsMu.Unlock()
	rows, ok := resultTables[int64(handle)]
	if !ok {
		return C.int32_t(ErrInvalidInput)
	}
	return C.int32_t(len(rows))
}

// proxycore_resolved_name returns a newly allocated C string naming the
// resolved card at index. The caller owns the returned pointer and must
// release it with proxycore_free_string.
//
//export proxycore_resolved_name
func proxycore_resolved_name(handle C.int64_t, index C.int32_t) *C.char {
	resultsMu.Lock()
	rows, ok := resultTables[int64(handle)]
	resultsMu.Unlock()
	if !ok || int(index) < 0 || int(index) >= len(rows) {
		return nil
	}
	return C.CString(rows[index].Card.Name)
}

//export proxycore_resolved_quantity
func proxycore_resolved_quantity(handle C.int64_t, index C.int32_t) C.int32_t {
	resultsMu.Lock()
	rows, ok := resultTables[int64(handle)]
	resultsMu.Unlock()
	if !ok || int(index) < 0 || int(index) >= len(rows) {
		return C.int32_t(ErrInvalidInput)
	}
	return C.int32_t(rows[index].Quantity)
}

// proxycore_free_resolved releases a handle returned by
// proxycore_resolve_decklist.
//
//export proxycore_free_resolved
func proxycore_free_resolved(handle C.int64_t) {
	resultsMu.Lock()
	delete(resultTables, int64(handle))
	resultsMu.Unlock()
}

// proxycore_start_prefetch launches a background two-phase prefetch over
// a resolved handle's cards and writes a prefetch handle to
// outHandle for polling and cancellation.
//
//export proxycore_start_prefetch
func proxycore_start_prefetch(resolvedHandle C.int64_t, outHandle *C.int64_t) C.int32_t {
	if outHandle == nil {
		return C.int32_t(ErrNullPointer)
	}
	resultsMu.Lock()
	rows, ok := resultTables[int64(resolvedHandle)]
	resultsMu.Unlock()
	if !ok {
		return C.int32_t(ErrInvalidInput)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := proxycore.Current().StartPrefetch(ctx, rows)

	done := make(chan struct{})
	go func() {
		for range h.Progress() {
		}
		close(done)
	}()

	ph := nextHandle()
	prefetchMu.Lock()
	prefetchHandles[ph] = &prefetchEntry{cancel: func() { h.Cancel(); cancel() }, done: done}
	prefetchMu.Unlock()

	*outHandle = C.int64_t(ph)
	return C.int32_t(Success)
}

// proxycore_prefetch_done reports whether a background prefetch has
// finished (all progress ticks drained).
//
//export proxycore_prefetch_done
func proxycore_prefetch_done(prefetchHandle C.int64_t) C.int32_t {
	prefetchMu.Lock()
	entry, ok := prefetchHandles[int64(prefetchHandle)]
	prefetchMu.Unlock()
	if !ok {
		return C.int32_t(ErrInvalidInput)
	}
	select {
	case <-entry.done:
		return 1
	default:
		return 0
	}
}

// proxycore_prefetch_cancel requests cancellation of a running prefetch
// at its next entry or phase boundary.
//
//export proxycore_prefetch_cancel
func proxycore_prefetch_cancel(prefetchHandle C.int64_t) C.int32_t {
	prefetchMu.Lock()
	entry, ok := prefetchHandles[int64(prefetchHandle)]
	prefetchMu.Unlock()
	if !ok {
		return C.int32_t(ErrInvalidInput)
	}
	entry.cancel()
	return C.int32_t(Success)
}

//export proxycore_free_prefetch
func proxycore_free_prefetch(prefetchHandle C.int64_t) {
	prefetchMu.Lock()
	delete(prefetchHandles, int64(prefetchHandle))
	prefetchMu.Unlock()
}

// proxycore_get_cached_image copies a cached image's bytes into a
// newly-allocated C buffer and reports its length via outLen. The
// caller owns the returned pointer and must release it with
// proxycore_free_bytes. Returns nil if url is not cached.
//
//export proxycore_get_cached_image
func proxycore_get_cached_image(url *C.char, outLen *C.int32_t) unsafe.Pointer {
	if url == nil || outLen == nil {
		return nil
	}
	data, ok := proxycore.GetCachedImage(C.GoString(url))
	if !ok {
		*outLen = 0
		return nil
	}
	*outLen = C.int32_t(len(data))
	return C.CBytes(data)
}

//export proxycore_free_bytes
func proxycore_free_bytes(ptr unsafe.Pointer) {
	if ptr != nil {
		C.free(ptr)
	}
}

//export proxycore_free_string
func proxycore_free_string(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

// proxycore_has_cached_image reports whether url's image bytes are
// already cached: 1 if present, 0 if not. Does not refresh the entry's
// last-access time.
//
//export proxycore_has_cached_image
func proxycore_has_cached_image(url *C.char) C.int32_t {
	if url == nil {
		return C.int32_t(ErrNullPointer)
	}
	if proxycore.Current().HasCachedImage(C.GoString(url)) {
		return 1
	}
	return 0
}

// proxycore_subscribe_events registers an image-cache event listener and
// writes its handle to outHandle. The caller polls
// proxycore_events_drain and releases the handle with
// proxycore_unsubscribe_events.
//
//export proxycore_subscribe_events
func proxycore_subscribe_events(outHandle *C.int64_t) C.int32_t {
	if outHandle == nil {
		return C.int32_t(ErrNullPointer)
	}
	h := nextHandle()
	subsMu.Lock()
	subscriptions[h] = &subscriptionEntry{sub: proxycore.Current().Subscribe()}
	subsMu.Unlock()
	*outHandle = C.int64_t(h)
	return C.int32_t(Success)
}

//export proxycore_unsubscribe_events
func proxycore_unsubscribe_events(handle C.int64_t) {
	subsMu.Lock()
	entry, ok := subscriptions[int64(handle)]
	delete(subscriptions, int64(handle))
	subsMu.Unlock()
	if ok {
		entry.sub.Unsubscribe()
	}
}

// proxycore_events_drain empties the subscriber's queued event batch and
// returns its length; the host then reads each event with
// proxycore_event_url/proxycore_event_kind before the next drain.
// *outOverflowed is set to 1 if events were dropped since the previous
// drain.
//
//export proxycore_events_drain
func proxycore_events_drain(handle C.int64_t, outOverflowed *C.int32_t) C.int32_t {
	if outOverflowed == nil {
		return C.int32_t(ErrNullPointer)
	}
	subsMu.Lock()
	entry, ok := subscriptions[int64(handle)]
	subsMu.Unlock()
	if !ok {
		return C.int32_t(ErrInvalidInput)
	}
	batch, overflowed := entry.sub.Drain()
	subsMu.Lock()
	entry.batch = batch
	subsMu.Unlock()
	if overflowed {
		*outOverflowed = 1
	} else {
		*outOverflowed = 0
	}
	return C.int32_t(len(batch))
}

// proxycore_event_url returns a newly allocated C string holding the URL
// of the index-th event in the last drained batch. The caller owns the
// returned pointer and must release it with proxycore_free_string.
//
//export proxycore_event_url
func proxycore_event_url(handle C.int64_t, index C.int32_t) *C.char {
	subsMu.Lock()
	defer subsMu.Unlock()
	entry, ok := subscriptions[int64(handle)]
	if !ok || int(index) < 0 || int(index) >= len(entry.batch) {
		return nil
	}
	return C.CString(entry.batch[index].URL)
}

// proxycore_event_kind returns 0 for a cached event, 1 for a removal,
// for the index-th event in the last drained batch.
//
//export proxycore_event_kind
func proxycore_event_kind(handle C.int64_t, index C.int32_t) C.int32_t {
	subsMu.Lock()
	defer subsMu.Unlock()
	entry, ok := subscriptions[int64(handle)]
	if !ok || int(index) < 0 || int(index) >= len(entry.batch) {
		return C.int32_t(ErrInvalidInput)
	}
	return C.int32_t(entry.batch[index].Kind)
}

// proxycore_cache_dir returns a newly allocated C string naming the
// directory every cache file and image blob lives under. The caller owns
// the returned pointer and must release it with proxycore_free_string.
//
//export proxycore_cache_dir
func proxycore_cache_dir() *C.char {
	return C.CString(proxycore.Stats().CacheDir)
}

// proxycore_cache_stats writes the current on-disk cache usage into the
// caller's out-parameters.
//
//export proxycore_cache_stats
func proxycore_cache_stats(outTotalBytes, outBudgetBytes *C.int64_t, outNames, outSetCodes *C.int32_t) C.int32_t {
	if outTotalBytes == nil || outBudgetBytes == nil || outNames == nil || outSetCodes == nil {
		return C.int32_t(ErrNullPointer)
	}
	stats := proxycore.Stats()
	*outTotalBytes = C.int64_t(stats.TotalBytes)
	*outBudgetBytes = C.int64_t(stats.BudgetBytes)
	*outNames = C.int32_t(stats.CachedNames)
	*outSetCodes = C.int32_t(stats.CachedSetCodes)
	return C.int32_t(Success)
}

//export proxycore_save_caches
func proxycore_save_caches() C.int32_t {
	if err := proxycore.SaveCaches(); err != nil {
		return C.int32_t(ErrInitializationFailed)
	}
	return C.int32_t(Success)
}

//export proxycore_clear_caches
func proxycore_clear_caches() C.int32_t {
	if err := proxycore.ClearCaches(); err != nil {
		return C.int32_t(ErrInitializationFailed)
	}
	return C.int32_t(Success)
}

func main() {
	// Built with -buildmode=c-shared; main is never invoked directly but
	// is required by package main.
}
