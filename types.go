package proxycore

import (
	"github.com/proxysheets/proxycore/internal/decklist"
	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/eventbus"
	"github.com/proxysheets/proxycore/internal/events"
	"github.com/proxysheets/proxycore/internal/prefetch"
	"github.com/proxysheets/proxycore/internal/resolver"
)

// The public data model re-exports internal/domain's types under the
// package's own names so external callers never import internal
// packages directly, while every pipeline stage internally shares one
// definition.

type (
	BackSideKind = domain.BackSideKind
	BackSide     = domain.BackSide
	Card         = domain.Card
	FaceMode     = domain.FaceMode

	// FaceMatchMode is the internal classifier returned by the fuzzy name
	// resolver: how the user's text matched a canonical catalog name.
	FaceMatchMode = resolver.FaceMatchMode

	DecklistEntry = domain.DecklistEntry
	ResolvedCard  = domain.ResolvedCard

	// Decklist is a tokenized decklist with its maindeck/sideboard split.
	Decklist = decklist.Decklist

	// CacheEvent and CacheEventKind re-export the image-cache event bus's
	// wire types under the facade's own names.
	CacheEvent     = events.Event
	CacheEventKind = events.Kind

	// EventSubscription is a registered image-cache event listener handle
	// returned by Core.Subscribe.
	EventSubscription = eventbus.Subscription

	// PrefetchHandle and PrefetchProgress re-export the background
	// prefetcher's handle and per-tick progress report, returned by
	// Core.StartPrefetch.
	PrefetchHandle   = prefetch.Handle
	PrefetchProgress = prefetch.Progress
)

const (
	CacheEventCached  = events.Cached
	CacheEventRemoved = events.Removed
)

const (
	BackNone  = domain.BackNone
	BackDFC   = domain.BackDFC
	BackMeld  = domain.BackMeld
	FrontOnly = domain.FrontOnly
	BackOnly  = domain.BackOnly
	BothSides = domain.BothSides
)

// ToFaceMode maps a FaceMatchMode to a face_mode given the caller-supplied
// global face mode G. Part(1) always forces BackOnly; every other case
// uses G verbatim.
func ToFaceMode(m FaceMatchMode, global FaceMode) FaceMode {
	if !m.Full && m.Part == 1 {
		return BackOnly
	}
	return global
}
