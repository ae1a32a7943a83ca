// Package domain holds the core data model shared by every layer of the
// resolution pipeline: printings, decklist entries, and resolved cards.
// It lives under internal/ so that the catalog, cache, resolver, and
// expansion packages can all depend on it without creating an import
// cycle back through the root facade package, which re-exports these
// types under its own names.
package domain

import "github.com/proxysheets/proxycore/internal/catalogtypes"

// BackSideKind distinguishes the three back-side variants a printing can
// carry.
type BackSideKind int

const (
	// BackNone marks a single-faced printing.
	BackNone BackSideKind = iota
	// BackDFC marks a double-faced card: name is "FRONT // BACK".
	BackDFC
	// BackMeld marks a meld component: name is a single card name, not
	// joined with " // ".
	BackMeld
)

// BackSide describes the back face of a printing, if any. Exactly one of
// the Dfc/Meld fields is meaningful, selected by Kind.
type BackSide struct {
	Kind BackSideKind

	// Dfc fields (Kind == BackDFC)
	BackImageURL string
	BackName     string

	// Meld fields (Kind == BackMeld)
	ResultImageURL string
	ResultName     string
}

// Card is a single printing: canonical name, set code, language tag,
// front image URL, and an optional back-side descriptor.
//
// Invariant: a Card with Kind == BackDFC has a Name of the form
// "FRONT // BACK"; a Card with Kind == BackMeld does not.
type Card struct {
	Name          string
	Set           string
	Lang          string
	FrontImageURL string
	Back          BackSide
}

// HasBackImage reports whether the card has a usable back-side image URL,
// covering both the DFC and meld cases.
func (c Card) HasBackImage() bool {
	switch c.Back.Kind {
	case BackDFC:
		return c.Back.BackImageURL != ""
	case BackMeld:
		return c.Back.ResultImageURL != ""
	default:
		return false
	}
}

// BackImageURL returns the back-side image URL for whichever back-side
// kind is present, or "" if there is none.
func (c Card) BackImageURL() string {
	switch c.Back.Kind {
	case BackDFC:
		return c.Back.BackImageURL
	case BackMeld:
		return c.Back.ResultImageURL
	default:
		return ""
	}
}

// Key identifies a printing by its (name, set, lang) triple, the unit
// search-results merging operates on.
func (c Card) Key() (name, set, lang string) { return c.Name, c.Set, c.Lang }

// FaceMode selects which face(s) of a resolved card should be rendered.
type FaceMode int

const (
	FrontOnly FaceMode = iota
	BackOnly
	BothSides
)

// DecklistEntry is one resolved line of a decklist. FaceMode is fully
// resolved at parse time by the tokenizer and is never re-derived later.
type DecklistEntry struct {
	Quantity int
	Name     string // canonical name, after fuzzy resolution
	Set      string // optional set hint, "" if absent
	Lang     string // optional language hint, "" if absent
	FaceMode FaceMode
	Line     int // source line number, for error reporting and stable identity
}

// ResolvedCard is the (card, quantity, face_mode) triple consumed by
// expansion, prefetch, and PDF generation. Equivalent entries (same
// printing, same face mode) remain distinct if they came from distinct
// decklist lines, since meld pairing may differ by sibling.
type ResolvedCard struct {
	Card     Card
	Quantity int
	FaceMode FaceMode
	Line     int
}

// FromCatalogCard converts a remote catalog printing into the domain Card
// model, attaching a DFC back side when the printing carries exactly two
// card faces.
func FromCatalogCard(c catalogtypes.Card) Card {
	card := Card{
		Name: c.Name,
		Set:  c.Set,
		Lang: c.Lang,
	}
	if c.ImageURIs != nil {
		card.FrontImageURL = c.ImageURIs.BorderCrop
	}
	if len(c.CardFaces) == 2 {
		front, back := c.CardFaces[0], c.CardFaces[1]
		if front.ImageURIs != nil {
			card.FrontImageURL = front.ImageURIs.BorderCrop
		}
		backURL := ""
		if back.ImageURIs != nil {
			backURL = back.ImageURIs.BorderCrop
		}
		card.Back = BackSide{Kind: BackDFC, BackImageURL: backURL, BackName: back.Name}
	}
	return card
}

// AttachMeld returns a copy of c with a Meld back side pointing at
// resultName/resultImageURL. Used by the catalog API layer after a
// successful exact-name cross-resolution of a meld result; never called
// with a positional or best-guess result.
func AttachMeld(c Card, resultName, resultImageURL string) Card {
	c.Back = BackSide{Kind: BackMeld, ResultName: resultName, ResultImageURL: resultImageURL}
	return c
}
