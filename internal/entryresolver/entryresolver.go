// Package entryresolver implements the entry-to-card resolver:
// hint-aware printing selection with language-then-set hint relaxation
// and a lexicographic stability tie-break among survivors.
package entryresolver

import (
	"context"
	"sort"
	"strings"

	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/errs"
)

// PrintingSource retrieves every known printing of a canonical card name,
// caching as it sees fit. internal/catalog.Catalog satisfies this.
type PrintingSource interface {
	SearchPrintings(ctx context.Context, name string) ([]domain.Card, error)
}

// Resolve picks one printing for entry, honoring its set/lang hints, and
// yields a ResolvedCard.
func Resolve(ctx context.Context, entry domain.DecklistEntry, source PrintingSource) (domain.ResolvedCard, error) {
	printings, err := source.SearchPrintings(ctx, entry.Name)
	if err != nil {
		if errs.IsNotFound(err) {
			// A catalog name with no printings (whether the remote
			// reports it via 404 or an empty result set below) is an
			// unresolvable decklist line, not a retryable network fault;
			// surfaced per entry with its source line attached, never
			// aborting the whole batch.
			return domain.ResolvedCard{}, errs.New(errs.Parse, "entryresolver.Resolve", "no printings found for "+entry.Name).WithLine(entry.Line)
		}
		return domain.ResolvedCard{}, err
	}
	if len(printings) == 0 {
		return domain.ResolvedCard{}, errs.New(errs.Parse, "entryresolver.Resolve", "no printings found for "+entry.Name).WithLine(entry.Line)
	}

	survivors := selectSurvivors(printings, entry.Set, entry.Lang)
	chosen := lexicographicallyFirst(survivors)

	return domain.ResolvedCard{
		Card:     chosen,
		Quantity: entry.Quantity,
		FaceMode: entry.FaceMode,
		Line:     entry.Line,
	}, nil
}

// ResolveAll re-runs Resolve across every entry, used for re-resolution
// after a user edits one entry's hints in the preview: because meld
// siblings share no mutable state, restoring consistency means
// recomputing every entry's chosen printing from scratch.
func ResolveAll(ctx context.Context, entries []domain.DecklistEntry, source PrintingSource) ([]domain.ResolvedCard, []error) {
	resolved := make([]domain.ResolvedCard, 0, len(entries))
	var errsOut []error
	for _, e := range entries {
		r, err := Resolve(ctx, e, source)
		if err != nil {
			errsOut = append(errsOut, err)
			continue
		}
		resolved = append(resolved, r)
	}
	return resolved, errsOut
}

// selectSurvivors filters printings by the entry's hints: both hints
// must match together if that yields a non-empty result; otherwise the
// stricter hint (language) is relaxed first, then set.
func selectSurvivors(printings []domain.Card, set, lang string) []domain.Card {
	switch {
	case set != "" && lang != "":
		both := filterCards(printings, func(c domain.Card) bool {
			return matches(c.Set, set) && matches(c.Lang, lang)
		})
		if len(both) > 0 {
			return both
		}
		setOnly := filterCards(printings, func(c domain.Card) bool { return matches(c.Set, set) })
		if len(setOnly) > 0 {
			return setOnly // language hint relaxed
		}
		return printings // set hint relaxed too
	case set != "":
		if filtered := filterCards(printings, func(c domain.Card) bool { return matches(c.Set, set) }); len(filtered) > 0 {
			return filtered
		}
		return printings
	case lang != "":
		if filtered := filterCards(printings, func(c domain.Card) bool { return matches(c.Lang, lang) }); len(filtered) > 0 {
			return filtered
		}
		return printings
	default:
		return printings
	}
}

func matches(field, hint string) bool {
	return strings.EqualFold(field, hint)
}

func filterCards(cards []domain.Card, keep func(domain.Card) bool) []domain.Card {
	var out []domain.Card
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// lexicographicallyFirst picks the survivor with the lexicographically
// smallest (set, lang) pair, for deterministic, stable selection.
func lexicographicallyFirst(cards []domain.Card) domain.Card {
	sorted := append([]domain.Card(nil), cards...)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := sorted[i], sorted[j]
		if si.Set != sj.Set {
			return si.Set < sj.Set
		}
		return si.Lang < sj.Lang
	})
	return sorted[0]
}
