package entryresolver

import (
	"context"
	"testing"

	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/errs"
)

type fakeSource struct {
	byName map[string][]domain.Card
	err    error
}

func (f fakeSource) SearchPrintings(ctx context.Context, name string) ([]domain.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byName[name], nil
}

func TestResolve_NoHints_PicksLexicographicallyFirst(t *testing.T) {
	source := fakeSource{byName: map[string][]domain.Card{
		"Lightning Bolt": {
			{Name: "Lightning Bolt", Set: "m11", Lang: "en"},
			{Name: "Lightning Bolt", Set: "lea", Lang: "en"},
		},
	}}
	entry := domain.DecklistEntry{Quantity: 4, Name: "Lightning Bolt", FaceMode: domain.BothSides}

	got, err := Resolve(context.Background(), entry, source)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Card.Set != "lea" {
		t.Fatalf("expected lea (lexicographically first), got %q", got.Card.Set)
	}
	if got.Quantity != 4 {
		t.Fatalf("expected quantity to carry through, got %d", got.Quantity)
	}
}

func TestResolve_SetHintRelaxation(t *testing.T) {
	// No printing matches the given set hint, so the
	// resolver falls back to the lexicographically first survivor
	// instead of rejecting the entry.
	source := fakeSource{byName: map[string][]domain.Card{
		"Lightning Bolt": {
			{Name: "Lightning Bolt", Set: "m11", Lang: "en"},
			{Name: "Lightning Bolt", Set: "lea", Lang: "en"},
		},
	}}
	entry := domain.DecklistEntry{Quantity: 4, Name: "Lightning Bolt", Set: "ZZZ", FaceMode: domain.BothSides}

	got, err := Resolve(context.Background(), entry, source)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Card.Set != "lea" {
		t.Fatalf("expected the set hint to be relaxed to lea, got %q", got.Card.Set)
	}
}

func TestResolve_BothHintsComposeWhenBothMatch(t *testing.T) {
	source := fakeSource{byName: map[string][]domain.Card{
		"Lightning Bolt": {
			{Name: "Lightning Bolt", Set: "m11", Lang: "en"},
			{Name: "Lightning Bolt", Set: "m11", Lang: "ja"},
			{Name: "Lightning Bolt", Set: "lea", Lang: "en"},
		},
	}}
	entry := domain.DecklistEntry{Quantity: 1, Name: "Lightning Bolt", Set: "m11", Lang: "ja", FaceMode: domain.BothSides}

	got, err := Resolve(context.Background(), entry, source)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Card.Set != "m11" || got.Card.Lang != "ja" {
		t.Fatalf("expected m11/ja, got %s/%s", got.Card.Set, got.Card.Lang)
	}
}

func TestResolve_LanguageRelaxedBeforeSet(t *testing.T) {
	// Set hint matches something, language hint matches nothing for that
	// set: language is the stricter hint and is relaxed first, keeping
	// the set filter.
	source := fakeSource{byName: map[string][]domain.Card{
		"Lightning Bolt": {
			{Name: "Lightning Bolt", Set: "m11", Lang: "en"},
			{Name: "Lightning Bolt", Set: "lea", Lang: "en"},
		},
	}}
	entry := domain.DecklistEntry{Quantity: 1, Name: "Lightning Bolt", Set: "m11", Lang: "ja", FaceMode: domain.BothSides}

	got, err := Resolve(context.Background(), entry, source)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Card.Set != "m11" {
		t.Fatalf("expected the set hint to survive relaxation, got %q", got.Card.Set)
	}
}

func TestResolve_NoPrintings_ReturnsParseError(t *testing.T) {
	source := fakeSource{byName: map[string][]domain.Card{}}
	entry := domain.DecklistEntry{Quantity: 1, Name: "Nonexistent Card", Line: 7}

	_, err := Resolve(context.Background(), entry, source)
	if err == nil {
		t.Fatal("expected an error for a name with no printings")
	}
	e, isErr := err.(*errs.Error)
	if !isErr {
		t.Fatalf("expected *errs.Error, got %T", err)
	}
	if e.Kind != errs.Parse || e.Line != 7 {
		t.Fatalf("expected a Parse-kind error tagged with line 7, got %+v", e)
	}
}

// TestResolve_RemoteNotFound_ConvertsToLineTaggedParseError: a NotFound
// propagated up from SearchPrintings (a remote 404) is surfaced per
// entry as a Parse-kind error carrying the decklist source line, not
// retried and not aborting the batch.
func TestResolve_RemoteNotFound_ConvertsToLineTaggedParseError(t *testing.T) {
	source := fakeSource{err: errs.New(errs.NotFound, "catalog.SearchPrintings", "404")}
	entry := domain.DecklistEntry{Quantity: 1, Name: "Nonexistent Card", Line: 3}

	_, err := Resolve(context.Background(), entry, source)
	e, isErr := err.(*errs.Error)
	if !isErr {
		t.Fatalf("expected *errs.Error, got %T", err)
	}
	if e.Kind != errs.Parse || e.Line != 3 {
		t.Fatalf("expected a Parse-kind error tagged with line 3, got %+v", e)
	}
}

func TestResolveAll_ResolvesEveryEntry(t *testing.T) {
	source := fakeSource{byName: map[string][]domain.Card{
		"Lightning Bolt": {{Name: "Lightning Bolt", Set: "m11", Lang: "en"}},
		"Shock":          {{Name: "Shock", Set: "m10", Lang: "en"}},
	}}
	entries := []domain.DecklistEntry{
		{Quantity: 1, Name: "Lightning Bolt", FaceMode: domain.BothSides},
		{Quantity: 1, Name: "Shock", FaceMode: domain.BothSides},
	}

	resolved, errs := ResolveAll(context.Background(), entries, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected both entries resolved, got %d", len(resolved))
	}
}
