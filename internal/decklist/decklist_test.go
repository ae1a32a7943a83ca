package decklist

import (
	"testing"

	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/resolver"
)

type fakeSets map[string]struct{}

func (s fakeSets) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

type fakeNames struct {
	idx *resolver.Index
}

func (n fakeNames) Lookup(query string) (string, resolver.FaceMatchMode, bool) {
	return n.idx.Lookup(query)
}

func newFakeNames(names ...string) fakeNames {
	return fakeNames{idx: resolver.BuildIndex(names)}
}

func TestTokenize_SplitCardInput(t *testing.T) {
	sets := fakeSets{}
	names := newFakeNames("Cut // Ribbons")

	entries, errs := Tokenize("3 cut // ribbons", domain.BothSides, sets, names)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Quantity != 3 || e.Name != "Cut // Ribbons" {
		t.Fatalf("got %+v", e)
	}
	if e.FaceMode != domain.BothSides {
		t.Fatalf("expected BothSides for a full-name match, got %v", e.FaceMode)
	}
}

func TestTokenize_BackFaceOverride(t *testing.T) {
	sets := fakeSets{}
	names := newFakeNames("Kabira Plateau // Kabira Outpost")

	entries, errs := Tokenize("1 kabira outpost", domain.FrontOnly, sets, names)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].FaceMode != domain.BackOnly {
		t.Fatalf("expected a Part(1) match to force BackOnly regardless of global mode, got %v", entries[0].FaceMode)
	}
}

func TestTokenize_SetHintRelaxation(t *testing.T) {
	sets := fakeSets{"zzz": {}}
	names := newFakeNames("Lightning Bolt")

	entries, errs := Tokenize("4 Lightning Bolt [ZZZ]", domain.BothSides, sets, names)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Set != "ZZZ" {
		t.Fatalf("expected set hint ZZZ to be captured, got %q", entries[0].Set)
	}
}

func TestTokenize_AmbiguousBracket_LastWinsAsLanguage(t *testing.T) {
	// "jp" collides with a set code; with two bracketed tokens present,
	// the last one is disambiguated as the language hint.
	sets := fakeSets{"znr": {}, "jp": {}}
	names := newFakeNames("Lightning Bolt")

	entries, errs := Tokenize("2 Lightning Bolt [ZNR] [JP]", domain.BothSides, sets, names)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	e := entries[0]
	if e.Set != "ZNR" {
		t.Fatalf("expected ZNR to remain the set hint, got %q", e.Set)
	}
	if e.Lang != "JP" {
		t.Fatalf("expected JP to be disambiguated as the language hint, got %q", e.Lang)
	}
}

func TestTokenize_CommentsAndBlankLinesSkipped(t *testing.T) {
	sets := fakeSets{}
	names := newFakeNames("Lightning Bolt")

	text := "// a comment\n\n# another comment\n2 Lightning Bolt\n"
	entries, errs := Tokenize(text, domain.BothSides, sets, names)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Line != 4 {
		t.Fatalf("expected line number 4, got %d", entries[0].Line)
	}
}

func TestTokenize_UnresolvableName_ReportedNotDropped(t *testing.T) {
	sets := fakeSets{}
	names := newFakeNames("Lightning Bolt")

	entries, errs := Tokenize("2 Not A Real Card Xyzzy", domain.BothSides, sets, names)
	if len(entries) != 0 {
		t.Fatalf("expected no entries for an unresolvable line, got %+v", entries)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(errs))
	}
}

func TestTokenize_InvalidMultiplicity_Reported(t *testing.T) {
	sets := fakeSets{}
	names := newFakeNames("Lightning Bolt")

	entries, errs := Tokenize("0 Lightning Bolt", domain.BothSides, sets, names)
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(errs))
	}
}
