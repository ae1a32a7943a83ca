package decklist

import (
	"testing"

	"github.com/proxysheets/proxycore/internal/domain"
)

func TestParseDecklist_SplitsSideboard(t *testing.T) {
	sets := fakeSets{}
	names := newFakeNames("Lightning Bolt", "Pyroblast")

	text := "4 Lightning Bolt\n\nSideboard\n2 Pyroblast\n"
	deck, errs := ParseDecklist(text, domain.BothSides, sets, names)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(deck.Maindeck) != 1 || deck.Maindeck[0].Name != "Lightning Bolt" {
		t.Fatalf("got maindeck %+v", deck.Maindeck)
	}
	if len(deck.Sideboard) != 1 || deck.Sideboard[0].Name != "Pyroblast" {
		t.Fatalf("got sideboard %+v", deck.Sideboard)
	}
	if deck.NumberOfCards() != 4 || deck.NumberOfSideboardCards() != 2 {
		t.Fatalf("got totals %d/%d", deck.NumberOfCards(), deck.NumberOfSideboardCards())
	}
}

func TestParseDecklist_DuplicateSideboardHeaderRejected(t *testing.T) {
	sets := fakeSets{}
	names := newFakeNames("Lightning Bolt")

	text := "Sideboard\nSideboard\n4 Lightning Bolt\n"
	_, errs := ParseDecklist(text, domain.BothSides, sets, names)
	if len(errs) != 1 {
		t.Fatalf("expected a single error for a duplicate Sideboard header, got %v", errs)
	}
}

func TestValidate_EnforcesFourCopyRule(t *testing.T) {
	deck := Decklist{Maindeck: []domain.DecklistEntry{{Quantity: 5, Name: "Lightning Bolt"}}}
	if err := deck.Validate(0, 0, 15); err == nil {
		t.Fatal("expected the 4-copy rule to reject 5 copies of Lightning Bolt")
	}
}

func TestValidate_ExemptsBasicLandsAndUnlimitedNames(t *testing.T) {
	deck := Decklist{Maindeck: []domain.DecklistEntry{
		{Quantity: 20, Name: "Mountain"},
		{Quantity: 40, Name: "Relentless Rats"},
	}}
	if err := deck.Validate(0, 0, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MinMaxMaindeckBounds(t *testing.T) {
	deck := Decklist{Maindeck: []domain.DecklistEntry{{Quantity: 10, Name: "Mountain"}}}
	if err := deck.Validate(60, 0, 15); err == nil {
		t.Fatal("expected a too-small maindeck to fail the minimum bound")
	}
	deck.Maindeck[0].Quantity = 100
	if err := deck.Validate(0, 60, 15); err == nil {
		t.Fatal("expected an oversized maindeck to fail the maximum bound")
	}
}

func TestValidate_SideboardMax(t *testing.T) {
	deck := Decklist{Sideboard: []domain.DecklistEntry{{Quantity: 20, Name: "Mountain"}}}
	if err := deck.Validate(0, 0, 15); err == nil {
		t.Fatal("expected an oversized sideboard to fail")
	}
}
