// This file adds the maindeck/sideboard structure and copy-count
// validation that sits on top of the per-line tokenizer in decklist.go.
package decklist

import (
	"fmt"
	"strings"

	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/errs"
)

// Decklist is a tokenized deck split into its maindeck and sideboard.
type Decklist struct {
	Maindeck  []domain.DecklistEntry
	Sideboard []domain.DecklistEntry
}

// ParseDecklist splits decklistText on a "Sideboard" header line (case
// insensitive) and tokenizes each half independently, so a source line
// number inside the sideboard half still refers to its position in the
// original text.
func ParseDecklist(decklistText string, globalFaceMode domain.FaceMode, sets SetClassifier, names NameResolver) (Decklist, []error) {
	mainText, sideText, err := splitSideboard(decklistText)
	if err != nil {
		return Decklist{}, []error{err}
	}

	mainEntries, mainErrs := Tokenize(mainText, globalFaceMode, sets, names)
	sideEntries, sideErrs := Tokenize(sideText, globalFaceMode, sets, names)

	var allErrs []error
	allErrs = append(allErrs, mainErrs...)
	allErrs = append(allErrs, sideErrs...)
	return Decklist{Maindeck: mainEntries, Sideboard: sideEntries}, allErrs
}

// splitSideboard replaces every line at or after a "Sideboard" header
// with a blank line in the maindeck half (so line numbers downstream of
// Tokenize still count from the start of decklistText) and assembles the
// sideboard half starting from that same position.
func splitSideboard(decklistText string) (mainText, sideText string, err error) {
	lines := strings.Split(decklistText, "\n")
	mainLines := make([]string, len(lines))
	sideLines := make([]string, len(lines))
	copy(mainLines, lines)

	inSideboard := false
	sideboardSeen := false
	for i, raw := range lines {
		if strings.EqualFold(strings.TrimSpace(raw), "Sideboard") {
			if sideboardSeen {
				return "", "", errs.New(errs.Parse, "decklist.ParseDecklist", fmt.Sprintf("cannot have sideboard twice, found on line %d", i+1))
			}
			sideboardSeen = true
			inSideboard = true
			mainLines[i] = ""
			continue
		}
		if inSideboard {
			sideLines[i] = raw
			mainLines[i] = ""
		}
	}
	return strings.Join(mainLines, "\n"), strings.Join(sideLines, "\n"), nil
}

// NumberOfCards returns the total maindeck card count.
func (d Decklist) NumberOfCards() int {
	total := 0
	for _, e := range d.Maindeck {
		total += e.Quantity
	}
	return total
}

// NumberOfSideboardCards returns the total sideboard card count.
func (d Decklist) NumberOfSideboardCards() int {
	total := 0
	for _, e := range d.Sideboard {
		total += e.Quantity
	}
	return total
}

// Validate checks the deck against maindeck/sideboard size bounds and the
// standard 4-copy rule (exempting basic lands and the handful of cards
// that explicitly permit unlimited copies). Set maxCards to 0 for no
// maindeck maximum.
func (d Decklist) Validate(minCards, maxCards, maxSideboard int) error {
	mainTotal := d.NumberOfCards()
	sideTotal := d.NumberOfSideboardCards()

	if mainTotal < minCards {
		return fmt.Errorf("maindeck has %d cards, minimum is %d", mainTotal, minCards)
	}
	if maxCards > 0 && mainTotal > maxCards {
		return fmt.Errorf("maindeck has %d cards, maximum is %d", mainTotal, maxCards)
	}
	if sideTotal > maxSideboard {
		return fmt.Errorf("sideboard has %d cards, maximum is %d", sideTotal, maxSideboard)
	}

	totalCopies := make(map[string]int)
	for _, e := range d.Maindeck {
		totalCopies[e.Name] += e.Quantity
	}
	for _, e := range d.Sideboard {
		totalCopies[e.Name] += e.Quantity
	}
	for name, total := range totalCopies {
		if total > 4 && !isBasicLandName(name) && !isUnlimitedName(name) {
			return fmt.Errorf("total of %d copies of %s between maindeck and sideboard, maximum is 4", total, name)
		}
	}
	return nil
}

var basicLandNames = map[string]struct{}{
	"plains": {}, "island": {}, "swamp": {}, "mountain": {}, "forest": {},
	"snow-covered plains": {}, "snow-covered island": {}, "snow-covered swamp": {},
	"snow-covered mountain": {}, "snow-covered forest": {},
	"wastes": {}, "snow-covered wastes": {},
}

// unlimitedNames are the handful of printed cards whose own rules text
// permits any number of copies in a deck.
var unlimitedNames = map[string]struct{}{
	"relentless rats": {}, "shadowborn apostle": {}, "rat colony": {},
	"persistent petitioners": {}, "dragon's approach": {},
	"seven dwarves": {}, "nazgûl": {},
}

func isBasicLandName(name string) bool {
	_, ok := basicLandNames[strings.ToLower(name)]
	return ok
}

func isUnlimitedName(name string) bool {
	_, ok := unlimitedNames[strings.ToLower(name)]
	return ok
}
