package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/proxysheets/proxycore"
)

func main() {
	if err := proxycore.Initialize(nil); err != nil {
		log.Fatal(err)
	}
	defer proxycore.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := proxycore.RefreshCatalog(ctx); err != nil {
		log.Printf("catalog refresh skipped: %v", err)
	}

	decklistText := `4 Lightning Bolt
1 Sol Ring [lea]
1 Brisela, Voice of Nightmares
Sideboard
2 Abrade`

	list, parseErrs := proxycore.ParseDecklist(decklistText, proxycore.FrontOnly)
	for _, err := range parseErrs {
		log.Printf("decklist parse error: %v", err)
	}
	fmt.Printf("maindeck: %d cards, sideboard: %d cards\n", list.NumberOfCards(), list.NumberOfSideboardCards())

	resolved, resolveErrs := proxycore.ResolveEntries(ctx, list.Maindeck)
	for _, err := range resolveErrs {
		log.Printf("entry resolve error: %v", err)
	}

	for _, card := range resolved {
		urls := proxycore.ExpandImageURLs(card)
		fmt.Printf("%s x%d -> %d image(s)\n", card.Card.Name, card.Quantity, len(urls))
	}

	handle := proxycore.Current().StartPrefetch(ctx, resolved)
	for progress := range handle.Progress() {
		fmt.Printf("prefetch phase=%d selected=%d/%d alternatives=%d/%d errors=%d\n",
			progress.Phase, progress.SelectedLoaded, progress.TotalEntries,
			progress.AlternativesLoaded, progress.TotalAlternatives, progress.Errors)
	}

	stats := proxycore.Stats()
	fmt.Printf("image cache: %s / %s across %d cached names, %d set codes\n",
		stats.HumanTotal, stats.HumanBudget, stats.CachedNames, stats.CachedSetCodes)

	if err := proxycore.SaveCaches(); err != nil {
		log.Printf("cache save failed: %v", err)
	}
}
