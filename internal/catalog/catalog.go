// Package catalog implements the remote catalog API layer: printing
// search with exact-name filtering and pagination-follow, the global
// name catalog fetch, and meld cross-resolution.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/proxysheets/proxycore/internal/catalogtypes"
	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/errs"
	"github.com/proxysheets/proxycore/internal/searchcache"
)

// JSONClient is the subset of internal/catalogclient.Client this package
// depends on.
type JSONClient interface {
	GetJSON(ctx context.Context, path string, v any) error
}

// Catalog is the printing-search and name-catalog API layer.
type Catalog struct {
	client JSONClient
	cache  *searchcache.Cache
}

// New constructs a Catalog backed by client and caching results in cache.
// A nil cache disables result caching.
func New(client JSONClient, cache *searchcache.Cache) *Catalog {
	return &Catalog{client: client, cache: cache}
}

// wrapRemoteErr preserves the Kind of an error already produced by
// internal/catalogclient (e.g. errs.NotFound for a 404) instead of
// blanket-relabeling it as a transport failure; only an error that isn't
// already one of ours is wrapped as Network.
func wrapRemoteErr(op string, err error) error {
	if e, ok := err.(*errs.Error); ok {
		return e
	}
	return errs.Wrap(errs.Network, op, err)
}

// SearchPrintings returns every known printing of name, exact-name
// filtered. Results are written through to the search-results cache
// before being returned. Any all_parts meld-result reference is
// cross-resolved by an additional exact-name lookup and attached via
// domain.AttachMeld, never by positional inference.
func (c *Catalog) SearchPrintings(ctx context.Context, name string) ([]domain.Card, error) {
	query := fmt.Sprintf(`!"%s"`, name)
	path := "/cards/search?unique=prints&q=" + url.QueryEscape(query)

	var remote []catalogtypes.Card
	for path != "" {
		var page catalogtypes.List
		if err := c.client.GetJSON(ctx, path, &page); err != nil {
			return nil, wrapRemoteErr("catalog.SearchPrintings", err)
		}
		remote = append(remote, page.Data...)
		if page.HasMore && page.NextPage != "" {
			path = page.NextPage
			continue
		}
		path = ""
	}

	cards := make([]domain.Card, 0, len(remote))
	for _, rc := range remote {
		// The remote's broader search may surface near-matches alongside
		// exact ones; discard everything whose name isn't a
		// case-insensitive match for the requested name.
		if !strings.EqualFold(rc.Name, name) {
			continue
		}
		card := domain.FromCatalogCard(rc)
		if resultName, ok := rc.MeldResultName(); ok {
			if resultCard, err := c.resolveMeldResult(ctx, resultName, rc.Set); err == nil &&
				strings.EqualFold(resultCard.Name, resultName) {
				card = domain.AttachMeld(card, resultCard.Name, resultCard.FrontImageURL)
			}
		}
		cards = append(cards, card)
	}

	if c.cache != nil {
		c.cache.Put(name, cards)
	}
	return cards, nil
}

// resolveMeldResult fetches the meld-result card by exact name, the only
// cross-resolution path this package allows for melds. A printing from
// the same set as the component is preferred when one exists; otherwise
// the globally available printing is used.
func (c *Catalog) resolveMeldResult(ctx context.Context, resultName, set string) (domain.Card, error) {
	if set != "" {
		path := "/cards/named?exact=" + url.QueryEscape(resultName) + "&set=" + url.QueryEscape(set)
		var rc catalogtypes.Card
		if err := c.client.GetJSON(ctx, path, &rc); err == nil && rc.Name != "" {
			return domain.FromCatalogCard(rc), nil
		}
	}
	path := "/cards/named?exact=" + url.QueryEscape(resultName)
	var rc catalogtypes.Card
	if err := c.client.GetJSON(ctx, path, &rc); err != nil {
		return domain.Card{}, wrapRemoteErr("catalog.resolveMeldResult", err)
	}
	return domain.FromCatalogCard(rc), nil
}

// FetchCatalogNames downloads the global list of canonical card names
// used to rebuild internal/namecache's fuzzy-lookup index.
func (c *Catalog) FetchCatalogNames(ctx context.Context) ([]string, error) {
	var nc catalogtypes.NameCatalog
	if err := c.client.GetJSON(ctx, "/catalog/card-names", &nc); err != nil {
		return nil, wrapRemoteErr("catalog.FetchCatalogNames", err)
	}
	return nc.Data, nil
}

// FetchNames satisfies internal/namecache.Fetcher.
func (c *Catalog) FetchNames(ctx context.Context) ([]string, error) {
	return c.FetchCatalogNames(ctx)
}

// FetchSetCodes downloads every known set code, following pagination the
// same way SearchPrintings does.
func (c *Catalog) FetchSetCodes(ctx context.Context) ([]string, error) {
	path := "/sets"
	var codes []string
	for path != "" {
		var page catalogtypes.SetList
		if err := c.client.GetJSON(ctx, path, &page); err != nil {
			return nil, wrapRemoteErr("catalog.FetchSetCodes", err)
		}
		for _, s := range page.Data {
			codes = append(codes, s.Code)
		}
		if page.HasMore && page.NextPage != "" {
			path = page.NextPage
			continue
		}
		path = ""
	}
	return codes, nil
}

// FetchCodes satisfies internal/setcache.Fetcher.
func (c *Catalog) FetchCodes(ctx context.Context) ([]string, error) {
	return c.FetchSetCodes(ctx)
}
