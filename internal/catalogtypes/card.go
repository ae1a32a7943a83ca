// Package catalogtypes holds the wire representation of the remote
// catalog's responses and the domain Card model derived from them.
package catalogtypes

// Card is the subset of a remote printing's fields this pipeline reads,
// per the external interface contract: name, set, lang, image_uris,
// card_faces, all_parts. Other Scryfall-like fields are intentionally
// not modeled; nothing downstream of the catalog client needs them.
type Card struct {
	Name      string        `json:"name"`
	Set       string        `json:"set"`
	Lang      string        `json:"lang"`
	ImageURIs *ImageURIs    `json:"image_uris,omitempty"`
	CardFaces []CardFace    `json:"card_faces,omitempty"`
	AllParts  []RelatedCard `json:"all_parts,omitempty"`
}

// CardFace is one face of a multi-faced printing.
type CardFace struct {
	Name      string     `json:"name"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs holds the image variants Scryfall-like services expose. Only
// BorderCrop is consumed by this pipeline (the canonical proxy-printing
// variant); the others are retained because the remote always sends them
// and dropping them would require a lossy custom unmarshaller for no
// benefit.
type ImageURIs struct {
	Small      string `json:"small,omitempty"`
	Normal     string `json:"normal,omitempty"`
	Large      string `json:"large,omitempty"`
	PNG        string `json:"png,omitempty"`
	ArtCrop    string `json:"art_crop,omitempty"`
	BorderCrop string `json:"border_crop,omitempty"`
}

// RelatedCard is an entry in all_parts: tokens, meld parts/results, and
// combo pieces referenced by a printing.
type RelatedCard struct {
	Component string `json:"component"` // "token", "meld_part", "meld_result", "combo_piece"
	Name      string `json:"name"`
}

// List is a page of search results from the card-search endpoint.
type List struct {
	Data     []Card `json:"data"`
	HasMore  bool   `json:"has_more"`
	NextPage string `json:"next_page,omitempty"`
}

// NameCatalog is the response body of the catalog-names endpoint.
type NameCatalog struct {
	Data []string `json:"data"`
}

// SetInfo is one entry of the sets endpoint's data array; only Code is
// read, the token a decklist line brackets as a set hint.
type SetInfo struct {
	Code string `json:"code"`
}

// SetList is a page of the sets endpoint's response.
type SetList struct {
	Data     []SetInfo `json:"data"`
	HasMore  bool      `json:"has_more"`
	NextPage string    `json:"next_page,omitempty"`
}

// MeldComponent is the Component tag used for a meld half's reference to
// its combined result.
const MeldComponent = "meld_result"

// MeldResultName returns the name of the meld-result card this printing
// points to, if any.
func (c Card) MeldResultName() (string, bool) {
	for _, part := range c.AllParts {
		if part.Component == MeldComponent {
			return part.Name, true
		}
	}
	return "", false
}
