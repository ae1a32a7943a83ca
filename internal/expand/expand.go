// Package expand implements the image-URL expander: a pure,
// deterministic function from a resolved card and face mode to the
// ordered sequence of image URLs the PDF renderer and every preview path
// consume. No other face-mode logic exists anywhere else.
package expand

import "github.com/proxysheets/proxycore/internal/domain"

// Expand returns the ordered image URLs for one ResolvedCard:
//
//   - FrontOnly: the front URL, repeated quantity times.
//   - BackOnly: the back (or meld) URL if present, else the front URL,
//     repeated quantity times.
//   - BothSides: for each copy, the front URL followed by the back URL
//     if present (a front-only copy if there's no back side).
func Expand(r domain.ResolvedCard) []string {
	switch r.FaceMode {
	case domain.FrontOnly:
		return repeat(r.Card.FrontImageURL, r.Quantity)
	case domain.BackOnly:
		url := r.Card.FrontImageURL
		if r.Card.HasBackImage() {
			url = r.Card.BackImageURL()
		}
		return repeat(url, r.Quantity)
	case domain.BothSides:
		urls := make([]string, 0, r.Quantity*2)
		for i := 0; i < r.Quantity; i++ {
			urls = append(urls, r.Card.FrontImageURL)
			if r.Card.HasBackImage() {
				urls = append(urls, r.Card.BackImageURL())
			}
		}
		return urls
	default:
		return nil
	}
}

func repeat(url string, n int) []string {
	if n <= 0 {
		return nil
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = url
	}
	return urls
}
