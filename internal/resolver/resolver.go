// Package resolver implements the fuzzy name resolver and the in-memory
// lookup index it operates over: pure functions, no side effects, no
// state beyond the index a caller builds and owns.
package resolver

import (
	"strings"
	"unicode"
)

// FaceMatchMode classifies how a query matched a canonical catalog name.
type FaceMatchMode struct {
	Full bool // true for a Full match
	Part int  // meaningful only when !Full: 0 = front half, 1 = back half
}

// candidate is one entry in the lookup index: a normalized key mapping to
// the canonical name it was derived from and how it matched.
type candidate struct {
	key           string
	canonicalName string
	mode          FaceMatchMode
}

// Index is the in-memory fuzzy-lookup structure built from the full
// catalog name list. It is rebuilt from scratch on every catalog refresh
// and is never persisted.
type Index struct {
	exact      map[string]candidate // normalized key -> first-registered candidate
	candidates []candidate          // all candidates, for edit-distance scanning
}

// BuildIndex constructs a lookup Index from the full list of canonical
// catalog names. For each name N: an entry for lowercase(N) tagged Full;
// if N contains " // ", two more entries for the lowercased halves
// tagged Part(0) and Part(1).
func BuildIndex(names []string) *Index {
	idx := &Index{exact: make(map[string]candidate, len(names))}
	for _, name := range names {
		full := normalize(name)
		idx.add(candidate{key: full, canonicalName: name, mode: FaceMatchMode{Full: true}})

		if front, back, ok := splitDFC(name); ok {
			idx.add(candidate{key: normalize(front), canonicalName: name, mode: FaceMatchMode{Part: 0}})
			idx.add(candidate{key: normalize(back), canonicalName: name, mode: FaceMatchMode{Part: 1}})
		}
	}
	return idx
}

func (idx *Index) add(c candidate) {
	if _, exists := idx.exact[c.key]; !exists {
		idx.exact[c.key] = c
	}
	idx.candidates = append(idx.candidates, c)
}

// splitDFC splits a canonical "FRONT // BACK" name into its two halves.
func splitDFC(name string) (front, back string, ok bool) {
	const sep = " // "
	i := strings.Index(name, sep)
	if i < 0 {
		return "", "", false
	}
	return name[:i], name[i+len(sep):], true
}

// normalize trims, lowercases, and collapses interior whitespace.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// Lookup resolves a free-form query against the index. Tie-break rules:
//  1. Exact normalized match wins.
//  2. Among approximate matches, prefer Full over Part(i).
//  3. Among Part(i) matches, prefer the smaller i.
//  4. Reject if the best edit distance exceeds max(2, len(query)/6).
func (idx *Index) Lookup(query string) (canonicalName string, mode FaceMatchMode, ok bool) {
	q := normalize(query)
	if q == "" {
		return "", FaceMatchMode{}, false
	}

	if c, exists := idx.exact[q]; exists {
		return c.canonicalName, c.mode, true
	}

	threshold := len(q) / 6
	if threshold < 2 {
		threshold = 2
	}

	var (
		best     candidate
		bestDist = threshold + 1
		bestRank = int(^uint(0) >> 1) // max int
		count    int                  // number of candidates tied at (bestDist, bestRank)
	)
	for _, c := range idx.candidates {
		d := editDistance(q, c.key)
		if d > threshold {
			continue
		}
		r := rankOf(c.mode)
		switch {
		case d < bestDist || (d == bestDist && r < bestRank):
			best, bestDist, bestRank, count = c, d, r, 1
		case d == bestDist && r == bestRank:
			count++
		}
	}

	if count != 1 {
		return "", FaceMatchMode{}, false
	}
	return best.canonicalName, best.mode, true
}

// rankOf orders Full before Part(0) before Part(1).
func rankOf(m FaceMatchMode) int {
	if m.Full {
		return -1
	}
	return m.Part
}

// editDistance computes the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
