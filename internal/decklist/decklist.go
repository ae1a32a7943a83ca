// Package decklist implements the decklist tokenizer: the
// `multiplicity WS name (WS? bracketed)*` grammar, token classification
// against the set-code and name catalogs, and face-mode derivation.
package decklist

import (
	"strconv"
	"strings"

	"github.com/proxysheets/proxycore/internal/domain"
	"github.com/proxysheets/proxycore/internal/errs"
	"github.com/proxysheets/proxycore/internal/resolver"
)

const maxMultiplicity = 999

// SetClassifier reports whether a token is a known set code.
type SetClassifier interface {
	Contains(code string) bool
}

// NameResolver resolves free-form text to a canonical catalog name.
type NameResolver interface {
	Lookup(query string) (canonicalName string, mode resolver.FaceMatchMode, ok bool)
}

// Tokenize parses decklistText into entries using globalFaceMode as the
// default face mode for every line that doesn't force BackOnly via a
// Part(1) match. Parse failures are returned alongside any successfully
// parsed entries; an unresolvable or malformed line never silently
// drops from the input, it's reported.
func Tokenize(decklistText string, globalFaceMode domain.FaceMode, sets SetClassifier, names NameResolver) ([]domain.DecklistEntry, []error) {
	var entries []domain.DecklistEntry
	var parseErrs []error

	for i, rawLine := range strings.Split(decklistText, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line, lineNo, globalFaceMode, sets, names)
		if err != nil {
			parseErrs = append(parseErrs, err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, parseErrs
}

type tokenKind int

const (
	kindSet tokenKind = iota
	kindLang
)

func parseLine(line string, lineNo int, globalFaceMode domain.FaceMode, sets SetClassifier, names NameResolver) (domain.DecklistEntry, error) {
	qty, rest, err := splitMultiplicity(line)
	if err != nil {
		return domain.DecklistEntry{}, errs.New(errs.Parse, "decklist.parseLine", err.Error()).WithLine(lineNo)
	}

	name, bracketTokens, err := splitNameAndBrackets(rest)
	if err != nil {
		return domain.DecklistEntry{}, errs.New(errs.Parse, "decklist.parseLine", err.Error()).WithLine(lineNo)
	}

	set, lang := classifyTokens(bracketTokens, sets)

	canonicalName, mode, ok := names.Lookup(name)
	if !ok {
		return domain.DecklistEntry{}, errs.New(errs.Parse, "decklist.parseLine", "unresolvable card name: "+name).WithLine(lineNo)
	}

	faceMode := resolveFaceMode(mode, globalFaceMode)

	return domain.DecklistEntry{
		Quantity: qty,
		Name:     canonicalName,
		Set:      set,
		Lang:     lang,
		FaceMode: faceMode,
		Line:     lineNo,
	}, nil
}

// resolveFaceMode derives an entry's face mode once, at parse time: a
// back-half match forces BackOnly; otherwise the caller-supplied global
// face mode applies verbatim. Nothing downstream reinterprets it.
func resolveFaceMode(mode resolver.FaceMatchMode, global domain.FaceMode) domain.FaceMode {
	if !mode.Full && mode.Part == 1 {
		return domain.BackOnly
	}
	return global
}

func splitMultiplicity(line string) (int, string, error) {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) < 2 {
		return 0, "", errWithoutName
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 || n > maxMultiplicity {
		return 0, "", errBadMultiplicity
	}
	return n, strings.TrimSpace(fields[1]), nil
}

var (
	errWithoutName     = errsString("line has no card name")
	errBadMultiplicity = errsString("multiplicity must be a positive integer <= 999")
)

type errsString string

func (e errsString) Error() string { return string(e) }

// splitNameAndBrackets extracts the card name and any trailing bracketed
// tokens from the remainder of a decklist line.
func splitNameAndBrackets(rest string) (name string, brackets []string, err error) {
	var nameParts []string
	for _, f := range strings.Fields(rest) {
		if tok, ok := bracketToken(f); ok {
			brackets = append(brackets, tok)
			continue
		}
		nameParts = append(nameParts, f)
	}
	name = strings.TrimSpace(strings.Join(nameParts, " "))
	if name == "" {
		return "", nil, errWithoutName
	}
	return name, brackets, nil
}

func bracketToken(field string) (string, bool) {
	if len(field) < 4 {
		return "", false
	}
	open, close := field[0], field[len(field)-1]
	if (open == '[' && close == ']') || (open == '(' && close == ')') {
		inner := field[1 : len(field)-1]
		if len(inner) >= 2 && len(inner) <= 6 && isAlphanumeric(inner) {
			return inner, true
		}
	}
	return "", false
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// classifyTokens classifies each bracketed token as a set code or a
// language tag: set-cache membership wins; otherwise a two-letter token
// is a language tag; anything else defaults to set. When more than one
// bracketed token is present and the last one is a two-letter token that
// also collides with a known set code, position disambiguates it as the
// language hint.
func classifyTokens(tokens []string, sets SetClassifier) (set, lang string) {
	kinds := make([]tokenKind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = classifyToken(tok, sets)
	}

	if len(tokens) >= 2 {
		last := len(tokens) - 1
		if isTwoLetterAlpha(tokens[last]) && sets.Contains(strings.ToLower(tokens[last])) {
			kinds[last] = kindLang
		}
	}

	for i, tok := range tokens {
		switch kinds[i] {
		case kindSet:
			set = tok
		case kindLang:
			lang = tok
		}
	}
	return set, lang
}

func classifyToken(token string, sets SetClassifier) tokenKind {
	if sets.Contains(strings.ToLower(token)) {
		return kindSet
	}
	if isTwoLetterAlpha(token) {
		return kindLang
	}
	return kindSet
}

func isTwoLetterAlpha(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}
