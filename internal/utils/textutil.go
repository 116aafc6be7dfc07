package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var whitespaceReplacer = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// Normalize lower-cases text, strips diacritical marks and collapses
// whitespace runs to a single space. Total: empty input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Transform only fails on invalid UTF-8; fall back to the raw text
		stripped = text
	}

	return collapseSpaces(strings.ToLower(whitespaceReplacer.Replace(stripped)))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// groupPrefixes are the type-indicating tokens playlist providers prefix
// category labels with ("FILMES | Ação", "SERIES - Drama"). Matched on
// normalized text so accents and case never matter. Longest tokens first so
// "tv shows" wins over "tv".
var groupPrefixes = []string{
	"tv shows", "tv show", "channels", "channel",
	"canais", "canal", "filmes", "filme",
	"movies", "movie", "series", "serie",
	"shows", "show", "vod", "tv",
}

var groupSeparators = []string{"|", "-", ":"}

// NormalizeGroupTitle canonicalizes a free-text category label into a stable
// grouping key: uppercase, diacritics stripped, leading type tokens plus
// separators removed, stray trailing separators removed. Stripping runs to a
// fixpoint so normalizing an already-normalized key is a no-op; providers
// stack tokens ("SERIE | FILMES | Drama") and a single pass would leave a
// key that still changes on re-normalization, drifting stored grouping keys.
// A non-empty input never normalizes to the empty string: a strip that would
// eat the whole label stops one step short instead.
func NormalizeGroupTitle(rawTitle string) string {
	normalized := Normalize(rawTitle)
	if normalized == "" {
		return ""
	}

	stripped := normalized
	for {
		next, ok := stripLeadingTypeToken(stripped)
		if !ok || next == "" {
			break
		}
		stripped = next
	}

	for {
		trimmed := stripped
		for _, sep := range groupSeparators {
			trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, sep))
		}
		if trimmed == stripped {
			break
		}
		stripped = trimmed
	}

	if stripped == "" {
		stripped = normalized
	}

	return strings.ToUpper(collapseSpaces(stripped))
}

// stripLeadingTypeToken removes one leading type token and its separator. A
// token without a following separator is part of the label ("filmes
// nacionais"), not a prefix, and is kept.
func stripLeadingTypeToken(s string) (string, bool) {
	for _, prefix := range groupPrefixes {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		rest := strings.TrimSpace(s[len(prefix):])
		for _, sep := range groupSeparators {
			if strings.HasPrefix(rest, sep) {
				return strings.TrimSpace(rest[len(sep):]), true
			}
		}
		return s, false
	}
	return s, false
}
