package synthesis

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"my": {}, "your": {}, "this": {}, "that": {}, "it": {}, "its": {},
	"i": {}, "me": {}, "we": {}, "you": {}, "they": {},
	"and": {}, "or": {}, "but": {}, "of": {}, "in": {}, "on": {}, "to": {},
	"for": {}, "with": {}, "so": {}, "not": {}, "no": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"just": {}, "very": {}, "really": {}, "when": {}, "how": {}, "why": {},
	"what": {}, "can": {}, "cant": {}, "wont": {}, "dont": {}, "im": {},
}

// Tokens lowercases a title and splits it into significant words,
// deduplicated and sorted. Both the clustering key and the comparer's fuzzy
// match are built on this.
func Tokens(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}

	sort.Strings(out)
	return out
}

// TokenOverlap is the Jaccard similarity of two token sets.
func TokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}

	shared := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			shared++
		}
	}

	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
