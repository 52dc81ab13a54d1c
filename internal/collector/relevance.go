package collector

import (
	"strings"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

// MatchesAnyTerm reports whether any search term appears in the item's
// title or body, case-insensitively. Secondary sources must pass this
// before an item is kept; primary sources skip it.
func MatchesAnyTerm(item models.RawItem, terms []string) bool {
	if len(terms) == 0 {
		return false
	}

	haystack := strings.ToLower(item.Title + " " + item.Body)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
