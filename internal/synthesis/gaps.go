package synthesis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

// contrastPatterns capture an explicit expectation-vs-reality phrasing.
// First group is what was expected, second what actually happened.
var contrastPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bexpected\b(.{3,80}?)\b(?:but|instead|however)\b(.{3,120})`),
	regexp.MustCompile(`(?i)\bthought\b(.{3,80}?)\b(?:but|turns out|instead)\b(.{3,120})`),
	regexp.MustCompile(`(?i)\bwas supposed to\b(.{3,80}?)\b(?:but|instead)\b(.{3,120})`),
	regexp.MustCompile(`(?i)\bpromised\b(.{3,80}?)\b(?:but|yet|instead)\b(.{3,120})`),
}

// findExpectationGaps is best-effort extraction; no gap is a legitimate
// outcome for most clusters.
func findExpectationGaps(areas []models.FocusArea, clusters []cluster) []models.ExpectationGap {
	byID := make(map[string]cluster, len(clusters))
	areaByID := make(map[string]models.FocusArea, len(areas))
	for i, c := range clusters {
		byID[areas[i].ID] = c
		areaByID[areas[i].ID] = areas[i]
	}

	var gaps []models.ExpectationGap
	for _, fa := range areas {
		c := byID[fa.ID]
		for _, m := range c.members {
			expectation, reality, ok := matchContrast(m.Title + " " + m.Body)
			if !ok {
				continue
			}
			gaps = append(gaps, models.ExpectationGap{
				FocusAreaID:  fa.ID,
				Expectation:  expectation,
				Reality:      reality,
				Severity:     areaByID[fa.ID].SeverityLabel,
				SuggestedFix: fmt.Sprintf("Align the product with the expectation behind %q (%d related reports)", fa.Title, fa.Frequency),
			})
			// one gap per cluster is enough signal
			break
		}
	}
	return gaps
}

func matchContrast(text string) (string, string, bool) {
	for _, p := range contrastPatterns {
		m := p.FindStringSubmatch(text)
		if len(m) == 3 {
			return tidyFragment(m[1]), tidyFragment(m[2]), true
		}
	}
	return "", "", false
}

func tidyFragment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".,;:")
	return s
}
