package synthesis

import (
	"math"
	"sort"
	"strings"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

const maxBrandStrengths = 3

// personalityAdjectives are the distinguishing words worth surfacing when
// praise clusters mention them.
var personalityAdjectives = []string{
	"fast", "reliable", "intuitive", "simple", "polished", "delightful",
	"friendly", "powerful", "seamless", "beautiful", "responsive", "clean",
}

// shareability scores how likely a praise cluster is to travel on its own:
// pure engagement volume, deliberately independent of the impact score.
func shareability(members []models.FeedbackRecord) float64 {
	var engagement float64
	for _, m := range members {
		engagement += float64(m.Upvotes) + 2*float64(m.CommentCount)
	}
	engagement /= float64(len(members))

	// log scale keeps a single viral post from pinning everything at 10
	score := math.Log1p(engagement) * 2
	if score > 10 {
		score = 10
	}
	return math.Round(score*10) / 10
}

func clusterAdjectives(members []models.FeedbackRecord) []string {
	var text strings.Builder
	for _, m := range members {
		text.WriteString(strings.ToLower(m.Title))
		text.WriteString(" ")
		text.WriteString(strings.ToLower(m.Body))
		text.WriteString(" ")
	}
	blob := text.String()

	var found []string
	for _, adj := range personalityAdjectives {
		if strings.Contains(blob, adj) {
			found = append(found, adj)
		}
	}
	return found
}

// buildBrandStrengths surfaces the top praise clusters by shareability.
func buildBrandStrengths(clusters []cluster) []models.BrandStrength {
	var strengths []models.BrandStrength

	for _, c := range clusters {
		if c.members[0].Analysis.Category != models.CategoryPraise {
			continue
		}
		rep := representative(c.members)
		strengths = append(strengths, models.BrandStrength{
			Title:        rep.Title,
			Shareability: shareability(c.members),
			Adjectives:   clusterAdjectives(c.members),
			Quote:        quoteFrom(rep),
		})
	}

	sort.SliceStable(strengths, func(i, j int) bool {
		return strengths[i].Shareability > strengths[j].Shareability
	})
	if len(strengths) > maxBrandStrengths {
		strengths = strengths[:maxBrandStrengths]
	}
	return strengths
}

const maxQuoteLen = 200

func quoteFrom(rec models.FeedbackRecord) string {
	quote := strings.TrimSpace(rec.Body)
	if quote == "" {
		quote = rec.Title
	}
	if len(quote) > maxQuoteLen {
		quote = quote[:maxQuoteLen] + "..."
	}
	return quote
}
