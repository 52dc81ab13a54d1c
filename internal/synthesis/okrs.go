package synthesis

import (
	"fmt"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

const maxOKRs = 3

// buildSuggestedOKRs drafts one objective per top non-praise focus area,
// with key results anchored to the numbers the run actually measured.
func buildSuggestedOKRs(areas []models.FocusArea) []models.SuggestedOKR {
	var okrs []models.SuggestedOKR
	for _, fa := range areas {
		if fa.Category == models.CategoryPraise {
			continue
		}

		var objective string
		switch fa.Category {
		case models.CategoryBug:
			objective = fmt.Sprintf("Eliminate the defects behind %q", fa.Title)
		case models.CategoryFeatureRequest:
			objective = fmt.Sprintf("Close the capability gap behind %q", fa.Title)
		default:
			objective = fmt.Sprintf("Remove the friction behind %q", fa.Title)
		}

		okrs = append(okrs, models.SuggestedOKR{
			Objective: objective,
			KeyResults: []string{
				fmt.Sprintf("Reduce related mentions below %d per window (currently %d)", fa.Frequency/2+1, fa.Frequency),
				fmt.Sprintf("Bring impact score under %.1f (currently %.1f)", maxFloat(fa.ImpactScore-2, 0), fa.ImpactScore),
			},
			FocusArea: fa.ID,
		})
		if len(okrs) == maxOKRs {
			break
		}
	}
	return okrs
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
