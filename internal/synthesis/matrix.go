package synthesis

import "github.com/jess-tech-lab/threader-ai/internal/models"

type Effort string

const (
	EffortLow  Effort = "low"
	EffortHigh Effort = "high"
)

// EffortPolicy supplies the effort estimate per category. It is explicit
// and overridable so product teams can disagree with the defaults.
type EffortPolicy map[models.Category]Effort

// DefaultEffortPolicy: bugs are usually contained fixes, feature requests
// usually are not.
func DefaultEffortPolicy() EffortPolicy {
	return EffortPolicy{
		models.CategoryBug:               EffortLow,
		models.CategoryUsabilityFriction: EffortLow,
		models.CategoryFeatureRequest:    EffortHigh,
		models.CategoryPraise:            EffortLow,
	}
}

func (p EffortPolicy) effortFor(c models.Category) Effort {
	if e, ok := p[c]; ok {
		return e
	}
	return EffortHigh
}

// highImpactThreshold splits the matrix's impact axis.
const highImpactThreshold = 6.0

// quadrantFor places one focus area in the 2x2 impact/effort matrix.
func quadrantFor(impactScore float64, effort Effort) models.Quadrant {
	highImpact := impactScore >= highImpactThreshold

	switch {
	case highImpact && effort == EffortLow:
		return models.QuadrantQuickWins
	case highImpact && effort == EffortHigh:
		return models.QuadrantStrategicInvestments
	case !highImpact && effort == EffortLow:
		return models.QuadrantFillIns
	default:
		return models.QuadrantReconsider
	}
}

func buildPriorityMatrix(areas []models.FocusArea, policy EffortPolicy) []models.PriorityMatrixEntry {
	entries := make([]models.PriorityMatrixEntry, 0, len(areas))
	for _, fa := range areas {
		effort := policy.effortFor(fa.Category)
		entries = append(entries, models.PriorityMatrixEntry{
			FocusAreaID: fa.ID,
			Title:       fa.Title,
			ImpactScore: fa.ImpactScore,
			Effort:      string(effort),
			Quadrant:    quadrantFor(fa.ImpactScore, effort),
		})
	}
	return entries
}
