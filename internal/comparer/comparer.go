// Package comparer diffs the current synthesis against the most recent
// prior snapshot, turning two points in time into trend classifications.
package comparer

import (
	"log/slog"
	"math"
	"strings"

	"github.com/jess-tech-lab/threader-ai/internal/models"
	"github.com/jess-tech-lab/threader-ai/internal/synthesis"
)

const (
	// fuzzyMatchThreshold is the minimum title token overlap for two areas
	// of the same category to count as the same theme across runs.
	fuzzyMatchThreshold = 0.5

	// noiseThreshold is the impact delta below which a change reads as
	// stable. When impact is inside the noise band, frequency decides.
	noiseThreshold = 0.5
)

type Change string

const (
	ChangeNew      Change = "new"
	ChangeImproved Change = "improved"
	ChangeWorsened Change = "worsened"
	ChangeStable   Change = "stable"
	ChangeResolved Change = "resolved"
)

// AreaChange pairs a current focus area with its classification against the
// prior snapshot.
type AreaChange struct {
	FocusAreaID string  `json:"focus_area_id"`
	Title       string  `json:"title"`
	Change      Change  `json:"change"`
	ImpactDelta float64 `json:"impact_delta"`
	FreqDelta   int     `json:"frequency_delta"`
}

// Comparison is the full trend computation for one run. FirstRun is an
// explicit state, not something inferred from empty deltas.
type Comparison struct {
	FirstRun bool `json:"first_run"`

	Changes  []AreaChange `json:"changes"`
	Resolved []string     `json:"resolved,omitempty"`

	NewRate        float64 `json:"new_rate"`
	ResolutionRate float64 `json:"resolution_rate"`
	OverallHealth  float64 `json:"overall_health"`
}

// Compare classifies every current focus area against the prior snapshot
// and mutates the report's focus areas with trend and trendDelta. A nil
// snapshot is the first run: everything is new, ratios stay zeroed.
func Compare(report *models.SynthesisReport, prior *models.Snapshot) Comparison {
	if prior == nil {
		for i := range report.FocusAreas {
			report.FocusAreas[i].Trend = models.TrendNew
			report.FocusAreas[i].TrendDelta = 0
		}
		changes := make([]AreaChange, 0, len(report.FocusAreas))
		for _, fa := range report.FocusAreas {
			changes = append(changes, AreaChange{FocusAreaID: fa.ID, Title: fa.Title, Change: ChangeNew})
		}
		slog.Info("[Comparer] First run, no prior snapshot",
			slog.String("company", report.CompanyName),
			slog.Int("focus_areas", len(report.FocusAreas)))
		return Comparison{FirstRun: true, Changes: changes}
	}

	matched := make(map[int]bool, len(prior.FocusAreas))
	changes := make([]AreaChange, 0, len(report.FocusAreas))

	for i := range report.FocusAreas {
		fa := &report.FocusAreas[i]
		priorIdx := bestMatch(*fa, prior.FocusAreas, matched)
		if priorIdx < 0 {
			fa.Trend = models.TrendNew
			fa.TrendDelta = 0
			changes = append(changes, AreaChange{FocusAreaID: fa.ID, Title: fa.Title, Change: ChangeNew})
			continue
		}
		matched[priorIdx] = true

		prev := prior.FocusAreas[priorIdx]
		change, delta := classifyChange(*fa, prev)
		applyTrend(fa, change, delta)
		changes = append(changes, AreaChange{
			FocusAreaID: fa.ID,
			Title:       fa.Title,
			Change:      change,
			ImpactDelta: delta,
			FreqDelta:   fa.Frequency - prev.Frequency,
		})
	}

	var resolved []string
	for i, prev := range prior.FocusAreas {
		if !matched[i] {
			resolved = append(resolved, prev.Title)
		}
	}

	comparison := Comparison{Changes: changes, Resolved: resolved}
	fillRatios(&comparison, len(prior.FocusAreas))

	slog.Info("[Comparer] Comparison complete",
		slog.String("company", report.CompanyName),
		slog.Int("resolved", len(resolved)),
		slog.Float64("health", comparison.OverallHealth))
	return comparison
}

// bestMatch prefers an exact title+category match, then falls back to the
// best same-category token overlap above the threshold.
func bestMatch(fa models.FocusArea, prior []models.SnapshotArea, taken map[int]bool) int {
	for i, prev := range prior {
		if taken[i] {
			continue
		}
		if prev.Category == fa.Category && strings.EqualFold(prev.Title, fa.Title) {
			return i
		}
	}

	faTokens := synthesis.Tokens(fa.Title)
	bestIdx, bestOverlap := -1, 0.0
	for i, prev := range prior {
		if taken[i] || prev.Category != fa.Category {
			continue
		}
		overlap := synthesis.TokenOverlap(faTokens, synthesis.Tokens(prev.Title))
		if overlap >= fuzzyMatchThreshold && overlap > bestOverlap {
			bestIdx, bestOverlap = i, overlap
		}
	}
	return bestIdx
}

// classifyChange compares a matched pair. The impact delta dominates;
// frequency only decides when impact moved less than the noise threshold.
func classifyChange(fa models.FocusArea, prev models.SnapshotArea) (Change, float64) {
	impactDelta := fa.ImpactScore - prev.ImpactScore

	if math.Abs(impactDelta) > noiseThreshold {
		if impactDelta > 0 {
			return ChangeWorsened, impactDelta
		}
		return ChangeImproved, impactDelta
	}

	freqDelta := fa.Frequency - prev.Frequency
	if prev.Frequency > 0 && math.Abs(float64(freqDelta)) > float64(prev.Frequency)/2 {
		if freqDelta > 0 {
			return ChangeWorsened, impactDelta
		}
		return ChangeImproved, impactDelta
	}

	return ChangeStable, impactDelta
}

// applyTrend writes the classification back onto the focus area. The
// tracked metric is badness, so worsened points up.
func applyTrend(fa *models.FocusArea, change Change, delta float64) {
	fa.TrendDelta = math.Round(delta*10) / 10
	switch change {
	case ChangeWorsened:
		fa.Trend = models.TrendUp
	case ChangeImproved:
		fa.Trend = models.TrendDown
	default:
		fa.Trend = models.TrendStable
	}
}

func fillRatios(c *Comparison, priorCount int) {
	if len(c.Changes) > 0 {
		newCount := 0
		for _, ch := range c.Changes {
			if ch.Change == ChangeNew {
				newCount++
			}
		}
		c.NewRate = float64(newCount) / float64(len(c.Changes))
	}

	if priorCount > 0 {
		c.ResolutionRate = float64(len(c.Resolved)) / float64(priorCount)
	}

	// health: share of classifications that are not getting worse
	total := len(c.Changes) + len(c.Resolved)
	if total > 0 {
		good := len(c.Resolved)
		for _, ch := range c.Changes {
			if ch.Change != ChangeWorsened {
				good++
			}
		}
		c.OverallHealth = float64(good) / float64(total)
	}
}
