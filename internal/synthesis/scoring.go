package synthesis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

// aggregateImpact averages the members' sub-scores and applies the fixed
// weighted formula. The result is rounded to one decimal and clamped to
// [0,10].
func aggregateImpact(members []models.FeedbackRecord) models.ImpactData {
	var reach, sent, velocity float64
	for _, m := range members {
		reach += m.Analysis.Reach
		sent += m.Analysis.SentScore
		velocity += m.Analysis.Velocity
	}

	n := float64(len(members))
	reach /= n
	sent /= n
	velocity /= n

	score := reach*models.ReachWeight + sent*models.SentimentWeight + velocity*models.VelocityWeight
	score = math.Round(score*10) / 10
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	return models.ImpactData{
		Reach:     math.Round(reach*10) / 10,
		Sentiment: math.Round(sent*10) / 10,
		Velocity:  math.Round(velocity*10) / 10,
		Score:     score,
		Rationale: fmt.Sprintf("averaged over %d mentions: reach %.1f, sentiment %.1f, velocity %.1f", len(members), reach, sent, velocity),
	}
}

// SeverityLabel is a monotonic, total banding of the impact score.
func SeverityLabel(score float64) string {
	switch {
	case score >= 8:
		return "Critical"
	case score >= 6:
		return "High"
	case score >= 4:
		return "Medium"
	default:
		return "Low"
	}
}

// riskThreshold is the impact score at which a bug or friction cluster
// starts reading as churn risk.
const riskThreshold = 6.0

// buildStakes names what is at stake for this cluster. The message always
// references the cluster's own frequency or segments.
func buildStakes(category models.Category, impactScore float64, frequency int, segments []string) models.Stakes {
	segmentPhrase := "users"
	if len(segments) > 0 {
		segmentPhrase = strings.Join(segments, ", ")
	}

	switch {
	case category == models.CategoryPraise:
		return models.Stakes{
			Type:    models.StakesUpside,
			Message: fmt.Sprintf("%d mentions of genuine enthusiasm from %s worth amplifying", frequency, segmentPhrase),
		}
	case (category == models.CategoryBug || category == models.CategoryUsabilityFriction) && impactScore >= riskThreshold:
		return models.Stakes{
			Type:    models.StakesRisk,
			Message: fmt.Sprintf("%d reports affecting %s; left unaddressed this reads as churn risk", frequency, segmentPhrase),
		}
	default:
		return models.Stakes{
			Type:    models.StakesNeutral,
			Message: fmt.Sprintf("%d mentions from %s, worth tracking", frequency, segmentPhrase),
		}
	}
}

func affectedSegments(members []models.FeedbackRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range members {
		seg := strings.TrimSpace(m.Analysis.Segment)
		if seg == "" {
			continue
		}
		key := strings.ToLower(seg)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, seg)
	}
	sort.Strings(out)
	return out
}

// commonRootCause returns the most frequent non-empty root cause among
// members, ties broken alphabetically.
func commonRootCause(members []models.FeedbackRecord) string {
	counts := make(map[string]int)
	for _, m := range members {
		rc := strings.TrimSpace(m.Analysis.RootCause)
		if rc != "" {
			counts[rc]++
		}
	}
	best := ""
	for rc, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && rc < best) {
			best = rc
		}
	}
	return best
}
