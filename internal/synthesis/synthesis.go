// Package synthesis clusters classified feedback records into focus areas
// and assembles the run's synthesis report. Everything here is
// deterministic: the same classified records always synthesize to the same
// report (trend fields excepted, which the comparer owns).
package synthesis

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

type Synthesizer struct {
	groupKey GroupKeyFunc
	efforts  EffortPolicy
	now      func() time.Time
}

type Option func(*Synthesizer)

// WithGroupKey swaps the clustering strategy.
func WithGroupKey(fn GroupKeyFunc) Option {
	return func(s *Synthesizer) { s.groupKey = fn }
}

// WithEffortPolicy overrides the per-category effort defaults.
func WithEffortPolicy(p EffortPolicy) Option {
	return func(s *Synthesizer) { s.efforts = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		groupKey: DefaultGroupKey,
		efforts:  DefaultEffortPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize builds the report for one company's classified records.
// Records without an Analysis are ignored defensively; the classifier
// should not hand them over in the first place.
func (s *Synthesizer) Synthesize(company string, records []models.FeedbackRecord) *models.SynthesisReport {
	classified := records[:0:0]
	for _, r := range records {
		if r.Analysis != nil {
			classified = append(classified, r)
		}
	}

	clusters := clusterRecords(classified, s.groupKey)
	areas := make([]models.FocusArea, 0, len(clusters))

	for _, c := range clusters {
		areas = append(areas, s.buildFocusArea(company, c))
	}

	// stable presentation order: biggest problems first
	order := make([]int, len(areas))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := areas[order[i]], areas[order[j]]
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		return a.Title < b.Title
	})
	sortedAreas := make([]models.FocusArea, len(areas))
	sortedClusters := make([]cluster, len(clusters))
	for i, idx := range order {
		sortedAreas[i] = areas[idx]
		sortedClusters[i] = clusters[idx]
	}

	report := &models.SynthesisReport{
		CompanyName:     company,
		Summary:         buildSummary(company, sortedAreas, len(classified)),
		Sentiment:       rollupSentiment(classified),
		FocusAreas:      sortedAreas,
		BrandStrengths:  buildBrandStrengths(sortedClusters),
		SuggestedOKRs:   buildSuggestedOKRs(sortedAreas),
		PriorityMatrix:  buildPriorityMatrix(sortedAreas, s.efforts),
		ExpectationGaps: findExpectationGaps(sortedAreas, sortedClusters),
		Metadata: models.ReportMetadata{
			TotalClassified: len(classified),
			AnalyzedAt:      s.now().UTC(),
		},
	}

	slog.Info("[Synthesizer] Synthesis complete",
		slog.String("company", company),
		slog.Int("records", len(classified)),
		slog.Int("focus_areas", len(sortedAreas)))
	return report
}

func (s *Synthesizer) buildFocusArea(company string, c cluster) models.FocusArea {
	rep := representative(c.members)
	impact := aggregateImpact(c.members)
	category := c.members[0].Analysis.Category
	segments := affectedSegments(c.members)

	return models.FocusArea{
		ID:                  clusterID(company, c.key),
		Title:               rep.Title,
		Category:            category,
		ImpactScore:         impact.Score,
		Impact:              impact,
		Frequency:           len(c.members),
		Trend:               models.TrendNew, // comparer revises this
		SeverityLabel:       SeverityLabel(impact.Score),
		RepresentativeQuote: quoteFrom(rep),
		RootCause:           commonRootCause(c.members),
		Stakes:              buildStakes(category, impact.Score, len(c.members), segments),
		AffectedSegments:    segments,
	}
}

func buildSummary(company string, areas []models.FocusArea, total int) string {
	if len(areas) == 0 {
		return fmt.Sprintf("No actionable feedback themes found for %s in this window.", company)
	}
	top := areas[0]
	return fmt.Sprintf("%d feedback items about %s clustered into %d focus areas; the most pressing is %q (%s, impact %.1f, %d mentions).",
		total, company, len(areas), top.Title, top.SeverityLabel, top.ImpactScore, top.Frequency)
}
