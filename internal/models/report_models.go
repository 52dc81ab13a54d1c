package models

import "time"

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
	TrendNew    Trend = "new"
)

type StakesType string

const (
	StakesRisk    StakesType = "risk"
	StakesUpside  StakesType = "upside"
	StakesNeutral StakesType = "neutral"
)

type Stakes struct {
	Type    StakesType `json:"type"`
	Message string     `json:"message"`
}

// FocusArea is one cluster of related feedback records. Created fresh each
// run by the synthesizer; Trend and TrendDelta are filled by the comparer.
type FocusArea struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Category            Category `json:"category"`
	ImpactScore         float64  `json:"impact_score"`
	Impact              ImpactData `json:"impact"`
	Frequency           int      `json:"frequency"`
	Trend               Trend    `json:"trend"`
	TrendDelta          float64  `json:"trend_delta"`
	SeverityLabel       string   `json:"severity_label"`
	RepresentativeQuote string   `json:"representative_quote,omitempty"`
	RootCause           string   `json:"root_cause,omitempty"`
	Stakes              Stakes   `json:"stakes"`
	AffectedSegments    []string `json:"affected_segments,omitempty"`
}

type SentimentBreakdown struct {
	Positive int    `json:"positive"`
	Neutral  int    `json:"neutral"`
	Negative int    `json:"negative"`
	Mood     string `json:"mood"`
}

type BrandStrength struct {
	Title        string   `json:"title"`
	Shareability float64  `json:"shareability"`
	Adjectives   []string `json:"adjectives,omitempty"`
	Quote        string   `json:"quote,omitempty"`
}

type SuggestedOKR struct {
	Objective  string   `json:"objective"`
	KeyResults []string `json:"key_results"`
	FocusArea  string   `json:"focus_area"`
}

type Quadrant string

const (
	QuadrantQuickWins            Quadrant = "Quick Wins"
	QuadrantStrategicInvestments Quadrant = "Strategic Investments"
	QuadrantFillIns              Quadrant = "Fill-ins"
	QuadrantReconsider           Quadrant = "Reconsider"
)

type PriorityMatrixEntry struct {
	FocusAreaID string   `json:"focus_area_id"`
	Title       string   `json:"title"`
	ImpactScore float64  `json:"impact_score"`
	Effort      string   `json:"effort"`
	Quadrant    Quadrant `json:"quadrant"`
}

type ExpectationGap struct {
	FocusAreaID  string `json:"focus_area_id"`
	Expectation  string `json:"expectation"`
	Reality      string `json:"reality"`
	Severity     string `json:"severity"`
	SuggestedFix string `json:"suggested_fix"`
}

// ReportMetadata records how the run went, including everything that
// degraded gracefully along the way.
type ReportMetadata struct {
	TotalCollected         int               `json:"total_collected"`
	TotalClassified        int               `json:"total_classified"`
	NoiseFiltered          int               `json:"noise_filtered"`
	DuplicatesSkipped      int               `json:"duplicates_skipped"`
	ClassificationFailures int               `json:"classification_failures"`
	Sources                []string          `json:"sources"`
	FailedSources          map[string]string `json:"failed_sources,omitempty"`
	AnalyzedAt             time.Time         `json:"analyzed_at"`
}

// SynthesisReport is the run's full output. One per run per company,
// immutable once persisted, referenced by ReportID.
type SynthesisReport struct {
	ReportID    string `json:"report_id" dynamodbav:"report_id"`
	CompanyName string `json:"company_name" dynamodbav:"company_name"`
	IsPublic    bool   `json:"is_public" dynamodbav:"is_public"`

	Summary         string                `json:"summary"`
	Sentiment       SentimentBreakdown    `json:"sentiment"`
	FocusAreas      []FocusArea           `json:"focus_areas"`
	BrandStrengths  []BrandStrength       `json:"brand_strengths,omitempty"`
	SuggestedOKRs   []SuggestedOKR        `json:"suggested_okrs,omitempty"`
	PriorityMatrix  []PriorityMatrixEntry `json:"priority_matrix"`
	ExpectationGaps []ExpectationGap      `json:"expectation_gaps,omitempty"`
	Metadata        ReportMetadata        `json:"metadata"`
}

// SnapshotArea is the minimal projection of a prior FocusArea kept for
// trend comparison.
type SnapshotArea struct {
	Title       string   `json:"title"`
	Category    Category `json:"category"`
	Frequency   int      `json:"frequency"`
	ImpactScore float64  `json:"impact_score"`
}

// Snapshot is what the comparer needs from the previous run; full reports
// are never re-fetched for trend computation.
type Snapshot struct {
	CompanyName string             `json:"company_name" dynamodbav:"company_name"`
	ReportID    string             `json:"report_id"`
	AnalyzedAt  time.Time          `json:"analyzed_at"`
	Sentiment   SentimentBreakdown `json:"sentiment"`
	FocusAreas  []SnapshotArea     `json:"focus_areas"`
}

// SnapshotFromReport projects a finished report down to what future runs
// need for comparison.
func SnapshotFromReport(r *SynthesisReport) Snapshot {
	areas := make([]SnapshotArea, 0, len(r.FocusAreas))
	for _, fa := range r.FocusAreas {
		areas = append(areas, SnapshotArea{
			Title:       fa.Title,
			Category:    fa.Category,
			Frequency:   fa.Frequency,
			ImpactScore: fa.ImpactScore,
		})
	}
	return Snapshot{
		CompanyName: r.CompanyName,
		ReportID:    r.ReportID,
		AnalyzedAt:  r.Metadata.AnalyzedAt,
		Sentiment:   r.Sentiment,
		FocusAreas:  areas,
	}
}
