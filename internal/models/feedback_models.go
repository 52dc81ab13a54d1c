package models

import "time"

type Category string

const (
	CategoryFeatureRequest    Category = "feature_request"
	CategoryUsabilityFriction Category = "usability_friction"
	CategoryBug               Category = "bug"
	CategoryPraise            Category = "praise"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Impact sub-score weights. Score = reach*0.4 + sentiment*0.3 + velocity*0.3.
const (
	ReachWeight     = 0.4
	SentimentWeight = 0.3
	VelocityWeight  = 0.3
)

// FeedbackRecord is a normalized RawItem scoped to one company and run.
// Uniquely identified by (Source, SourceID). The Analysis slot stays nil
// until the classifier fills it; records are not mutated afterwards except
// to attach impact data.
type FeedbackRecord struct {
	SourceID     string    `json:"source_id" dynamodbav:"source_id"`
	Source       string    `json:"source" dynamodbav:"source"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Author       string    `json:"author"`
	Upvotes      int       `json:"upvotes"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	Permalink    string    `json:"permalink"`
	CompanyName  string    `json:"company_name"`
	ScrapedAt    time.Time `json:"scraped_at"`

	Analysis *Analysis `json:"analysis,omitempty"`
}

// Analysis is the classifier's verdict for one record.
type Analysis struct {
	Category   Category `json:"category"`
	Segment    string   `json:"segment,omitempty"`
	ImpactType string   `json:"impact_type,omitempty"`
	Urgency    string   `json:"urgency,omitempty"`
	Sentiment  string   `json:"sentiment"`
	RootCause  string   `json:"root_cause,omitempty"`

	Reach     float64 `json:"reach"`
	SentScore float64 `json:"sentiment_score"`
	Velocity  float64 `json:"velocity"`
}

// ImpactData carries the weighted composite for a focus area.
type ImpactData struct {
	Reach     float64 `json:"reach"`
	Sentiment float64 `json:"sentiment"`
	Velocity  float64 `json:"velocity"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}
