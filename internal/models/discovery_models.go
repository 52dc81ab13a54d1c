package models

type Relevance string

const (
	RelevancePrimary   Relevance = "primary"
	RelevanceSecondary Relevance = "secondary"
)

// Source is one candidate community to collect from.
type Source struct {
	Name      string    `json:"name"`
	Relevance Relevance `json:"relevance"`
}

// SourceSet is the discoverer's output: an ordered list of communities plus
// the search terms secondary sources are filtered against.
type SourceSet struct {
	Sources     []Source `json:"sources"`
	SearchTerms []string `json:"search_terms"`
}
