package discovery

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

type fakeLLM struct {
	content string
	err     error
}

func (f *fakeLLM) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestDiscover_UsesLLMResult(t *testing.T) {
	llm := &fakeLLM{content: `{
		"sources": [
			{"name": "r/acmecorp", "relevance": "primary"},
			{"name": "AcmeCorp", "relevance": "primary"},
			{"name": "saas", "relevance": "secondary"}
		],
		"search_terms": ["acme", "acmecorp"]
	}`}

	set := NewDiscoverer(llm).Discover(context.Background(), "AcmeCorp", "")

	require.Len(t, set.Sources, 2, "case-insensitive duplicate should be dropped")
	assert.Equal(t, "acmecorp", set.Sources[0].Name)
	assert.Equal(t, models.RelevancePrimary, set.Sources[0].Relevance)
	assert.Equal(t, models.RelevanceSecondary, set.Sources[1].Relevance)
	assert.Contains(t, set.SearchTerms, "AcmeCorp")
}

func TestDiscover_FallsBackOnLLMError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("llm down")}

	set := NewDiscoverer(llm).Discover(context.Background(), "AcmeCorp", "saas tool")

	require.NotEmpty(t, set.Sources)
	assert.Equal(t, models.RelevancePrimary, set.Sources[0].Relevance)
	assert.Equal(t, "AcmeCorp", set.Sources[0].Name)
}

func TestDiscover_FallsBackOnMalformedJSON(t *testing.T) {
	llm := &fakeLLM{content: "sorry, I can't do that"}

	set := NewDiscoverer(llm).Discover(context.Background(), "AcmeCorp", "")

	require.NotEmpty(t, set.Sources)
	assert.Contains(t, set.SearchTerms, "AcmeCorp")
}

func TestDiscover_FallsBackOnEmptySourceList(t *testing.T) {
	llm := &fakeLLM{content: `{"sources": [], "search_terms": ["acme"]}`}

	set := NewDiscoverer(llm).Discover(context.Background(), "AcmeCorp", "")

	require.NotEmpty(t, set.Sources, "heuristic fallback must produce sources")
}

func TestHeuristicSources_IndustryContext(t *testing.T) {
	set := HeuristicSources("AcmeCorp", "a saas billing platform")

	var names []string
	for _, s := range set.Sources {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "SaaS")
	assert.Contains(t, names, "software")

	// Only the company community is primary.
	for _, s := range set.Sources[1:] {
		assert.Equal(t, models.RelevanceSecondary, s.Relevance)
	}
}

func TestCleanJSONResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSONResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSONResponse(" {\"a\":1} "))
	assert.Equal(t, "", CleanJSONResponse("not json at all"))
}
