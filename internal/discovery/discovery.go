// Package discovery decides which upstream communities are worth searching
// for a company. An LLM-assisted strategy runs first; any failure there
// degrades to the deterministic heuristic and never reaches the caller.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

const discoveryModel = openai.GPT4oMini

// ChatCompleter is the slice of the OpenAI client the discoverer needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Discoverer struct {
	llm ChatCompleter
}

func NewDiscoverer(llm ChatCompleter) *Discoverer {
	return &Discoverer{llm: llm}
}

type llmSource struct {
	Name      string `json:"name"`
	Relevance string `json:"relevance"`
}

type llmDiscoveryResponse struct {
	Sources     []llmSource `json:"sources"`
	SearchTerms []string    `json:"search_terms"`
}

const discoveryPrompt = `You identify Reddit communities where public feedback about a company appears.

Respond only with a valid JSON object. Do not include any additional text or commentary.

Expected JSON response format:
{
  "sources": [
    {"name": "subreddit_name_without_r_prefix", "relevance": "primary" or "secondary"}
  ],
  "search_terms": ["term1", "term2"]
}

Mark a community "primary" only when it is dedicated to the company or its product; everything else is "secondary". Include 3-8 sources and 2-5 search terms.`

// Discover returns the communities to collect from. The LLM result is used
// only when it is non-empty after validation and dedup; otherwise the
// heuristic set is returned.
func (d *Discoverer) Discover(ctx context.Context, company, companyContext string) models.SourceSet {
	fallback := HeuristicSources(company, companyContext)

	if d.llm == nil {
		return fallback
	}

	set, err := d.discoverWithLLM(ctx, company, companyContext)
	if err != nil {
		slog.Warn("[Discovery] LLM discovery failed, falling back to heuristics",
			slog.String("company", company),
			slog.String("error", err.Error()))
		return fallback
	}

	slog.Info("[Discovery] LLM discovery succeeded",
		slog.String("company", company),
		slog.Int("sources", len(set.Sources)),
		slog.Int("search_terms", len(set.SearchTerms)))
	return set
}

func (d *Discoverer) discoverWithLLM(ctx context.Context, company, companyContext string) (models.SourceSet, error) {
	userMsg := fmt.Sprintf("Company: %s", company)
	if companyContext != "" {
		userMsg += fmt.Sprintf("\nContext: %s", companyContext)
	}

	resp, err := d.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: discoveryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: discoveryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.SourceSet{}, err
	}
	if len(resp.Choices) == 0 {
		return models.SourceSet{}, fmt.Errorf("empty completion response")
	}

	cleaned := CleanJSONResponse(resp.Choices[0].Message.Content)
	if cleaned == "" {
		return models.SourceSet{}, fmt.Errorf("response is not a JSON object")
	}

	var parsed llmDiscoveryResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return models.SourceSet{}, fmt.Errorf("failed to unmarshal discovery response: %w", err)
	}

	set := validateSources(parsed, company)
	if len(set.Sources) == 0 {
		return models.SourceSet{}, fmt.Errorf("no valid sources in LLM response")
	}
	return set, nil
}

// validateSources dedupes case-insensitively and drops malformed entries.
// Search terms always include the company name even when the model forgot.
func validateSources(parsed llmDiscoveryResponse, company string) models.SourceSet {
	seen := make(map[string]struct{})
	var sources []models.Source

	for _, s := range parsed.Sources {
		name := strings.TrimPrefix(strings.TrimSpace(s.Name), "r/")
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		rel := models.RelevanceSecondary
		if strings.EqualFold(s.Relevance, string(models.RelevancePrimary)) {
			rel = models.RelevancePrimary
		}
		sources = append(sources, models.Source{Name: name, Relevance: rel})
	}

	terms := dedupeTerms(append([]string{company}, parsed.SearchTerms...))

	return models.SourceSet{Sources: sources, SearchTerms: terms}
}

// CleanJSONResponse strips markdown code fences that chat models wrap JSON
// in, and rejects anything that still does not look like an object.
func CleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	if !(strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}")) {
		return ""
	}
	return cleaned
}
