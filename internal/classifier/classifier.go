// Package classifier is the boundary to the external text-generation
// service that assigns each feedback record a category, root cause, and the
// raw impact sub-scores. The service is not reimplemented here; this adapter
// batches records, validates what comes back, and drops what it cannot trust.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jess-tech-lab/threader-ai/internal/discovery"
	"github.com/jess-tech-lab/threader-ai/internal/models"
	"github.com/jess-tech-lab/threader-ai/internal/sentiment"
	"github.com/jess-tech-lab/threader-ai/internal/utils"
)

const (
	classifierModel  = openai.GPT4oMini
	batchSize        = 20
	completionRetries = 3
	maxBodyChars     = 800
)

const systemPrompt = `You classify public social-media feedback about a company.

Respond only with a valid JSON object. Do not include any additional text or commentary.

For each input record, return an object with:
- source_id: the exact same source_id that was received.
- category: one of "feature_request", "usability_friction", "bug", "praise".
- segment: the user segment speaking (e.g. "power users", "new users", "admins"), or "" if unclear.
- impact_type: short phrase for the kind of impact (e.g. "churn risk", "onboarding blocker"), or "".
- urgency: one of "low", "medium", "high".
- sentiment: one of "positive", "neutral", "negative".
- root_cause: one short sentence naming the likely root cause, or "".
- reach: 0-10, how many users the issue plausibly touches.
- sentiment_score: 0-10, intensity of the expressed emotion.
- velocity: 0-10, engagement momentum given upvotes and comments.

Expected JSON response format:
{
  "classifications": [
    {"source_id": "...", "category": "...", "segment": "...", "impact_type": "...", "urgency": "...", "sentiment": "...", "root_cause": "...", "reach": 0, "sentiment_score": 0, "velocity": 0}
  ]
}`

type llmClassification struct {
	SourceID   string  `json:"source_id"`
	Category   string  `json:"category"`
	Segment    string  `json:"segment"`
	ImpactType string  `json:"impact_type"`
	Urgency    string  `json:"urgency"`
	Sentiment  string  `json:"sentiment"`
	RootCause  string  `json:"root_cause"`
	Reach      float64 `json:"reach"`
	SentScore  float64 `json:"sentiment_score"`
	Velocity   float64 `json:"velocity"`
}

type llmClassificationResponse struct {
	Classifications []llmClassification `json:"classifications"`
}

type recordPayload struct {
	SourceID     string `json:"source_id"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Upvotes      int    `json:"upvotes"`
	CommentCount int    `json:"comment_count"`
}

type Classifier struct {
	llm discovery.ChatCompleter
}

func New(llm discovery.ChatCompleter) *Classifier {
	return &Classifier{llm: llm}
}

// ClassifyAll attaches an Analysis to every record it can. Records whose
// classification is missing or invalid are excluded, not fatal; the count of
// exclusions lands in run metadata.
func (c *Classifier) ClassifyAll(ctx context.Context, records []models.FeedbackRecord) ([]models.FeedbackRecord, int) {
	buffer := utils.NewBatchBuffer[models.FeedbackRecord](batchSize)
	var classified []models.FeedbackRecord
	failures := 0

	flush := func() {
		if buffer.Size() == 0 {
			return
		}
		buffer.LogBatchProcessing("classification")
		batch := buffer.GetAndClear()
		ok, failed := c.classifyBatch(ctx, batch)
		classified = append(classified, ok...)
		failures += failed
	}

	for _, rec := range records {
		select {
		case <-ctx.Done():
			slog.Warn("[Classifier] context canceled, flushing remaining buffer")
			flush()
			return classified, len(records) - len(classified)
		default:
		}

		buffer.Add(rec)
		if buffer.Size() >= batchSize {
			flush()
		}
	}
	flush()

	slog.Info("[Classifier] Classification finished",
		slog.Int("classified", len(classified)),
		slog.Int("failures", failures))
	return classified, failures
}

func (c *Classifier) classifyBatch(ctx context.Context, batch []models.FeedbackRecord) ([]models.FeedbackRecord, int) {
	messages := buildChatMessages(batch)

	var resp openai.ChatCompletionResponse
	var completionErr error
	for i := 0; i < completionRetries; i++ {
		start := time.Now()
		resp, completionErr = c.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    classifierModel,
			Messages: messages,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if completionErr == nil {
			break
		}
		slog.Warn("[Classifier] Failed to get a response, retrying...",
			slog.String("error", completionErr.Error()),
			slog.Int("attempt", i+1),
			slog.Duration("elapsed", time.Since(start)))
	}
	if completionErr != nil || len(resp.Choices) == 0 {
		slog.Error("[Classifier] Batch failed after retries, excluding records",
			slog.Int("batch_size", len(batch)))
		return nil, len(batch)
	}

	cleaned := discovery.CleanJSONResponse(resp.Choices[0].Message.Content)
	var parsed llmClassificationResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		slog.Error("[Classifier] Failed to unmarshal classifications",
			slog.String("error", err.Error()))
		return nil, len(batch)
	}

	byID := make(map[string]llmClassification, len(parsed.Classifications))
	for _, cl := range parsed.Classifications {
		byID[cl.SourceID] = cl
	}

	var classified []models.FeedbackRecord
	failures := 0
	for _, rec := range batch {
		cl, ok := byID[rec.SourceID]
		if !ok {
			slog.Warn("[Classifier] No classification returned for record",
				slog.String("source_id", rec.SourceID))
			failures++
			continue
		}
		analysis, err := toAnalysis(cl, rec)
		if err != nil {
			slog.Warn("[Classifier] Invalid classification, excluding record",
				slog.String("source_id", rec.SourceID),
				slog.String("error", err.Error()))
			failures++
			continue
		}
		rec.Analysis = analysis
		classified = append(classified, rec)
	}
	return classified, failures
}

func buildChatMessages(batch []models.FeedbackRecord) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}

	for _, rec := range batch {
		body := rec.Body
		if len(body) > maxBodyChars {
			body = body[:maxBodyChars]
		}
		payload := recordPayload{
			SourceID:     rec.SourceID,
			Title:        rec.Title,
			Body:         body,
			Upvotes:      rec.Upvotes,
			CommentCount: rec.CommentCount,
		}
		bytes, err := json.Marshal(payload)
		if err != nil {
			slog.Warn("[Classifier] Failed to marshal record",
				slog.String("source_id", rec.SourceID),
				slog.String("error", err.Error()))
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: string(bytes),
		})
	}

	return messages
}

func validCategory(c string) bool {
	switch models.Category(c) {
	case models.CategoryFeatureRequest, models.CategoryUsabilityFriction, models.CategoryBug, models.CategoryPraise:
		return true
	}
	return false
}

func validLabel(s string) bool {
	return s == models.SentimentPositive || s == models.SentimentNeutral || s == models.SentimentNegative
}

// toAnalysis validates one classification. Sub-scores are clamped into
// [0,10]; a missing sentiment label falls back to a local VADER pass rather
// than failing the record.
func toAnalysis(cl llmClassification, rec models.FeedbackRecord) (*models.Analysis, error) {
	if !validCategory(cl.Category) {
		return nil, fmt.Errorf("unknown category %q", cl.Category)
	}

	label := cl.Sentiment
	if !validLabel(label) {
		_, label = sentiment.Analyze(rec.Title, rec.Body)
	}

	return &models.Analysis{
		Category:   models.Category(cl.Category),
		Segment:    cl.Segment,
		ImpactType: cl.ImpactType,
		Urgency:    cl.Urgency,
		Sentiment:  label,
		RootCause:  cl.RootCause,
		Reach:      clamp(cl.Reach),
		SentScore:  clamp(cl.SentScore),
		Velocity:   clamp(cl.Velocity),
	}, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
