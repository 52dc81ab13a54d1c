package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jess-tech-lab/threader-ai/internal/classifier"
	"github.com/jess-tech-lab/threader-ai/internal/clients"
	"github.com/jess-tech-lab/threader-ai/internal/collector"
	"github.com/jess-tech-lab/threader-ai/internal/discovery"
	"github.com/jess-tech-lab/threader-ai/internal/models"
	"github.com/jess-tech-lab/threader-ai/internal/retry"
	"github.com/jess-tech-lab/threader-ai/internal/synthesis"
)

// fakeLLM serves both discovery and classification requests, telling them
// apart by the system prompt.
type fakeLLM struct {
	discoverErr error
}

func (f *fakeLLM) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	system := req.Messages[0].Content
	if strings.Contains(system, "communities") {
		if f.discoverErr != nil {
			return openai.ChatCompletionResponse{}, f.discoverErr
		}
		return respond(`{
			"sources": [
				{"name": "acmeapp", "relevance": "primary"},
				{"name": "software", "relevance": "secondary"}
			],
			"search_terms": ["acme"]
		}`), nil
	}

	var out []map[string]any
	for _, msg := range req.Messages[1:] {
		var payload struct {
			SourceID string `json:"source_id"`
		}
		if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
			return openai.ChatCompletionResponse{}, err
		}
		out = append(out, map[string]any{
			"source_id": payload.SourceID, "category": "bug",
			"urgency": "high", "sentiment": "negative",
			"reach": 8.0, "sentiment_score": 6.0, "velocity": 4.0,
		})
	}
	body, _ := json.Marshal(map[string]any{"classifications": out})
	return respond(string(body)), nil
}

func respond(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

// fakeSource serves scripted items per subreddit; unknown subreddits come
// back empty and sources listed in fail error out.
type fakeSource struct {
	items map[string][]models.RawItem
	fail  map[string]bool
}

func (f *fakeSource) FetchPage(_ context.Context, source, after string, limit int) (clients.Page, retry.Outcome, error) {
	if f.fail[source] {
		return clients.Page{}, retry.OutcomeBlocked, fmt.Errorf("forbidden")
	}
	if after != "" {
		return clients.Page{}, retry.OutcomeOK, nil
	}
	return clients.Page{Items: f.items[source]}, retry.OutcomeOK, nil
}

type fakeStore struct {
	prior       *models.Snapshot
	priorErr    error
	saveErr     error
	snapshotErr error

	savedReport   *models.SynthesisReport
	savedSnapshot *models.Snapshot
}

func (f *fakeStore) SaveReport(_ context.Context, report *models.SynthesisReport) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedReport = report
	return nil
}

func (f *fakeStore) SaveSnapshot(_ context.Context, snapshot models.Snapshot) error {
	if f.snapshotErr != nil {
		return f.snapshotErr
	}
	f.savedSnapshot = &snapshot
	return nil
}

func (f *fakeStore) GetLatestSnapshot(_ context.Context, _ string) (*models.Snapshot, error) {
	return f.prior, f.priorErr
}

type fakeEvents struct {
	published []*models.SynthesisReport
	err       error
}

func (f *fakeEvents) PublishReportCompleted(report *models.SynthesisReport) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, report)
	return nil
}

func post(id, title string, upvotes int) models.RawItem {
	return models.RawItem{
		SourceID:     id,
		Title:        title,
		Body:         "acme keeps doing this",
		Author:       "user_" + id,
		Upvotes:      upvotes,
		CommentCount: 3,
		CreatedAt:    time.Now().Add(-time.Hour),
	}
}

func newTestPipeline(llm *fakeLLM, source *fakeSource, store *fakeStore, opts ...Option) *Pipeline {
	policy := retry.DefaultPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	coll := collector.New(source,
		collector.WithWorkers(1),
		collector.WithRetryPolicy(policy),
		collector.WithPacing(0, func() time.Duration { return 0 },
			func(context.Context, time.Duration) error { return nil }))
	return New(
		discovery.NewDiscoverer(llm),
		coll,
		classifier.New(llm),
		synthesis.New(),
		store,
		24*time.Hour,
		100,
		opts...,
	)
}

func TestRunProducesAndPersistsReport(t *testing.T) {
	source := &fakeSource{items: map[string][]models.RawItem{
		"acmeapp": {
			post("p1", "Sync fails with large files", 40),
			post("p2", "Sync fails constantly on big files", 25),
			post("p3", "Export button broken in settings", 10),
		},
	}}
	store := &fakeStore{}
	events := &fakeEvents{}

	p := newTestPipeline(&fakeLLM{}, source, store, WithEvents(events), WithPublicReports(true))
	result, err := p.Run(context.Background(), "Acme", "saas")
	require.NoError(t, err)
	require.NotNil(t, result)

	report := result.Report
	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "Acme", report.CompanyName)
	assert.True(t, report.IsPublic)
	assert.NotEmpty(t, report.FocusAreas)
	assert.Equal(t, 3, report.Metadata.TotalCollected)
	assert.Equal(t, 3, report.Metadata.TotalClassified)
	assert.Contains(t, report.Metadata.Sources, "acmeapp")

	assert.True(t, result.Comparison.FirstRun)
	for _, area := range report.FocusAreas {
		assert.Equal(t, models.TrendNew, area.Trend)
	}

	require.NotNil(t, store.savedReport)
	require.NotNil(t, store.savedSnapshot)
	assert.Equal(t, report.ReportID, store.savedSnapshot.ReportID)

	require.Len(t, events.published, 1)
	assert.Equal(t, report.ReportID, events.published[0].ReportID)
}

func TestRunFatalWhenNothingCollected(t *testing.T) {
	source := &fakeSource{items: map[string][]models.RawItem{}}
	store := &fakeStore{}

	p := newTestPipeline(&fakeLLM{}, source, store)
	result, err := p.Run(context.Background(), "Acme", "")

	require.ErrorIs(t, err, ErrNoFeedbackCollected)
	assert.Nil(t, result)
	assert.Nil(t, store.savedReport)
}

func TestRunRecordsFailedSourcesAndContinues(t *testing.T) {
	source := &fakeSource{
		items: map[string][]models.RawItem{
			"acmeapp": {post("p1", "Login loop after update", 15)},
		},
		fail: map[string]bool{"software": true},
	}
	store := &fakeStore{}

	p := newTestPipeline(&fakeLLM{}, source, store)
	result, err := p.Run(context.Background(), "Acme", "")
	require.NoError(t, err)

	meta := result.Report.Metadata
	assert.Contains(t, meta.FailedSources, "software")
	assert.NotContains(t, meta.Sources, "software")
	assert.Equal(t, 1, meta.TotalCollected)
}

func TestRunFatalWhenReportCannotBePersisted(t *testing.T) {
	source := &fakeSource{items: map[string][]models.RawItem{
		"acmeapp": {post("p1", "Crash on startup", 8)},
	}}
	store := &fakeStore{saveErr: errors.New("table missing")}

	p := newTestPipeline(&fakeLLM{}, source, store)
	_, err := p.Run(context.Background(), "Acme", "")

	require.ErrorIs(t, err, ErrPersistFailed)
}

func TestRunTreatsSnapshotLoadFailureAsFirstRun(t *testing.T) {
	source := &fakeSource{items: map[string][]models.RawItem{
		"acmeapp": {post("p1", "Crash on startup", 8)},
	}}
	store := &fakeStore{priorErr: errors.New("dynamo unavailable")}

	p := newTestPipeline(&fakeLLM{}, source, store)
	result, err := p.Run(context.Background(), "Acme", "")

	require.NoError(t, err)
	assert.True(t, result.Comparison.FirstRun)
}

func TestRunComparesAgainstPriorSnapshot(t *testing.T) {
	source := &fakeSource{items: map[string][]models.RawItem{
		"acmeapp": {
			post("p1", "Sync fails with large files", 40),
			post("p2", "Sync fails constantly on big files", 25),
		},
	}}
	store := &fakeStore{prior: &models.Snapshot{
		CompanyName: "Acme",
		ReportID:    "prev-run",
		AnalyzedAt:  time.Now().Add(-7 * 24 * time.Hour),
		FocusAreas: []models.SnapshotArea{
			{Title: "Sync fails with large files", Category: models.CategoryBug, Frequency: 2, ImpactScore: 3.0},
		},
	}}

	p := newTestPipeline(&fakeLLM{}, source, store)
	result, err := p.Run(context.Background(), "Acme", "")
	require.NoError(t, err)

	assert.False(t, result.Comparison.FirstRun)
	assert.NotEmpty(t, result.Comparison.Changes)
}

func TestRunSurvivesSnapshotAndEventFailures(t *testing.T) {
	source := &fakeSource{items: map[string][]models.RawItem{
		"acmeapp": {post("p1", "Crash on startup", 8)},
	}}
	store := &fakeStore{snapshotErr: errors.New("write throttled")}
	events := &fakeEvents{err: errors.New("broker down")}

	p := newTestPipeline(&fakeLLM{}, source, store, WithEvents(events))
	result, err := p.Run(context.Background(), "Acme", "")

	require.NoError(t, err)
	assert.NotNil(t, store.savedReport)
	assert.Empty(t, events.published)
	assert.NotNil(t, result.Report)
}
