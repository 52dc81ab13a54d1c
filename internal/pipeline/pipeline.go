package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jess-tech-lab/threader-ai/internal/classifier"
	"github.com/jess-tech-lab/threader-ai/internal/collector"
	"github.com/jess-tech-lab/threader-ai/internal/comparer"
	"github.com/jess-tech-lab/threader-ai/internal/discovery"
	"github.com/jess-tech-lab/threader-ai/internal/models"
	"github.com/jess-tech-lab/threader-ai/internal/normalizer"
	"github.com/jess-tech-lab/threader-ai/internal/synthesis"
)

// SnapshotStore persists finished reports and hands back the prior snapshot
// for trend comparison.
type SnapshotStore interface {
	SaveReport(ctx context.Context, report *models.SynthesisReport) error
	SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error
	GetLatestSnapshot(ctx context.Context, company string) (*models.Snapshot, error)
}

// ReportEvents announces completed runs to downstream consumers.
type ReportEvents interface {
	PublishReportCompleted(report *models.SynthesisReport) error
}

// Result bundles the persisted report with the run-over-run comparison.
type Result struct {
	Report     *models.SynthesisReport
	Comparison comparer.Comparison
}

// Pipeline runs one full analysis pass for a company: discover sources,
// collect raw posts, normalize, classify, synthesize the report, compare it
// against the prior snapshot, then persist.
type Pipeline struct {
	discoverer  *discovery.Discoverer
	collector   *collector.Collector
	classifier  *classifier.Classifier
	synthesizer *synthesis.Synthesizer
	store       SnapshotStore
	events      ReportEvents

	window        time.Duration
	maxItems      int
	publicReports bool

	now func() time.Time
}

type Option func(*Pipeline)

// WithEvents enables the report-completed event on successful runs.
// Publishing is best effort and never fails the run.
func WithEvents(events ReportEvents) Option {
	return func(p *Pipeline) { p.events = events }
}

func WithPublicReports(public bool) Option {
	return func(p *Pipeline) { p.publicReports = public }
}

func New(
	discoverer *discovery.Discoverer,
	coll *collector.Collector,
	cls *classifier.Classifier,
	synth *synthesis.Synthesizer,
	store SnapshotStore,
	window time.Duration,
	maxItems int,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		discoverer:  discoverer,
		collector:   coll,
		classifier:  cls,
		synthesizer: synth,
		store:       store,
		window:      window,
		maxItems:    maxItems,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline for one company. The only fatal outcomes
// are zero items collected across every source and a failure to persist the
// finished report; all other problems degrade and are recorded in the
// report's metadata.
func (p *Pipeline) Run(ctx context.Context, company, companyContext string) (*Result, error) {
	start := p.now()
	slog.Info("[Pipeline] Starting analysis run",
		slog.String("company", company),
		slog.Duration("window", p.window))

	set := p.discoverer.Discover(ctx, company, companyContext)

	results := p.collector.Collect(ctx, company, set, p.window, p.maxItems)
	raw, meta := gatherResults(set, results)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %d sources tried", ErrNoFeedbackCollected, len(set.Sources))
	}
	meta.TotalCollected = len(raw)

	records := normalizer.NormalizeAll(raw, company, p.now())

	classified, failures := p.classifier.ClassifyAll(ctx, records)
	meta.ClassificationFailures = failures
	if failures > 0 {
		slog.Warn("[Pipeline] Some records could not be classified",
			slog.Int("failures", failures),
			slog.Int("classified", len(classified)))
	}

	report := p.synthesizer.Synthesize(company, classified)
	report.ReportID = uuid.NewString()
	report.IsPublic = p.publicReports
	mergeMetadata(&report.Metadata, meta)

	prior, err := p.store.GetLatestSnapshot(ctx, company)
	if err != nil {
		// A missing prior only costs us trend arrows; the run proceeds
		// as a first run.
		slog.Warn("[Pipeline] Could not load prior snapshot, treating run as first",
			slog.String("company", company),
			slog.String("error", err.Error()))
		prior = nil
	}
	comparison := comparer.Compare(report, prior)

	if err := p.store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := p.store.SaveSnapshot(ctx, models.SnapshotFromReport(report)); err != nil {
		// The report landed; a lost snapshot only degrades the next
		// run's trend comparison.
		slog.Warn("[Pipeline] Failed to persist snapshot",
			slog.String("report_id", report.ReportID),
			slog.String("error", err.Error()))
	}

	if p.events != nil {
		if err := p.events.PublishReportCompleted(report); err != nil {
			slog.Warn("[Pipeline] Failed to publish report-completed event",
				slog.String("report_id", report.ReportID),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[Pipeline] Run complete",
		slog.String("report_id", report.ReportID),
		slog.Int("focus_areas", len(report.FocusAreas)),
		slog.Int("total_collected", report.Metadata.TotalCollected),
		slog.Duration("took", p.now().Sub(start)))

	return &Result{Report: report, Comparison: comparison}, nil
}

// gatherResults flattens per-source results in discovery order and folds the
// counters and failures into metadata.
func gatherResults(set models.SourceSet, results map[string]collector.SourceResult) ([]models.RawItem, models.ReportMetadata) {
	var raw []models.RawItem
	meta := models.ReportMetadata{}

	for _, src := range set.Sources {
		res, ok := results[src.Name]
		if !ok {
			continue
		}
		if res.Err != nil {
			if meta.FailedSources == nil {
				meta.FailedSources = map[string]string{}
			}
			meta.FailedSources[src.Name] = res.Err.Error()
			slog.Warn("[Pipeline] Source failed, continuing without it",
				slog.String("source", src.Name),
				slog.String("error", res.Err.Error()))
			continue
		}
		meta.Sources = append(meta.Sources, src.Name)
		meta.NoiseFiltered += res.Filtered
		meta.DuplicatesSkipped += res.Duplicates
		raw = append(raw, res.Items...)
	}
	return raw, meta
}

// mergeMetadata overlays collection counters onto the metadata the
// synthesizer already filled in.
func mergeMetadata(dst *models.ReportMetadata, src models.ReportMetadata) {
	dst.TotalCollected = src.TotalCollected
	dst.NoiseFiltered = src.NoiseFiltered
	dst.DuplicatesSkipped = src.DuplicatesSkipped
	dst.ClassificationFailures = src.ClassificationFailures
	dst.Sources = src.Sources
	dst.FailedSources = src.FailedSources
}
