// Package collector pulls raw posts from discovered communities within a
// trailing time window, respecting the upstream rate budget. Sources are
// scraped concurrently by a bounded worker pool; requests within one source
// stay strictly sequential.
package collector

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jess-tech-lab/threader-ai/internal/clients"
	"github.com/jess-tech-lab/threader-ai/internal/models"
	"github.com/jess-tech-lab/threader-ai/internal/retry"
)

// SourceClient is the listing endpoint the collector paginates through.
type SourceClient interface {
	FetchPage(ctx context.Context, source, after string, limit int) (clients.Page, retry.Outcome, error)
}

// Deduper tracks posts analyzed by earlier runs. A nil Deduper disables
// cross-run dedup.
type Deduper interface {
	IsProcessed(ctx context.Context, company, source, postID string) bool
	MarkProcessed(ctx context.Context, company, source, postID string) error
}

// SourceResult is what one source contributed to the run. Err set means the
// source failed after retries; other sources are unaffected.
type SourceResult struct {
	Items      []models.RawItem
	Relevant   int
	Filtered   int
	Duplicates int
	Err        error
}

type Collector struct {
	client  SourceClient
	dedupe  Deduper
	policy  retry.Policy
	workers int

	delay  time.Duration
	jitter func() time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

type Option func(*Collector)

// WithDedupe enables cross-run dedup against an already-analyzed set.
func WithDedupe(d Deduper) Option {
	return func(c *Collector) { c.dedupe = d }
}

// WithRetryPolicy replaces the default backoff rules.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Collector) { c.policy = p }
}

// WithWorkers bounds cross-source concurrency.
func WithWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithPacing overrides the inter-request delay and jitter; tests use this to
// drop the waits entirely.
func WithPacing(delay time.Duration, jitter func() time.Duration, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Collector) {
		c.delay = delay
		if jitter != nil {
			c.jitter = jitter
		}
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

func New(client SourceClient, opts ...Option) *Collector {
	c := &Collector{
		client:  client,
		policy:  retry.DefaultPolicy(),
		workers: 3,
		delay:   clients.INTER_REQUEST_DELAY,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(clients.REQUEST_JITTER_MAX)))
		},
		sleep: retry.SleepContext,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect scrapes every source in the set and returns a per-source result
// map. A failing source carries its error in the map; the call itself only
// errors via context cancellation.
func (c *Collector) Collect(ctx context.Context, company string, set models.SourceSet, window time.Duration, maxItems int) map[string]SourceResult {
	results := make(map[string]SourceResult, len(set.Sources))
	var mu sync.Mutex

	workers := c.workers
	if workers > len(set.Sources) {
		workers = len(set.Sources)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan models.Source)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for src := range jobs {
				if !first {
					// Same pacing between sources as between pages.
					if err := c.pause(ctx); err != nil {
						return
					}
				}
				first = false

				res := c.collectSource(ctx, company, src, set.SearchTerms, window, maxItems)
				mu.Lock()
				results[src.Name] = res
				mu.Unlock()
			}
		}()
	}

	for _, src := range set.Sources {
		select {
		case <-ctx.Done():
		case jobs <- src:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (c *Collector) collectSource(ctx context.Context, company string, src models.Source, terms []string, window time.Duration, maxItems int) SourceResult {
	var res SourceResult
	cutoff := c.now().Add(-window)
	after := ""

	slog.Info("[Collector] Collecting source",
		slog.String("source", src.Name),
		slog.String("relevance", string(src.Relevance)))

	for {
		select {
		case <-ctx.Done():
			res.Err = ctx.Err()
			return res
		default:
		}

		var page clients.Page
		err := c.policy.Do(ctx, "r/"+src.Name, func() (retry.Outcome, error) {
			var outcome retry.Outcome
			var fetchErr error
			page, outcome, fetchErr = c.client.FetchPage(ctx, src.Name, after, clients.PAGE_LIMIT)
			return outcome, fetchErr
		})
		if err != nil {
			slog.Warn("[Collector] Source failed after retries",
				slog.String("source", src.Name),
				slog.String("error", err.Error()))
			res.Err = err
			return res
		}

		pageDone := c.consumePage(ctx, company, src, terms, page.Items, cutoff, maxItems, &res)

		// Listing pages are monotonically older: once a page's newest item
		// falls outside the window, the remainder will too.
		if pageDone || page.After == "" || len(res.Items) >= maxItems {
			break
		}
		after = page.After

		if err := c.pause(ctx); err != nil {
			res.Err = err
			return res
		}
	}

	slog.Info("[Collector] Source collected",
		slog.String("source", src.Name),
		slog.Int("kept", len(res.Items)),
		slog.Int("filtered", res.Filtered),
		slog.Int("duplicates", res.Duplicates))
	return res
}

// consumePage folds one page into the result and reports whether collection
// for this source should stop because the page aged out of the window.
func (c *Collector) consumePage(ctx context.Context, company string, src models.Source, terms []string, items []models.RawItem, cutoff time.Time, maxItems int, res *SourceResult) bool {
	if len(items) == 0 {
		return false
	}

	newest := items[0].CreatedAt
	for _, it := range items {
		if it.CreatedAt.After(newest) {
			newest = it.CreatedAt
		}
	}
	if newest.Before(cutoff) {
		return true
	}

	for _, item := range items {
		if len(res.Items) >= maxItems {
			return true
		}
		if item.CreatedAt.Before(cutoff) {
			continue
		}

		if src.Relevance == models.RelevanceSecondary && !MatchesAnyTerm(item, terms) {
			res.Filtered++
			continue
		}

		if c.dedupe != nil && c.dedupe.IsProcessed(ctx, company, src.Name, item.SourceID) {
			res.Duplicates++
			continue
		}

		res.Items = append(res.Items, item)
		res.Relevant++

		if c.dedupe != nil {
			if err := c.dedupe.MarkProcessed(ctx, company, src.Name, item.SourceID); err != nil {
				slog.Warn("[Collector] Failed to mark post as processed",
					slog.String("post_id", item.SourceID),
					slog.String("error", err.Error()))
			}
		}
	}
	return false
}

func (c *Collector) pause(ctx context.Context) error {
	return c.sleep(ctx, c.delay+c.jitter())
}
