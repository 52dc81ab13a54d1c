package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jess-tech-lab/threader-ai/config"
	"github.com/jess-tech-lab/threader-ai/internal/classifier"
	"github.com/jess-tech-lab/threader-ai/internal/clients"
	"github.com/jess-tech-lab/threader-ai/internal/clients/kafka_client"
	"github.com/jess-tech-lab/threader-ai/internal/collector"
	"github.com/jess-tech-lab/threader-ai/internal/db"
	"github.com/jess-tech-lab/threader-ai/internal/discovery"
	"github.com/jess-tech-lab/threader-ai/internal/logging"
	"github.com/jess-tech-lab/threader-ai/internal/pipeline"
	"github.com/jess-tech-lab/threader-ai/internal/synthesis"
)

func main() {
	company := flag.String("company", "", "company name to analyze (required)")
	companyContext := flag.String("context", "", "short description of the company's industry or product")
	window := flag.Duration("window", 0, "trailing collection window, overrides COLLECT_TIME_WINDOW")
	maxItems := flag.Int("max-items", 0, "per-source item cap, overrides COLLECT_MAX_ITEMS")
	jsonOut := flag.Bool("json", false, "print the full report as JSON to stdout")
	flag.Parse()

	if *company == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer -company <name> [-context <industry>] [-window 24h] [-max-items 100] [-json]")
		os.Exit(2)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg := config.FromEnv()
	if *window > 0 {
		cfg.TimeWindow = *window
	}
	if *maxItems > 0 {
		cfg.MaxItemsPerSource = *maxItems
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("[Analyzer] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	oai := clients.NewOpenAIClient(cfg.OpenAIAPIKey)
	reddit := clients.NewRedditClient(cfg.RedditClientID, cfg.RedditClientSecret)

	collectorOpts := []collector.Option{
		collector.WithWorkers(cfg.CollectorWorkers),
	}
	if cfg.ValkeyAddress != "" {
		valkey, err := clients.NewValkeyClient(cfg.ValkeyAddress, os.Getenv("VALKEY_PASSWORD"))
		if err != nil {
			slog.Warn("[Analyzer] Valkey unavailable, running without cross-run dedup",
				slog.String("error", err.Error()))
		} else {
			defer valkey.Close()
			collectorOpts = append(collectorOpts, collector.WithDedupe(valkey))
		}
	}

	dynamo, err := clients.NewDynamoDBClient(ctx, cfg.AWSEndpoint)
	if err != nil {
		slog.Error("[Analyzer] Failed to initialize DynamoDB client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithPublicReports(cfg.PublicReports),
	}
	if cfg.KafkaBroker != "" {
		producer, err := kafka_client.NewProducer(cfg.KafkaBroker)
		if err != nil {
			slog.Warn("[Analyzer] Kafka unavailable, skipping report events",
				slog.String("error", err.Error()))
		} else {
			defer producer.Close()
			pipelineOpts = append(pipelineOpts, pipeline.WithEvents(producer))
		}
	}

	p := pipeline.New(
		discovery.NewDiscoverer(oai.Client),
		collector.New(reddit, collectorOpts...),
		classifier.New(oai.Client),
		synthesis.New(),
		db.NewStore(dynamo),
		cfg.TimeWindow,
		cfg.MaxItemsPerSource,
		pipelineOpts...,
	)

	start := time.Now()
	result, err := p.Run(ctx, *company, *companyContext)
	if err != nil {
		slog.Error("[Analyzer] Run failed",
			slog.String("company", *company),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	report := result.Report
	slog.Info("[Analyzer] Analysis complete",
		slog.String("report_id", report.ReportID),
		slog.String("mood", report.Sentiment.Mood),
		slog.Int("focus_areas", len(report.FocusAreas)),
		slog.Int("resolved", len(result.Comparison.Resolved)),
		slog.Duration("took", time.Since(start)))

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			slog.Error("[Analyzer] Failed to encode report", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}
