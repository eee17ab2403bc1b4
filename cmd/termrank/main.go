// Command termrank ranks the most distinctive terms of every document in a
// corpus by TF-IDF.
//
// Usage:
//
//	termrank [-config termrank.yaml] [-workers N] [-top K] [-input corpus.jsonl]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cognicore/termrank/internal/logger"
	"github.com/cognicore/termrank/internal/report"
	"github.com/cognicore/termrank/internal/source"
	"github.com/cognicore/termrank/pkg/termrank"
	"github.com/cognicore/termrank/pkg/termrank/config"
	"github.com/cognicore/termrank/pkg/termrank/corpus"
	"github.com/cognicore/termrank/pkg/termrank/metrics"
	"github.com/cognicore/termrank/pkg/termrank/schedule"
	"github.com/cognicore/termrank/pkg/termrank/stoplist"
	"github.com/cognicore/termrank/pkg/termrank/tfidf"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (optional)")
		workers    = flag.Int("workers", 0, "Segmentation workers (overrides config)")
		topK       = flag.Int("top", -1, "Terms per document (overrides config)")
		input      = flag.String("input", "", "Input JSONL file (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *topK >= 0 {
		cfg.TopK = *topK
	}
	if *input != "" {
		cfg.Corpus.Format = "jsonl"
		cfg.Corpus.Path = *input
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	if err := run(ctx, cfg, metrics.New(reg)); err != nil {
		slog.Error("termrank failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads the corpus, ranks it and writes the configured reports.
func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics) error {
	start := time.Now()
	log := logger.WithComponent("termrank")

	eng, cleanup, err := buildEngine(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer cleanup()

	src, closeSrc, err := openSource(ctx, cfg.Corpus)
	if err != nil {
		return err
	}
	defer closeSrc()

	docs, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	res, err := eng.Run(ctx, docs)
	if err != nil {
		return err
	}

	runID := report.NewRunID()
	if path := cfg.Report.Results; path != "" {
		err := report.WriteFile(path, func(w io.Writer) error {
			return report.WriteResults(w, runID, res.Documents, time.Since(start))
		})
		if err != nil {
			return err
		}
		log.Info("results written", "path", path, "run", runID)
	}
	if path := cfg.Report.Tokens; path != "" {
		err := report.WriteFile(path, func(w io.Writer) error {
			return report.WriteTokens(w, res.Vocabulary)
		})
		if err != nil {
			return err
		}
		log.Info("tokens written", "path", path, "tokens", len(res.Vocabulary))
	}
	if path := cfg.Report.Candidates; path != "" {
		cands := stoplist.Suggest(res.DocumentFrequency, res.Stats.Documents, eng.stopwords, stoplist.Thresholds{
			DFPercent: cfg.Stoplist.SuggestDFPercent,
			MinDocs:   cfg.Stoplist.MinDocs,
		})
		err := report.WriteFile(path, func(w io.Writer) error {
			return report.WriteCandidates(w, cands)
		})
		if err != nil {
			return err
		}
		log.Info("stopword candidates written", "path", path, "candidates", len(cands))
	}

	log.Info("all done",
		"run", runID,
		"documents", res.Stats.Documents,
		"vocabulary", res.Stats.VocabularySize,
		"elapsed", time.Since(start),
	)
	return nil
}

type engine struct {
	*termrank.Engine
	stopwords *stoplist.Set
}

// buildEngine loads the configured components and creates the ranking
// engine. The returned cleanup releases segmenter connections.
func buildEngine(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*engine, func(), error) {
	loader := config.NewLoader(cfg, logger.WithComponent("config"))
	comp, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	cleanup := func() {
		if err := comp.Close(); err != nil {
			slog.Warn("closing components", "error", err)
		}
	}

	partition, err := schedule.ParsePartition(cfg.Partition)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	idf, err := tfidf.ParseIDF(cfg.Weighting.IDF)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	e, err := termrank.New(termrank.Options{
		Segmenter: comp.Segmenter,
		Filter:    comp.Filter,
		Workers:   cfg.Workers,
		TopK:      cfg.TopK,
		Partition: partition,
		Weighting: tfidf.Options{IDF: idf, Normalize: cfg.Weighting.Normalize},
		Metrics:   m,
		Logger:    logger.WithComponent("engine"),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &engine{Engine: e, stopwords: comp.Stopwords}, cleanup, nil
}

// openSource returns the configured corpus source and a function closing
// any database it opened.
func openSource(ctx context.Context, c config.CorpusConfig) (corpus.Source, func(), error) {
	log := logger.WithComponent("source")
	switch c.Format {
	case "sql":
		db, err := source.Open(ctx, c.Driver, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		return &source.SQL{DB: db, Query: c.Query, StripHTML: c.StripHTML, Logger: log}, func() { db.Close() }, nil
	default:
		return &source.JSONL{Path: c.Path, StripHTML: c.StripHTML, Logger: log}, func() {}, nil
	}
}
