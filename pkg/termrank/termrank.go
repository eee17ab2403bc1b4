// Package termrank finds the most distinctive terms of every document in a
// corpus.
//
// A run segments and filters all documents in parallel, builds a vocabulary
// over the filtered tokens, encodes each document as a bag of words,
// reweights the counts by inverse document frequency and keeps the top
// terms per document. Stages after segmentation are sequential and run only
// once every worker has finished. A run is all-or-nothing: on error no
// result is returned.
package termrank

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cognicore/termrank/pkg/termrank/bow"
	"github.com/cognicore/termrank/pkg/termrank/corpus"
	"github.com/cognicore/termrank/pkg/termrank/filter"
	"github.com/cognicore/termrank/pkg/termrank/internalerr"
	"github.com/cognicore/termrank/pkg/termrank/metrics"
	"github.com/cognicore/termrank/pkg/termrank/rank"
	"github.com/cognicore/termrank/pkg/termrank/schedule"
	"github.com/cognicore/termrank/pkg/termrank/segment"
	"github.com/cognicore/termrank/pkg/termrank/tfidf"
	"github.com/cognicore/termrank/pkg/termrank/vocab"
)

// Options configures an Engine.
type Options struct {
	Segmenter segment.Segmenter
	Filter    *filter.Filter // nil admits every structurally valid token
	Workers   int
	TopK      int // terms kept per document; <= 0 keeps none
	Partition schedule.Partition
	Weighting tfidf.Options
	Metrics   *metrics.Metrics // optional
	Logger    *slog.Logger     // optional
}

// Engine runs the ranking pipeline. It holds no per-run state and may be
// reused.
type Engine struct {
	sched     *schedule.Scheduler
	workers   int
	topK      int
	weighting tfidf.Options
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New validates opts and creates an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Segmenter == nil {
		return nil, fmt.Errorf("%w: segmenter is required", internalerr.ErrInvalidParameter)
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", internalerr.ErrInvalidParameter, opts.Workers)
	}
	variant, err := tfidf.ParseIDF(string(opts.Weighting.IDF))
	if err != nil {
		return nil, err
	}
	opts.Weighting.IDF = variant

	if opts.Filter == nil {
		opts.Filter = filter.New(nil, nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "termrank")
	}

	schedOpts := []schedule.Option{
		schedule.WithPartition(opts.Partition),
		schedule.WithLogger(logger),
	}
	if opts.Metrics != nil {
		schedOpts = append(schedOpts, schedule.WithObserver(opts.Metrics))
	}

	return &Engine{
		sched:     schedule.New(opts.Segmenter, opts.Filter, schedOpts...),
		workers:   opts.Workers,
		topK:      opts.TopK,
		weighting: opts.Weighting,
		metrics:   opts.Metrics,
		logger:    logger,
	}, nil
}

// Term is a ranked token and its TF-IDF score.
type Term struct {
	Token string
	Score float64
}

// DocumentResult holds the top terms of one document.
type DocumentResult struct {
	Name  string
	Terms []Term
}

// Stats summarizes a run.
type Stats struct {
	Documents      int
	Tokens         int // accepted tokens across the corpus
	VocabularySize int
	Segment        time.Duration
	Vocabulary     time.Duration
	Encode         time.Duration
	Weight         time.Duration
	Total          time.Duration
}

// Result is the output of a run.
type Result struct {
	Documents []DocumentResult // same order as the input
	// Vocabulary lists every distinct accepted token, in id order.
	Vocabulary []string
	// DocumentFrequency maps each token to the number of documents containing it.
	DocumentFrequency map[string]int
	Stats             Stats
}

// Run ranks the terms of docs.
func (e *Engine) Run(ctx context.Context, docs []corpus.Document) (*Result, error) {
	res, err := e.run(ctx, docs)
	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.RunsTotal.WithLabelValues(status).Inc()
	}
	if err != nil {
		e.logger.Error("run failed", "error", err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context, docs []corpus.Document) (*Result, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents to rank", internalerr.ErrEmptyCorpus)
	}
	start := time.Now()
	var stats Stats
	stats.Documents = len(docs)

	e.logger.Info("segmenting corpus", "documents", len(docs), "workers", e.workers)
	t := time.Now()
	tokens, err := e.sched.Process(ctx, docs, e.workers)
	if err != nil {
		return nil, err
	}
	stats.Segment = e.observe("segment", t)

	t = time.Now()
	v, err := vocab.Build(tokens)
	if err != nil {
		return nil, err
	}
	stats.Vocabulary = e.observe("vocabulary", t)
	stats.VocabularySize = v.Len()
	if e.metrics != nil {
		e.metrics.VocabularySize.Set(float64(v.Len()))
	}

	t = time.Now()
	vectors, err := encodeAll(docs, tokens, v)
	if err != nil {
		return nil, err
	}
	stats.Encode = e.observe("encode", t)
	for _, vec := range vectors {
		stats.Tokens += vec.Total()
	}

	t = time.Now()
	model, err := tfidf.Fit(vectors, e.weighting)
	if err != nil {
		return nil, err
	}

	results := make([]DocumentResult, len(docs))
	for i, vec := range vectors {
		top := rank.TopK(model.Weight(vec), e.topK)
		terms := make([]Term, len(top))
		for j, w := range top {
			tok, ok := v.Token(w.ID)
			if !ok {
				return nil, &internalerr.DocError{
					Kind:  internalerr.ErrInconsistentVocabulary,
					Index: i,
					Name:  docs[i].Name,
					Err:   fmt.Errorf("ranked id %d has no token", w.ID),
				}
			}
			terms[j] = Term{Token: tok, Score: w.Score}
		}
		results[i] = DocumentResult{Name: docs[i].Name, Terms: terms}
	}
	stats.Weight = e.observe("weight", t)

	df := make(map[string]int, v.Len())
	for id, tok := range v.Tokens() {
		df[tok] = model.DocFreq(id)
	}

	stats.Total = time.Since(start)
	e.logger.Info("ranking done",
		"documents", stats.Documents,
		"tokens", stats.Tokens,
		"vocabulary", stats.VocabularySize,
		"idf", string(e.weighting.IDF),
		"elapsed", stats.Total,
	)

	return &Result{
		Documents:         results,
		Vocabulary:        v.Tokens(),
		DocumentFrequency: df,
		Stats:             stats,
	}, nil
}

// encodeAll encodes every document's tokens against v.
func encodeAll(docs []corpus.Document, tokens [][]string, v *vocab.Vocabulary) ([]bow.Vector, error) {
	vectors := make([]bow.Vector, len(tokens))
	for i, toks := range tokens {
		vec, err := bow.Encode(toks, v)
		if err != nil {
			return nil, &internalerr.DocError{Kind: internalerr.ErrInconsistentVocabulary, Index: i, Name: docs[i].Name, Err: err}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *Engine) observe(stage string, start time.Time) time.Duration {
	d := time.Since(start)
	if e.metrics != nil {
		e.metrics.ObserveStage(stage, d)
	}
	e.logger.Debug("stage finished", "stage", stage, "elapsed", d)
	return d
}
