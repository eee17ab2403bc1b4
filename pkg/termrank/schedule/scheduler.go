// Package schedule fans document segmentation out across a worker pool.
//
// Every document index is owned by exactly one worker, which writes the
// filtered token list into that index of a pre-allocated result slice. Slots
// never overlap, so the slice needs no lock; the only coordination is the
// errgroup join at the end of Process.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/termrank/pkg/termrank/corpus"
	"github.com/cognicore/termrank/pkg/termrank/filter"
	"github.com/cognicore/termrank/pkg/termrank/internalerr"
	"github.com/cognicore/termrank/pkg/termrank/segment"
)

// Partition selects how document indices are assigned to workers. The
// choice affects load balance only, never results.
type Partition int

const (
	// Dynamic lets workers claim the next unprocessed index from a shared
	// atomic counter.
	Dynamic Partition = iota
	// Stride gives worker k the indices k, k+W, k+2W, ... for W workers.
	Stride
)

// ParsePartition maps a configuration string to a Partition.
func ParsePartition(s string) (Partition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dynamic":
		return Dynamic, nil
	case "stride":
		return Stride, nil
	default:
		return 0, fmt.Errorf("%w: unknown partition %q", internalerr.ErrInvalidParameter, s)
	}
}

func (p Partition) String() string {
	if p == Stride {
		return "stride"
	}
	return "dynamic"
}

// Observer is notified as documents finish. It is called from worker
// goroutines and must be safe for concurrent use.
type Observer interface {
	DocumentProcessed(tokens int)
	SegmentationFailed()
}

// Scheduler segments and filters documents in parallel.
type Scheduler struct {
	seg       segment.Segmenter
	filter    *filter.Filter
	partition Partition
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPartition sets the partition strategy (default Dynamic).
func WithPartition(p Partition) Option {
	return func(s *Scheduler) { s.partition = p }
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler around a segmenter and a token filter.
func New(seg segment.Segmenter, f *filter.Filter, opts ...Option) *Scheduler {
	s := &Scheduler{
		seg:    seg,
		filter: f,
		logger: slog.Default().With("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process returns one filtered token list per document, at the document's
// index. It returns only after every worker has stopped. The first
// segmentation failure is returned as an *internalerr.DocError and no
// partial result is produced; remaining workers stop claiming documents.
func (s *Scheduler) Process(ctx context.Context, docs []corpus.Document, workers int) ([][]string, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", internalerr.ErrInvalidParameter, workers)
	}
	if s.seg == nil || s.filter == nil {
		return nil, fmt.Errorf("%w: scheduler needs a segmenter and a filter", internalerr.ErrInvalidParameter)
	}

	results := make([][]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)

	var next atomic.Int64
	for k := 0; k < workers; k++ {
		g.Go(func() error {
			if s.partition == Stride {
				for i := k; i < len(docs); i += workers {
					if err := s.processOne(gctx, docs, i, results); err != nil {
						return err
					}
				}
				return nil
			}
			for {
				i := int(next.Add(1) - 1)
				if i >= len(docs) {
					return nil
				}
				if err := s.processOne(gctx, docs, i, results); err != nil {
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("segmentation finished", "documents", len(docs), "workers", workers, "partition", s.partition.String())
	return results, nil
}

func (s *Scheduler) processOne(ctx context.Context, docs []corpus.Document, i int, results [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := docs[i]
	tokens, err := s.seg.Segment(ctx, strings.ToLower(doc.Text))
	if err != nil {
		// A sibling's failure cancelled ctx; that failure is already reported.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		s.logger.Error("segmentation failed", "index", i, "name", doc.Name, "error", err)
		if s.observer != nil {
			s.observer.SegmentationFailed()
		}
		return &internalerr.DocError{Kind: internalerr.ErrSegmentation, Index: i, Name: doc.Name, Err: err}
	}

	results[i] = s.filter.Apply(tokens)
	if s.observer != nil {
		s.observer.DocumentProcessed(len(results[i]))
	}
	return nil
}
