package schedule

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cognicore/termrank/pkg/termrank/corpus"
	"github.com/cognicore/termrank/pkg/termrank/filter"
	"github.com/cognicore/termrank/pkg/termrank/internalerr"
	"github.com/cognicore/termrank/pkg/termrank/segment"
	"github.com/cognicore/termrank/pkg/termrank/stoplist"
)

func testCorpus(n int) []corpus.Document {
	words := []string{"alpha", "Beta", "gamma", "delta", "咖啡", "数据", "the", "x", "epsilon"}
	docs := make([]corpus.Document, n)
	for i := range docs {
		var b strings.Builder
		for j := 0; j <= i%7; j++ {
			b.WriteString(words[(i+j*3)%len(words)])
			b.WriteString(" ")
		}
		docs[i] = corpus.Document{Name: fmt.Sprintf("doc-%d", i), Text: b.String()}
	}
	return docs
}

func newTestScheduler(opts ...Option) *Scheduler {
	f := filter.New(stoplist.NewSet([]string{"the"}), nil)
	return New(segment.NewScript(nil), f, opts...)
}

func TestProcessDeterministicAcrossWorkerCounts(t *testing.T) {
	docs := testCorpus(50)
	ctx := context.Background()

	for _, p := range []Partition{Dynamic, Stride} {
		s := newTestScheduler(WithPartition(p))

		one, err := s.Process(ctx, docs, 1)
		if err != nil {
			t.Fatalf("%s workers=1: %v", p, err)
		}
		eight, err := s.Process(ctx, docs, 8)
		if err != nil {
			t.Fatalf("%s workers=8: %v", p, err)
		}

		if len(one) != len(docs) {
			t.Fatalf("Expected %d slots, got %d", len(docs), len(one))
		}
		if !reflect.DeepEqual(one, eight) {
			t.Errorf("%s: results differ between 1 and 8 workers", p)
		}
	}
}

func TestProcessPartitionsAgree(t *testing.T) {
	docs := testCorpus(23)
	ctx := context.Background()

	dyn, err := newTestScheduler(WithPartition(Dynamic)).Process(ctx, docs, 4)
	if err != nil {
		t.Fatalf("dynamic: %v", err)
	}
	str, err := newTestScheduler(WithPartition(Stride)).Process(ctx, docs, 4)
	if err != nil {
		t.Fatalf("stride: %v", err)
	}
	if !reflect.DeepEqual(dyn, str) {
		t.Error("Dynamic and stride partitions should produce identical results")
	}
}

func TestProcessLowercasesAndFilters(t *testing.T) {
	docs := []corpus.Document{{Name: "A", Text: "Foo FOO bar, The x"}}

	got, err := newTestScheduler().Process(context.Background(), docs, 2)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !reflect.DeepEqual(got[0], []string{"foo", "foo", "bar"}) {
		t.Errorf("Expected [foo foo bar], got %v", got[0])
	}
}

func TestProcessMoreWorkersThanDocuments(t *testing.T) {
	docs := testCorpus(3)
	got, err := newTestScheduler(WithPartition(Stride)).Process(context.Background(), docs, 16)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 results, got %d", len(got))
	}
	for i, toks := range got {
		if toks == nil {
			t.Errorf("Slot %d was never written", i)
		}
	}
}

func TestProcessEmptyDocument(t *testing.T) {
	docs := []corpus.Document{{Name: "empty", Text: ""}, {Name: "full", Text: "hello world"}}
	got, err := newTestScheduler().Process(context.Background(), docs, 2)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got[0] == nil || len(got[0]) != 0 {
		t.Errorf("Empty document should give an empty, non-nil list, got %#v", got[0])
	}
	if len(got[1]) != 2 {
		t.Errorf("Expected 2 tokens, got %v", got[1])
	}
}

func TestProcessNoDocuments(t *testing.T) {
	got, err := newTestScheduler().Process(context.Background(), nil, 4)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no results, got %v", got)
	}
}

func TestProcessInvalidWorkers(t *testing.T) {
	for _, w := range []int{0, -3} {
		_, err := newTestScheduler().Process(context.Background(), testCorpus(2), w)
		if !errors.Is(err, internalerr.ErrInvalidParameter) {
			t.Errorf("workers=%d: expected ErrInvalidParameter, got %v", w, err)
		}
	}
}

func TestProcessSegmentationFailure(t *testing.T) {
	boom := errors.New("segmenter crashed")
	script := segment.NewScript(nil)
	seg := segment.Func(func(ctx context.Context, text string) ([]segment.Token, error) {
		if strings.Contains(text, "poison") {
			return nil, boom
		}
		return script.Segment(ctx, text)
	})

	docs := testCorpus(20)
	docs[13] = corpus.Document{Name: "bad", Text: "POISON pill"}

	for _, p := range []Partition{Dynamic, Stride} {
		s := New(seg, filter.New(nil, nil), WithPartition(p))
		got, err := s.Process(context.Background(), docs, 4)
		if got != nil {
			t.Errorf("%s: expected no partial results, got %d slots", p, len(got))
		}
		if !errors.Is(err, internalerr.ErrSegmentation) || !errors.Is(err, boom) {
			t.Fatalf("%s: expected segmentation error wrapping cause, got %v", p, err)
		}
		var docErr *internalerr.DocError
		if !errors.As(err, &docErr) {
			t.Fatalf("%s: expected *DocError, got %T", p, err)
		}
		if docErr.Index != 13 || docErr.Name != "bad" {
			t.Errorf("%s: expected index 13 name bad, got %d %q", p, docErr.Index, docErr.Name)
		}
	}
}

func TestProcessStopsClaimingAfterFailure(t *testing.T) {
	var calls atomic.Int64
	seg := segment.Func(func(ctx context.Context, text string) ([]segment.Token, error) {
		calls.Add(1)
		if text == "fail" {
			return nil, errors.New("fail")
		}
		time.Sleep(time.Millisecond)
		return nil, nil
	})

	docs := make([]corpus.Document, 200)
	for i := range docs {
		docs[i] = corpus.Document{Name: fmt.Sprint(i), Text: "ok"}
	}
	docs[0].Text = "fail"

	_, err := New(seg, filter.New(nil, nil)).Process(context.Background(), docs, 2)
	if err == nil {
		t.Fatal("Expected failure")
	}
	if calls.Load() == int64(len(docs)) {
		t.Error("Workers should stop claiming documents after the first failure")
	}
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScheduler().Process(ctx, testCorpus(5), 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

type countingObserver struct {
	docs, tokens, failures atomic.Int64
}

func (o *countingObserver) DocumentProcessed(tokens int) {
	o.docs.Add(1)
	o.tokens.Add(int64(tokens))
}

func (o *countingObserver) SegmentationFailed() { o.failures.Add(1) }

func TestProcessObserver(t *testing.T) {
	obs := &countingObserver{}
	docs := []corpus.Document{{Name: "a", Text: "foo bar"}, {Name: "b", Text: "baz"}, {Name: "c", Text: ""}}

	if _, err := newTestScheduler(WithObserver(obs)).Process(context.Background(), docs, 3); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if obs.docs.Load() != 3 || obs.tokens.Load() != 3 || obs.failures.Load() != 0 {
		t.Errorf("Unexpected observer counts: docs=%d tokens=%d failures=%d",
			obs.docs.Load(), obs.tokens.Load(), obs.failures.Load())
	}
}

func TestParsePartition(t *testing.T) {
	for in, want := range map[string]Partition{"": Dynamic, "dynamic": Dynamic, "Stride": Stride} {
		got, err := ParsePartition(in)
		if err != nil || got != want {
			t.Errorf("ParsePartition(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePartition("round-robin"); !errors.Is(err, internalerr.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func BenchmarkProcess(b *testing.B) {
	docs := testCorpus(1000)
	for _, workers := range []int{1, 4, 8} {
		for _, p := range []Partition{Dynamic, Stride} {
			s := newTestScheduler(WithPartition(p))
			b.Run(fmt.Sprintf("%s_workers_%d", p, workers), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := s.Process(context.Background(), docs, workers); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func TestProcessCancelledSiblingNotCountedAsFailure(t *testing.T) {
	boom := errors.New("boom")
	started := make(chan struct{})
	seg := segment.Func(func(ctx context.Context, text string) ([]segment.Token, error) {
		if strings.Contains(text, "slow") {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		select {
		case <-started:
		case <-time.After(5 * time.Second):
		}
		return nil, boom
	})
	obs := &countingObserver{}
	s := New(seg, filter.New(nil, nil), WithObserver(obs))

	docs := []corpus.Document{{Name: "bad", Text: "bad"}, {Name: "slow", Text: "slow"}}
	_, err := s.Process(context.Background(), docs, 2)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the original failure, got %v", err)
	}
	if n := obs.failures.Load(); n != 1 {
		t.Errorf("Expected 1 segmentation failure, got %d", n)
	}
}
