package tfidf

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cognicore/termrank/pkg/termrank/bow"
	"github.com/cognicore/termrank/pkg/termrank/internalerr"
)

const eps = 1e-12

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestDocumentFrequenciesCountPresence(t *testing.T) {
	df := DocumentFrequencies([]bow.Vector{
		{{ID: 0, Count: 5}, {ID: 1, Count: 1}},
		{{ID: 0, Count: 1}},
		{{ID: 2, Count: 3}},
	})
	want := DocumentFrequency{0: 2, 1: 1, 2: 1}
	if !reflect.DeepEqual(df, want) {
		t.Errorf("Expected %v, got %v", want, df)
	}
}

func TestSingleDocumentScenario(t *testing.T) {
	vec := bow.Vector{{ID: 0, Count: 2}, {ID: 1, Count: 1}}

	smooth, err := Fit([]bow.Vector{vec}, Options{})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if smooth.DocFreq(0) != 1 || smooth.DocFreq(1) != 1 {
		t.Errorf("Expected df {0:1, 1:1}, got %d %d", smooth.DocFreq(0), smooth.DocFreq(1))
	}

	got := smooth.Weight(vec)
	if len(got) != 2 {
		t.Fatalf("Smooth IDF should keep both terms of a single-document corpus, got %v", got)
	}
	if !almostEqual(got[0].Score, 2*math.Ln2) || !almostEqual(got[1].Score, math.Ln2) {
		t.Errorf("Expected scores [2ln2 ln2], got %v", got)
	}

	raw, err := Fit([]bow.Vector{vec}, Options{IDF: Raw})
	if err != nil {
		t.Fatalf("Fit raw: %v", err)
	}
	if w := raw.Weight(vec); len(w) != 0 {
		t.Errorf("Raw IDF of a single-document corpus is zero; expected no entries, got %v", w)
	}
}

func TestWeightTwoDocuments(t *testing.T) {
	docs := []bow.Vector{
		{{ID: 0, Count: 1}, {ID: 1, Count: 1}},
		{{ID: 0, Count: 1}, {ID: 2, Count: 2}},
	}

	raw, err := Fit(docs, Options{IDF: Raw})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	w0 := raw.Weight(docs[0])
	if len(w0) != 1 || w0[0].ID != 1 || !almostEqual(w0[0].Score, math.Ln2) {
		t.Errorf("Raw doc0: expected [{1 ln2}], got %v", w0)
	}
	w1 := raw.Weight(docs[1])
	if len(w1) != 1 || w1[0].ID != 2 || !almostEqual(w1[0].Score, 2*math.Ln2) {
		t.Errorf("Raw doc1: expected [{2 2ln2}], got %v", w1)
	}

	smooth, _ := Fit(docs, Options{IDF: Smooth})
	s0 := smooth.Weight(docs[0])
	if len(s0) != 2 {
		t.Fatalf("Smooth doc0: expected 2 entries, got %v", s0)
	}
	if !almostEqual(s0[0].Score, math.Log(2)) || !almostEqual(s0[1].Score, math.Log(3)) {
		t.Errorf("Smooth doc0: expected [ln2 ln3], got %v", s0)
	}
}

func TestIDFDecreasesWithDocumentFrequency(t *testing.T) {
	for _, variant := range []IDF{Smooth, Raw} {
		prev := math.Inf(1)
		for df := 1; df <= 20; df++ {
			v := inverse(variant, 20, df)
			if v >= prev {
				t.Errorf("%s: idf(df=%d)=%f not below idf(df=%d)=%f", variant, df, v, df-1, prev)
			}
			prev = v
		}
		if variant == Smooth && prev <= 0 {
			t.Errorf("Smooth idf should stay positive at df=N, got %f", prev)
		}
		if variant == Raw && prev != 0 {
			t.Errorf("Raw idf should be zero at df=N, got %f", prev)
		}
	}
}

func TestWeightScoresPositive(t *testing.T) {
	docs := []bow.Vector{
		{{ID: 0, Count: 3}, {ID: 1, Count: 1}},
		{{ID: 0, Count: 1}, {ID: 2, Count: 1}},
		{{ID: 0, Count: 2}, {ID: 1, Count: 4}, {ID: 3, Count: 1}},
	}
	for _, opts := range []Options{{IDF: Smooth}, {IDF: Raw}, {IDF: Smooth, Normalize: true}, {IDF: Raw, Normalize: true}} {
		m, err := Fit(docs, opts)
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		for _, doc := range docs {
			for _, w := range m.Weight(doc) {
				if w.Score <= 0 {
					t.Errorf("%+v: non-positive score %v", opts, w)
				}
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	docs := []bow.Vector{
		{{ID: 0, Count: 3}, {ID: 1, Count: 1}},
		{{ID: 2, Count: 1}},
	}
	m, _ := Fit(docs, Options{Normalize: true})

	var sum float64
	for _, w := range m.Weight(docs[0]) {
		sum += w.Score * w.Score
	}
	if !almostEqual(sum, 1) {
		t.Errorf("Expected unit length, got squared norm %f", sum)
	}
}

func TestWeightSkipsUnseenIDs(t *testing.T) {
	m, _ := Fit([]bow.Vector{{{ID: 0, Count: 1}}}, Options{})
	got := m.Weight(bow.Vector{{ID: 0, Count: 1}, {ID: 7, Count: 4}})
	if len(got) != 1 || got[0].ID != 0 {
		t.Errorf("Expected only id 0, got %v", got)
	}
}

func TestWeightEmptyVector(t *testing.T) {
	m, _ := Fit([]bow.Vector{{}, {{ID: 0, Count: 1}}}, Options{})
	if got := m.Weight(bow.Vector{}); len(got) != 0 {
		t.Errorf("Expected empty weighted vector, got %v", got)
	}
}

func TestWeightWithMatchesModel(t *testing.T) {
	docs := []bow.Vector{
		{{ID: 0, Count: 2}, {ID: 1, Count: 1}},
		{{ID: 1, Count: 3}, {ID: 2, Count: 1}},
		{{ID: 2, Count: 1}},
	}
	opts := Options{IDF: Raw, Normalize: true}
	m, _ := Fit(docs, opts)
	df := DocumentFrequencies(docs)

	for _, doc := range docs {
		want := m.Weight(doc)
		got, err := WeightWith(doc, df, len(docs), opts)
		if err != nil {
			t.Fatalf("WeightWith: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("Expected %v, got %v", want, got)
		}
		for i := range got {
			if got[i].ID != want[i].ID || !almostEqual(got[i].Score, want[i].Score) {
				t.Errorf("Expected %v, got %v", want, got)
			}
		}
	}
}

func TestFitErrors(t *testing.T) {
	if _, err := Fit(nil, Options{}); !errors.Is(err, internalerr.ErrEmptyCorpus) {
		t.Errorf("Expected ErrEmptyCorpus, got %v", err)
	}
	if _, err := Fit([]bow.Vector{{}}, Options{IDF: "bm25"}); !errors.Is(err, internalerr.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
	if _, err := WeightWith(nil, nil, 0, Options{}); !errors.Is(err, internalerr.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestModelAccessors(t *testing.T) {
	m, _ := Fit([]bow.Vector{{{ID: 0, Count: 1}}, {{ID: 1, Count: 1}}}, Options{IDF: "RAW"})
	if m.Docs() != 2 {
		t.Errorf("Expected 2 docs, got %d", m.Docs())
	}
	if m.Options().IDF != Raw {
		t.Errorf("Expected parsed raw variant, got %q", m.Options().IDF)
	}
	if idf, ok := m.IDF(0); !ok || !almostEqual(idf, math.Ln2) {
		t.Errorf("Expected idf ln2, got %f %v", idf, ok)
	}
	if _, ok := m.IDF(9); ok {
		t.Error("Unseen id should have no idf")
	}
}
