// Package tfidf reweights bag-of-words vectors by inverse document frequency.
//
// For a term with raw count c in a document, in a corpus of N documents of
// which df contain the term:
//
//	smooth (default): score = c · ln(1 + N/df)
//	raw:              score = c · ln(N/df)
//
// Both are monotonically decreasing in df. The smooth variant is strictly
// positive, so terms of a single-document corpus, or terms present in every
// document, keep a non-zero weight. Under the raw variant those terms score
// zero and are left out of the weighted vector. With Normalize set, each
// weighted vector is scaled to unit L2 length.
package tfidf

import (
	"fmt"
	"math"
	"strings"

	"github.com/cognicore/termrank/pkg/termrank/bow"
	"github.com/cognicore/termrank/pkg/termrank/internalerr"
)

// IDF names an inverse-document-frequency formula.
type IDF string

const (
	Smooth IDF = "smooth"
	Raw    IDF = "raw"
)

// ParseIDF maps a configuration string to an IDF variant.
func ParseIDF(s string) (IDF, error) {
	switch IDF(strings.ToLower(strings.TrimSpace(s))) {
	case "", Smooth:
		return Smooth, nil
	case Raw:
		return Raw, nil
	default:
		return "", fmt.Errorf("%w: unknown idf variant %q", internalerr.ErrInvalidParameter, s)
	}
}

// Options configures weighting.
type Options struct {
	IDF       IDF
	Normalize bool
}

// DocumentFrequency maps a term id to the number of documents containing it.
type DocumentFrequency map[int]int

// Weight is one weighted term.
type Weight struct {
	ID    int
	Score float64
}

// Vector is a weighted document, ordered by id. Every score is > 0.
type Vector []Weight

// DocumentFrequencies counts, for each id, the vectors it occurs in.
func DocumentFrequencies(vectors []bow.Vector) DocumentFrequency {
	df := make(DocumentFrequency)
	for _, vec := range vectors {
		for _, e := range vec {
			if e.Count > 0 {
				df[e.ID]++
			}
		}
	}
	return df
}

// Model holds the document frequencies of a corpus and the per-term IDF
// derived from them.
type Model struct {
	opts Options
	docs int
	df   DocumentFrequency
	idf  map[int]float64
}

// Fit computes document frequencies over the encoded corpus.
func Fit(vectors []bow.Vector, opts Options) (*Model, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no documents to fit", internalerr.ErrEmptyCorpus)
	}
	variant, err := ParseIDF(string(opts.IDF))
	if err != nil {
		return nil, err
	}
	opts.IDF = variant

	df := DocumentFrequencies(vectors)
	idf := make(map[int]float64, len(df))
	for id, n := range df {
		idf[id] = inverse(variant, len(vectors), n)
	}

	return &Model{opts: opts, docs: len(vectors), df: df, idf: idf}, nil
}

// Docs returns the corpus size the model was fitted on.
func (m *Model) Docs() int { return m.docs }

// DocFreq returns the document frequency of id, 0 if unseen.
func (m *Model) DocFreq(id int) int { return m.df[id] }

// IDF returns the inverse document frequency of id.
func (m *Model) IDF(id int) (float64, bool) {
	v, ok := m.idf[id]
	return v, ok
}

// Options returns the weighting options in effect.
func (m *Model) Options() Options { return m.opts }

// Weight converts raw counts to TF-IDF scores. Ids the model has not seen
// contribute nothing.
func (m *Model) Weight(vec bow.Vector) Vector {
	out := make(Vector, 0, len(vec))
	for _, e := range vec {
		idf, ok := m.idf[e.ID]
		if !ok || e.Count <= 0 {
			continue
		}
		if score := float64(e.Count) * idf; score > 0 {
			out = append(out, Weight{ID: e.ID, Score: score})
		}
	}
	if m.opts.Normalize {
		normalize(out)
	}
	return out
}

// WeightWith weights vec against an explicit document-frequency table and
// corpus size, without a fitted Model.
func WeightWith(vec bow.Vector, df DocumentFrequency, corpusSize int, opts Options) (Vector, error) {
	if corpusSize <= 0 {
		return nil, fmt.Errorf("%w: corpus size must be positive, got %d", internalerr.ErrInvalidParameter, corpusSize)
	}
	variant, err := ParseIDF(string(opts.IDF))
	if err != nil {
		return nil, err
	}

	out := make(Vector, 0, len(vec))
	for _, e := range vec {
		n := df[e.ID]
		if n <= 0 || e.Count <= 0 {
			continue
		}
		if score := float64(e.Count) * inverse(variant, corpusSize, n); score > 0 {
			out = append(out, Weight{ID: e.ID, Score: score})
		}
	}
	if opts.Normalize {
		normalize(out)
	}
	return out, nil
}

func inverse(variant IDF, docs, df int) float64 {
	ratio := float64(docs) / float64(df)
	if variant == Raw {
		return math.Log(ratio)
	}
	return math.Log1p(ratio)
}

func normalize(vec Vector) {
	var sum float64
	for _, w := range vec {
		sum += w.Score * w.Score
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i].Score /= norm
	}
}
