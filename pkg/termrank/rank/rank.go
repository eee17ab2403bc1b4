// Package rank selects the top-scoring terms of a weighted document.
package rank

import (
	"cmp"
	"slices"

	"github.com/cognicore/termrank/pkg/termrank/tfidf"
)

// TopK returns the k highest-scoring terms of a weighted document, score
// descending with ties broken by ascending id. k <= 0 gives nil. The input
// is left untouched.
func TopK(weighted tfidf.Vector, k int) []tfidf.Weight {
	if k <= 0 || len(weighted) == 0 {
		return nil
	}

	ranked := slices.Clone([]tfidf.Weight(weighted))
	slices.SortFunc(ranked, compare)

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func compare(a, b tfidf.Weight) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
