// Package bow encodes token lists as sparse term-count vectors.
package bow

import (
	"fmt"
	"sort"

	"github.com/cognicore/termrank/pkg/termrank/internalerr"
	"github.com/cognicore/termrank/pkg/termrank/vocab"
)

// Entry is one term of a sparse vector. Count is at least 1.
type Entry struct {
	ID    int
	Count int
}

// Vector is a sparse bag of words with one entry per id, ordered by id.
type Vector []Entry

// UnknownTokenError reports a token missing from the vocabulary. It matches
// internalerr.ErrInconsistentVocabulary under errors.Is.
type UnknownTokenError struct {
	Token string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("token %q has no id", e.Token)
}

func (e *UnknownTokenError) Is(target error) bool {
	return target == internalerr.ErrInconsistentVocabulary
}

// Encode counts each token of a document and maps it to its vocabulary id.
// A token without an id means the vocabulary was built from a different
// corpus; it is reported as ErrInconsistentVocabulary.
func Encode(tokens []string, v *vocab.Vocabulary) (Vector, error) {
	counts := make(map[int]int, len(tokens))
	for _, tok := range tokens {
		id, ok := v.ID(tok)
		if !ok {
			return nil, &UnknownTokenError{Token: tok}
		}
		counts[id]++
	}

	vec := make(Vector, 0, len(counts))
	for id, n := range counts {
		vec = append(vec, Entry{ID: id, Count: n})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].ID < vec[j].ID })
	return vec, nil
}

// Decode returns the tokens of vec, in id order.
func Decode(vec Vector, v *vocab.Vocabulary) ([]string, error) {
	out := make([]string, 0, len(vec))
	for _, e := range vec {
		tok, ok := v.Token(e.ID)
		if !ok {
			return nil, fmt.Errorf("%w: id %d out of range", internalerr.ErrInconsistentVocabulary, e.ID)
		}
		out = append(out, tok)
	}
	return out, nil
}

// Total returns the sum of counts.
func (vec Vector) Total() int {
	n := 0
	for _, e := range vec {
		n += e.Count
	}
	return n
}
