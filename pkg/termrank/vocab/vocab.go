// Package vocab assigns dense integer ids to the distinct tokens of a corpus.
package vocab

import (
	"fmt"

	"github.com/cognicore/termrank/pkg/termrank/internalerr"
)

// Vocabulary maps tokens to ids in [0, Len()) and back. It is immutable
// once built.
type Vocabulary struct {
	ids    map[string]int
	tokens []string // id -> token
}

// Build scans documents in order, tokens left to right, and gives each new
// token the next id. An empty corpus yields ErrEmptyCorpus; a corpus whose
// documents carry no tokens yields an empty vocabulary.
func Build(corpus [][]string) (*Vocabulary, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: no documents to build a vocabulary from", internalerr.ErrEmptyCorpus)
	}

	v := &Vocabulary{ids: make(map[string]int)}
	for _, doc := range corpus {
		for _, tok := range doc {
			if _, ok := v.ids[tok]; ok {
				continue
			}
			v.ids[tok] = len(v.tokens)
			v.tokens = append(v.tokens, tok)
		}
	}
	return v, nil
}

// ID returns the id of tok.
func (v *Vocabulary) ID(tok string) (int, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

// Token returns the token with the given id.
func (v *Vocabulary) Token(id int) (string, bool) {
	if id < 0 || id >= len(v.tokens) {
		return "", false
	}
	return v.tokens[id], true
}

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Tokens returns all tokens in id order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}
