// Package filter decides which segmented tokens are admissible terms.
package filter

import (
	"regexp"
	"unicode/utf8"

	"github.com/cognicore/termrank/pkg/termrank/segment"
	"github.com/cognicore/termrank/pkg/termrank/stoplist"
)

const (
	minRunes = 2
	maxRunes = 9
)

var (
	// ASCII letters, ASCII digits and CJK unified ideographs only.
	admissible = regexp.MustCompile(`^[a-zA-Z0-9\x{4e00}-\x{9fa5}]+$`)

	// 1-7 ideographs followed by a province/region/city/district/county/
	// town/village/street marker.
	district = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}]{1,7}?(?:省|自治区|市|区|县|镇|村|街)$`)
)

// Filter holds the stopword and stop-category sets. It is read-only after
// construction and safe for concurrent use.
type Filter struct {
	words      *stoplist.Set
	categories *stoplist.Set
}

// New creates a filter. Either set may be nil.
func New(words, categories *stoplist.Set) *Filter {
	return &Filter{words: words, categories: categories}
}

// Accept reports whether tok is an admissible term.
func (f *Filter) Accept(tok segment.Token) bool {
	n := utf8.RuneCountInString(tok.Text)
	if n < minRunes || n > maxRunes {
		return false
	}
	if !admissible.MatchString(tok.Text) {
		return false
	}
	if district.MatchString(tok.Text) {
		return false
	}
	if f.words.Contains(tok.Text) {
		return false
	}
	return !f.categories.Contains(tok.Category)
}

// Apply returns the surface forms of the accepted tokens, in order. The
// result is never nil.
func (f *Filter) Apply(tokens []segment.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if f.Accept(tok) {
			out = append(out, tok.Text)
		}
	}
	return out
}
