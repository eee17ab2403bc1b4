// Package segment defines the segmentation capability consumed by the
// scheduler and ships the segmenters used by the command line tool: a
// rule-based script splitter with optional dictionary matching, an HTTP
// client for an external segmentation service (see package remote), and a
// caching decorator.
package segment

import (
	"context"
	"strings"
	"unicode"
)

// Categories emitted by Script. Dictionary entries may carry their own.
const (
	CategoryAlpha   = "alpha"
	CategoryNumeral = "numeral"
	CategoryHan     = "han"
	CategoryOther   = "other"
	CategoryPunct   = "punct"
)

// Token is one segmented unit: a surface form and its category tag.
type Token struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Segmenter splits already-lowered text into tokens. Implementations must be
// safe for concurrent use; the scheduler calls Segment from several workers.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]Token, error)
}

// Func adapts a plain function to Segmenter.
type Func func(ctx context.Context, text string) ([]Token, error)

// Segment implements Segmenter.
func (f Func) Segment(ctx context.Context, text string) ([]Token, error) {
	return f(ctx, text)
}

type runKind int

const (
	runNone runKind = iota
	runAlnum
	runHan
	runOther
	runSpace
	runPunct
)

// Script splits text on script boundaries. ASCII letter/digit runs become
// alpha (or numeral) tokens, Han runs are split against the dictionary,
// runs of other letters become other tokens, and every punctuation or symbol
// rune is its own punct token. Whitespace is dropped.
type Script struct {
	dict *Dictionary
}

// NewScript creates a script segmenter. dict may be nil.
func NewScript(dict *Dictionary) *Script {
	return &Script{dict: dict}
}

// Segment implements Segmenter. It never fails.
func (s *Script) Segment(ctx context.Context, text string) ([]Token, error) {
	var tokens []Token
	var current strings.Builder
	kind := runNone

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		switch kind {
		case runAlnum:
			tokens = append(tokens, Token{Text: word, Category: alnumCategory(word)})
		case runHan:
			tokens = append(tokens, s.dict.split(word)...)
		case runOther:
			tokens = append(tokens, Token{Text: word, Category: CategoryOther})
		}
		current.Reset()
	}

	for _, r := range text {
		k := classify(r)
		switch k {
		case runSpace:
			flush()
			kind = runNone
			continue
		case runPunct:
			flush()
			kind = runNone
			tokens = append(tokens, Token{Text: string(r), Category: CategoryPunct})
			continue
		}
		if k != kind {
			flush()
			kind = k
		}
		current.WriteRune(r)
	}
	flush()

	return tokens, nil
}

func classify(r rune) runKind {
	switch {
	case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return runAlnum
	case unicode.Is(unicode.Han, r):
		return runHan
	case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r):
		return runOther
	case unicode.IsSpace(r):
		return runSpace
	default:
		return runPunct
	}
}

func alnumCategory(word string) string {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return CategoryAlpha
		}
	}
	return CategoryNumeral
}
