package stoplist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is an immutable set of stop terms (words or category tags). Lookups are
// exact; a Set is safe to share between goroutines.
type Set struct {
	terms map[string]struct{}
}

// NewSet builds a set from terms, trimming whitespace and skipping blanks.
func NewSet(terms []string) *Set {
	s := &Set{terms: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		s.terms[t] = struct{}{}
	}
	return s
}

// Contains reports whether term is in the set. A nil Set is empty.
func (s *Set) Contains(term string) bool {
	if s == nil {
		return false
	}
	_, ok := s.terms[term]
	return ok
}

// Len returns the number of terms.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.terms)
}

// All returns the terms in sorted order.
func (s *Set) All() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.terms))
	for t := range s.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// File is the YAML stoplist format.
type File struct {
	Terms []string `yaml:"terms"`
}

// Load reads a stoplist. Files ending in .yaml or .yml are parsed as File;
// anything else is a flat list with one term per line, `#` lines ignored.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stoplist %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
		}
		return NewSet(f.Terms), nil
	}

	var terms []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	return NewSet(terms), nil
}

// Thresholds defines criteria for stopword candidates.
type Thresholds struct {
	DFPercent float64 // e.g. 60: present in more than 60% of documents
	MinDocs   int     // ignore corpora smaller than this
}

// DefaultThresholds returns sensible default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent: 60.0,
		MinDocs:   10,
	}
}

// Candidate is a suggested stopword.
type Candidate struct {
	Token     string
	DF        int
	DFPercent float64
	Score     float64 // share of documents containing the token, 0..1
}

// Suggest proposes tokens that occur in too many documents to be
// distinctive. Tokens already in existing are skipped. Candidates are
// ordered by score descending, then token.
func Suggest(df map[string]int, totalDocs int, existing *Set, t Thresholds) []Candidate {
	if totalDocs == 0 || totalDocs < t.MinDocs {
		return nil
	}

	var candidates []Candidate
	for tok, n := range df {
		if existing.Contains(tok) {
			continue
		}
		pct := 100 * float64(n) / float64(totalDocs)
		if pct <= t.DFPercent {
			continue
		}
		candidates = append(candidates, Candidate{
			Token:     tok,
			DF:        n,
			DFPercent: pct,
			Score:     pct / 100.0,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Token < candidates[j].Token
	})
	return candidates
}
