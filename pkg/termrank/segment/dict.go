package segment

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// DictEntry is a known word and the category it is tagged with.
type DictEntry struct {
	Word     string
	Category string
}

// Dictionary drives greedy longest-match splitting of Han runs.
type Dictionary struct {
	words  map[string]string // word -> category
	maxLen int               // longest word, in runes
}

// NewDictionary builds a dictionary. Words are lowercased to match the
// lowered text the scheduler segments; entries without a category are
// tagged han.
func NewDictionary(entries []DictEntry) *Dictionary {
	d := &Dictionary{words: make(map[string]string, len(entries))}
	for _, e := range entries {
		word := strings.ToLower(strings.TrimSpace(e.Word))
		if word == "" {
			continue
		}
		cat := e.Category
		if cat == "" {
			cat = CategoryHan
		}
		d.words[word] = cat
		if n := utf8.RuneCountInString(word); n > d.maxLen {
			d.maxLen = n
		}
	}
	return d
}

// Len returns the number of dictionary words.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.words)
}

// LoadDictionary reads a dictionary file.
// Format: one `word|category` or bare `word` per line; `#` starts a comment.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}

	var entries []DictEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, cat, _ := strings.Cut(line, "|")
		entries = append(entries, DictEntry{
			Word:     strings.TrimSpace(word),
			Category: strings.TrimSpace(cat),
		})
	}

	return NewDictionary(entries), nil
}

// split applies greedy longest match to a Han run. Consecutive characters no
// dictionary word covers are kept together as a single han token.
func (d *Dictionary) split(run string) []Token {
	if d.Len() == 0 {
		return []Token{{Text: run, Category: CategoryHan}}
	}

	runes := []rune(run)
	var tokens []Token
	unmatched := -1

	i := 0
	for i < len(runes) {
		n := d.maxLen
		if remaining := len(runes) - i; n > remaining {
			n = remaining
		}

		matched, cat := 0, ""
		for ; n >= 1; n-- {
			if c, ok := d.words[string(runes[i:i+n])]; ok {
				matched, cat = n, c
				break
			}
		}

		if matched == 0 {
			if unmatched < 0 {
				unmatched = i
			}
			i++
			continue
		}

		if unmatched >= 0 {
			tokens = append(tokens, Token{Text: string(runes[unmatched:i]), Category: CategoryHan})
			unmatched = -1
		}
		tokens = append(tokens, Token{Text: string(runes[i : i+matched]), Category: cat})
		i += matched
	}

	if unmatched >= 0 {
		tokens = append(tokens, Token{Text: string(runes[unmatched:]), Category: CategoryHan})
	}

	return tokens
}
