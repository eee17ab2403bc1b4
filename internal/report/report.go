// Package report writes ranking results, the token inventory and stopword
// candidates to text files.
package report

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/termrank/pkg/termrank"
	"github.com/cognicore/termrank/pkg/termrank/stoplist"
)

// NewRunID returns a sortable unique id for a run.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
}

// WriteResults writes the ranked terms of every document followed by the
// elapsed time.
//
//	Run: <id>
//	Top words in <name>
//		Word: <token> TF-IDF: <score>
//	Total time: <seconds>s
func WriteResults(w io.Writer, runID string, docs []termrank.DocumentResult, elapsed time.Duration) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Run: %s\n", runID)
	for _, doc := range docs {
		fmt.Fprintf(bw, "Top words in %s\n", doc.Name)
		for _, term := range doc.Terms {
			fmt.Fprintf(bw, "\tWord: %-*s TF-IDF: %.5f\n", padWidth(term.Token), term.Token, term.Score)
		}
	}
	fmt.Fprintf(bw, "Total time: %ss\n", strconv.FormatFloat(elapsed.Seconds(), 'f', -1, 64))
	return bw.Flush()
}

// padWidth keeps the score column aligned when tokens contain Han
// characters, which render double width.
func padWidth(token string) int {
	w := 10 - hanCount(token)
	if w < 0 {
		return 0
	}
	return w
}

func hanCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '一' && r <= '龥' {
			n++
		}
	}
	return n
}

// WriteTokens writes one vocabulary token per line, in id order.
func WriteTokens(w io.Writer, tokens []string) error {
	bw := bufio.NewWriter(w)
	for _, tok := range tokens {
		bw.WriteString(tok)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteCandidates writes suggested stopwords as a YAML stoplist that
// stoplist.Load reads back.
func WriteCandidates(w io.Writer, candidates []stoplist.Candidate) error {
	f := stoplist.File{Terms: make([]string, len(candidates))}
	for i, c := range candidates {
		f.Terms[i] = c.Token
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}
	return enc.Close()
}

// WriteFile creates path, including missing parent directories, and fills
// it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
