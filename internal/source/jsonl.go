// Package source loads corpora from files and databases.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cognicore/termrank/pkg/termrank/corpus"
	"github.com/cognicore/termrank/pkg/termrank/internalerr"
)

// record is one JSONL corpus line. Content entries are joined; Text is used
// when Content is empty.
type record struct {
	Name    string `json:"name"`
	Content []struct {
		Desc string `json:"desc"`
	} `json:"content"`
	Text string `json:"text"`
}

// JSONL reads one document per line.
type JSONL struct {
	Path      string
	StripHTML bool
	Logger    *slog.Logger
}

// Load implements corpus.Source. Lines without a name or content are
// skipped; malformed lines are logged and skipped.
func (j *JSONL) Load(ctx context.Context) ([]corpus.Document, error) {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default().With("component", "source")
	}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", j.Path, err)
	}

	var docs []corpus.Document
	skipped := 0
	for i, line := range strings.Split(string(data), "\n") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Warn("skipping malformed line", "path", j.Path, "line", i+1, "error", err)
			skipped++
			continue
		}
		text, ok := rec.body()
		if !ok {
			skipped++
			continue
		}
		if j.StripHTML {
			text = stripHTML(text)
		}
		doc := corpus.Document{Name: rec.Name, Text: Clean(rec.Name, text)}
		if err := doc.Validate(); err != nil {
			logger.Debug("skipping record", "path", j.Path, "line", i+1, "error", err)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no valid documents in %s", internalerr.ErrEmptyCorpus, j.Path)
	}
	logger.Info("corpus loaded", "path", j.Path, "documents", len(docs), "skipped", skipped)
	return docs, nil
}

func (r record) body() (string, bool) {
	if len(r.Content) > 0 {
		var b strings.Builder
		for _, c := range r.Content {
			b.WriteString(c.Desc)
			b.WriteString("。")
		}
		return b.String(), true
	}
	if r.Text != "" {
		return r.Text, true
	}
	return "", false
}

var cleaner = strings.NewReplacer("[", "", "]", "", "...", "。", "\n", "。")

// Clean normalizes document text: brackets are dropped, ellipses and line
// breaks become sentence stops and occurrences of the document name are
// removed.
func Clean(name, text string) string {
	text = cleaner.Replace(text)
	if name != "" {
		text = strings.ReplaceAll(text, name, "")
	}
	return text
}
