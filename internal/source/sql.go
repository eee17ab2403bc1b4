package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cognicore/termrank/pkg/termrank/corpus"
	"github.com/cognicore/termrank/pkg/termrank/internalerr"
)

// Open opens and pings a database. Supported drivers are "sqlite" and
// "postgres".
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// SQL loads documents with a query returning (name, text) rows.
type SQL struct {
	DB        *sql.DB
	Query     string
	StripHTML bool
	Logger    *slog.Logger
}

// Load implements corpus.Source. Rows with a blank name are skipped.
func (s *SQL) Load(ctx context.Context) ([]corpus.Document, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default().With("component", "source")
	}

	rows, err := s.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	var docs []corpus.Document
	skipped := 0
	for rows.Next() {
		var name string
		var text sql.NullString
		if err := rows.Scan(&name, &text); err != nil {
			return nil, fmt.Errorf("scan corpus row: %w", err)
		}
		body := text.String
		if s.StripHTML {
			body = stripHTML(body)
		}
		doc := corpus.Document{Name: name, Text: Clean(name, body)}
		if err := doc.Validate(); err != nil {
			skipped++
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus rows: %w", err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: query returned no documents", internalerr.ErrEmptyCorpus)
	}
	logger.Info("corpus loaded", "documents", len(docs), "skipped", skipped)
	return docs, nil
}
