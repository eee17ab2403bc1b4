// Package corpus defines the documents a run ranks and the sources that
// load them.
package corpus

import (
	"context"
	"errors"
	"strings"
)

// Document is one named text of the corpus. It is never modified after loading.
type Document struct {
	Name string
	Text string
}

// Validate checks that the document carries a name. Empty text is allowed.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("document name is required")
	}
	return nil
}

// Source loads an ordered corpus.
type Source interface {
	Load(ctx context.Context) ([]Document, error)
}
