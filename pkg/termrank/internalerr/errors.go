package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline failures
var (
	ErrEmptyCorpus            = errors.New("empty corpus")
	ErrSegmentation           = errors.New("segmentation failed")
	ErrInconsistentVocabulary = errors.New("inconsistent vocabulary")
	ErrInvalidParameter       = errors.New("invalid parameter")
	ErrInvalidConfig          = errors.New("invalid configuration")
)

// DocError ties a pipeline failure to the document that caused it.
type DocError struct {
	Kind  error
	Index int
	Name  string
	Err   error
}

func (e *DocError) Error() string {
	return fmt.Sprintf("%v: document %d (%q): %v", e.Kind, e.Index, e.Name, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *DocError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
