package faq

import (
	"errors"
	"fmt"

	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
)

// Error codes surfaced through apperrors.AppError.
const (
	CodeInvalidInput         = "invalid_input"
	CodeEmptyIndex           = "empty_index"
	CodeMalformedEntry       = "malformed_faq_entry"
	CodeEmbeddingUnavailable = "embedding_unavailable"
	CodeSourceUnavailable    = "faq_source_error"
)

var (
	// ErrEmptyIndex is returned when there are no patterns to match against.
	ErrEmptyIndex = errors.New("faq index has no patterns")
	// ErrEmbeddingService marks failures of the embedding collaborator.
	ErrEmbeddingService = errors.New("embedding service failed")
)

// MalformedEntryError identifies the offending dataset entry.
type MalformedEntryError struct {
	Position int
	Tag      string
	Reason   string
}

func (e *MalformedEntryError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("faq entry #%d: %s", e.Position, e.Reason)
	}
	return fmt.Sprintf("faq entry #%d (%q): %s", e.Position, e.Tag, e.Reason)
}

func emptyIndexError() error {
	return apperrors.Wrap(CodeEmptyIndex, "no faq patterns loaded", ErrEmptyIndex)
}

func malformedEntry(position int, tag, reason string) error {
	return apperrors.Wrap(CodeMalformedEntry, "malformed faq entry", &MalformedEntryError{
		Position: position,
		Tag:      tag,
		Reason:   reason,
	})
}

func embeddingError(message string, err error) error {
	if err == nil {
		return apperrors.Wrap(CodeEmbeddingUnavailable, message, ErrEmbeddingService)
	}
	return apperrors.Wrap(CodeEmbeddingUnavailable, message, fmt.Errorf("%w: %w", ErrEmbeddingService, err))
}
