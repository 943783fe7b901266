// Package validator checks document events before they reach the engine and
// reports every offending field at once.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const (
	maxTextLength = 1048576
	maxRatings    = 10000
)

// ValidationError holds per-field validation failure messages. It matches
// apperrors.ErrInvalidInput under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateEvent checks the shape of ev. Word-level rules such as control
// characters are left to the engine, which reports them as ErrInvalidWord.
func ValidateEvent(ev *ingestion.DocumentEvent) error {
	errs := make(map[string]string)

	switch ev.Operation() {
	case ingestion.OpAdd, ingestion.OpRemove:
	default:
		errs["op"] = fmt.Sprintf("unknown operation %q", ev.Op)
	}
	if ev.ID < 0 {
		errs["id"] = "id must not be negative"
	}
	if ev.Operation() == ingestion.OpAdd {
		if len(ev.Text) > maxTextLength {
			errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
		}
		if !ev.Status.Valid() {
			errs["status"] = fmt.Sprintf("unknown status %d", int(ev.Status))
		}
		if len(ev.Ratings) > maxRatings {
			errs["ratings"] = fmt.Sprintf("at most %d ratings are accepted", maxRatings)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
