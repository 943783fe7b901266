// Package document defines the document status, metadata and ranked-result
// types shared by the indexer, the searcher and every collaborator that
// consumes search results.
package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle label attached to a document. It is opaque to
// ranking and only used for predicate filtering.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{
	StatusActual:     "ACTUAL",
	StatusIrrelevant: "IRRELEVANT",
	StatusBanned:     "BANNED",
	StatusRemoved:    "REMOVED",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	return s >= StatusActual && s <= StatusRemoved
}

// ParseStatus converts a case-insensitive status name into a Status.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range statusNames {
		if n == upper {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown document status %q", name)
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshaling invalid status %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the status name or its numeric value.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseStatus(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}
	if !Status(n).Valid() {
		return fmt.Errorf("unknown document status %d", n)
	}
	*s = Status(n)
	return nil
}

// Meta is the per-document data kept by the document store.
type Meta struct {
	Rating int
	Status Status
}

// Document is one ranked search result.
type Document struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

func (d Document) String() string {
	return fmt.Sprintf("{ document_id = %d, relevance = %g, rating = %d }", d.ID, d.Relevance, d.Rating)
}

// Predicate decides whether a document takes part in ranking.
type Predicate func(id int, status Status, rating int) bool

// WithStatus returns a Predicate accepting only documents with the given status.
func WithStatus(status Status) Predicate {
	return func(_ int, s Status, _ int) bool {
		return s == status
	}
}

// AverageRating returns the integer mean of ratings truncated toward zero, or
// 0 for no ratings.
func AverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
