// Package ingestion defines the document event schema shared by the JSON-lines
// files, the Kafka document topic, the Postgres source table and the HTTP
// mutation endpoints.
package ingestion

import (
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// DocumentEvent adds or removes one document. An empty Op means OpAdd.
// Text, Status and Ratings are ignored for removals.
type DocumentEvent struct {
	Op      Op              `json:"op,omitempty"`
	ID      int             `json:"id"`
	Text    string          `json:"text,omitempty"`
	Status  document.Status `json:"status"`
	Ratings []int           `json:"ratings,omitempty"`
}

// Operation returns Op with the empty value resolved to OpAdd.
func (e DocumentEvent) Operation() Op {
	if e.Op == "" {
		return OpAdd
	}
	return e.Op
}

// Key partitions events by document id, so every event for a document lands
// on the same Kafka partition and is applied in order.
func (e DocumentEvent) Key() string {
	return strconv.Itoa(e.ID)
}

// AddRequest is the JSON body of the add-document endpoint.
type AddRequest struct {
	ID      int             `json:"id"`
	Text    string          `json:"text"`
	Status  document.Status `json:"status"`
	Ratings []int           `json:"ratings"`
}

// Event converts the request into an add event.
func (r AddRequest) Event() DocumentEvent {
	return DocumentEvent{Op: OpAdd, ID: r.ID, Text: r.Text, Status: r.Status, Ratings: r.Ratings}
}

// MutationResponse reports the outcome of an accepted mutation.
type MutationResponse struct {
	DocumentID int    `json:"document_id"`
	Status     string `json:"status"`
	Documents  int    `json:"documents"`
}
