// Package handler serves the write side of the search engine over HTTP:
// adding, removing and deduplicating documents.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/dedup"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

// Engine is the mutation surface the handler needs.
type Engine interface {
	consumer.Engine
	dedup.Engine
	DocumentCount() int
}

type Handler struct {
	engine Engine
	opts   []indexer.CallOption
	logger *slog.Logger
}

// New creates a Handler. opts are passed to every removal, for example to
// select a parallel policy.
func New(engine Engine, opts ...indexer.CallOption) *Handler {
	return &Handler{
		engine: engine,
		opts:   opts,
		logger: slog.Default().With("component", "ingestion-handler"),
	}
}

// Add answers POST /api/v1/documents.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req ingestion.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := consumer.Apply(h.engine, req.Event(), h.opts...); err != nil {
		h.writeMutationError(w, err)
		log.Warn("document rejected", "doc_id", req.ID, "error", err)
		return
	}
	log.Info("document added", "doc_id", req.ID, "status", req.Status)
	h.writeJSON(w, http.StatusCreated, ingestion.MutationResponse{
		DocumentID: req.ID,
		Status:     "added",
		Documents:  h.engine.DocumentCount(),
	})
}

// Remove answers DELETE /api/v1/documents/{id}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	ev := ingestion.DocumentEvent{Op: ingestion.OpRemove, ID: id}
	if err := consumer.Apply(h.engine, ev, h.opts...); err != nil {
		h.writeMutationError(w, err)
		return
	}
	log.Info("document removed", "doc_id", id)
	h.writeJSON(w, http.StatusOK, ingestion.MutationResponse{
		DocumentID: id,
		Status:     "removed",
		Documents:  h.engine.DocumentCount(),
	})
}

// Deduplicate answers POST /api/v1/documents/deduplicate.
func (h *Handler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	removed, err := dedup.RemoveDuplicates(h.engine, h.opts...)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}
	if removed == nil {
		removed = []int{}
	}
	logger.FromContext(r.Context()).Info("duplicates removed", "count", len(removed))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"removed":   removed,
		"documents": h.engine.DocumentCount(),
	})
}

func (h *Handler) writeMutationError(w http.ResponseWriter, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	code := apperrors.HTTPStatusCode(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("mutation failed", "error", err)
		h.writeError(w, code, "internal error")
		return
	}
	h.writeError(w, code, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
