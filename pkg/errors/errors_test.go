package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown document", fmt.Errorf("%w: id 7", ErrUnknownDocument), http.StatusNotFound},
		{"duplicate id", fmt.Errorf("%w: id 1 already exists", ErrInvalidID), http.StatusConflict},
		{"bad word", fmt.Errorf("%w: \"a\\x01\"", ErrInvalidWord), http.StatusBadRequest},
		{"bad query", fmt.Errorf("%w: \"--x\"", ErrInvalidQuery), http.StatusBadRequest},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", fmt.Errorf("batch: %w", ErrTimeout), http.StatusServiceUnavailable},
		{"app error wins", New(ErrInvalidQuery, http.StatusTeapot, "custom"), http.StatusTeapot},
		{"unclassified", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "field %s missing", "text")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid input: field text missing", err.Error())
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrInvalidQuery))
	assert.True(t, IsClientError(ErrUnknownDocument))
	assert.False(t, IsClientError(ErrInternal))
	assert.False(t, IsClientError(ErrTimeout))
}
