package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleErrorAppError(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "parsing error",
			err:        NewParsingError("bad csv", nil),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeParseFailed,
		},
		{
			name:       "no scored columns",
			err:        NewNoScoredColumnsError(),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNoScoredColumns,
		},
		{
			name:       "validation error",
			err:        NewAppValidationError("target std must be non-negative"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "not found",
			err:        NewNotFoundError("gradebook"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "unknown error",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/gradebook", nil)

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/gradebook", body["instance"])
		})
	}
}

func TestHandleErrorAPIError(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/gradebook/x", nil)
	h.HandleError(rec, req, ErrGradebookNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "GRADEBOOK_NOT_FOUND", body["error_code"])
}

func TestProblemDetailsMarshalFlattensExtensions(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad input", "/x").
		WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "abc-123", body["trace_id"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestAppErrorIsType(t *testing.T) {
	err := NewParsingError("bad header", assert.AnError)

	assert.True(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(err, ErrTypeValidation))
	assert.False(t, IsType(assert.AnError, ErrTypeParsing))

	// Wrapped AppErrors still match
	wrapped := NewStorageError("save failed", err)
	assert.True(t, IsType(wrapped, ErrTypeStorage))
	assert.ErrorIs(t, wrapped, assert.AnError)
}

func TestNotFoundHandler(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
