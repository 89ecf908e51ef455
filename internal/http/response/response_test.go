package response

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pagetagz/pagetagz-server/internal/errors"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	data := map[string]string{"message": "test"}
	JSON(w, http.StatusOK, data, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotNil(t, result.Data)
	assert.Nil(t, result.Error)
}

func TestJSON_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"message": "test"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	data := map[string]any{
		"id":   "tag_123",
		"name": "Reading",
	}

	Success(w, data, logger)

	assert.Equal(t, http.StatusOK, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.True(t, result.Success)
	dataMap, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tag_123", dataMap["id"])
	assert.Equal(t, "Reading", dataMap["name"])
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	Created(w, map[string]string{"id": "bm_new"}, logger)

	assert.Equal(t, http.StatusCreated, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestError_CarriesCode(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	Error(w, http.StatusConflict, domainerrors.CodeDuplicateTag, "tag already exists", nil, logger)

	assert.Equal(t, http.StatusConflict, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "DUPLICATE_TAG", result.Error.Code)
	assert.Equal(t, "tag already exists", result.Error.Message)
}

func TestUnauthorized(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	Unauthorized(w, "authentication required", logger)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "UNAUTHORIZED", result.Error.Code)
}

func TestHandleError_DomainError(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	HandleError(w, domainerrors.TagNotFound("tag_missing"), logger)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "TAG_NOT_FOUND", result.Error.Code)
}

func TestHandleError_WrappedDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	wrapped := fmt.Errorf("saving bookmark: %w", domainerrors.DuplicateBookmark("https://example.com"))
	HandleError(w, wrapped, logger)

	assert.Equal(t, http.StatusConflict, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	require.NotNil(t, result.Error)
	assert.Equal(t, "DUPLICATE_BOOKMARK", result.Error.Code)
}

func TestHandleError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	HandleError(w, fmt.Errorf("disk on fire"), logger)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var result Envelope
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "DATABASE_ERROR", result.Error.Code)
	assert.Equal(t, "internal server error", result.Error.Message)
}

func TestStatusCodeBoundary(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		expectedSuccess bool
	}{
		{"200 OK", 200, true},
		{"201 Created", 201, true},
		{"399 Custom Success", 399, true},
		{"400 Bad Request", 400, false},
		{"500 Internal Server Error", 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			JSON(w, tt.status, nil, logger)

			var result Envelope
			err := json.Unmarshal(w.Body.Bytes(), &result)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedSuccess, result.Success, "Status %d should have Success=%v", tt.status, tt.expectedSuccess)
		})
	}
}

func TestEnvelope_OmitEmpty(t *testing.T) {
	data, err := json.Marshal(Envelope{Success: true, Data: "test"})
	require.NoError(t, err)

	jsonStr := string(data)
	assert.Contains(t, jsonStr, "\"success\":true")
	assert.Contains(t, jsonStr, "\"data\":\"test\"")
	assert.NotContains(t, jsonStr, "\"error\":")
	assert.NotContains(t, jsonStr, "\"message\":")
}
