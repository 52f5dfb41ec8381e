package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"timesheet.service/internal/core"
)

func TestHandleErrorMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("sector s-1: %w", core.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", fmt.Errorf("%w: name is required", core.ErrInvalidInput), http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid action", core.ErrInvalidAction, http.StatusBadRequest, "BAD_REQUEST"},
		{"already processed", core.ErrOccurrenceAlreadyProcessed, http.StatusConflict, "CONFLICT"},
		{"already resolved", core.ErrOccurrenceAlreadyResolved, http.StatusConflict, "CONFLICT"},
		{"read only", core.ErrProviderReadOnly, http.StatusForbidden, "FORBIDDEN"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestInvalidInputKeepsTheReason(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, httptest.NewRequest(http.MethodPost, "/x", nil), fmt.Errorf("%w: name is required", core.ErrInvalidInput))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid input: name is required", body.Error.Message)
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "Sector created", map[string]string{"id": "s-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"Sector created","data":{"id":"s-1"}}`, rec.Body.String())
}
