package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bullscows/internal/model"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"room not found", model.ErrRoomNotFound, http.StatusNotFound, model.CodeRoomNotFound},
		{"wrapped room full", fmt.Errorf("join: %w", model.ErrRoomFull), http.StatusConflict, model.CodeRoomFull},
		{"not your turn", model.ErrNotYourTurn, http.StatusForbidden, model.CodeNotYourTurn},
		{"invalid token", model.ErrInvalidToken, http.StatusUnauthorized, model.CodeInvalidToken},
		{"validation", model.ErrEmptyRoomID, http.StatusBadRequest, model.CodeEmptyRoomID},
		{"invalid request", NewInvalidRequestError("bad limit"), http.StatusBadRequest, CodeInvalidRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("redis: connection refused"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Internal server error", resp.Error.Message)
}
