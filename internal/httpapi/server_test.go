package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titleboost/internal/core/domain"
)

type fakeSubmitter struct {
	jobID   string
	err     error
	channel string
	email   string
}

func (f *fakeSubmitter) Submit(_ context.Context, channel, email string) (string, error) {
	f.channel, f.email = channel, email
	return f.jobID, f.err
}

func serve(t *testing.T, sub Submitter, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(sub, log.New(io.Discard, "", 0))
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestSubmit_Queued(t *testing.T) {
	sub := &fakeSubmitter{jobID: "job_123"}
	rec := serve(t, sub, http.MethodPost, "/submit", `{"channel":"@example","email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "job_123", resp.JobID)
	assert.Equal(t, queuedMessage, resp.Message)
	assert.Equal(t, "@example", sub.channel)
	assert.Equal(t, "a@b.com", sub.email)
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", `{"channel":"","email":"a@b.com"}`, &domain.ValidationError{Message: "Channel and email are required"}, http.StatusBadRequest, "Channel and email are required"},
		{"bad email", `{"channel":"x","email":"nope"}`, &domain.ValidationError{Message: "Invalid email format"}, http.StatusBadRequest, "Invalid email format"},
		{"bad json", `{"channel":`, nil, http.StatusBadRequest, "Invalid request body"},
		{"internal", `{"channel":"x","email":"a@b.com"}`, errors.New("store unavailable"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeSubmitter{err: tt.err}, http.MethodPost, "/submit", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}

func TestSubmit_MethodNotAllowed(t *testing.T) {
	rec := serve(t, &fakeSubmitter{}, http.MethodGet, "/submit", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakeSubmitter{}, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
