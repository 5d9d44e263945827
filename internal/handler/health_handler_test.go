package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "No database configured",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"healthy"}`,
		},
		{
			name:           "Database reachable",
			db:             pingFunc(func(context.Context) error { return nil }),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"healthy","database":"ok"}`,
		},
		{
			name:           "Database unreachable",
			db:             pingFunc(func(context.Context) error { return errors.New("connection refused") }),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"status":"unavailable","database":"unreachable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, zerolog.Nop())
			w := httptest.NewRecorder()

			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
