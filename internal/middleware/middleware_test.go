package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pricesync/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeProblem(t *testing.T, body *bytes.Buffer) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(nil), tag("outer"), tag("middle"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "middle", "inner"}, order)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		method         string
		expectedOrigin string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Preflight is answered directly",
			method:         http.MethodOptions,
			expectedOrigin: "*",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "GET passes through",
			method:         http.MethodGet,
			expectedOrigin: "*",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Configured origin",
			origin:         "https://dashboard.example.com",
			method:         http.MethodGet,
			expectedOrigin: "https://dashboard.example.com",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			w := httptest.NewRecorder()

			CORS(tt.origin)(okHandler(&called)).ServeHTTP(w, httptest.NewRequest(tt.method, "/api/products", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, called)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, X-API-Key, X-Request-ID", w.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	const validKey = "catalogue-key-123"

	tests := []struct {
		name            string
		path            string
		apiKey          string
		expectedStatus  int
		expectHandler   bool
		expectedMessage string
	}{
		{
			name:           "Valid key",
			path:           "/api/products",
			apiKey:         validKey,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:            "Invalid key",
			path:            "/api/products",
			apiKey:          "wrong",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "invalid API key",
		},
		{
			name:            "Missing key",
			path:            "/api/products/443322",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "missing API key",
		},
		{
			name:           "Public path",
			path:           "/health",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequestID(APIKeyAuth(validKey, zerolog.Nop(), "/health")(okHandler(&called)))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set(APIKeyHeader, tt.apiKey)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, called)

			if tt.expectedMessage != "" {
				resp := decodeProblem(t, w.Body)
				assert.Equal(t, model.ErrCodeUnauthorised, resp.Error)
				assert.Equal(t, tt.expectedMessage, resp.Message)
				assert.Equal(t, w.Header().Get(RequestIDHeader), resp.CorrelationID)
			}
		})
	}
}

func TestLogging_LevelByStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel string
	}{
		{name: "Success", status: http.StatusOK, expectedLevel: "info"},
		{name: "Client error", status: http.StatusNotFound, expectedLevel: "warn"},
		{name: "Server error", status: http.StatusInternalServerError, expectedLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := Logging(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?limit=5", nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, float64(4), entry["bytes"])
			assert.Equal(t, "limit=5", entry["query"])
		})
	}
}

func TestLogging_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestID(Logging(zerolog.New(&buf))(okHandler(nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/products/999", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry["request_id"])
	assert.Equal(t, "/api/products/999", entry["path"])
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name        string
		panicValue  any
		expectPanic bool
	}{
		{name: "No panic"},
		{name: "Panic with string", panicValue: "something went wrong", expectPanic: true},
		{name: "Panic with error", panicValue: assert.AnError, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequestID(Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.expectPanic {
					panic(tt.panicValue)
				}
				w.WriteHeader(http.StatusOK)
			})))

			w := httptest.NewRecorder()
			require.NotPanics(t, func() {
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
			})

			if !tt.expectPanic {
				assert.Equal(t, http.StatusOK, w.Code)
				return
			}
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			resp := decodeProblem(t, w.Body)
			assert.Equal(t, model.ErrCodeInternalError, resp.Error)
			assert.NotEmpty(t, resp.CorrelationID)
		})
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "Generated when absent"},
		{name: "Propagated when present", incoming: "caller-supplied-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.Len(t, seen, 36)
			}
		})
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
