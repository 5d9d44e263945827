// Package middleware holds the HTTP middleware of the catalogue API.
package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"pricesync/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Header names understood by the API.
const (
	RequestIDHeader = "X-Request-ID"
	APIKeyHeader    = "X-API-Key"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h so that the first middleware is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for _, mw := range slices.Backward(mws) {
		h = mw(h)
	}
	return h
}

type requestIDKey struct{}

// RequestIDFromContext returns the correlation id set by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// CORS allows read-only cross-origin access from origin ("*" for any).
func CORS(origin string) Middleware {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+APIKeyHeader+", "+RequestIDHeader)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyAuth rejects requests whose X-API-Key does not match apiKey.
// Requests for publicPaths are let through unauthenticated.
func APIKeyAuth(apiKey string, logger zerolog.Logger, publicPaths ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(publicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				logger.Warn().
					Str("request_id", RequestIDFromContext(r.Context())).
					Str("path", r.URL.Path).
					Msg("missing API key")
				writeProblem(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing API key")
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.Warn().
					Str("request_id", RequestIDFromContext(r.Context())).
					Str("path", r.URL.Path).
					Str("provided_key", provided[:min(4, len(provided))]).
					Msg("invalid API key")
				writeProblem(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Logging writes one access log entry per request. Server errors are logged at error
// level and client errors at warn level.
func Logging(logger zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			event := logger.Info()
			switch {
			case rec.status >= http.StatusInternalServerError:
				event = logger.Error()
			case rec.status >= http.StatusBadRequest:
				event = logger.Warn()
			}

			event.
				Str("request_id", RequestIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status", rec.status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// Recovery turns a panic into a 500 INTERNAL_ERROR response.
func Recovery(logger zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error().
						Interface("panic", v).
						Str("request_id", RequestIDFromContext(r.Context())).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")
					writeProblem(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: RequestIDFromContext(r.Context()),
	})
}

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}
