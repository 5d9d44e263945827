package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pricesync/internal/middleware"
	"pricesync/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	requestID := middleware.RequestIDFromContext(r.Context())
	logger.Error().
		Str("request_id", requestID).
		Str("code", code).
		Str("error", message).
		Int("status", status).
		Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: requestID,
	})
}

// writeServiceError maps a service error to an HTTP status.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusBadRequest
		switch domainErr.Code {
		case model.ErrCodeProductNotFound, model.ErrCodeNoPriceData:
			status = http.StatusNotFound
		}
		writeError(w, r, status, domainErr.Code, domainErr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("unexpected service error")
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}
