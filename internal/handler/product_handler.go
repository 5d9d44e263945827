package handler

import (
	"net/http"
	"strconv"

	"pricesync/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalogue HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// GetAll handles GET /api/products requests with pagination.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	limit, ok := h.intParam(w, r, "limit", 10)
	if !ok {
		return
	}
	offset, ok := h.intParam(w, r, "offset", 0)
	if !ok {
		return
	}

	entries, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// GetByVendorID handles GET /api/products/{vendorId} requests.
func (h *ProductHandler) GetByVendorID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	vendorID := r.PathValue("vendorId")
	if vendorID == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "vendor ID is required", h.logger)
		return
	}

	history, err := h.service.GetByVendorID(r.Context(), vendorID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// intParam parses an optional integer query parameter, writing a 400 on failure.
func (h *ProductHandler) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid "+name+" parameter", h.logger)
		return 0, false
	}
	return v, true
}
