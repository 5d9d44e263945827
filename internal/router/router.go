// Package router assembles the catalogue API routes.
package router

import (
	"net/http"

	"pricesync/internal/handler"
	"pricesync/internal/middleware"

	"github.com/rs/zerolog"
)

const healthPath = "/health"

// Options configures the middleware around the routes.
type Options struct {
	APIKey        string
	AllowedOrigin string
	Logger        zerolog.Logger
}

// New returns the API handler: health probe plus the read-only catalogue endpoints.
func New(products *handler.ProductHandler, health *handler.HealthHandler, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(healthPath, health)
	mux.HandleFunc("/api/products", products.GetAll)
	mux.HandleFunc("/api/products/{$}", products.GetAll)
	mux.HandleFunc("/api/products/{vendorId}", products.GetByVendorID)

	return middleware.Chain(mux,
		middleware.Recovery(opts.Logger),
		middleware.RequestID,
		middleware.Logging(opts.Logger),
		middleware.CORS(opts.AllowedOrigin),
		middleware.APIKeyAuth(opts.APIKey, opts.Logger, healthPath),
	)
}
