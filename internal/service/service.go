package service

import (
	"context"
	"time"

	"pricesync/internal/model"
	"pricesync/internal/omega"
)

// PriceSource supplies vendor price records for a period.
// Implemented by omega.Client and snapshot.Source.
type PriceSource interface {
	GetPrices(ctx context.Context, start, end time.Time, mode string) ([]omega.Record, error)
}

// UpdateOptions controls a single reconciliation run.
type UpdateOptions struct {
	// EndDate is the period-end date. Nil means today.
	EndDate *time.Time

	// Mode is passed to the price source unchanged (the vendor's demo selector).
	Mode string
}

// ReconciliationService reconciles vendor price snapshots against the catalogue.
type ReconciliationService interface {
	// UpdateProducts fetches the vendor snapshot for the period ending at opts.EndDate and
	// records every genuine price change. Any failure is returned as *model.ReconciliationError.
	UpdateProducts(ctx context.Context, opts UpdateOptions) (*model.SyncResult, error)
}

// ProductService defines read operations over the catalogue.
type ProductService interface {
	// GetAll retrieves products with their current price, with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.CatalogEntry, error)

	// GetByVendorID retrieves a product and its price history by vendor identifier.
	GetByVendorID(ctx context.Context, vendorID string) (*model.ProductHistory, error)
}
