package repository

import (
	"context"
	"errors"

	"pricesync/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetByVendorID retrieves a product by its vendor identifier.
	// Returns nil, nil when no product exists.
	GetByVendorID(ctx context.Context, vendorID string) (*model.Product, error)

	// Create inserts a product. If another writer created the same vendor id first,
	// the existing row is returned unchanged.
	Create(ctx context.Context, vendorID, name string) (*model.Product, error)

	// GetAll retrieves products with their current price, with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.CatalogEntry, error)
}

// PriceRepository defines the interface for price history access operations.
type PriceRepository interface {
	// MostRecent retrieves the price with the latest vendor date for a product.
	// Returns nil, nil when the product has no prices.
	MostRecent(ctx context.Context, productID int64) (*model.PriceRecord, error)

	// Append inserts a new price record.
	// Returns model.ErrDuplicatePrice if the product already has a price for that vendor date.
	Append(ctx context.Context, price *model.PriceRecord) error

	// ListByProduct retrieves a product's price history, newest vendor date first.
	ListByProduct(ctx context.Context, productID int64) ([]model.PriceRecord, error)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
