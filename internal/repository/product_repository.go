package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricesync/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetByVendorID retrieves a single product by its vendor identifier.
func (r *productRepository) GetByVendorID(ctx context.Context, vendorID string) (*model.Product, error) {
	query := `
		SELECT id, vendor_id, name, created_at, updated_at
		FROM products
		WHERE vendor_id = $1
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, vendorID).Scan(&p.ID, &p.VendorID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("vendor_id", vendorID).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("vendor_id", vendorID).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Create inserts a product, or returns the stored row when the vendor id already exists.
// The no-op update makes RETURNING yield the existing row on conflict.
func (r *productRepository) Create(ctx context.Context, vendorID, name string) (*model.Product, error) {
	query := `
		INSERT INTO products (vendor_id, name)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT products_vendor_id_key
		DO UPDATE SET vendor_id = EXCLUDED.vendor_id
		RETURNING id, vendor_id, name, created_at, updated_at
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, vendorID, name).Scan(&p.ID, &p.VendorID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("vendor_id", vendorID).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().
		Int64("product_id", p.ID).
		Str("vendor_id", p.VendorID).
		Msg("product stored")

	return &p, nil
}

// GetAll retrieves products ordered by name, each with its most recent price.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.CatalogEntry, error) {
	query := `
		SELECT p.id, p.vendor_id, p.name, p.created_at, p.updated_at,
		       pp.id, pp.price, pp.percentage_change, pp.vendor_date, pp.created_at
		FROM products p
		LEFT JOIN LATERAL (
			SELECT id, price, percentage_change, vendor_date, created_at
			FROM product_prices
			WHERE product_id = p.id
			ORDER BY vendor_date DESC
			LIMIT 1
		) pp ON TRUE
		ORDER BY p.name, p.id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	entries := []model.CatalogEntry{}
	for rows.Next() {
		var (
			e        model.CatalogEntry
			priceID  *int64
			price    *int64
			change   *float64
			date     *time.Time
			recorded *time.Time
		)
		err := rows.Scan(
			&e.ID, &e.VendorID, &e.Name, &e.CreatedAt, &e.UpdatedAt,
			&priceID, &price, &change, &date, &recorded,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if priceID != nil {
			e.CurrentPrice = &model.PriceRecord{
				ID:               *priceID,
				ProductID:        e.ID,
				Price:            *price,
				PercentageChange: *change,
				VendorDate:       *date,
				CreatedAt:        *recorded,
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return entries, nil
}
