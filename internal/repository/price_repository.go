package repository

import (
	"context"
	"errors"
	"fmt"

	"pricesync/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// priceRepository implements the PriceRepository interface using PostgreSQL.
type priceRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPriceRepository creates a new PostgreSQL-backed price history repository.
func NewPriceRepository(pool *pgxpool.Pool, logger zerolog.Logger) PriceRepository {
	return &priceRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "price").Logger(),
	}
}

// MostRecent retrieves the price with the greatest vendor date.
func (r *priceRepository) MostRecent(ctx context.Context, productID int64) (*model.PriceRecord, error) {
	query := `
		SELECT id, product_id, price, percentage_change, vendor_date, created_at
		FROM product_prices
		WHERE product_id = $1
		ORDER BY vendor_date DESC
		LIMIT 1
	`

	var p model.PriceRecord
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&p.ID, &p.ProductID, &p.Price, &p.PercentageChange, &p.VendorDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query most recent price")
		return nil, fmt.Errorf("failed to query most recent price: %w", err)
	}

	return &p, nil
}

// Append inserts price and fills in its generated ID and CreatedAt.
func (r *priceRepository) Append(ctx context.Context, price *model.PriceRecord) error {
	query := `
		INSERT INTO product_prices (product_id, price, percentage_change, vendor_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		price.ProductID,
		price.Price,
		price.PercentageChange,
		price.VendorDate,
	).Scan(&price.ID, &price.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug().
				Int64("product_id", price.ProductID).
				Time("vendor_date", price.VendorDate).
				Msg("price already recorded for vendor date")
			return model.ErrDuplicatePrice
		}
		r.logger.Error().Err(err).Int64("product_id", price.ProductID).Msg("failed to append price")
		return fmt.Errorf("failed to append price: %w", err)
	}

	return nil
}

// ListByProduct retrieves the full price history for a product, newest first.
func (r *priceRepository) ListByProduct(ctx context.Context, productID int64) ([]model.PriceRecord, error) {
	query := `
		SELECT id, product_id, price, percentage_change, vendor_date, created_at
		FROM product_prices
		WHERE product_id = $1
		ORDER BY vendor_date DESC
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query price history")
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	prices := []model.PriceRecord{}
	for rows.Next() {
		var p model.PriceRecord
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Price, &p.PercentageChange, &p.VendorDate, &p.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan price row")
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating price rows")
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return prices, nil
}
