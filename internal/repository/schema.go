package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the catalogue DDL. Statements are idempotent so it can be applied on every start.
// The unique constraints are what make concurrent reconciliation runs safe.
const Schema = `
	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT products_vendor_id_key UNIQUE (vendor_id)
	);

	CREATE TABLE IF NOT EXISTS product_prices (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		price BIGINT NOT NULL CHECK (price >= 0),
		percentage_change DOUBLE PRECISION NOT NULL DEFAULT 0,
		vendor_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT product_prices_product_id_vendor_date_key UNIQUE (product_id, vendor_date)
	);

	ALTER TABLE product_prices ALTER COLUMN percentage_change TYPE DOUBLE PRECISION;

	CREATE INDEX IF NOT EXISTS idx_product_prices_vendor_date ON product_prices(vendor_date);
`

// EnsureSchema applies Schema to the database behind pool.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
