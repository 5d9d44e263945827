package service

import (
	"context"
	"fmt"

	"pricesync/internal/model"
	"pricesync/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	priceRepo   repository.PriceRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	priceRepo repository.PriceRepository,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		priceRepo:   priceRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves products with their current price, with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.CatalogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(entries)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return entries, nil
}

// GetByVendorID retrieves a product and its price history, newest first.
func (s *productService) GetByVendorID(ctx context.Context, vendorID string) (*model.ProductHistory, error) {
	if vendorID == "" {
		s.logger.Warn().Msg("vendor ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByVendorID(ctx, vendorID)
	if err != nil {
		s.logger.Error().Err(err).Str("vendor_id", vendorID).Msg("failed to get product by vendor ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("vendor_id", vendorID).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	prices, err := s.priceRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to get price history")
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}

	return &model.ProductHistory{Product: *product, Prices: prices}, nil
}
