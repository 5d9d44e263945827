package service

import (
	"context"
	"time"

	"pricesync/internal/model"
	"pricesync/internal/omega"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByVendorID(ctx context.Context, vendorID string) (*model.Product, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, vendorID, name string) (*model.Product, error) {
	args := m.Called(ctx, vendorID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.CatalogEntry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogEntry), args.Error(1)
}

// MockPriceRepository is a mock implementation of PriceRepository.
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) MostRecent(ctx context.Context, productID int64) (*model.PriceRecord, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PriceRecord), args.Error(1)
}

func (m *MockPriceRepository) Append(ctx context.Context, price *model.PriceRecord) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

func (m *MockPriceRepository) ListByProduct(ctx context.Context, productID int64) ([]model.PriceRecord, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceRecord), args.Error(1)
}

// MockPriceSource is a mock implementation of PriceSource.
type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) GetPrices(ctx context.Context, start, end time.Time, mode string) ([]omega.Record, error) {
	args := m.Called(ctx, start, end, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]omega.Record), args.Error(1)
}
