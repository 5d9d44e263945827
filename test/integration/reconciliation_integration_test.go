package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"pricesync/internal/model"
	"pricesync/internal/omega"
	"pricesync/internal/repository"
	"pricesync/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vendorKey = "abc123key"

func newReconciler(t *testing.T, testDB *TestDB, vendor *FakeOmega, apiKey string) service.ReconciliationService {
	t.Helper()

	logger := zerolog.Nop()
	client, err := omega.NewClient(apiKey,
		omega.WithBaseURL(vendor.Server.URL),
		omega.WithTimeout(5*time.Second),
		omega.WithLogger(logger),
	)
	require.NoError(t, err)

	return service.NewReconciliationService(
		client,
		repository.NewProductRepository(testDB.Pool, logger),
		repository.NewPriceRepository(testDB.Pool, logger),
		logger,
	)
}

func syncOn(ctx context.Context, svc service.ReconciliationService, end time.Time, mode string) (*model.SyncResult, error) {
	return svc.UpdateProducts(ctx, service.UpdateOptions{EndDate: &end, Mode: mode})
}

func TestReconciliation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	vendor := NewFakeOmega(t, vendorKey)
	svc := newReconciler(t, testDB, vendor, vendorKey)
	prices := repository.NewPriceRepository(testDB.Pool, zerolog.Nop())
	products := repository.NewProductRepository(testDB.Pool, zerolog.Nop())
	ctx := context.Background()

	february := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	march := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	currentPrice := func(t *testing.T, id int) *model.PriceRecord {
		t.Helper()
		p, err := products.GetByVendorID(ctx, VendorID(id))
		require.NoError(t, err)
		require.NotNil(t, p)
		price, err := prices.MostRecent(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, price)
		return price
	}

	t.Run("First run creates every product with one price", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		result, err := syncOn(ctx, svc, february, "")

		require.NoError(t, err)
		assert.Equal(t, 3, result.Records)
		assert.Equal(t, 3, result.Created)
		assert.Equal(t, 3, result.Appended)
		assert.Equal(t, 3, CountPrices(t, testDB.Pool))
		assert.Equal(t, int64(3599), currentPrice(t, LampID).Price)

		requests := vendor.Requests()
		last := requests[len(requests)-1]
		assert.Equal(t, "2024-02-01", last.StartDate)
		assert.Equal(t, "2024-02-29", last.EndDate)
	})

	t.Run("Repeating a period is a no-op", func(t *testing.T) {
		result, err := syncOn(ctx, svc, february, "")

		require.NoError(t, err)
		assert.Equal(t, 0, result.Appended)
		assert.Equal(t, 3, result.Unchanged)
		assert.Equal(t, 3, CountPrices(t, testDB.Pool))
	})

	t.Run("Unchanged prices in a new period append nothing", func(t *testing.T) {
		result, err := syncOn(ctx, svc, march, "")

		require.NoError(t, err)
		assert.Equal(t, 0, result.Appended)
		assert.Equal(t, 3, CountPrices(t, testDB.Pool))
	})

	t.Run("A price change appends one record with its percentage", func(t *testing.T) {
		vendor.SetPrice(ChairID, "$100.00")
		defer vendor.SetPrice(ChairID, "$50.00")

		result, err := syncOn(ctx, svc, march, "")

		require.NoError(t, err)
		assert.Equal(t, 1, result.Appended)
		assert.Equal(t, 4, CountPrices(t, testDB.Pool))

		price := currentPrice(t, ChairID)
		assert.Equal(t, int64(10000), price.Price)
		assert.InDelta(t, 100.0, price.PercentageChange, 0.0001)
		assert.Equal(t, march, price.VendorDate.UTC())
	})

	t.Run("Name change aborts the run", func(t *testing.T) {
		vendor.SetPrice(TableID, "$130.00")
		defer vendor.SetPrice(TableID, "$120.00")
		before := CountPrices(t, testDB.Pool)

		result, err := syncOn(ctx, svc, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), "name_change")

		require.Error(t, err)
		assert.Nil(t, result)

		var conflict *model.NameConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, VendorID(ChairID), conflict.VendorID)
		assert.Equal(t, "Fancy Chair", conflict.StoredName)
		assert.Equal(t, "Irregular Chair", conflict.VendorName)

		// The chair is first, so nothing after it was written.
		assert.Equal(t, before, CountPrices(t, testDB.Pool))
		assert.Equal(t, int64(12000), currentPrice(t, TableID).Price)
	})

	t.Run("New product is created", func(t *testing.T) {
		result, err := syncOn(ctx, svc, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), "new_product")

		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 1, result.Appended)
		assert.Equal(t, int64(49999), currentPrice(t, XboxID).Price)
	})

	t.Run("Three fiddy", func(t *testing.T) {
		result, err := syncOn(ctx, svc, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), "three_fiddy")

		require.NoError(t, err)
		assert.Equal(t, 1, result.Appended)

		price := currentPrice(t, ChairID)
		assert.Equal(t, int64(350), price.Price)
		assert.InDelta(t, -96.5, price.PercentageChange, 0.0001)
	})

	t.Run("No results", func(t *testing.T) {
		_, err := syncOn(ctx, svc, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), "no_results")

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNoPriceData)
		assert.Equal(t, model.ErrCodeNoPriceData, model.ErrorCode(err))
	})

	t.Run("Rejected credentials surface as a transport error", func(t *testing.T) {
		bad := newReconciler(t, testDB, vendor, "wrong-key")

		_, err := syncOn(ctx, bad, march, "")

		require.Error(t, err)
		var transportErr *model.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusForbidden, transportErr.StatusCode)
	})
}

func TestReconciliation_ConcurrentRuns_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	vendor := NewFakeOmega(t, vendorKey)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	const runs = 4
	services := make([]service.ReconciliationService, runs)
	for i := range services {
		services[i] = newReconciler(t, testDB, vendor, vendorKey)
	}
	errs := make([]error, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = syncOn(context.Background(), services[i], end, "")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	var productCount int
	err := testDB.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM products").Scan(&productCount)
	require.NoError(t, err)
	assert.Equal(t, 3, productCount)
	assert.Equal(t, 3, CountPrices(t, testDB.Pool))
}
