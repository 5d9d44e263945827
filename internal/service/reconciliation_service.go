package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricesync/internal/currency"
	"pricesync/internal/model"
	"pricesync/internal/omega"
	"pricesync/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeAppended
	outcomeUnchanged
)

// reconciliationService implements ReconciliationService.
type reconciliationService struct {
	source      PriceSource
	productRepo repository.ProductRepository
	priceRepo   repository.PriceRepository
	radix       rune
	now         func() time.Time
	logger      zerolog.Logger
}

// ReconciliationOption configures a reconciliation service.
type ReconciliationOption func(*reconciliationService)

// WithClock sets the clock used for the default end date and run duration.
func WithClock(now func() time.Time) ReconciliationOption {
	return func(s *reconciliationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRadix sets the decimal separator used to parse vendor prices.
func WithRadix(radix rune) ReconciliationOption {
	return func(s *reconciliationService) {
		if radix != 0 {
			s.radix = radix
		}
	}
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(
	source PriceSource,
	productRepo repository.ProductRepository,
	priceRepo repository.PriceRepository,
	logger zerolog.Logger,
	options ...ReconciliationOption,
) ReconciliationService {
	s := &reconciliationService{
		source:      source,
		productRepo: productRepo,
		priceRepo:   priceRepo,
		radix:       currency.DefaultRadix,
		now:         time.Now,
		logger:      logger.With().Str("service", "reconciliation").Logger(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// UpdateProducts runs one reconciliation. Records are processed in vendor order and the
// first failing record stops the run; writes made before it are kept.
func (s *reconciliationService) UpdateProducts(ctx context.Context, opts UpdateOptions) (*model.SyncResult, error) {
	started := s.now()
	runID := uuid.New()

	end := calendarDate(started.UTC())
	if opts.EndDate != nil {
		end = *opts.EndDate
	}
	start, end := RequestPeriod(end)

	log := s.logger.With().
		Str("run_id", runID.String()).
		Str("end_date", end.Format(time.DateOnly)).
		Logger()

	fail := func(err error) (*model.SyncResult, error) {
		log.Error().Err(err).Str("code", model.ErrorCode(err)).Msg("reconciliation aborted")
		return nil, &model.ReconciliationError{RunID: runID, EndDate: end, Err: err}
	}

	log.Info().
		Str("period_start", start.Format(time.DateOnly)).
		Str("mode", opts.Mode).
		Msg("starting reconciliation")

	records, err := s.source.GetPrices(ctx, start, end, opts.Mode)
	if err != nil {
		return fail(err)
	}
	if len(records) == 0 {
		return fail(model.ErrNoPriceData)
	}

	result := &model.SyncResult{
		RunID:       runID,
		PeriodStart: start,
		PeriodEnd:   end,
		Records:     len(records),
	}

	for _, record := range records {
		out, created, err := s.reconcileRecord(ctx, record, end, log)
		if err != nil {
			return fail(err)
		}
		if created {
			result.Created++
		}
		switch out {
		case outcomeSkipped:
			result.Skipped++
		case outcomeAppended:
			result.Appended++
		case outcomeUnchanged:
			result.Unchanged++
		}
	}

	result.Duration = s.now().Sub(started)

	log.Info().
		Int("records", result.Records).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("appended", result.Appended).
		Int("unchanged", result.Unchanged).
		Dur("duration", result.Duration).
		Msg("reconciliation complete")

	return result, nil
}

// reconcileRecord applies a single vendor record to the catalogue.
func (s *reconciliationService) reconcileRecord(
	ctx context.Context,
	record omega.Record,
	end time.Time,
	log zerolog.Logger,
) (outcome, bool, error) {
	cents, priceErr := record.PriceCents(s.radix)

	product, created, err := s.findOrCreate(ctx, record, priceErr, log)
	if err != nil {
		return outcomeSkipped, false, err
	}
	if product == nil {
		log.Debug().Str("vendor_id", record.ExternalID()).Msg("skipping discontinued product")
		return outcomeSkipped, false, nil
	}

	if err := ValidateProductName(product, record.Name()); err != nil {
		return outcomeSkipped, created, err
	}

	if priceErr != nil {
		return outcomeSkipped, created, priceErr
	}

	out, err := s.updatePrice(ctx, product, cents, end, log)
	return out, created, err
}

// findOrCreate returns the stored product for the record, creating it unless the record is
// discontinued. A nil product means the record is skipped. A product is never created for a
// record whose price failed to parse (priceErr).
func (s *reconciliationService) findOrCreate(
	ctx context.Context,
	record omega.Record,
	priceErr error,
	log zerolog.Logger,
) (*model.Product, bool, error) {
	vendorID := record.ExternalID()

	product, err := s.productRepo.GetByVendorID(ctx, vendorID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up product [%s]: %w", vendorID, err)
	}

	if product != nil {
		if record.Discontinued() {
			// TODO: decide whether discontinued products should stop receiving price updates.
			log.Warn().
				Str("vendor_id", vendorID).
				Int64("product_id", product.ID).
				Msg("discontinued product is already catalogued; price still reconciled")
		}
		return product, false, nil
	}

	if record.Discontinued() {
		return nil, false, nil
	}

	if priceErr != nil {
		return nil, false, priceErr
	}

	product, err = s.productRepo.Create(ctx, vendorID, record.Name())
	if err != nil {
		return nil, false, fmt.Errorf("failed to create product [%s]: %w", vendorID, err)
	}

	log.Info().
		Str("vendor_id", vendorID).
		Int64("product_id", product.ID).
		Str("name", product.Name).
		Msg("product created")

	return product, true, nil
}

// updatePrice appends a price record when both the price and the vendor date differ from the
// most recent entry.
func (s *reconciliationService) updatePrice(
	ctx context.Context,
	product *model.Product,
	cents int64,
	end time.Time,
	log zerolog.Logger,
) (outcome, error) {
	previous, err := s.priceRepo.MostRecent(ctx, product.ID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("failed to read price of product [%s]: %w", product.VendorID, err)
	}

	var oldCents int64
	if previous != nil {
		if previous.Price == cents || calendarDate(previous.VendorDate).Equal(end) {
			return outcomeUnchanged, nil
		}
		oldCents = previous.Price
	}

	price := &model.PriceRecord{
		ProductID:        product.ID,
		Price:            cents,
		PercentageChange: PercentPriceChange(oldCents, cents),
		VendorDate:       end,
	}

	if err := s.priceRepo.Append(ctx, price); err != nil {
		if errors.Is(err, model.ErrDuplicatePrice) {
			log.Debug().Str("vendor_id", product.VendorID).Msg("price already recorded by another run")
			return outcomeUnchanged, nil
		}
		return outcomeSkipped, fmt.Errorf("failed to append price of product [%s]: %w", product.VendorID, err)
	}

	log.Debug().
		Str("vendor_id", product.VendorID).
		Int64("price", cents).
		Float64("percentage_change", price.PercentageChange).
		Msg("price appended")

	return outcomeAppended, nil
}

// RequestPeriod returns the vendor request window for end: the first day of its month
// through end itself, both as UTC calendar dates.
func RequestPeriod(end time.Time) (time.Time, time.Time) {
	end = calendarDate(end)
	return time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC), end
}

// PercentPriceChange returns the change from oldCents to newCents in percent, rounded to
// four places. It is 0 when either price is zero.
func PercentPriceChange(oldCents, newCents int64) float64 {
	if oldCents == 0 || newCents == 0 {
		return 0
	}
	return decimal.NewFromInt(newCents - oldCents).
		Div(decimal.NewFromInt(oldCents)).
		Mul(decimal.NewFromInt(100)).
		Round(4).
		InexactFloat64()
}

// ValidateProductName returns a *model.NameConflictError when the vendor reports a
// different name for a stored product.
func ValidateProductName(product *model.Product, vendorName string) error {
	if product.Name != vendorName {
		return &model.NameConflictError{
			VendorID:   product.VendorID,
			StoredName: product.Name,
			VendorName: vendorName,
		}
	}
	return nil
}

// calendarDate truncates t to midnight UTC of its calendar day.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
