package snapshot

import (
	"context"
	"time"

	"pricesync/internal/model"
	"pricesync/internal/omega"

	"github.com/rs/zerolog"
)

// Source serves vendor records from a single snapshot instead of the live vendor.
type Source struct {
	loader Loader
	path   string
	logger zerolog.Logger
}

// NewSource creates a price source that replays the snapshot at path.
func NewSource(loader Loader, path string, logger zerolog.Logger) *Source {
	return &Source{
		loader: loader,
		path:   path,
		logger: logger.With().Str("component", "snapshot-source").Logger(),
	}
}

// GetPrices returns the snapshot's records. The period and mode are only checked against the
// snapshot's own period and logged.
func (s *Source) GetPrices(ctx context.Context, start, end time.Time, mode string) ([]omega.Record, error) {
	payload, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return nil, err
	}

	if payload.PeriodEnd != "" && payload.PeriodEnd != end.Format(time.DateOnly) {
		s.logger.Warn().
			Str("snapshot_period_end", payload.PeriodEnd).
			Str("end_date", end.Format(time.DateOnly)).
			Msg("snapshot period differs from requested period")
	}
	if mode != "" {
		s.logger.Debug().Str("mode", mode).Msg("mode is ignored for snapshots")
	}

	if len(payload.Records) == 0 {
		s.logger.Warn().Str("path", s.path).Msg("snapshot contains no price records")
		return nil, model.ErrNoPriceData
	}

	return payload.Records, nil
}
