package snapshot

import (
	"context"
	"fmt"
	"os"

	"pricesync/internal/omega"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped snapshots from the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based snapshot loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "snapshot-loader").Logger(),
	}
}

// Load reads a gzipped snapshot file.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*omega.Payload, error) {
	l.logger.Info().Str("file", filePath).Msg("loading snapshot file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open snapshot file")
		return nil, fmt.Errorf("failed to open snapshot file %s: %w", filePath, err)
	}
	defer file.Close()

	payload, err := decode(ctx, file, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to decode snapshot file")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("records_loaded", len(payload.Records)).
		Msg("snapshot file loaded successfully")

	return payload, nil
}
