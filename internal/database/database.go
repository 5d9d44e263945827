// Package database opens the catalogue connection pool.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricesync/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool opens and pings a PostgreSQL pool tagged with the calling application's name.
// Statements are traced to logger at debug level.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, app string, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	if app != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = app
	}
	poolConfig.ConnConfig.Tracer = &queryTracer{logger: logger.With().Str("component", "database").Logger()}

	log := logger.With().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Logger()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error().Err(err).Msg("catalogue database unreachable")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Msg("connected to catalogue database")

	return pool, nil
}

type traceStartKey struct{}

type traceStart struct {
	sql   string
	start time.Time
}

// queryTracer logs every statement with its duration. Failed statements are logged at warn level.
type queryTracer struct {
	logger zerolog.Logger
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceStartKey{}, traceStart{sql: data.SQL, start: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	started, ok := ctx.Value(traceStartKey{}).(traceStart)
	if !ok {
		return
	}

	event := t.logger.Debug()
	if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
		event = t.logger.Warn().Err(data.Err)
	}

	event.
		Str("sql", started.sql).
		Str("command_tag", data.CommandTag.String()).
		Dur("duration", time.Since(started.start)).
		Msg("query")
}
