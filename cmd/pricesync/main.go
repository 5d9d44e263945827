// pricesync reconciles Omega vendor price snapshots against the product catalogue.
//
// Usage:
//
//	pricesync sync [--end-date YYYY-MM-DD] [--demo MODE] [--snapshot PATH]
//	pricesync migrate
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricesync/internal/config"
	"pricesync/internal/database"
	"pricesync/internal/model"
	"pricesync/internal/omega"
	"pricesync/internal/repository"
	"pricesync/internal/service"
	"pricesync/internal/snapshot"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const appName = "pricesync"

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

var version = "dev"

// configError marks failures caused by invalid configuration or arguments.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.RunContext(ctx, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}
	return exitFailure
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "Reconcile Omega vendor price snapshots against the product catalogue",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are decided by run.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			syncCommand(stdout, stderr),
			migrateCommand(stderr),
		},
	}
}

func syncCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch the vendor snapshot for a period and record price changes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "Period end date (YYYY-MM-DD); defaults to today in UTC",
			},
			&cli.StringFlag{
				Name:    "demo",
				Usage:   "Vendor demo mode (name_change, new_product, three_fiddy, no_results)",
				EnvVars: []string{"VENDOR_DEMO_MODE"},
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Replay a gzipped vendor payload (local path, or key under S3_PREFIX when S3 is enabled)",
			},
		},
		Action: func(c *cli.Context) error {
			return runSync(c.Context, c, stdout, stderr)
		},
	}
}

func migrateCommand(stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the catalogue schema",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return &configError{err: err}
			}
			logger := config.NewLogger(cfg.Logger, appName, stderr)

			pool, err := database.NewPool(c.Context, cfg.Database, appName, logger)
			if err != nil {
				return fmt.Errorf("failed to initialise database: %w", err)
			}
			defer pool.Close()

			if err := repository.EnsureSchema(c.Context, pool); err != nil {
				return err
			}
			logger.Info().Msg("schema is up to date")
			return nil
		},
	}
}

// parseEndDate parses the --end-date flag. An empty value means today.
func parseEndDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	end, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, &configError{err: fmt.Errorf("invalid --end-date %q: expected YYYY-MM-DD", value)}
	}
	return &end, nil
}

func runSync(ctx context.Context, c *cli.Context, stdout, stderr io.Writer) error {
	endDate, err := parseEndDate(c.String("end-date"))
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return &configError{err: err}
	}
	snapshotPath := c.String("snapshot")
	if snapshotPath == "" {
		if err := cfg.Vendor.Validate(); err != nil {
			return &configError{err: err}
		}
	}

	logger := config.NewLogger(cfg.Logger, appName, stderr)

	pool, err := database.NewPool(ctx, cfg.Database, appName, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise database: %w", err)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	source, err := newPriceSource(ctx, cfg, snapshotPath, logger)
	if err != nil {
		return err
	}

	svc := service.NewReconciliationService(
		source,
		repository.NewProductRepository(pool, logger),
		repository.NewPriceRepository(pool, logger),
		logger,
		service.WithRadix(cfg.Vendor.RadixRune()),
	)

	result, err := svc.UpdateProducts(ctx, service.UpdateOptions{
		EndDate: endDate,
		Mode:    c.String("demo"),
	})
	if err != nil {
		return err
	}

	return writeResult(stdout, result)
}

// newPriceSource returns the live vendor client, or a snapshot replay when path is set.
func newPriceSource(ctx context.Context, cfg *config.Config, path string, logger zerolog.Logger) (service.PriceSource, error) {
	if path == "" {
		client, err := omega.NewClient(cfg.Vendor.APIKey,
			omega.WithBaseURL(cfg.Vendor.BaseURL),
			omega.WithHTTPClient(omega.NewHTTPClient(cfg.Vendor.Timeout())),
			omega.WithTimeout(cfg.Vendor.Timeout()),
			omega.WithLogger(logger),
		)
		if err != nil {
			return nil, &configError{err: err}
		}
		return client, nil
	}

	fileLoader := snapshot.NewFileLoader(logger)
	var s3Loader snapshot.Loader
	if cfg.S3.Enabled {
		loader, err := snapshot.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = loader
		}
	}

	loader := snapshot.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)
	return snapshot.NewSource(loader, path, logger), nil
}

// syncOutput is the JSON document printed after a successful run.
type syncOutput struct {
	*model.SyncResult
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	DurationMS  int64  `json:"durationMs"`
}

func writeResult(w io.Writer, result *model.SyncResult) error {
	out := syncOutput{
		SyncResult:  result,
		PeriodStart: result.PeriodStart.Format(time.DateOnly),
		PeriodEnd:   result.PeriodEnd.Format(time.DateOnly),
		DurationMS:  result.Duration.Milliseconds(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
