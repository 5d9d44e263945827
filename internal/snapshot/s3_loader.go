package snapshot

import (
	"context"
	"fmt"

	"pricesync/internal/omega"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the subset of the S3 client used by the loader.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for reading gzipped snapshots from AWS S3.
type s3Loader struct {
	client ObjectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based snapshot loader using the default AWS credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-snapshot-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 loader initialised")

	return NewS3LoaderWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewS3LoaderWithClient creates an S3 snapshot loader around an existing client.
func NewS3LoaderWithClient(client ObjectGetter, bucket string, logger zerolog.Logger) Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Load reads a gzipped snapshot from S3. key is the full object key, including any prefix.
func (l *s3Loader) Load(ctx context.Context, key string) (*omega.Payload, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading snapshot from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	payload, err := decode(ctx, result.Body, "s3://"+l.bucket+"/"+key)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to decode snapshot from S3")
		return nil, err
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("records_loaded", len(payload.Records)).
		Msg("snapshot loaded successfully from S3")

	return payload, nil
}

// fallbackLoader tries S3 first, then the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	logger     zerolog.Logger
	s3Enabled  bool
}

// NewFallbackLoader creates a loader that tries S3 first, then falls back to local file system.
// If s3Loader is nil, it will only use the file loader.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "fallback-loader").Logger(),
	}
}

// Load attempts S3 with s3Prefix prepended to path, then the local path as-is.
func (l *fallbackLoader) Load(ctx context.Context, path string) (*omega.Payload, error) {
	if l.s3Enabled && l.s3Loader != nil {
		s3Key := l.s3Prefix + path

		l.logger.Info().
			Str("s3_key", s3Key).
			Str("local_fallback", path).
			Msg("attempting to load from S3")

		payload, err := l.s3Loader.Load(ctx, s3Key)
		if err == nil {
			return payload, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", s3Key).
			Msg("failed to load from S3, falling back to local file system")
	} else {
		l.logger.Debug().
			Bool("s3_enabled", l.s3Enabled).
			Bool("has_s3_loader", l.s3Loader != nil).
			Msg("S3 disabled or not configured, using local file system")
	}

	return l.fileLoader.Load(ctx, path)
}
