// Package snapshot replays archived vendor price payloads.
//
// A snapshot is the vendor's JSON envelope, gzip-compressed, stored on local disk or in S3.
package snapshot

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"pricesync/internal/omega"
)

// Loader defines the interface for loading snapshot files.
type Loader interface {
	// Load reads a gzipped snapshot and returns the decoded payload.
	Load(ctx context.Context, path string) (*omega.Payload, error)
}

// decode gunzips r and decodes the vendor envelope inside it.
func decode(ctx context.Context, r io.Reader, name string) (*omega.Payload, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
	}
	defer gzipReader.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := omega.DecodePayload(gzipReader)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}

	return payload, nil
}
