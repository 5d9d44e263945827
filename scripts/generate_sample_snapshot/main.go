// generate_sample_snapshot writes gzipped vendor payloads for replay with `pricesync sync --snapshot`.
//
// Usage:
//
//	go run ./scripts/generate_sample_snapshot [output-dir]
package main

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

type record struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Category     string `json:"category"`
	Discontinued bool   `json:"discontinued"`
}

type envelope struct {
	PeriodStart    string   `json:"period_start"`
	PeriodEnd      string   `json:"period_end"`
	ProductRecords []record `json:"productRecords"`
}

// Three consecutive periods:
// January establishes prices, February changes the chair and adds a discontinued stool
// (never created), March renames the table and must abort.
var periods = []struct {
	end     time.Time
	records []record
}{
	{
		end: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		records: []record{
			{ID: 123456, Name: "Fancy Chair", Price: "$50.00", Category: "chair"},
			{ID: 234567, Name: "Wood Table", Price: "$120.00", Category: "table"},
			{ID: 345678, Name: "Floor Lamp", Price: "$35.99", Category: "lamp"},
		},
	},
	{
		end: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		records: []record{
			{ID: 123456, Name: "Fancy Chair", Price: "$100.00", Category: "chair"},
			{ID: 234567, Name: "Wood Table", Price: "$120.00", Category: "table"},
			{ID: 345678, Name: "Floor Lamp", Price: "$35.99", Category: "lamp"},
			{ID: 999999, Name: "Stool", Price: "$900.00", Category: "stool", Discontinued: true},
		},
	},
	{
		end: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		records: []record{
			{ID: 123456, Name: "Fancy Chair", Price: "$100.00", Category: "chair"},
			{ID: 234567, Name: "Oak Table", Price: "$125.00", Category: "table"},
			{ID: 345678, Name: "Floor Lamp", Price: "$29.99", Category: "lamp"},
		},
	},
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	dataDir := "data/snapshots"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", dataDir).Msg("failed to create directory")
	}

	for _, p := range periods {
		start := time.Date(p.end.Year(), p.end.Month(), 1, 0, 0, 0, 0, time.UTC)
		path := filepath.Join(dataDir, p.end.Format(time.DateOnly)+".json.gz")

		if err := write(path, envelope{
			PeriodStart:    start.Format(time.DateOnly),
			PeriodEnd:      p.end.Format(time.DateOnly),
			ProductRecords: p.records,
		}); err != nil {
			logger.Fatal().Err(err).Str("file", path).Msg("failed to write snapshot")
		}

		logger.Info().Str("file", path).Int("records", len(p.records)).Msg("snapshot written")
	}
}

func write(path string, payload envelope) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	if err := json.NewEncoder(gzipWriter).Encode(payload); err != nil {
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		return err
	}
	return file.Close()
}
