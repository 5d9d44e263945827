package model

import (
	"time"

	"github.com/google/uuid"
)

// SyncResult summarises one reconciliation run.
type SyncResult struct {
	RunID       uuid.UUID     `json:"runId"`
	PeriodStart time.Time     `json:"periodStart"`
	PeriodEnd   time.Time     `json:"periodEnd"`
	Records     int           `json:"records"`
	Created     int           `json:"created"`
	Skipped     int           `json:"skipped"`
	Appended    int           `json:"appended"`
	Unchanged   int           `json:"unchanged"`
	Duration    time.Duration `json:"-"`
}
