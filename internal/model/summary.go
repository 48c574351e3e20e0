package model

import "time"

// LoadSummary captures metrics from a single fee-schedule file load.
type LoadSummary struct {
	FilePath    string
	FileSHA256  string
	FeeFileID   int64
	LoadBatchID string

	RowsRead    int64
	RowsStaged  int64
	RowsSkipped int64

	LocalityRowsUpserted int64
	BaselineRowsUpserted int64
	CodesUpserted        int64
	DescriptionsInserted int64
	MetaRowsInserted     int64

	DurationStage   time.Duration
	DurationPromote time.Duration
	DurationTotal   time.Duration
}
