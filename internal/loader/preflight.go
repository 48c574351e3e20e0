package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/carecost/internal/normalize"
)

// PreflightResult holds the context resolved before staging a file.
type PreflightResult struct {
	FilePath      string
	FileSHA256    string
	FileSize      int64
	FeeFileID     int64
	AlreadyLoaded bool
}

// Preflight hashes the file and registers it in ingest.fee_files. A file whose
// sha256 is already registered with status "promoted" is skipped unless force
// is set; any other prior status is reset to pending for a re-run.
func Preflight(ctx context.Context, pool *pgxpool.Pool, schedule, filePath string, cy int, version string, force bool) (*PreflightResult, error) {
	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	var cyVal *int
	if cy != 0 {
		cyVal = &cy
	}

	var feeFileID int64
	err = pool.QueryRow(ctx,
		`INSERT INTO ingest.fee_files (source_file_name, source_file_sha256, schedule, cy, version, file_size_bytes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (source_file_sha256) DO NOTHING
		 RETURNING fee_file_id`,
		filepath.Base(filePath), sha, schedule, cyVal, normalize.NilIfEmpty(version), stat.Size(),
	).Scan(&feeFileID)

	if errors.Is(err, pgx.ErrNoRows) {
		// Already registered; decide whether to skip or reset.
		var status string
		err = pool.QueryRow(ctx,
			`SELECT fee_file_id, status FROM ingest.fee_files WHERE source_file_sha256 = $1`,
			sha,
		).Scan(&feeFileID, &status)
		if err != nil {
			return nil, fmt.Errorf("lookup existing fee_file: %w", err)
		}

		if !force && status == "promoted" {
			return &PreflightResult{
				FilePath:      filePath,
				FileSHA256:    sha,
				FileSize:      stat.Size(),
				FeeFileID:     feeFileID,
				AlreadyLoaded: true,
			}, nil
		}

		if err := UpdateStatus(ctx, pool, feeFileID, "pending"); err != nil {
			return nil, fmt.Errorf("reset fee_file status: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("register fee_file: %w", err)
	}

	return &PreflightResult{
		FilePath:   filePath,
		FileSHA256: sha,
		FileSize:   stat.Size(),
		FeeFileID:  feeFileID,
	}, nil
}

// UpdateStatus updates the fee_files status.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, feeFileID int64, status string) error {
	_, err := pool.Exec(ctx,
		`UPDATE ingest.fee_files SET status = $2 WHERE fee_file_id = $1`,
		feeFileID, status,
	)
	return err
}
