// Package loader implements the idempotent fee-schedule batch loads: CMS
// Physician Fee Schedule (PFS) locality files and the ALPHA-NUMERIC HCPCS
// release. Each load runs preflight → stage → promote → cleanup, with
// explicit per-table conflict-resolution rules in the promote phase.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/carecost/internal/config"
	"github.com/gyeh/carecost/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// RunPFS loads one or more PFS files for a calendar year. All files share one
// load batch so a single promote covers everything staged in this run.
func RunPFS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.LoadSummary, error) {
	totalStart := time.Now()
	batchID := uuid.New()

	summary := &model.LoadSummary{LoadBatchID: batchID.String()}

	for _, path := range cfg.FilePaths {
		log.Info().Str("file", path).Msg("starting preflight")
		pf, err := Preflight(ctx, pool, "pfs", path, cfg.CY, "", cfg.Force)
		if err != nil {
			return nil, &PipelineError{Phase: "preflight", Err: err}
		}
		if pf.AlreadyLoaded {
			log.Info().
				Int64("fee_file_id", pf.FeeFileID).
				Str("sha256", pf.FileSHA256).
				Msg("file already loaded, skipping (use --force to re-import)")
			continue
		}

		summary.FilePath = pf.FilePath
		summary.FileSHA256 = pf.FileSHA256
		summary.FeeFileID = pf.FeeFileID

		if err := UpdateStatus(ctx, pool, pf.FeeFileID, "staging"); err != nil {
			return nil, &PipelineError{Phase: "stage", Err: err}
		}
		res, err := StagePFS(ctx, pool, log, pf, batchID, int32(cfg.CY))
		if err != nil {
			_ = UpdateStatus(ctx, pool, pf.FeeFileID, "failed")
			return nil, &PipelineError{Phase: "stage", Err: err}
		}
		if err := UpdateStatus(ctx, pool, pf.FeeFileID, "staged"); err != nil {
			return nil, &PipelineError{Phase: "stage", Err: err}
		}

		summary.RowsRead += res.RowsRead
		summary.RowsStaged += res.RowsStaged
		summary.RowsSkipped += res.RowsSkipped
		summary.DurationStage += res.Duration
	}

	if cfg.Promote && summary.RowsStaged > 0 {
		log.Info().Str("baseline_mode", cfg.BaselineMode).Msg("promoting fees")
		promoteStart := time.Now()
		localityRows, baselineRows, err := PromotePFS(ctx, pool, log, batchID, cfg.BaselineMode)
		if err != nil {
			markBatchFailed(ctx, pool, log, batchID)
			return nil, &PipelineError{Phase: "promote", Err: err}
		}
		summary.LocalityRowsUpserted = localityRows
		summary.BaselineRowsUpserted = baselineRows
		summary.DurationPromote = time.Since(promoteStart)

		if err := markBatchPromoted(ctx, pool, batchID); err != nil {
			return nil, &PipelineError{Phase: "promote", Err: err}
		}
	}

	if !cfg.KeepStaging {
		log.Info().Msg("cleaning up staging")
		if err := CleanupPFS(ctx, pool, log, batchID); err != nil {
			log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
		}
	}

	summary.DurationTotal = time.Since(totalStart)

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_staged", summary.RowsStaged).
		Int64("rows_skipped", summary.RowsSkipped).
		Int64("locality_rows", summary.LocalityRowsUpserted).
		Int64("baseline_rows", summary.BaselineRowsUpserted).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("pfs load complete")

	return summary, nil
}

// RunHCPCS loads one ALPHA-NUMERIC HCPCS file at a release version and
// promotes it into the code catalog, descriptions, and meta tables.
func RunHCPCS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.LoadSummary, error) {
	totalStart := time.Now()
	batchID := uuid.New()
	path := cfg.FilePaths[0]

	log.Info().Str("file", path).Str("version", cfg.Version).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, "hcpcs", path, 0, cfg.Version, cfg.Force)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}
	if pf.AlreadyLoaded {
		log.Info().
			Int64("fee_file_id", pf.FeeFileID).
			Str("sha256", pf.FileSHA256).
			Msg("file already loaded, skipping (use --force to re-import)")
		return &model.LoadSummary{
			FilePath:      pf.FilePath,
			FileSHA256:    pf.FileSHA256,
			FeeFileID:     pf.FeeFileID,
			LoadBatchID:   batchID.String(),
			DurationTotal: time.Since(totalStart),
		}, nil
	}

	if err := UpdateStatus(ctx, pool, pf.FeeFileID, "staging"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}
	res, err := StageHCPCS(ctx, pool, log, pf, batchID)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.FeeFileID, "failed")
		return nil, &PipelineError{Phase: "stage", Err: err}
	}
	if err := UpdateStatus(ctx, pool, pf.FeeFileID, "staged"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	log.Info().Msg("promoting hcpcs catalog")
	promoteStart := time.Now()
	promoted, err := PromoteHCPCS(ctx, pool, log, batchID, cfg.Version)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.FeeFileID, "failed")
		return nil, &PipelineError{Phase: "promote", Err: err}
	}
	if err := UpdateStatus(ctx, pool, pf.FeeFileID, "promoted"); err != nil {
		return nil, &PipelineError{Phase: "promote", Err: err}
	}

	if !cfg.KeepStaging {
		log.Info().Msg("cleaning up staging")
		if err := CleanupHCPCS(ctx, pool, log, batchID); err != nil {
			log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
		}
	}

	summary := &model.LoadSummary{
		FilePath:             pf.FilePath,
		FileSHA256:           pf.FileSHA256,
		FeeFileID:            pf.FeeFileID,
		LoadBatchID:          batchID.String(),
		RowsRead:             res.RowsRead,
		RowsStaged:           res.RowsStaged,
		RowsSkipped:          res.RowsSkipped,
		CodesUpserted:        promoted.Codes,
		DescriptionsInserted: promoted.Descriptions,
		MetaRowsInserted:     promoted.Meta,
		DurationStage:        res.Duration,
		DurationPromote:      time.Since(promoteStart),
		DurationTotal:        time.Since(totalStart),
	}

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_staged", summary.RowsStaged).
		Int64("codes", summary.CodesUpserted).
		Int64("descriptions", summary.DescriptionsInserted).
		Int64("meta_rows", summary.MetaRowsInserted).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("hcpcs load complete")

	return summary, nil
}

func markBatchPromoted(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) error {
	_, err := pool.Exec(ctx,
		`UPDATE ingest.fee_files SET status = 'promoted'
		  WHERE fee_file_id IN (SELECT DISTINCT fee_file_id FROM ingest.stage_pfs_rows WHERE load_batch_id = $1)`,
		batchID,
	)
	return err
}

func markBatchFailed(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID) {
	_, err := pool.Exec(ctx,
		`UPDATE ingest.fee_files SET status = 'failed'
		  WHERE fee_file_id IN (SELECT DISTINCT fee_file_id FROM ingest.stage_pfs_rows WHERE load_batch_id = $1)`,
		batchID,
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to mark batch failed")
	}
}
