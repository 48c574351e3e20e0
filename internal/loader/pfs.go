package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/carecost/internal/db"
	"github.com/gyeh/carecost/internal/model"
	"github.com/gyeh/carecost/internal/normalize"
)

const stageChanSize = 1024

// StageResult holds metrics from one staging phase.
type StageResult struct {
	RowsRead    int64
	RowsStaged  int64
	RowsSkipped int64
	Duration    time.Duration
}

// splitPFSFields splits one PFREV record. CMS publishes quoted CSV
// ("2025","01112","05","G0011",...); pipe-delimited variants are detected and
// split directly. Quoted fields never contain embedded quotes.
func splitPFSFields(line string) []string {
	if strings.Contains(line, "|") {
		fields := strings.Split(line, "|")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		return fields
	}

	var out []string
	var cur strings.Builder
	inQuote := false
	for _, c := range line {
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	out = append(out, cur.String())
	return out
}

// parsePFSRow converts raw PFREV fields into a staging row. Field layout:
// 0 year, 1 MAC, 2 locality, 3 HCPCS, 4 modifier, 5 non-facility amount,
// 6 facility amount; trailing indicator fields are ignored.
// Returns nil (no error) for rows outside the requested year.
func parsePFSRow(fields []string, cy int32) (*model.PFSStagingRow, error) {
	if len(fields) < 7 {
		return nil, fmt.Errorf("want at least 7 fields, got %d", len(fields))
	}

	year, err := strconv.Atoi(normalize.Field(fields[0]))
	if err != nil {
		return nil, fmt.Errorf("parse year: %w", err)
	}
	if int32(year) != cy {
		return nil, nil
	}

	code := normalize.Code(fields[3])
	if code == "" {
		return nil, fmt.Errorf("empty code")
	}

	nonFacility, err := normalize.Amount(fields[5])
	if err != nil {
		return nil, fmt.Errorf("nonfacility: %w", err)
	}
	facility, err := normalize.Amount(fields[6])
	if err != nil {
		return nil, fmt.Errorf("facility: %w", err)
	}

	return &model.PFSStagingRow{
		CY:                cy,
		MACCode:           normalize.MAC(fields[1]),
		LocalityNumber:    normalize.Field(fields[2]),
		Code:              code,
		Modifier:          normalize.NilIfEmpty(normalize.Field(fields[4])),
		NonFacilityAmount: nonFacility,
		FacilityAmount:    facility,
	}, nil
}

// StagePFS streams the file line by line, parses records for the requested
// year, and COPY-loads them into ingest.stage_pfs_rows via a channel-backed
// CopyFromSource.
func StagePFS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, pf *PreflightResult, batchID uuid.UUID, cy int32) (*StageResult, error) {
	start := time.Now()

	f, err := os.Open(pf.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stage open: %w", err)
	}
	defer f.Close()

	ch := make(chan *model.PFSStagingRow, stageChanSize)
	errCh := make(chan error, 1)

	var rowsRead, rowsSkipped int64

	// Producer goroutine: read lines → parse → push to channel.
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var rowNum int64

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			rowNum++
			rowsRead++

			row, parseErr := parsePFSRow(splitPFSFields(line), cy)
			if parseErr != nil {
				rowsSkipped++
				log.Warn().Err(parseErr).Int64("row", rowNum).Msg("row skipped")
				continue
			}
			if row == nil {
				// Different calendar year; not an error.
				rowsSkipped++
				continue
			}
			row.LoadBatchID = batchID
			row.FeeFileID = pf.FeeFileID
			row.SourceRowNumber = rowNum

			select {
			case ch <- row:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- scanner.Err()
	}()

	source := db.NewChannelSource(ch)
	rowsStaged, err := pool.CopyFrom(ctx,
		pgx.Identifier{"ingest", "stage_pfs_rows"},
		model.PFSStagingColumns(),
		source,
	)

	if prodErr := <-errCh; prodErr != nil {
		return nil, fmt.Errorf("stage producer: %w", prodErr)
	}
	if err != nil {
		return nil, fmt.Errorf("stage copy: %w", err)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_staged", rowsStaged).
		Int64("rows_skipped", rowsSkipped).
		Str("duration", dur.String()).
		Msg("pfs staging complete")

	return &StageResult{
		RowsRead:    rowsRead,
		RowsStaged:  rowsStaged,
		RowsSkipped: rowsSkipped,
		Duration:    dur,
	}, nil
}

// placeColumns maps each fee-schedule place to its staging amount column.
var placeColumns = []struct {
	place  string
	column string
}{
	{"nonfacility", "nonfacility_amount"},
	{"facility", "facility_amount"},
}

// PromotePFS upserts staged rows into the serving fee tables.
// Conflict rules: locality rows are last-write-wins on amount; baseline rows
// collapse locality amounts per baselineMode (avg, max, or min), are
// last-write-wins on amount, and always clear the placeholder flag.
func PromotePFS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID, baselineMode string) (localityRows, baselineRows int64, err error) {
	agg, ok := baselineAgg(baselineMode)
	if !ok {
		return 0, 0, fmt.Errorf("unknown baseline mode %q", baselineMode)
	}

	for _, pc := range placeColumns {
		tag, execErr := pool.Exec(ctx, fmt.Sprintf(
			`INSERT INTO fees.medicare_fee_locality (code, cy, place, mac_code, locality_number, allowed_amount)
			 SELECT DISTINCT ON (code, cy, mac_code, locality_number)
			        code, cy, '%[1]s', mac_code, locality_number, %[2]s
			   FROM ingest.stage_pfs_rows
			  WHERE load_batch_id = $1
			  ORDER BY code, cy, mac_code, locality_number, source_row_number DESC
			 ON CONFLICT (code, cy, place, mac_code, locality_number)
			 DO UPDATE SET allowed_amount = EXCLUDED.allowed_amount`,
			pc.place, pc.column,
		), batchID)
		if execErr != nil {
			return 0, 0, fmt.Errorf("promote locality %s: %w", pc.place, execErr)
		}
		localityRows += tag.RowsAffected()
	}

	for _, pc := range placeColumns {
		tag, execErr := pool.Exec(ctx, fmt.Sprintf(
			`INSERT INTO fees.medicare_fee (code, cy, place, allowed_amount, is_placeholder)
			 SELECT code, cy, '%[1]s', round(%[2]s(%[3]s), 2), false
			   FROM ingest.stage_pfs_rows
			  WHERE load_batch_id = $1
			  GROUP BY code, cy
			 ON CONFLICT (code, cy, place)
			 DO UPDATE SET allowed_amount = EXCLUDED.allowed_amount, is_placeholder = false`,
			pc.place, agg, pc.column,
		), batchID)
		if execErr != nil {
			return 0, 0, fmt.Errorf("promote baseline %s: %w", pc.place, execErr)
		}
		baselineRows += tag.RowsAffected()
	}

	log.Info().
		Int64("locality_rows", localityRows).
		Int64("baseline_rows", baselineRows).
		Msg("pfs promote complete")

	return localityRows, baselineRows, nil
}

// baselineAgg maps a validated baseline mode to its SQL aggregate.
func baselineAgg(mode string) (string, bool) {
	switch mode {
	case "avg":
		return "avg", true
	case "max":
		return "max", true
	case "min":
		return "min", true
	}
	return "", false
}

// CleanupPFS deletes staged PFS rows for the batch.
func CleanupPFS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID) error {
	start := time.Now()
	tag, err := pool.Exec(ctx,
		`DELETE FROM ingest.stage_pfs_rows WHERE load_batch_id = $1`, batchID)
	if err != nil {
		return err
	}
	log.Info().
		Int64("rows_deleted", tag.RowsAffected()).
		Dur("duration", time.Since(start)).
		Msg("staging cleanup complete")
	return nil
}
