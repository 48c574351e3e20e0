package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
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

// hcpcsHeaderMap normalizes the header tokens CMS has used across releases to
// the staging column they feed.
var hcpcsHeaderMap = map[string]string{
	"HCPC":              "code",
	"HCPCS":             "code",
	"CODE":              "code",
	"SHORT DESCRIPTION": "short_desc",
	"LONG DESCRIPTION":  "long_desc",
	"BETOS":             "betos",
	"TOS1":              "tos1",
	"TOS2":              "tos2",
	"TOS3":              "tos3",
	"TOS4":              "tos4",
	"TOS5":              "tos5",
	"OPPS_PI":           "opps_pi",
	"OPPS PI":           "opps_pi",
	"ADD DT":            "add_date",
	"ADD_DT":            "add_date",
	"ACT EFF DT":        "act_eff_date",
	"ACT_EFF_DT":        "act_eff_date",
	"TERM DT":           "term_date",
	"TERM_DT":           "term_date",
	"ACTION CD":         "action_code",
	"ACTION_CD":         "action_code",
}

// detectDelimiter sniffs the field separator from the header line.
func detectDelimiter(header string) rune {
	if strings.ContainsRune(header, '\t') {
		return '\t'
	}
	if strings.ContainsRune(header, '|') {
		return '|'
	}
	return ','
}

// splitQuoted splits a delimited line honoring double-quoted fields with
// doubled-quote escapes.
func splitQuoted(line string, delim rune) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuote = !inQuote
			}
		case c == delim && !inQuote:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	out = append(out, cur.String())
	return out
}

// mapHCPCSHeader maps the header line to column→index positions. Unknown
// header tokens are ignored.
func mapHCPCSHeader(header string, delim rune) map[string]int {
	idx := make(map[string]int)
	for i, tok := range splitQuoted(header, delim) {
		key := strings.ToUpper(strings.TrimSpace(tok))
		if col, ok := hcpcsHeaderMap[key]; ok {
			if _, seen := idx[col]; !seen {
				idx[col] = i
			}
		}
	}
	return idx
}

// parseHCPCSRow extracts a staging row from one record using the header map.
func parseHCPCSRow(fields []string, idx map[string]int) (*model.HCPCSStagingRow, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	code := normalize.Code(get("code"))
	if code == "" {
		return nil, fmt.Errorf("empty code")
	}

	return &model.HCPCSStagingRow{
		Code:       code,
		ShortDesc:  normalize.NilIfEmpty(get("short_desc")),
		LongDesc:   normalize.NilIfEmpty(get("long_desc")),
		Betos:      normalize.NilIfEmpty(get("betos")),
		TOS1:       normalize.NilIfEmpty(get("tos1")),
		TOS2:       normalize.NilIfEmpty(get("tos2")),
		TOS3:       normalize.NilIfEmpty(get("tos3")),
		TOS4:       normalize.NilIfEmpty(get("tos4")),
		TOS5:       normalize.NilIfEmpty(get("tos5")),
		OppsPI:     normalize.NilIfEmpty(get("opps_pi")),
		AddDate:    normalize.ParseDate(get("add_date")),
		ActEffDate: normalize.ParseDate(get("act_eff_date")),
		TermDate:   normalize.ParseDate(get("term_date")),
		ActionCode: normalize.NilIfEmpty(get("action_code")),
	}, nil
}

// StageHCPCS streams the HCPCS release file and COPY-loads it into
// ingest.stage_hcpcs_rows. The first line is the header and drives column
// mapping; the delimiter is sniffed from it.
func StageHCPCS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, pf *PreflightResult, batchID uuid.UUID) (*StageResult, error) {
	start := time.Now()

	f, err := os.Open(pf.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stage open: %w", err)
	}
	defer f.Close()

	ch := make(chan *model.HCPCSStagingRow, stageChanSize)
	errCh := make(chan error, 1)

	var rowsRead, rowsSkipped int64

	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var (
			delim rune
			idx   map[string]int
			first = true
		)
		var rowNum int64

		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if first {
				first = false
				delim = detectDelimiter(line)
				idx = mapHCPCSHeader(line, delim)
				if _, ok := idx["code"]; !ok {
					errCh <- fmt.Errorf("header has no recognizable code column")
					return
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			rowNum++
			rowsRead++

			row, parseErr := parseHCPCSRow(splitQuoted(line, delim), idx)
			if parseErr != nil {
				rowsSkipped++
				log.Warn().Err(parseErr).Int64("row", rowNum).Msg("row skipped")
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
		pgx.Identifier{"ingest", "stage_hcpcs_rows"},
		model.HCPCSStagingColumns(),
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
		Msg("hcpcs staging complete")

	return &StageResult{
		RowsRead:    rowsRead,
		RowsStaged:  rowsStaged,
		RowsSkipped: rowsSkipped,
		Duration:    dur,
	}, nil
}

// PromoteResult counts rows written to each serving table.
type PromoteResult struct {
	Codes        int64
	Descriptions int64
	Meta         int64
}

// PromoteHCPCS upserts staged rows into the catalog tables.
// Conflict rules: ref.codes is last-write-wins on status and effective dates
// (code identity never changes); descriptions and meta keep the existing row
// for an already-loaded (code, source/version) pair.
func PromoteHCPCS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID, version string) (*PromoteResult, error) {
	res := &PromoteResult{}

	tag, err := pool.Exec(ctx,
		`INSERT INTO ref.codes (code, code_type, status, effective_start, effective_end)
		 SELECT DISTINCT ON (code)
		        code, 'HCPCS',
		        CASE WHEN term_date IS NOT NULL AND term_date <= CURRENT_DATE
		             THEN 'inactive' ELSE 'active' END,
		        COALESCE(act_eff_date, add_date),
		        term_date
		   FROM ingest.stage_hcpcs_rows
		  WHERE load_batch_id = $1
		  ORDER BY code, source_row_number DESC
		 ON CONFLICT (code_type, code)
		 DO UPDATE SET status = EXCLUDED.status,
		               effective_start = EXCLUDED.effective_start,
		               effective_end = EXCLUDED.effective_end`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("promote codes: %w", err)
	}
	res.Codes = tag.RowsAffected()

	tag, err = pool.Exec(ctx,
		`INSERT INTO ref.code_descriptions (code, source, version, short_desc, long_desc)
		 SELECT DISTINCT ON (code) code, 'CMS_HCPCS', $2, short_desc, long_desc
		   FROM ingest.stage_hcpcs_rows
		  WHERE load_batch_id = $1
		  ORDER BY code, source_row_number DESC
		 ON CONFLICT (code, source, version) DO NOTHING`,
		batchID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("promote descriptions: %w", err)
	}
	res.Descriptions = tag.RowsAffected()

	tag, err = pool.Exec(ctx,
		`INSERT INTO ref.hcpcs_meta (code, version, betos, tos1, tos2, tos3, tos4, tos5, opps_pi)
		 SELECT DISTINCT ON (code) code, $2, betos, tos1, tos2, tos3, tos4, tos5, opps_pi
		   FROM ingest.stage_hcpcs_rows
		  WHERE load_batch_id = $1
		  ORDER BY code, source_row_number DESC
		 ON CONFLICT (code, version) DO NOTHING`,
		batchID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("promote meta: %w", err)
	}
	res.Meta = tag.RowsAffected()

	log.Info().
		Int64("codes", res.Codes).
		Int64("descriptions", res.Descriptions).
		Int64("meta_rows", res.Meta).
		Msg("hcpcs promote complete")

	return res, nil
}

// CleanupHCPCS deletes staged HCPCS rows for the batch.
func CleanupHCPCS(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID) error {
	start := time.Now()
	tag, err := pool.Exec(ctx,
		`DELETE FROM ingest.stage_hcpcs_rows WHERE load_batch_id = $1`, batchID)
	if err != nil {
		return err
	}
	log.Info().
		Int64("rows_deleted", tag.RowsAffected()).
		Dur("duration", time.Since(start)).
		Msg("staging cleanup complete")
	return nil
}
