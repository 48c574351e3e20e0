package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PFSStagingRow is the DB-ready form of one CMS Physician Fee Schedule record.
// Amounts are already rounded to 2 decimal places at parse time.
type PFSStagingRow struct {
	LoadBatchID     uuid.UUID
	FeeFileID       int64
	SourceRowNumber int64

	CY             int32
	MACCode        string
	LocalityNumber string
	Code           string
	Modifier       *string

	NonFacilityAmount decimal.Decimal
	FacilityAmount    decimal.Decimal
}

// PFSStagingColumns returns the ordered column names for COPY into ingest.stage_pfs_rows.
func PFSStagingColumns() []string {
	return []string{
		"load_batch_id",
		"fee_file_id",
		"source_row_number",
		"cy",
		"mac_code",
		"locality_number",
		"code",
		"modifier",
		"nonfacility_amount",
		"facility_amount",
	}
}

// CopyValues returns the row's values in COPY column order.
func (r *PFSStagingRow) CopyValues() []any {
	return []any{
		r.LoadBatchID,
		r.FeeFileID,
		r.SourceRowNumber,
		r.CY,
		r.MACCode,
		r.LocalityNumber,
		r.Code,
		r.Modifier,
		r.NonFacilityAmount,
		r.FacilityAmount,
	}
}

// HCPCSStagingRow is the DB-ready form of one ALPHA-NUMERIC HCPCS record.
type HCPCSStagingRow struct {
	LoadBatchID     uuid.UUID
	FeeFileID       int64
	SourceRowNumber int64

	Code      string
	ShortDesc *string
	LongDesc  *string

	Betos  *string
	TOS1   *string
	TOS2   *string
	TOS3   *string
	TOS4   *string
	TOS5   *string
	OppsPI *string

	AddDate    *time.Time
	ActEffDate *time.Time
	TermDate   *time.Time
	ActionCode *string
}

// HCPCSStagingColumns returns the ordered column names for COPY into ingest.stage_hcpcs_rows.
func HCPCSStagingColumns() []string {
	return []string{
		"load_batch_id",
		"fee_file_id",
		"source_row_number",
		"code",
		"short_desc",
		"long_desc",
		"betos",
		"tos1",
		"tos2",
		"tos3",
		"tos4",
		"tos5",
		"opps_pi",
		"add_date",
		"act_eff_date",
		"term_date",
		"action_code",
	}
}

// CopyValues returns the row's values in COPY column order.
func (r *HCPCSStagingRow) CopyValues() []any {
	return []any{
		r.LoadBatchID,
		r.FeeFileID,
		r.SourceRowNumber,
		r.Code,
		r.ShortDesc,
		r.LongDesc,
		r.Betos,
		r.TOS1,
		r.TOS2,
		r.TOS3,
		r.TOS4,
		r.TOS5,
		r.OppsPI,
		r.AddDate,
		r.ActEffDate,
		r.TermDate,
		r.ActionCode,
	}
}
