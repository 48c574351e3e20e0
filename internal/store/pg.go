package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
)

// PG is the pgx-backed Store. The pool is injected at construction and owned
// by the caller.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG wraps an existing pool.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

var _ Store = (*PG)(nil)

func (s *PG) GetWorkflowBySlug(ctx context.Context, slug string) (*model.Workflow, error) {
	var wf model.Workflow
	err := s.pool.QueryRow(ctx,
		`SELECT id, slug, name, description, active
		   FROM ref.workflows
		  WHERE slug = $1 AND active`,
		slug,
	).Scan(&wf.ID, &wf.Slug, &wf.Name, &wf.Description, &wf.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow %q: %w", slug, err)
	}
	return &wf, nil
}

func (s *PG) GetPayer(ctx context.Context, id int64) (*model.Payer, error) {
	var (
		p    model.Payer
		kind string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, kind, multiplier FROM ref.payers WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &kind, &p.Multiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payer %d: %w", id, err)
	}
	p.Kind, err = model.ParsePayerKind(kind)
	if err != nil {
		return nil, fmt.Errorf("payer %d: %w", id, err)
	}
	return &p, nil
}

func (s *PG) ListWorkflowCodes(ctx context.Context, workflowID int64) ([]model.WorkflowCode, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT wc.code, c.code_type, wc.is_base, wc.display_order
		   FROM ref.workflow_codes wc
		   JOIN ref.codes c ON c.code = wc.code
		  WHERE wc.workflow_id = $1
	   ORDER BY wc.is_base DESC, wc.display_order ASC, wc.code ASC`,
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workflow codes: %w", err)
	}
	defer rows.Close()

	var out []model.WorkflowCode
	for rows.Next() {
		var (
			wc       model.WorkflowCode
			codeType string
		)
		if err := rows.Scan(&wc.Code, &codeType, &wc.IsBase, &wc.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan workflow code: %w", err)
		}
		if wc.CodeType, err = model.ParseCodeType(codeType); err != nil {
			return nil, fmt.Errorf("workflow code %s: %w", wc.Code, err)
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

func (s *PG) GetBaselineFees(ctx context.Context, codes []string, cy int32, place model.Place) (map[string]model.FeeAmount, error) {
	out := make(map[string]model.FeeAmount, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT code, allowed_amount, is_placeholder
		   FROM fees.medicare_fee
		  WHERE cy = $1 AND place = $2 AND code = ANY($3)`,
		cy, string(place), codes,
	)
	if err != nil {
		return nil, fmt.Errorf("get baseline fees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code string
			fee  model.FeeAmount
		)
		if err := rows.Scan(&code, &fee.Amount, &fee.IsPlaceholder); err != nil {
			return nil, fmt.Errorf("scan baseline fee: %w", err)
		}
		out[code] = fee
	}
	return out, rows.Err()
}

func (s *PG) GetLocalityFees(ctx context.Context, codes []string, cy int32, place model.Place, mac, locality string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT code, allowed_amount
		   FROM fees.medicare_fee_locality
		  WHERE cy = $1 AND place = $2 AND mac_code = $3 AND locality_number = $4
		    AND code = ANY($5)`,
		cy, string(place), mac, locality, codes,
	)
	if err != nil {
		return nil, fmt.Errorf("get locality fees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code   string
			amount decimal.Decimal
		)
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, fmt.Errorf("scan locality fee: %w", err)
		}
		out[code] = amount
	}
	return out, rows.Err()
}

func (s *PG) GetPayerOverrides(ctx context.Context, payerID int64, codes []string, cy int32, place model.Place) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT code, amount
		   FROM ref.payer_overrides
		  WHERE payer_id = $1 AND cy = $2 AND place = $3 AND code = ANY($4)`,
		payerID, cy, string(place), codes,
	)
	if err != nil {
		return nil, fmt.Errorf("get payer overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code   string
			amount decimal.Decimal
		)
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, fmt.Errorf("scan payer override: %w", err)
		}
		out[code] = amount
	}
	return out, rows.Err()
}

func (s *PG) GetDescriptions(ctx context.Context, codes []string) (map[string]model.Description, error) {
	out := make(map[string]model.Description, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	// Rows arrive best-first per code; the first row per code wins.
	rows, err := s.pool.Query(ctx,
		`SELECT code, source, short_desc, long_desc
		   FROM ref.code_descriptions
		  WHERE code = ANY($1)
	   ORDER BY code,
	            CASE source WHEN 'AMA_CPT' THEN 1 WHEN 'CMS_HCPCS' THEN 2 ELSE 3 END,
	            version DESC`,
		codes,
	)
	if err != nil {
		return nil, fmt.Errorf("get descriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code   string
			source string
			d      model.Description
		)
		if err := rows.Scan(&code, &source, &d.Short, &d.Long); err != nil {
			return nil, fmt.Errorf("scan description: %w", err)
		}
		if _, seen := out[code]; seen {
			continue
		}
		d.Source = model.DescriptionSource(source)
		out[code] = d
	}
	return out, rows.Err()
}

func (s *PG) GetHcpcsMeta(ctx context.Context, codes []string) (map[string]model.HcpcsMeta, error) {
	out := make(map[string]model.HcpcsMeta, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT code, betos, tos1, tos2, tos3, tos4, tos5, opps_pi
		   FROM ref.hcpcs_meta
		  WHERE code = ANY($1)
	   ORDER BY code, version DESC`,
		codes,
	)
	if err != nil {
		return nil, fmt.Errorf("get hcpcs meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code string
			m    model.HcpcsMeta
			tos  [5]*string
		)
		if err := rows.Scan(&code, &m.Betos, &tos[0], &tos[1], &tos[2], &tos[3], &tos[4], &m.OppsPI); err != nil {
			return nil, fmt.Errorf("scan hcpcs meta: %w", err)
		}
		if _, seen := out[code]; seen {
			continue
		}
		for _, t := range tos {
			if t != nil && *t != "" {
				m.TOS = append(m.TOS, *t)
			}
		}
		out[code] = m
	}
	return out, rows.Err()
}

func (s *PG) GetDocNotes(ctx context.Context, codes []string, cy int32) (map[string][]string, error) {
	out := make(map[string][]string, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT code, note_text
		   FROM ref.doc_notes
		  WHERE cy = $1 AND code = ANY($2)
	   ORDER BY code, priority, id`,
		cy, codes,
	)
	if err != nil {
		return nil, fmt.Errorf("get doc notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code, text string
		if err := rows.Scan(&code, &text); err != nil {
			return nil, fmt.Errorf("scan doc note: %w", err)
		}
		out[code] = append(out[code], text)
	}
	return out, rows.Err()
}

func (s *PG) ListActiveWorkflows(ctx context.Context) ([]model.Workflow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, slug, name, description, active
		   FROM ref.workflows
		  WHERE active
	   ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var out []model.Workflow
	for rows.Next() {
		var wf model.Workflow
		if err := rows.Scan(&wf.ID, &wf.Slug, &wf.Name, &wf.Description, &wf.Active); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		out = append(out, wf)
	}
	return out, rows.Err()
}

func (s *PG) ListPayers(ctx context.Context) ([]model.Payer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, kind, multiplier FROM ref.payers ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list payers: %w", err)
	}
	defer rows.Close()

	var out []model.Payer
	for rows.Next() {
		var (
			p    model.Payer
			kind string
		)
		if err := rows.Scan(&p.ID, &p.Name, &kind, &p.Multiplier); err != nil {
			return nil, fmt.Errorf("scan payer: %w", err)
		}
		if p.Kind, err = model.ParsePayerKind(kind); err != nil {
			return nil, fmt.Errorf("payer %d: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PG) ListDistinctLocalities(ctx context.Context, cy int32) ([]model.Locality, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT mac_code, locality_number
		   FROM fees.medicare_fee_locality
		  WHERE cy = $1
	   ORDER BY mac_code, locality_number`,
		cy,
	)
	if err != nil {
		return nil, fmt.Errorf("list localities: %w", err)
	}
	defer rows.Close()

	var out []model.Locality
	for rows.Next() {
		var l model.Locality
		if err := rows.Scan(&l.MAC, &l.Number); err != nil {
			return nil, fmt.Errorf("scan locality: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
