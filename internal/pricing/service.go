// Package pricing implements the fee-resolution and pricing pipeline:
// telehealth place derivation, Medicare baseline resolution, payer and
// provider adjustment, patient cost-sharing, and workflow aggregation.
package pricing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
	"github.com/gyeh/carecost/internal/store"
)

// DetailsRequest carries one fully-validated pricing request. Enum fields are
// closed types, so an unrecognized value cannot reach the pipeline.
type DetailsRequest struct {
	Slug      string
	CY        int32
	PayerID   int64
	Place     model.Place
	Mode      model.Mode
	Render    model.Render
	AudioOnly bool
	MAC       string
	Locality  string
	Debug     bool
}

// Item is one priced code within a workflow estimate.
type Item struct {
	Code     string         `json:"code"`
	CodeType model.CodeType `json:"codeType"`
	IsBase   bool           `json:"isBase"`

	Amount           decimal.Decimal    `json:"amount"`
	AmountSource     model.AmountSource `json:"amountSource"`
	MedicareBaseline decimal.Decimal    `json:"medicareBaseline"`
	IsPlaceholder    bool               `json:"isPlaceholder"`

	ProviderMultiplier decimal.Decimal `json:"providerMultiplier"`
	Render             model.Render    `json:"render"`

	Notes        []string `json:"notes"`
	POS          *string  `json:"pos"`
	TeleModifier *string  `json:"teleModifier"`

	DescShort  *string `json:"descShort"`
	DescLong   *string `json:"descLong"`
	DescSource *string `json:"descSource"`

	Betos      *string  `json:"betos"`
	TOS        []string `json:"tos"`
	OppsStatus *string  `json:"oppsStatus"`

	PatientPortion      *decimal.Decimal `json:"patientPortion"`
	PatientPortionLabel *string          `json:"patientPortionLabel"`

	Debug *ItemTrace `json:"debug,omitempty"`
}

// Details is the aggregate pricing result for one workflow request.
type Details struct {
	Workflow model.Workflow `json:"workflow"`
	Payer    model.Payer    `json:"payer"`
	CY       int32          `json:"cy"`
	Place    model.Place    `json:"place"`
	Mode     model.Mode     `json:"mode"`
	Render   model.Render   `json:"render"`

	POS          *string `json:"pos"`
	TeleModifier *string `json:"teleModifier"`
	MAC          *string `json:"mac"`
	Locality     *string `json:"locality"`

	Items        []Item          `json:"items"`
	Total        decimal.Decimal `json:"total"`
	PatientTotal decimal.Decimal `json:"patientTotal"`

	Debug *Trace `json:"debug,omitempty"`
}

// Service is the workflow aggregator. It is stateless; every request is a
// pure function of its inputs and the reference tables at query time.
type Service struct {
	store store.Store
	log   zerolog.Logger
}

// NewService builds a Service around an injected store.
func NewService(st store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log}
}

// WorkflowDetails prices every code in the workflow and aggregates totals.
// It returns ErrWorkflowNotFound or ErrInvalidPayer for client-visible
// failures; any other error is a storage failure and the whole request fails
// with no partial result.
func (s *Service) WorkflowDetails(ctx context.Context, req DetailsRequest) (*Details, error) {
	th := DeriveTelehealth(req.Place, req.Mode, req.AudioOnly)

	wf, err := s.store.GetWorkflowBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	if wf == nil {
		return nil, ErrWorkflowNotFound
	}

	payer, err := s.store.GetPayer(ctx, req.PayerID)
	if err != nil {
		return nil, fmt.Errorf("load payer: %w", err)
	}
	if payer == nil {
		return nil, ErrInvalidPayer
	}

	codes, err := s.store.ListWorkflowCodes(ctx, wf.ID)
	if err != nil {
		return nil, fmt.Errorf("load workflow codes: %w", err)
	}
	codeList := make([]string, len(codes))
	for i, c := range codes {
		codeList[i] = c.Code
	}

	notes, err := s.store.GetDocNotes(ctx, codeList, req.CY)
	if err != nil {
		return nil, fmt.Errorf("load doc notes: %w", err)
	}

	// Fees are fetched for the telehealth-effective place.
	national, err := s.store.GetBaselineFees(ctx, codeList, req.CY, th.EffectivePlace)
	if err != nil {
		return nil, fmt.Errorf("load baseline fees: %w", err)
	}
	var locality map[string]decimal.Decimal
	if req.MAC != "" && req.Locality != "" {
		locality, err = s.store.GetLocalityFees(ctx, codeList, req.CY, th.EffectivePlace, req.MAC, req.Locality)
		if err != nil {
			return nil, fmt.Errorf("load locality fees: %w", err)
		}
	}

	// Overrides are looked up by the originally requested place.
	overrides, err := s.store.GetPayerOverrides(ctx, req.PayerID, codeList, req.CY, req.Place)
	if err != nil {
		return nil, fmt.Errorf("load payer overrides: %w", err)
	}

	descs, err := s.store.GetDescriptions(ctx, codeList)
	if err != nil {
		return nil, fmt.Errorf("load descriptions: %w", err)
	}
	meta, err := s.store.GetHcpcsMeta(ctx, codeList)
	if err != nil {
		return nil, fmt.Errorf("load hcpcs meta: %w", err)
	}

	resolver := NewFeeResolver(national, locality)
	providerMult := req.Render.Multiplier()

	items := make([]Item, 0, len(codes))
	var total, patientTotal decimal.Decimal
	var traceItems []ItemTraceValues

	for _, c := range codes {
		baseline := resolver.Resolve(c.Code)

		var override *decimal.Decimal
		if v, ok := overrides[c.Code]; ok {
			override = &v
		}

		adj := Adjust(baseline, *payer, override, req.Render)
		portion, portionLabel := EstimatePatientShare(adj.Amount, payer.Kind)

		item := Item{
			Code:                c.Code,
			CodeType:            c.CodeType,
			IsBase:              c.IsBase,
			Amount:              adj.Amount,
			AmountSource:        adj.Source,
			MedicareBaseline:    baseline.Amount,
			IsPlaceholder:       baseline.IsPlaceholder,
			ProviderMultiplier:  providerMult,
			Render:              req.Render,
			Notes:               notes[c.Code],
			POS:                 th.POS,
			TeleModifier:        th.Modifier,
			PatientPortion:      portion,
			PatientPortionLabel: portionLabel,
		}
		if item.Notes == nil {
			item.Notes = []string{}
		}
		if d, ok := descs[c.Code]; ok {
			item.DescShort = d.Short
			item.DescLong = d.Long
			src := string(d.Source)
			item.DescSource = &src
		}
		if m, ok := meta[c.Code]; ok {
			item.Betos = m.Betos
			item.TOS = m.TOS
			item.OppsStatus = m.OppsPI
		}
		if item.TOS == nil {
			item.TOS = []string{}
		}

		if req.Debug {
			trace := buildItemTrace(c.Code, baseline, *payer, override, req.Render, adj, th, portion, portionLabel)
			item.Debug = trace
			traceItems = append(traceItems, trace.Values)
		}

		// Sum raw amounts; each addend is already 2dp, the sum is rounded once.
		total = total.Add(adj.Amount)
		if portion != nil {
			patientTotal = patientTotal.Add(*portion)
		}

		items = append(items, item)
	}

	resp := &Details{
		Workflow:     *wf,
		Payer:        *payer,
		CY:           req.CY,
		Place:        req.Place,
		Mode:         req.Mode,
		Render:       req.Render,
		POS:          th.POS,
		TeleModifier: th.Modifier,
		MAC:          nilIfEmpty(req.MAC),
		Locality:     nilIfEmpty(req.Locality),
		Items:        items,
		Total:        total.Round(2),
		PatientTotal: patientTotal.Round(2),
	}

	if req.Debug {
		resp.Debug = &Trace{
			Context: TraceContext{
				Workflow: *wf,
				Payer:    *payer,
				CY:       req.CY,
				Place:    req.Place,
				Mode:     req.Mode,
				POS:      th.POS,
				TeleMod:  th.Modifier,
				MAC:      resp.MAC,
				Locality: resp.Locality,
			},
			Items: traceItems,
			Totals: TraceTotals{
				Total:        resp.Total,
				PatientTotal: resp.PatientTotal,
			},
		}
		s.log.Debug().
			Str("workflow", wf.Slug).
			Str("payer", payer.Name).
			Int32("cy", req.CY).
			Str("place", string(req.Place)).
			Str("mode", string(req.Mode)).
			Str("total", resp.Total.String()).
			Str("patient_total", resp.PatientTotal.String()).
			Msg("calculation trace")
	}

	return resp, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
