package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
)

// traceLabels gives a human-readable label for every trace value key.
var traceLabels = map[string]string{
	"code":                "Procedure code",
	"baseAllowed":         "Medicare allowed (national)",
	"localityAllowed":     "Medicare allowed (locality)",
	"chosenBaseline":      "Baseline used",
	"payerMultiplier":     "Payer multiplier",
	"payerOverride":       "Payer override",
	"providerMultiplier":  "Provider multiplier",
	"amountSource":        "Amount source",
	"computedAmount":      "Computed amount",
	"pos":                 "Place of service (POS)",
	"teleModifier":        "Telehealth modifier",
	"isPlaceholder":       "Placeholder seed value",
	"patientPortion":      "Estimated patient portion",
	"patientPortionLabel": "Patient portion basis",
}

// ItemTraceValues reproduces every intermediate value used to price one code.
type ItemTraceValues struct {
	Code                string             `json:"code"`
	BaseAllowed         *decimal.Decimal   `json:"baseAllowed"`
	LocalityAllowed     *decimal.Decimal   `json:"localityAllowed"`
	ChosenBaseline      decimal.Decimal    `json:"chosenBaseline"`
	PayerMultiplier     decimal.Decimal    `json:"payerMultiplier"`
	PayerOverride       *decimal.Decimal   `json:"payerOverride"`
	ProviderMultiplier  decimal.Decimal    `json:"providerMultiplier"`
	AmountSource        model.AmountSource `json:"amountSource"`
	ComputedAmount      decimal.Decimal    `json:"computedAmount"`
	POS                 *string            `json:"pos"`
	TeleModifier        *string            `json:"teleModifier"`
	IsPlaceholder       bool               `json:"isPlaceholder"`
	PatientPortion      *decimal.Decimal   `json:"patientPortion"`
	PatientPortionLabel *string            `json:"patientPortionLabel"`
}

// ItemTrace pairs the values with their display labels for UI rendering.
type ItemTrace struct {
	Labels map[string]string `json:"labels"`
	Values ItemTraceValues   `json:"values"`
}

// TraceContext echoes the request context the computation ran under.
type TraceContext struct {
	Workflow model.Workflow `json:"workflow"`
	Payer    model.Payer    `json:"payer"`
	CY       int32          `json:"cy"`
	Place    model.Place    `json:"place"`
	Mode     model.Mode     `json:"mode"`
	POS      *string        `json:"pos"`
	TeleMod  *string        `json:"teleModifier"`
	MAC      *string        `json:"mac"`
	Locality *string        `json:"locality"`
}

// TraceTotals echoes the final aggregates.
type TraceTotals struct {
	Total        decimal.Decimal `json:"total"`
	PatientTotal decimal.Decimal `json:"patientTotal"`
}

// Trace is the full request-level debug payload. It is built as a pure side
// computation from already-computed values and never feeds back into them.
type Trace struct {
	Context TraceContext      `json:"context"`
	Items   []ItemTraceValues `json:"items"`
	Totals  TraceTotals       `json:"totals"`
}

// buildItemTrace assembles the per-code trace from the pipeline intermediates.
func buildItemTrace(code string, baseline ResolvedFee, payer model.Payer, override *decimal.Decimal, render model.Render, adj Adjustment, th Telehealth, portion *decimal.Decimal, portionLabel *string) *ItemTrace {
	return &ItemTrace{
		Labels: traceLabels,
		Values: ItemTraceValues{
			Code:                code,
			BaseAllowed:         baseline.National,
			LocalityAllowed:     baseline.Locality,
			ChosenBaseline:      baseline.Amount,
			PayerMultiplier:     payer.Multiplier,
			PayerOverride:       override,
			ProviderMultiplier:  render.Multiplier(),
			AmountSource:        adj.Source,
			ComputedAmount:      adj.Amount,
			POS:                 th.POS,
			TeleModifier:        th.Modifier,
			IsPlaceholder:       baseline.IsPlaceholder,
			PatientPortion:      portion,
			PatientPortionLabel: portionLabel,
		},
	}
}
