package model

import "github.com/shopspring/decimal"

// Workflow is a named bundle of codes representing a clinical scenario.
type Workflow struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"-"`
}

// WorkflowCode is one code position within a workflow, in serving order
// (base codes first, then display order, then code).
type WorkflowCode struct {
	Code         string
	CodeType     CodeType
	IsBase       bool
	DisplayOrder int32
}

// Payer is administrator-curated payer reference data.
type Payer struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Kind       PayerKind       `json:"kind"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// FeeAmount is a national baseline allowed amount for one (code, cy, place).
type FeeAmount struct {
	Amount        decimal.Decimal
	IsPlaceholder bool
}

// Description is the active (source-preferred, latest-version) description of a code.
type Description struct {
	Short  *string
	Long   *string
	Source DescriptionSource
}

// HcpcsMeta carries the HCPCS-only enrichment badges for a code.
// TOS holds up to 5 type-of-service codes with empties already filtered.
type HcpcsMeta struct {
	Betos  *string
	TOS    []string
	OppsPI *string
}

// Locality identifies a MAC sub-region with its own fee schedule.
type Locality struct {
	MAC    string `json:"mac"`
	Number string `json:"locality"`
}
