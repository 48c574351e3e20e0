package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Place is the place-of-service dimension of the Medicare fee schedule.
type Place string

const (
	PlaceFacility    Place = "facility"
	PlaceNonFacility Place = "nonfacility"
)

// ParsePlace validates a place-of-service string.
func ParsePlace(s string) (Place, error) {
	switch Place(s) {
	case PlaceFacility, PlaceNonFacility:
		return Place(s), nil
	}
	return "", fmt.Errorf("unknown place %q (want facility or nonfacility)", s)
}

// Mode is the visit delivery mode requested for an estimate.
type Mode string

const (
	ModeInPerson Mode = "inperson"
	ModeTeleHome Mode = "telehome" // POS 10, paid at the non-facility rate
	ModeTele02   Mode = "tele02"   // POS 02, paid at the facility rate
)

// ParseMode validates a visit mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeInPerson, ModeTeleHome, ModeTele02:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want inperson, telehome, or tele02)", s)
}

// Render identifies the rendering clinician type for provider-multiplier purposes.
type Render string

const (
	RenderPhysician Render = "physician"
	RenderNPPA      Render = "nppa"
)

var nppaMultiplier = decimal.New(85, -2) // NP/PA paid at 85% of the physician rate

// ParseRender validates a rendering clinician string.
func ParseRender(s string) (Render, error) {
	switch Render(s) {
	case RenderPhysician, RenderNPPA:
		return Render(s), nil
	}
	return "", fmt.Errorf("unknown render %q (want physician or nppa)", s)
}

// Multiplier returns the provider multiplier applied after payer math.
func (r Render) Multiplier() decimal.Decimal {
	if r == RenderNPPA {
		return nppaMultiplier
	}
	return decimal.New(1, 0)
}

// PayerKind classifies a payer for cost-sharing rules.
type PayerKind string

const (
	KindMedicareOriginal  PayerKind = "medicare_original"
	KindMedicareAdvantage PayerKind = "medicare_advantage"
	KindCommercial        PayerKind = "commercial"
)

// ParsePayerKind validates a payer kind string.
func ParsePayerKind(s string) (PayerKind, error) {
	switch PayerKind(s) {
	case KindMedicareOriginal, KindMedicareAdvantage, KindCommercial:
		return PayerKind(s), nil
	}
	return "", fmt.Errorf("unknown payer kind %q", s)
}

// CodeType represents one of the supported CMS-defined billing code types.
type CodeType string

const (
	CodeTypeCPT   CodeType = "CPT"
	CodeTypeHCPCS CodeType = "HCPCS"
)

// ParseCodeType validates a code type string.
func ParseCodeType(s string) (CodeType, error) {
	switch CodeType(s) {
	case CodeTypeCPT, CodeTypeHCPCS:
		return CodeType(s), nil
	}
	return "", fmt.Errorf("unknown code type %q (want CPT or HCPCS)", s)
}

// AmountSource labels which adjustment-engine branch produced an amount.
type AmountSource string

const (
	SourcePayerOverride AmountSource = "payer_override"
	SourceMedicare      AmountSource = "medicare*multiplier"
)

// DescriptionSource identifies where a code description came from.
// Preference order when several exist: AMA_CPT, then CMS_HCPCS, then INTERNAL.
type DescriptionSource string

const (
	SourceAMACPT   DescriptionSource = "AMA_CPT"
	SourceCMSHCPCS DescriptionSource = "CMS_HCPCS"
	SourceInternal DescriptionSource = "INTERNAL"
)
