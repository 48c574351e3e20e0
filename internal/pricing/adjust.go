package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
)

// Adjustment is the outcome of payer and provider math for one code.
type Adjustment struct {
	// Amount is the final estimate, rounded to 2 decimal places.
	Amount decimal.Decimal
	// Source labels the payer-math branch taken (override vs multiplier),
	// independent of the provider-multiplier step.
	Source model.AmountSource
	// PostPayer is the amount after payer math but before the provider
	// multiplier, unrounded; kept for the debug trace.
	PostPayer decimal.Decimal
}

// Adjust applies the strict payer precedence, then the provider multiplier:
//
//  1. A payer override, when present, fully replaces the multiplier math.
//     Overrides are looked up by the originally requested place, not the
//     telehealth-effective place; that asymmetry is intentional policy.
//  2. Otherwise a positive baseline is scaled by the payer multiplier.
//  3. Otherwise the post-payer amount is zero, and the provider multiplier
//     never resurrects it.
func Adjust(baseline ResolvedFee, payer model.Payer, override *decimal.Decimal, render model.Render) Adjustment {
	var postPayer decimal.Decimal
	source := model.SourceMedicare

	switch {
	case override != nil:
		postPayer = *override
		source = model.SourcePayerOverride
	case baseline.Amount.IsPositive():
		postPayer = baseline.Amount.Mul(payer.Multiplier)
	default:
		postPayer = decimal.Zero
	}

	amount := decimal.Zero
	if postPayer.IsPositive() {
		amount = postPayer.Mul(render.Multiplier())
	}

	return Adjustment{
		Amount:    amount.Round(2),
		Source:    source,
		PostPayer: postPayer,
	}
}
