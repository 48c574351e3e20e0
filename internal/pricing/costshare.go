package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
)

var coinsuranceRate = decimal.New(20, -2)

const coinsuranceLabel = "20% coinsurance (est.)"

// EstimatePatientShare derives the estimated patient responsibility for a
// final amount. Original Medicare assumes Part B 20% coinsurance after
// deductible; every other payer kind has no plan-specific rule modeled and
// returns nil for both fields.
func EstimatePatientShare(amount decimal.Decimal, kind model.PayerKind) (*decimal.Decimal, *string) {
	if kind != model.KindMedicareOriginal {
		return nil, nil
	}
	portion := amount.Mul(coinsuranceRate).Round(2)
	label := coinsuranceLabel
	return &portion, &label
}
