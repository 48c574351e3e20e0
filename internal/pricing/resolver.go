package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
)

// ResolvedFee is the Medicare baseline chosen for one code. National and
// Locality carry the raw inputs for the debug trace; Amount/IsPlaceholder are
// what the adjustment engine consumes.
type ResolvedFee struct {
	Amount        decimal.Decimal
	IsPlaceholder bool

	National *decimal.Decimal
	Locality *decimal.Decimal
}

// FeeResolver chooses between locality and national baselines for the codes
// of one request. Both maps are prefetched for the effective place; the
// locality map is empty when no MAC/locality was supplied.
type FeeResolver struct {
	national map[string]model.FeeAmount
	locality map[string]decimal.Decimal
}

// NewFeeResolver builds a resolver over prefetched fee maps. Either map may
// be nil.
func NewFeeResolver(national map[string]model.FeeAmount, locality map[string]decimal.Decimal) *FeeResolver {
	return &FeeResolver{national: national, locality: locality}
}

// Resolve returns the baseline for code. A locality row always wins and is
// never a placeholder; otherwise the national row is used, and if that too is
// absent the baseline is zero with the placeholder flag set.
func (r *FeeResolver) Resolve(code string) ResolvedFee {
	var national *decimal.Decimal
	base, hasNational := r.national[code]
	if hasNational {
		national = &base.Amount
	}

	if loc, ok := r.locality[code]; ok {
		return ResolvedFee{
			Amount:   loc,
			National: national,
			Locality: &loc,
		}
	}

	if hasNational {
		return ResolvedFee{
			Amount:        base.Amount,
			IsPlaceholder: base.IsPlaceholder,
			National:      national,
		}
	}

	return ResolvedFee{Amount: decimal.Zero, IsPlaceholder: true}
}
