package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestResolveLocalityWins(t *testing.T) {
	national := map[string]model.FeeAmount{
		"99213": {Amount: dec("88.50")},
	}
	locality := map[string]decimal.Decimal{
		"99213": dec("92.10"),
	}

	got := NewFeeResolver(national, locality).Resolve("99213")

	if !got.Amount.Equal(dec("92.10")) {
		t.Errorf("amount = %s, want 92.10", got.Amount)
	}
	if got.IsPlaceholder {
		t.Error("locality fee must never be a placeholder")
	}
	if got.National == nil || !got.National.Equal(dec("88.50")) {
		t.Errorf("national = %v, want 88.50 retained for trace", got.National)
	}
	if got.Locality == nil || !got.Locality.Equal(dec("92.10")) {
		t.Errorf("locality = %v, want 92.10", got.Locality)
	}
}

func TestResolveLocalityWinsOverPlaceholder(t *testing.T) {
	national := map[string]model.FeeAmount{
		"G0011": {Amount: dec("50.00"), IsPlaceholder: true},
	}
	locality := map[string]decimal.Decimal{
		"G0011": dec("61.25"),
	}

	got := NewFeeResolver(national, locality).Resolve("G0011")

	if !got.Amount.Equal(dec("61.25")) {
		t.Errorf("amount = %s, want 61.25", got.Amount)
	}
	if got.IsPlaceholder {
		t.Error("placeholder flag must not survive a locality match")
	}
}

func TestResolveNationalFallback(t *testing.T) {
	national := map[string]model.FeeAmount{
		"99213": {Amount: dec("88.50")},
		"G0011": {Amount: dec("50.00"), IsPlaceholder: true},
	}

	r := NewFeeResolver(national, nil)

	got := r.Resolve("99213")
	if !got.Amount.Equal(dec("88.50")) || got.IsPlaceholder {
		t.Errorf("99213 = {%s %v}, want {88.50 false}", got.Amount, got.IsPlaceholder)
	}
	if got.Locality != nil {
		t.Errorf("locality = %v, want nil", got.Locality)
	}

	got = r.Resolve("G0011")
	if !got.Amount.Equal(dec("50.00")) || !got.IsPlaceholder {
		t.Errorf("G0011 = {%s %v}, want {50.00 true}", got.Amount, got.IsPlaceholder)
	}
}

func TestResolveMissingEverywhere(t *testing.T) {
	got := NewFeeResolver(nil, nil).Resolve("00000")

	if !got.Amount.IsZero() {
		t.Errorf("amount = %s, want 0", got.Amount)
	}
	if !got.IsPlaceholder {
		t.Error("missing fee must be flagged as placeholder")
	}
	if got.National != nil || got.Locality != nil {
		t.Error("national and locality must be nil when no row exists")
	}
}
