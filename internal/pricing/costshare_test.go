package pricing

import (
	"testing"

	"github.com/gyeh/carecost/internal/model"
)

func TestEstimatePatientShareMedicareOriginal(t *testing.T) {
	portion, label := EstimatePatientShare(dec("155.00"), model.KindMedicareOriginal)

	if portion == nil || !portion.Equal(dec("31.00")) {
		t.Fatalf("portion = %v, want 31.00", portion)
	}
	if label == nil || *label != "20% coinsurance (est.)" {
		t.Fatalf("label = %v, want coinsurance label", label)
	}
}

func TestEstimatePatientShareRounding(t *testing.T) {
	portion, _ := EstimatePatientShare(dec("90.05"), model.KindMedicareOriginal)

	// 90.05 * 0.20 = 18.01, already exact at 2dp.
	if portion == nil || !portion.Equal(dec("18.01")) {
		t.Fatalf("portion = %v, want 18.01", portion)
	}

	portion, _ = EstimatePatientShare(dec("33.33"), model.KindMedicareOriginal)
	if portion == nil || !portion.Equal(dec("6.67")) {
		t.Fatalf("portion = %v, want 6.67", portion)
	}
}

func TestEstimatePatientShareOtherKinds(t *testing.T) {
	for _, kind := range []model.PayerKind{model.KindMedicareAdvantage, model.KindCommercial} {
		portion, label := EstimatePatientShare(dec("100.00"), kind)
		if portion != nil || label != nil {
			t.Errorf("kind %q: portion = %v, label = %v, want nil/nil", kind, portion, label)
		}
	}
}

func TestEstimatePatientShareZeroAmount(t *testing.T) {
	portion, label := EstimatePatientShare(dec("0"), model.KindMedicareOriginal)

	if portion == nil || !portion.IsZero() {
		t.Fatalf("portion = %v, want 0", portion)
	}
	if label == nil {
		t.Fatal("label missing for medicare_original")
	}
}
