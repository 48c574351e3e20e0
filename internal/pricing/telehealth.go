package pricing

import "github.com/gyeh/carecost/internal/model"

// Telehealth is the derived place-of-service routing for a request.
// EffectivePlace drives fee resolution; the originally requested place is
// retained by the caller for display and for override lookups.
type Telehealth struct {
	EffectivePlace model.Place
	POS            *string
	Modifier       *string
}

// DeriveTelehealth maps the requested place and visit mode onto the effective
// fee-schedule place, claim POS code, and telehealth modifier.
func DeriveTelehealth(place model.Place, mode model.Mode, audioOnly bool) Telehealth {
	switch mode {
	case model.ModeTeleHome:
		// POS 10, paid at the non-facility rate.
		return Telehealth{
			EffectivePlace: model.PlaceNonFacility,
			POS:            strPtr("10"),
			Modifier:       teleModifier(audioOnly),
		}
	case model.ModeTele02:
		// POS 02, paid at the facility rate.
		return Telehealth{
			EffectivePlace: model.PlaceFacility,
			POS:            strPtr("02"),
			Modifier:       teleModifier(audioOnly),
		}
	default:
		// In person: the requested place stands, no POS or modifier.
		return Telehealth{EffectivePlace: place}
	}
}

func teleModifier(audioOnly bool) *string {
	if audioOnly {
		return strPtr("93")
	}
	return strPtr("95")
}

func strPtr(s string) *string { return &s }
