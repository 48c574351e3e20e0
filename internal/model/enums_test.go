package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePlace(t *testing.T) {
	for _, s := range []string{"facility", "nonfacility"} {
		if _, err := ParsePlace(s); err != nil {
			t.Errorf("ParsePlace(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "Facility", "office", "non-facility"} {
		if _, err := ParsePlace(s); err == nil {
			t.Errorf("ParsePlace(%q) accepted invalid value", s)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"inperson", "telehome", "tele02"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "virtual", "tele10"} {
		if _, err := ParseMode(s); err == nil {
			t.Errorf("ParseMode(%q) accepted invalid value", s)
		}
	}
}

func TestParseRender(t *testing.T) {
	for _, s := range []string{"physician", "nppa"} {
		if _, err := ParseRender(s); err != nil {
			t.Errorf("ParseRender(%q): %v", s, err)
		}
	}
	if _, err := ParseRender("nurse"); err == nil {
		t.Error("ParseRender accepted invalid value")
	}
}

func TestRenderMultiplier(t *testing.T) {
	if !RenderPhysician.Multiplier().Equal(decimal.New(1, 0)) {
		t.Errorf("physician multiplier = %s, want 1", RenderPhysician.Multiplier())
	}
	if !RenderNPPA.Multiplier().Equal(decimal.New(85, -2)) {
		t.Errorf("nppa multiplier = %s, want 0.85", RenderNPPA.Multiplier())
	}
}

func TestParsePayerKind(t *testing.T) {
	for _, s := range []string{"medicare_original", "medicare_advantage", "commercial"} {
		if _, err := ParsePayerKind(s); err != nil {
			t.Errorf("ParsePayerKind(%q): %v", s, err)
		}
	}
	if _, err := ParsePayerKind("medicaid"); err == nil {
		t.Error("ParsePayerKind accepted invalid value")
	}
}

func TestParseCodeType(t *testing.T) {
	for _, s := range []string{"CPT", "HCPCS"} {
		if _, err := ParseCodeType(s); err != nil {
			t.Errorf("ParseCodeType(%q): %v", s, err)
		}
	}
	for _, s := range []string{"cpt", "ICD10"} {
		if _, err := ParseCodeType(s); err == nil {
			t.Errorf("ParseCodeType(%q) accepted invalid value", s)
		}
	}
}
