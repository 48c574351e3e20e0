package normalize

import (
	"testing"
	"time"
)

func TestCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"99213", "99213"},
		{" g0011 ", "G0011"},
		{`"99213"`, "99213"},
		{"992-13", "99213"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Code(tt.in); got != tt.want {
			t.Errorf("Code(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMAC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10212", "10212"},
		{"1112", "01112"},
		{"2", "00002"},
		{" 10212 ", "10212"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MAC(tt.in); got != tt.want {
			t.Errorf("MAC(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"0000031.56"`, "31.56", false},
		{"$1,234.50", "1234.5", false},
		{"88.5", "88.5", false},
		{"0", "0", false},
		{"", "0", false},
		{"  ", "0", false},
		{"12.345", "12.35", false},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got, err := Amount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Amount(%q) expected error, got %s", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Amount(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("Amount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"20251001", "2025-10-01", "10/01/2025"} {
		got := ParseDate(in)
		if got == nil || !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %s", in, got, want)
		}
	}
	for _, in := range []string{"", "  ", "not-a-date", "13/45/2025"} {
		if got := ParseDate(in); got != nil {
			t.Errorf("ParseDate(%q) = %v, want nil", in, got)
		}
	}
}

func TestNilIfEmpty(t *testing.T) {
	if got := NilIfEmpty("  "); got != nil {
		t.Errorf("NilIfEmpty(blank) = %q, want nil", *got)
	}
	got := NilIfEmpty(" x ")
	if got == nil || *got != "x" {
		t.Errorf("NilIfEmpty(\" x \") = %v, want x", got)
	}
}
