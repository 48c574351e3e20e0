package normalize

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// Code trims whitespace, uppercases, and strips non-alphanumeric characters.
// Returns "" when nothing usable remains.
func Code(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(s)
	return nonAlphanumeric.ReplaceAllString(s, "")
}

// MAC left-pads a Medicare Administrative Contractor code to the canonical
// 5-digit form used across CMS files.
func MAC(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}

// Field strips surrounding quotes and whitespace from a raw CMS field.
func Field(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// NilIfEmpty maps a trimmed string to a nullable column value.
func NilIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
