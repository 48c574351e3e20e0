package normalize

import (
	"strings"
	"time"
)

// Date formats found in CMS HCPCS and fee-schedule files.
var dateFormats = []string{
	"20060102",
	"2006-01-02",
	"01/02/2006",
}

// ParseDate attempts to parse a date string in the CMS formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
