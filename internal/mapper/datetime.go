package mapper

import (
	"strings"
	"time"
)

// Synthea timestamps are "YYYY-MM-DD HH:MM:SS" or a bare date; FHIR
// carries ISO 8601 with a T separator and an optional offset. Synthea
// never records zone information, so everything is treated as UTC and
// rendered with the +00:00 offset FHIR requires on dateTime values.

const (
	syntheaDateTime = "2006-01-02 15:04:05"
	syntheaDate     = "2006-01-02"
)

// normalizeDateTime reduces the accepted input shapes to either
// "YYYY-MM-DD HH:MM:SS" or "YYYY-MM-DD": the T separator becomes a
// space, a trailing Z or ±HH:MM offset is dropped, fractional seconds
// are cut.
func normalizeDateTime(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "Z")
	if len(s) >= 6 && s[len(s)-3] == ':' && (s[len(s)-6] == '+' || s[len(s)-6] == '-') {
		if strings.ContainsAny(s, "T ") {
			s = s[:len(s)-6]
		}
	}
	s = strings.Replace(s, "T", " ", 1)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// toFHIRDateTime converts a Synthea or ISO timestamp to a FHIR
// dateTime. Input without a time component yields a bare date.
// Unparseable input yields "".
func toFHIRDateTime(s string) string {
	n := normalizeDateTime(s)
	if n == "" {
		return ""
	}
	if t, err := time.Parse(syntheaDateTime, n); err == nil {
		return t.Format("2006-01-02T15:04:05") + "+00:00"
	}
	if t, err := time.Parse(syntheaDate, n); err == nil {
		return t.Format(syntheaDate)
	}
	return ""
}

// toFHIRDate converts a Synthea or ISO timestamp to a FHIR date,
// truncating any time component.
func toFHIRDate(s string) string {
	n := normalizeDateTime(s)
	if n == "" {
		return ""
	}
	if t, err := time.Parse(syntheaDateTime, n); err == nil {
		return t.Format(syntheaDate)
	}
	if t, err := time.Parse(syntheaDate, n); err == nil {
		return t.Format(syntheaDate)
	}
	return ""
}

// fromFHIRDateTime converts a FHIR dateTime back to the Synthea
// "YYYY-MM-DD HH:MM:SS" form, or a bare date when the input has no
// time component. Unparseable input yields "".
func fromFHIRDateTime(s string) string {
	n := normalizeDateTime(s)
	if n == "" {
		return ""
	}
	if t, err := time.Parse(syntheaDateTime, n); err == nil {
		return t.Format(syntheaDateTime)
	}
	if t, err := time.Parse(syntheaDate, n); err == nil {
		return t.Format(syntheaDate)
	}
	return ""
}

// fromFHIRDate converts a FHIR date or dateTime to a Synthea date.
func fromFHIRDate(s string) string {
	n := normalizeDateTime(s)
	if len(n) < len(syntheaDate) {
		return ""
	}
	if t, err := time.Parse(syntheaDate, n[:len(syntheaDate)]); err == nil {
		return t.Format(syntheaDate)
	}
	return ""
}

// yearStart renders a Synthea plan year as the first day of that year.
// payer_transitions records coverage by whole years only.
func yearStart(year string) string {
	if !isYear(year) {
		return ""
	}
	return year + "-01-01"
}

// yearEnd renders a Synthea plan year as the last day of that year.
func yearEnd(year string) string {
	if !isYear(year) {
		return ""
	}
	return year + "-12-31"
}

// yearOf extracts the leading 4-digit year from any date string.
func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) >= 4 && isYear(date[:4]) {
		return date[:4]
	}
	return ""
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
