package mapper

import (
	"math"
	"strconv"
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
)

// Synthea observation TYPE tags.
const (
	valueTypeNumeric = "numeric"
	valueTypeText    = "text"
)

// parseNumeric leniently parses a Synthea numeric field. Malformed
// input reports false so callers fall through to the string branch
// instead of erroring on data. Non-finite tokens ("NaN", "Inf") are
// rejected too: they parse but cannot be JSON-marshaled, so an
// accepted one would poison a whole output file.
func parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseInt leniently parses an integer-valued column.
func parseInt(s string) (int64, bool) {
	f, ok := parseNumeric(s)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// formatNumber renders a float the way Synthea writes it: whole
// numbers without a decimal part, everything else with the shortest
// exact representation.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt renders an integer column value.
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// encodeValue classifies a Synthea VALUE field and returns the FHIR
// value[x] element key and value. Boolean keywords are checked before
// numbers; anything that is neither becomes a valueString. An empty
// value returns ok=false and the element is omitted entirely.
func encodeValue(raw, units string) (string, interface{}, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, false
	}
	switch strings.ToLower(raw) {
	case "true":
		return "valueBoolean", true, true
	case "false":
		return "valueBoolean", false, true
	}
	if f, ok := parseNumeric(raw); ok {
		return "valueQuantity", fhir.Quantity(f, units), true
	}
	return "valueString", raw, true
}

// decodeValue extracts the Synthea VALUE, UNITS and TYPE columns from
// a resource's value[x] element. Quantities and bare numbers tag
// numeric; strings, booleans and codeable concepts tag text. A
// resource without a value yields empty columns tagged text.
func decodeValue(resource map[string]interface{}) (value, units, typeTag string) {
	if q, ok := fhir.GetMap(resource, "valueQuantity"); ok {
		if f, ok := fhir.GetFloat(q, "value"); ok {
			value = formatNumber(f)
		}
		units, _ = fhir.GetString(q, "unit")
		if units == "" {
			units, _ = fhir.GetString(q, "code")
		}
		return value, units, valueTypeNumeric
	}
	if f, ok := fhir.GetFloat(resource, "valueInteger"); ok {
		return formatNumber(f), "", valueTypeNumeric
	}
	if f, ok := fhir.GetFloat(resource, "valueDecimal"); ok {
		return formatNumber(f), "", valueTypeNumeric
	}
	if s, ok := fhir.GetString(resource, "valueString"); ok {
		return s, "", valueTypeText
	}
	if b, ok := fhir.GetBool(resource, "valueBoolean"); ok {
		return strconv.FormatBool(b), "", valueTypeText
	}
	if cc, ok := fhir.GetMap(resource, "valueCodeableConcept"); ok {
		if text, ok := fhir.GetString(cc, "text"); ok && text != "" {
			return text, "", valueTypeText
		}
		if coding, ok := fhir.ConceptCoding(cc); ok {
			if display, _ := fhir.GetString(coding, "display"); display != "" {
				return display, "", valueTypeText
			}
			code, _ := fhir.GetString(coding, "code")
			return code, "", valueTypeText
		}
	}
	return "", "", valueTypeText
}
