package fhir

// Concept builds a CodeableConcept with a single coding. Empty display
// and text are left out.
func Concept(system, code, display, text string) map[string]interface{} {
	coding := map[string]interface{}{
		"system": system,
		"code":   code,
	}
	if display != "" {
		coding["display"] = display
	}
	cc := map[string]interface{}{
		"coding": []interface{}{coding},
	}
	if text != "" {
		cc["text"] = text
	}
	return cc
}

// Coding builds a bare coding element.
func Coding(system, code, display string) map[string]interface{} {
	coding := map[string]interface{}{
		"system": system,
		"code":   code,
	}
	if display != "" {
		coding["display"] = display
	}
	return coding
}

// Money builds a Money element. Synthea amounts are always US dollars.
func Money(value float64) map[string]interface{} {
	return map[string]interface{}{
		"value":    value,
		"currency": "USD",
	}
}

// Period builds a Period element, omitting empty boundaries. It returns
// nil when both are empty.
func Period(start, end string) map[string]interface{} {
	if start == "" && end == "" {
		return nil
	}
	p := map[string]interface{}{}
	if start != "" {
		p["start"] = start
	}
	if end != "" {
		p["end"] = end
	}
	return p
}

// Quantity builds a Quantity element with UCUM coding. An empty unit
// falls back to the dimensionless UCUM unit "1".
func Quantity(value float64, unit string) map[string]interface{} {
	if unit == "" {
		unit = "1"
	}
	return map[string]interface{}{
		"value":  value,
		"unit":   unit,
		"system": SystemUCUM,
		"code":   unit,
	}
}
