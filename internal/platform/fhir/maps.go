package fhir

import "encoding/json"

// Resources produced by the mappers are plain JSON trees. The accessors
// below read them without panicking on absent keys or unexpected types,
// which keeps the reverse mappers tolerant of sparse input.

// GetString safely extracts a string from a map.
func GetString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetArray safely extracts a slice from a map.
func GetArray(m map[string]interface{}, key string) ([]interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]interface{})
	return arr, ok
}

// GetMap safely extracts a nested map from a map.
func GetMap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	nested, ok := v.(map[string]interface{})
	return nested, ok
}

// GetFloat safely extracts a numeric value from a map. It accepts the
// types a decoded JSON document or a mapper-built tree may carry.
func GetFloat(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// GetBool safely extracts a bool from a map.
func GetBool(m map[string]interface{}, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// ToFloat converts the numeric representations found in JSON trees to a
// float64. Integers appear when a tree was built in memory, json.Number
// when it was decoded with UseNumber.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FirstMap returns the first element of a map-valued array under key.
func FirstMap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	arr, ok := GetArray(m, key)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	first, ok := arr[0].(map[string]interface{})
	return first, ok
}

// CodingIn returns the first coding of the CodeableConcept stored under
// key, preferring a coding whose system matches one of the given
// systems. With no systems it returns the first coding.
func CodingIn(m map[string]interface{}, key string, systems ...string) (map[string]interface{}, bool) {
	cc, ok := GetMap(m, key)
	if !ok {
		return nil, false
	}
	return ConceptCoding(cc, systems...)
}

// ConceptCoding returns the first coding of a CodeableConcept,
// preferring a coding from one of the given systems.
func ConceptCoding(cc map[string]interface{}, systems ...string) (map[string]interface{}, bool) {
	codings, ok := GetArray(cc, "coding")
	if !ok || len(codings) == 0 {
		return nil, false
	}
	for _, want := range systems {
		for _, c := range codings {
			coding, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			if system, _ := GetString(coding, "system"); system == want {
				return coding, true
			}
		}
	}
	first, ok := codings[0].(map[string]interface{})
	return first, ok
}

// ConceptText returns the display text of the CodeableConcept under
// key: its text field when present, otherwise the display of its first
// coding.
func ConceptText(m map[string]interface{}, key string) string {
	cc, ok := GetMap(m, key)
	if !ok {
		return ""
	}
	if text, ok := GetString(cc, "text"); ok && text != "" {
		return text
	}
	if coding, ok := ConceptCoding(cc); ok {
		display, _ := GetString(coding, "display")
		return display
	}
	return ""
}
