package fhir

import "strings"

// FormatReference renders the relative literal form "Type/id".
func FormatReference(resourceType, id string) string {
	return resourceType + "/" + id
}

// Reference builds a reference element pointing at "Type/id". It
// returns nil when id is empty or blank, so callers can assign the
// result unconditionally and let empty columns drop out.
func Reference(resourceType, id string) map[string]interface{} {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return map[string]interface{}{
		"reference": FormatReference(resourceType, id),
	}
}

// SetReference stores a reference on the resource under key, doing
// nothing when id is empty.
func SetReference(resource map[string]interface{}, key, resourceType, id string) {
	if ref := Reference(resourceType, id); ref != nil {
		resource[key] = ref
	}
}

// ReferenceID extracts the id part of a reference element: the
// substring after the last "/". It returns "" when the element or its
// reference field is missing.
func ReferenceID(ref map[string]interface{}) string {
	literal, ok := GetString(ref, "reference")
	if !ok || literal == "" {
		return ""
	}
	if i := strings.LastIndex(literal, "/"); i >= 0 {
		return literal[i+1:]
	}
	return literal
}

// ReferenceIDAt extracts the id of the reference stored on the
// resource under key.
func ReferenceIDAt(resource map[string]interface{}, key string) string {
	ref, ok := GetMap(resource, key)
	if !ok {
		return ""
	}
	return ReferenceID(ref)
}
