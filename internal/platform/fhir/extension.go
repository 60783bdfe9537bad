package fhir

// Extensions carry the CSV columns that have no first-class FHIR
// element. Writers append and never replace, so extensions added by
// other producers survive a round trip through the mappers.

// Extension builds a single-valued extension element.
func Extension(url, valueKey string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"url":    url,
		valueKey: value,
	}
}

// NestedExtension builds an extension carrying sub-extensions.
func NestedExtension(url string, subs ...map[string]interface{}) map[string]interface{} {
	ext := make([]interface{}, 0, len(subs))
	for _, s := range subs {
		ext = append(ext, s)
	}
	return map[string]interface{}{
		"url":       url,
		"extension": ext,
	}
}

// AddExtension appends ext to the resource's extension array, creating
// the array when absent. A nil ext is ignored.
func AddExtension(resource map[string]interface{}, ext map[string]interface{}) {
	if ext == nil {
		return
	}
	arr, _ := GetArray(resource, "extension")
	resource["extension"] = append(arr, ext)
}

// FindExtension returns the first extension on the resource with the
// given url.
func FindExtension(resource map[string]interface{}, url string) (map[string]interface{}, bool) {
	arr, ok := GetArray(resource, "extension")
	if !ok {
		return nil, false
	}
	return findByURL(arr, url)
}

// FindSubExtension returns the first sub-extension of ext with the
// given url.
func FindSubExtension(ext map[string]interface{}, url string) (map[string]interface{}, bool) {
	arr, ok := GetArray(ext, "extension")
	if !ok {
		return nil, false
	}
	return findByURL(arr, url)
}

func findByURL(arr []interface{}, url string) (map[string]interface{}, bool) {
	for _, e := range arr {
		ext, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if u, _ := GetString(ext, "url"); u == url {
			return ext, true
		}
	}
	return nil, false
}

// ExtensionString returns the valueString of the named extension, or
// "" when it is absent.
func ExtensionString(resource map[string]interface{}, url string) string {
	ext, ok := FindExtension(resource, url)
	if !ok {
		return ""
	}
	s, _ := GetString(ext, "valueString")
	return s
}

// ExtensionCode returns the valueCode of the named extension.
func ExtensionCode(resource map[string]interface{}, url string) string {
	ext, ok := FindExtension(resource, url)
	if !ok {
		return ""
	}
	s, _ := GetString(ext, "valueCode")
	return s
}

// ExtensionDecimal returns the valueDecimal of the named extension.
func ExtensionDecimal(resource map[string]interface{}, url string) (float64, bool) {
	ext, ok := FindExtension(resource, url)
	if !ok {
		return 0, false
	}
	return GetFloat(ext, "valueDecimal")
}

// ExtensionInt returns the valueInteger of the named extension.
func ExtensionInt(resource map[string]interface{}, url string) (int64, bool) {
	ext, ok := FindExtension(resource, url)
	if !ok {
		return 0, false
	}
	f, ok := GetFloat(ext, "valueInteger")
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// SubExtensionString returns the valueString of a sub-extension.
func SubExtensionString(ext map[string]interface{}, url string) string {
	sub, ok := FindSubExtension(ext, url)
	if !ok {
		return ""
	}
	s, _ := GetString(sub, "valueString")
	return s
}

// SubExtensionDecimal returns the valueDecimal of a sub-extension.
func SubExtensionDecimal(ext map[string]interface{}, url string) (float64, bool) {
	sub, ok := FindSubExtension(ext, url)
	if !ok {
		return 0, false
	}
	return GetFloat(sub, "valueDecimal")
}

// SubExtensionInt returns the valueInteger of a sub-extension.
func SubExtensionInt(ext map[string]interface{}, url string) (int64, bool) {
	sub, ok := FindSubExtension(ext, url)
	if !ok {
		return 0, false
	}
	f, ok := GetFloat(sub, "valueInteger")
	if !ok {
		return 0, false
	}
	return int64(f), true
}
