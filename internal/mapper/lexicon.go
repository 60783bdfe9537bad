package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
)

// Lexicon tables are package-level literals and never mutated at
// runtime.

var genderForward = map[string]string{
	"M": "male",
	"F": "female",
	"O": "other",
	"U": "unknown",
}

var genderReverse = map[string]string{
	"male":    "M",
	"female":  "F",
	"other":   "O",
	"unknown": "U",
}

// genderToFHIR maps a Synthea GENDER code to the FHIR administrative
// gender, defaulting to unknown.
func genderToFHIR(code string) string {
	if g, ok := genderForward[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return g
	}
	return "unknown"
}

// genderToSynthea maps a FHIR administrative gender back to the
// Synthea single-letter code, defaulting to U.
func genderToSynthea(gender string) string {
	if c, ok := genderReverse[strings.ToLower(strings.TrimSpace(gender))]; ok {
		return c
	}
	return "U"
}

var maritalDisplay = map[string]string{
	"S": "Never Married",
	"M": "Married",
	"D": "Divorced",
	"W": "Widowed",
}

// maritalToFHIR builds the maritalStatus CodeableConcept for a Synthea
// MARITAL code. Unknown codes yield nil and the element is omitted.
func maritalToFHIR(code string) map[string]interface{} {
	code = strings.ToUpper(strings.TrimSpace(code))
	display, ok := maritalDisplay[code]
	if !ok {
		return nil
	}
	return fhir.Concept(fhir.SystemMaritalStatus, code, display, display)
}

// maritalToSynthea extracts the Synthea MARITAL code from a
// maritalStatus CodeableConcept.
func maritalToSynthea(cc map[string]interface{}) string {
	if cc == nil {
		return ""
	}
	if coding, ok := fhir.ConceptCoding(cc, fhir.SystemMaritalStatus); ok {
		code, _ := fhir.GetString(coding, "code")
		if _, known := maritalDisplay[code]; known {
			return code
		}
	}
	return ""
}

// encounterClass carries the ActCode coding for a Synthea
// EncounterClass value.
type encounterClass struct {
	code    string
	display string
}

var encounterClassForward = map[string]encounterClass{
	"ambulatory": {"AMB", "ambulatory"},
	"wellness":   {"AMB", "ambulatory"},
	"outpatient": {"AMB", "ambulatory"},
	"emergency":  {"EMER", "emergency"},
	"inpatient":  {"IMP", "inpatient encounter"},
	"urgentcare": {"ACUTE", "inpatient acute"},
}

var encounterClassReverse = map[string]string{
	"AMB":   "ambulatory",
	"EMER":  "emergency",
	"IMP":   "inpatient",
	"ACUTE": "urgentcare",
}

// encounterClassToFHIR builds the class Coding for a Synthea
// EncounterClass value, defaulting to ambulatory.
func encounterClassToFHIR(class string) map[string]interface{} {
	ec, ok := encounterClassForward[strings.ToLower(strings.TrimSpace(class))]
	if !ok {
		ec = encounterClass{"AMB", "ambulatory"}
	}
	return fhir.Coding(fhir.SystemActCode, ec.code, ec.display)
}

// encounterClassToSynthea maps a class Coding back to the Synthea
// EncounterClass value. Codes outside the lexicon fall back to the
// lowercased display.
func encounterClassToSynthea(coding map[string]interface{}) string {
	if coding == nil {
		return ""
	}
	code, _ := fhir.GetString(coding, "code")
	if class, ok := encounterClassReverse[code]; ok {
		return class
	}
	display, _ := fhir.GetString(coding, "display")
	return strings.ToLower(display)
}

var observationCategoryDisplay = map[string]string{
	"vital-signs":    "Vital Signs",
	"laboratory":     "Laboratory",
	"survey":         "Survey",
	"social-history": "Social History",
	"imaging":        "Imaging",
	"procedure":      "Procedure",
	"exam":           "Exam",
}

// observationCategoryToFHIR builds the category CodeableConcept for a
// Synthea observation CATEGORY value, defaulting to exam.
func observationCategoryToFHIR(category string) map[string]interface{} {
	code := strings.ToLower(strings.TrimSpace(category))
	display, ok := observationCategoryDisplay[code]
	if !ok {
		code, display = "exam", "Exam"
	}
	return map[string]interface{}{
		"coding": []interface{}{fhir.Coding(fhir.SystemObservationCategory, code, display)},
	}
}

// observationCategoryToSynthea extracts the Synthea CATEGORY value
// from an Observation category array, defaulting to exam.
func observationCategoryToSynthea(categories []interface{}) string {
	for _, c := range categories {
		cc, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		coding, ok := fhir.ConceptCoding(cc, fhir.SystemObservationCategory)
		if !ok {
			continue
		}
		code, _ := fhir.GetString(coding, "code")
		if _, known := observationCategoryDisplay[code]; known {
			return code
		}
	}
	return "exam"
}

// ombCategory holds the CDC race and ethnicity coding plus the text
// rendering the US Core extensions carry. The two differ only for
// "other" (coded "Other Race", texted "Other").
type ombCategory struct {
	code    string
	display string
	text    string
}

var raceLexicon = map[string]ombCategory{
	"white":    {"2106-3", "White", "White"},
	"black":    {"2054-5", "Black or African American", "Black or African American"},
	"asian":    {"2028-9", "Asian", "Asian"},
	"native":   {"1002-5", "American Indian or Alaska Native", "American Indian or Alaska Native"},
	"hawaiian": {"2076-8", "Native Hawaiian or Other Pacific Islander", "Native Hawaiian or Other Pacific Islander"},
	"other":    {"2131-1", "Other Race", "Other"},
}

var raceReverse = map[string]string{
	"2106-3": "white",
	"2054-5": "black",
	"2028-9": "asian",
	"1002-5": "native",
	"2076-8": "hawaiian",
	"2131-1": "other",
}

var ethnicityLexicon = map[string]ombCategory{
	"hispanic":    {"2135-2", "Hispanic or Latino", "Hispanic or Latino"},
	"nonhispanic": {"2186-5", "Not Hispanic or Latino", "Not Hispanic or Latino"},
}

var ethnicityReverse = map[string]string{
	"2135-2": "hispanic",
	"2186-5": "nonhispanic",
}
