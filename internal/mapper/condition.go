package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapCondition converts a conditions.csv row to a FHIR Condition
// resource. A STOP date marks the condition resolved; without one it
// is active.
func MapCondition(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	start := row.GetAny("START", "Start")
	stop := row.GetAny("STOP", "Stop")
	code := row.GetAny("CODE", "Code")
	description := row.GetAny("DESCRIPTION", "Description")

	cond := map[string]interface{}{
		"resourceType": "Condition",
		"verificationStatus": fhir.Concept(fhir.SystemConditionVerStatus,
			"confirmed", "Confirmed", ""),
		"category": []interface{}{fhir.Concept(fhir.SystemConditionCategory,
			"encounter-diagnosis", "Encounter Diagnosis", "")},
	}
	setIfPresent(cond, "id", resourceID("cond", patient, start, code))

	clinical := "active"
	clinicalDisplay := "Active"
	if stop != "" {
		clinical, clinicalDisplay = "resolved", "Resolved"
	}
	cond["clinicalStatus"] = fhir.Concept(fhir.SystemConditionClinical, clinical, clinicalDisplay, "")

	if code != "" {
		cond["code"] = fhir.Concept(fhir.SystemSNOMED, code, description, description)
	}
	fhir.SetReference(cond, "subject", "Patient", patient)
	fhir.SetReference(cond, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))
	setIfPresent(cond, "onsetDateTime", toFHIRDateTime(start))
	setIfPresent(cond, "abatementDateTime", toFHIRDateTime(stop))
	return cond
}

// ConditionToRow converts a FHIR Condition resource back to a
// conditions.csv row.
func ConditionToRow(cond map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(cond, "Condition"); err != nil {
		return nil, err
	}
	row := newRow("conditions")

	if onset, ok := fhir.GetString(cond, "onsetDateTime"); ok {
		row["START"] = fromFHIRDateTime(onset)
	}
	if abatement, ok := fhir.GetString(cond, "abatementDateTime"); ok {
		row["STOP"] = fromFHIRDateTime(abatement)
	}

	row["PATIENT"] = fhir.ReferenceIDAt(cond, "subject")
	row["ENCOUNTER"] = fhir.ReferenceIDAt(cond, "encounter")

	row["SYSTEM"] = fhir.SystemSNOMED
	if coding, ok := fhir.CodingIn(cond, "code", fhir.SystemSNOMED); ok {
		row["CODE"], _ = fhir.GetString(coding, "code")
		row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
		if system, _ := fhir.GetString(coding, "system"); system != "" {
			row["SYSTEM"] = system
		}
	}
	if row["DESCRIPTION"] == "" {
		row["DESCRIPTION"] = fhir.ConceptText(cond, "code")
	}
	return row, nil
}
