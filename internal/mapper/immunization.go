package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapImmunization converts an immunizations.csv row to a FHIR
// Immunization resource. Vaccine codes are CVX.
func MapImmunization(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	date := row.GetAny("DATE", "Date")
	code := row.GetAny("CODE", "Code")
	description := row.GetAny("DESCRIPTION", "Description")

	imm := map[string]interface{}{
		"resourceType":  "Immunization",
		"status":        "completed",
		"primarySource": true,
	}
	setIfPresent(imm, "id", resourceID("immun", patient, date, code))
	if code != "" {
		imm["vaccineCode"] = fhir.Concept(fhir.SystemCVX, code, description, description)
	}
	fhir.SetReference(imm, "patient", "Patient", patient)
	fhir.SetReference(imm, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))
	setIfPresent(imm, "occurrenceDateTime", toFHIRDateTime(date))

	addDecimalExtension(imm, extImmunizationCost, row.GetAny("COST", "Cost"))
	return imm
}

// ImmunizationToRow converts a FHIR Immunization resource back to an
// immunizations.csv row.
func ImmunizationToRow(imm map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(imm, "Immunization"); err != nil {
		return nil, err
	}
	row := newRow("immunizations")

	if dt, ok := fhir.GetString(imm, "occurrenceDateTime"); ok {
		row["DATE"] = fromFHIRDateTime(dt)
	}
	row["PATIENT"] = fhir.ReferenceIDAt(imm, "patient")
	row["ENCOUNTER"] = fhir.ReferenceIDAt(imm, "encounter")

	if coding, ok := fhir.CodingIn(imm, "vaccineCode", fhir.SystemCVX); ok {
		row["CODE"], _ = fhir.GetString(coding, "code")
		row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
	}
	if row["DESCRIPTION"] == "" {
		row["DESCRIPTION"] = fhir.ConceptText(imm, "vaccineCode")
	}

	row["COST"] = decimalExtensionColumn(imm, extImmunizationCost)
	return row, nil
}
