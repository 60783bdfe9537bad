package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapObservation converts an observations.csv row to a FHIR
// Observation resource. CSV observations are always final.
func MapObservation(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	date := row.GetAny("DATE", "Date")
	code := row.GetAny("CODE", "Code")

	obs := map[string]interface{}{
		"resourceType": "Observation",
		"status":       "final",
	}
	setIfPresent(obs, "id", resourceID("obs", patient, date, code))
	if code != "" {
		obs["code"] = fhir.Concept(fhir.SystemLOINC, code, row.GetAny("DESCRIPTION", "Description"), row.GetAny("DESCRIPTION", "Description"))
	}
	fhir.SetReference(obs, "subject", "Patient", patient)
	fhir.SetReference(obs, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))
	if dt := toFHIRDateTime(date); dt != "" {
		obs["effectiveDateTime"] = dt
		obs["issued"] = dt
	}
	if category := row.GetAny("CATEGORY", "TYPE"); category != "" {
		obs["category"] = []interface{}{observationCategoryToFHIR(category)}
	}
	if key, value, ok := encodeValue(row.Get("VALUE"), row.Get("UNITS")); ok {
		obs[key] = value
	}
	return obs
}

// ObservationToRow converts a FHIR Observation resource back to an
// observations.csv row.
func ObservationToRow(obs map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(obs, "Observation"); err != nil {
		return nil, err
	}
	row := newRow("observations")

	if dt, ok := fhir.GetString(obs, "effectiveDateTime"); ok {
		row["DATE"] = fromFHIRDateTime(dt)
	} else if issued, ok := fhir.GetString(obs, "issued"); ok {
		row["DATE"] = fromFHIRDateTime(issued)
	}

	row["PATIENT"] = fhir.ReferenceIDAt(obs, "subject")
	row["ENCOUNTER"] = fhir.ReferenceIDAt(obs, "encounter")

	if categories, ok := fhir.GetArray(obs, "category"); ok {
		row["CATEGORY"] = observationCategoryToSynthea(categories)
	}

	if coding, ok := fhir.CodingIn(obs, "code", fhir.SystemLOINC); ok {
		row["CODE"], _ = fhir.GetString(coding, "code")
		row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
	}
	if row["DESCRIPTION"] == "" {
		row["DESCRIPTION"] = fhir.ConceptText(obs, "code")
	}

	row["VALUE"], row["UNITS"], row["TYPE"] = decodeValue(obs)
	return row, nil
}
