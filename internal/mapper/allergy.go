package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// normalizeAllergyCategory folds the Synthea CATEGORY values onto the
// FHIR allergy-intolerance-category codes. Synthea writes "drug" where
// FHIR says "medication".
func normalizeAllergyCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "drug", "medication":
		return "medication"
	case "food":
		return "food"
	case "environment":
		return "environment"
	}
	return ""
}

// MapAllergy converts an allergies.csv row to a FHIR
// AllergyIntolerance resource. Up to two reaction column triplets
// (REACTION/DESCRIPTION/SEVERITY 1 and 2) become reaction entries.
func MapAllergy(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	start := row.GetAny("START", "Start")
	stop := row.GetAny("STOP", "Stop")
	code := row.GetAny("CODE", "Code")
	description := row.GetAny("DESCRIPTION", "Description")

	alg := map[string]interface{}{
		"resourceType": "AllergyIntolerance",
		"verificationStatus": fhir.Concept(fhir.SystemAllergyVerification,
			"confirmed", "Confirmed", ""),
	}
	setIfPresent(alg, "id", resourceID("alg", patient, start, code))

	clinical, clinicalDisplay := "active", "Active"
	if stop != "" {
		clinical, clinicalDisplay = "resolved", "Resolved"
	}
	alg["clinicalStatus"] = fhir.Concept(fhir.SystemAllergyClinical, clinical, clinicalDisplay, "")

	if typ := row.Get("TYPE"); typ != "" {
		alg["type"] = strings.ToLower(typ)
	}
	if category := normalizeAllergyCategory(row.Get("CATEGORY")); category != "" {
		alg["category"] = []interface{}{category}
	}

	if code != "" {
		system := row.Get("SYSTEM")
		if system == "" {
			system = fhir.SystemSNOMED
		}
		alg["code"] = fhir.Concept(system, code, description, description)
	}
	fhir.SetReference(alg, "patient", "Patient", patient)
	fhir.SetReference(alg, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))
	setIfPresent(alg, "recordedDate", toFHIRDateTime(start))
	setIfPresent(alg, "onsetDateTime", toFHIRDateTime(start))
	setIfPresent(alg, "lastOccurrence", toFHIRDateTime(stop))

	var reactions []interface{}
	for _, idx := range []string{"1", "2"} {
		rxCode := row.Get("REACTION" + idx)
		rxDesc := row.Get("DESCRIPTION" + idx)
		rxSev := row.Get("SEVERITY" + idx)
		if rxCode == "" && rxDesc == "" && rxSev == "" {
			continue
		}
		reaction := map[string]interface{}{}
		if rxCode != "" {
			reaction["manifestation"] = []interface{}{
				map[string]interface{}{
					"coding": []interface{}{
						map[string]interface{}{
							"system": fhir.SystemSNOMED,
							"code":   rxCode,
						},
					},
				},
			}
		}
		setIfPresent(reaction, "description", rxDesc)
		if rxSev != "" {
			reaction["severity"] = strings.ToLower(rxSev)
		}
		reactions = append(reactions, reaction)
	}
	if len(reactions) > 0 {
		alg["reaction"] = reactions
	}

	return alg
}

// AllergyToRow converts a FHIR AllergyIntolerance resource back to an
// allergies.csv row. Severities come back uppercased, the way Synthea
// writes them.
func AllergyToRow(alg map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(alg, "AllergyIntolerance"); err != nil {
		return nil, err
	}
	row := newRow("allergies")

	if recorded, ok := fhir.GetString(alg, "recordedDate"); ok {
		row["START"] = fromFHIRDateTime(recorded)
	}
	if row["START"] == "" {
		if onset, ok := fhir.GetString(alg, "onsetDateTime"); ok {
			row["START"] = fromFHIRDateTime(onset)
		}
	}
	if last, ok := fhir.GetString(alg, "lastOccurrence"); ok {
		row["STOP"] = fromFHIRDateTime(last)
	}

	row["PATIENT"] = fhir.ReferenceIDAt(alg, "patient")
	row["ENCOUNTER"] = fhir.ReferenceIDAt(alg, "encounter")

	if coding, ok := fhir.CodingIn(alg, "code", fhir.SystemSNOMED, fhir.SystemRxNorm); ok {
		row["CODE"], _ = fhir.GetString(coding, "code")
		row["SYSTEM"], _ = fhir.GetString(coding, "system")
		row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
	}
	if row["DESCRIPTION"] == "" {
		row["DESCRIPTION"] = fhir.ConceptText(alg, "code")
	}

	if typ, ok := fhir.GetString(alg, "type"); ok {
		row["TYPE"] = strings.ToLower(typ)
	}
	if categories, ok := fhir.GetArray(alg, "category"); ok && len(categories) > 0 {
		if category, ok := categories[0].(string); ok {
			row["CATEGORY"] = normalizeAllergyCategory(category)
		}
	}

	reactions, _ := fhir.GetArray(alg, "reaction")
	for i, idx := range []string{"1", "2"} {
		if i >= len(reactions) {
			break
		}
		reaction, ok := reactions[i].(map[string]interface{})
		if !ok {
			continue
		}
		if manifestation, ok := fhir.FirstMap(reaction, "manifestation"); ok {
			if coding, ok := fhir.ConceptCoding(manifestation, fhir.SystemSNOMED); ok {
				row["REACTION"+idx], _ = fhir.GetString(coding, "code")
			}
		}
		row["DESCRIPTION"+idx], _ = fhir.GetString(reaction, "description")
		if sev, ok := fhir.GetString(reaction, "severity"); ok {
			row["SEVERITY"+idx] = strings.ToUpper(sev)
		}
	}

	return row, nil
}
