package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapMedication converts a medications.csv row to a FHIR
// MedicationRequest resource. A STOP date marks the request stopped;
// without one it is active.
func MapMedication(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	start := row.GetAny("START", "Start")
	stop := row.GetAny("STOP", "Stop")
	code := row.GetAny("CODE", "Code")
	description := row.GetAny("DESCRIPTION", "Description")

	mr := map[string]interface{}{
		"resourceType": "MedicationRequest",
		"intent":       "order",
	}
	setIfPresent(mr, "id", resourceID("medreq", patient, start, code))
	if stop != "" {
		mr["status"] = "stopped"
	} else {
		mr["status"] = "active"
	}

	if code != "" {
		mr["medicationCodeableConcept"] = fhir.Concept(fhir.SystemRxNorm, code, description, description)
	}
	fhir.SetReference(mr, "subject", "Patient", patient)
	fhir.SetReference(mr, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))
	setIfPresent(mr, "authoredOn", toFHIRDateTime(start))
	if period := fhir.Period(toFHIRDateTime(start), toFHIRDateTime(stop)); period != nil {
		mr["occurrencePeriod"] = period
	}

	reasonCode := row.GetAny("ReasonCode", "REASONCODE")
	reasonDesc := row.GetAny("ReasonDescription", "REASONDESCRIPTION")
	if reasonCode != "" || reasonDesc != "" {
		mr["reasonCode"] = []interface{}{snomedConcept(reasonCode, reasonDesc)}
	}

	if repeats, ok := parseInt(row.Get("Dispenses")); ok {
		mr["dispenseRequest"] = map[string]interface{}{
			"numberOfRepeatsAllowed": repeats,
		}
	}
	if payer := row.GetAny("PAYER", "Payer"); payer != "" {
		mr["insurance"] = []interface{}{fhir.Reference("Coverage", payer)}
	}

	addDecimalExtension(mr, extMedicationBaseCost, row.Get("Base_Cost"))
	addDecimalExtension(mr, extMedicationCoverage, row.Get("Payer_Coverage"))
	addDecimalExtension(mr, extMedicationTotal, row.Get("TotalCost"))

	return mr
}

// MedicationToRow converts a FHIR MedicationRequest resource back to
// a medications.csv row.
func MedicationToRow(mr map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(mr, "MedicationRequest"); err != nil {
		return nil, err
	}
	row := newRow("medications")

	if authored, ok := fhir.GetString(mr, "authoredOn"); ok {
		row["START"] = fromFHIRDateTime(authored)
	}
	if period, ok := fhir.GetMap(mr, "occurrencePeriod"); ok {
		if row["START"] == "" {
			if start, ok := fhir.GetString(period, "start"); ok {
				row["START"] = fromFHIRDateTime(start)
			}
		}
		if end, ok := fhir.GetString(period, "end"); ok {
			row["STOP"] = fromFHIRDateTime(end)
		}
	}

	row["PATIENT"] = fhir.ReferenceIDAt(mr, "subject")
	row["ENCOUNTER"] = fhir.ReferenceIDAt(mr, "encounter")
	if insurance, ok := fhir.FirstMap(mr, "insurance"); ok {
		row["PAYER"] = fhir.ReferenceID(insurance)
	}

	if concept, ok := fhir.GetMap(mr, "medicationCodeableConcept"); ok {
		if coding, ok := fhir.ConceptCoding(concept, fhir.SystemRxNorm); ok {
			row["CODE"], _ = fhir.GetString(coding, "code")
			row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
		}
		if row["DESCRIPTION"] == "" {
			row["DESCRIPTION"] = fhir.ConceptText(mr, "medicationCodeableConcept")
		}
	}

	row["ReasonCode"], row["ReasonDescription"] = firstConceptColumns(mr, "reasonCode")

	if disp, ok := fhir.GetMap(mr, "dispenseRequest"); ok {
		if repeats, ok := fhir.GetFloat(disp, "numberOfRepeatsAllowed"); ok {
			row["Dispenses"] = formatNumber(repeats)
		}
	}

	row["Base_Cost"] = decimalExtensionColumn(mr, extMedicationBaseCost)
	row["Payer_Coverage"] = decimalExtensionColumn(mr, extMedicationCoverage)
	row["TotalCost"] = decimalExtensionColumn(mr, extMedicationTotal)

	return row, nil
}
