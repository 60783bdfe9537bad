package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapEncounter converts an encounters.csv row to a FHIR Encounter
// resource. The Synthea cost columns have no first-class element and
// ride along as decimal extensions; the payer becomes an Organization
// reference extension.
func MapEncounter(row synthea.Row) map[string]interface{} {
	stop := row.GetAny("Stop", "STOP")

	enc := map[string]interface{}{
		"resourceType": "Encounter",
		"class":        encounterClassToFHIR(row.Get("EncounterClass")),
	}
	setIfPresent(enc, "id", row.GetAny("Id", "ID"))
	if stop != "" {
		enc["status"] = "finished"
	} else {
		enc["status"] = "in-progress"
	}

	code := row.GetAny("Code", "CODE")
	description := row.GetAny("Description", "DESCRIPTION")
	if code != "" || description != "" {
		enc["type"] = []interface{}{snomedConcept(code, description)}
	}

	fhir.SetReference(enc, "subject", "Patient", row.GetAny("Patient", "PATIENT"))
	fhir.SetReference(enc, "serviceProvider", "Organization", row.GetAny("Organization", "ORGANIZATION"))
	if provider := row.GetAny("Provider", "PROVIDER"); provider != "" {
		enc["participant"] = []interface{}{
			map[string]interface{}{
				"individual": fhir.Reference("Practitioner", provider),
			},
		}
	}

	if period := fhir.Period(toFHIRDateTime(row.GetAny("Start", "START")), toFHIRDateTime(stop)); period != nil {
		enc["period"] = period
	}

	reasonCode := row.GetAny("ReasonCode", "REASONCODE")
	reasonDesc := row.GetAny("ReasonDescription", "REASONDESCRIPTION")
	if reasonCode != "" || reasonDesc != "" {
		enc["reasonCode"] = []interface{}{snomedConcept(reasonCode, reasonDesc)}
	}

	addDecimalExtension(enc, extEncounterBaseCost, row.Get("Base_Encounter_Cost"))
	addDecimalExtension(enc, extEncounterTotalCost, row.Get("Total_Claim_Cost"))
	addDecimalExtension(enc, extEncounterCoverage, row.Get("Payer_Coverage"))
	if payer := row.GetAny("Payer", "PAYER"); payer != "" {
		fhir.AddExtension(enc, fhir.Extension(extEncounterPayer, "valueReference",
			fhir.Reference("Organization", payer)))
	}

	return enc
}

// EncounterToRow converts a FHIR Encounter resource back to an
// encounters.csv row.
func EncounterToRow(enc map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(enc, "Encounter"); err != nil {
		return nil, err
	}
	row := newRow("encounters")

	row["Id"], _ = fhir.GetString(enc, "id")
	if period, ok := fhir.GetMap(enc, "period"); ok {
		if start, ok := fhir.GetString(period, "start"); ok {
			row["Start"] = fromFHIRDateTime(start)
		}
		if end, ok := fhir.GetString(period, "end"); ok {
			row["Stop"] = fromFHIRDateTime(end)
		}
	}

	row["Patient"] = fhir.ReferenceIDAt(enc, "subject")
	row["Organization"] = fhir.ReferenceIDAt(enc, "serviceProvider")
	if participant, ok := fhir.FirstMap(enc, "participant"); ok {
		row["Provider"] = fhir.ReferenceIDAt(participant, "individual")
	}
	if payerExt, ok := fhir.FindExtension(enc, extEncounterPayer); ok {
		if ref, ok := fhir.GetMap(payerExt, "valueReference"); ok {
			row["Payer"] = fhir.ReferenceID(ref)
		}
	}

	if class, ok := fhir.GetMap(enc, "class"); ok {
		row["EncounterClass"] = encounterClassToSynthea(class)
	}

	row["Code"], row["Description"] = firstConceptColumns(enc, "type")
	row["ReasonCode"], row["ReasonDescription"] = firstConceptColumns(enc, "reasonCode")

	row["Base_Encounter_Cost"] = decimalExtensionColumn(enc, extEncounterBaseCost)
	row["Total_Claim_Cost"] = decimalExtensionColumn(enc, extEncounterTotalCost)
	row["Payer_Coverage"] = decimalExtensionColumn(enc, extEncounterCoverage)

	return row, nil
}
