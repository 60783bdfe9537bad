package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapSupply converts a supplies.csv row to a FHIR SupplyDelivery
// resource. Synthea records supplies after the fact, so status is
// always completed.
func MapSupply(row synthea.Row) map[string]interface{} {
	patient := row.Get("PATIENT")
	date := row.Get("DATE")
	code := row.Get("CODE")
	description := row.Get("DESCRIPTION")

	supply := map[string]interface{}{
		"resourceType": "SupplyDelivery",
		"status":       "completed",
	}
	setIfPresent(supply, "id", resourceID("supply", patient, date, code))
	fhir.SetReference(supply, "patient", "Patient", patient)
	setIfPresent(supply, "occurrenceDateTime", toFHIRDateTime(date))

	item := map[string]interface{}{}
	if code != "" {
		item["itemCodeableConcept"] = fhir.Concept(fhir.SystemSNOMED, code, description, description)
	}
	if qty, ok := parseNumeric(row.Get("QUANTITY")); ok {
		item["quantity"] = map[string]interface{}{"value": qty}
	}
	if len(item) > 0 {
		supply["suppliedItem"] = item
	}

	if encounter := row.Get("ENCOUNTER"); encounter != "" {
		fhir.AddExtension(supply, fhir.Extension(extResourceEncounter, "valueReference",
			fhir.Reference("Encounter", encounter)))
	}

	return supply
}

// SupplyToRow converts a FHIR SupplyDelivery resource back to a
// supplies.csv row. The DATE column carries only the date part.
func SupplyToRow(supply map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(supply, "SupplyDelivery"); err != nil {
		return nil, err
	}
	row := newRow("supplies")

	occurrence, ok := fhir.GetString(supply, "occurrenceDateTime")
	if !ok {
		if period, found := fhir.GetMap(supply, "occurrencePeriod"); found {
			occurrence, _ = fhir.GetString(period, "start")
		}
	}
	row["DATE"] = fromFHIRDate(occurrence)

	row["PATIENT"] = fhir.ReferenceIDAt(supply, "patient")
	if ext, found := fhir.FindExtension(supply, extResourceEncounter); found {
		if ref, refOK := fhir.GetMap(ext, "valueReference"); refOK {
			row["ENCOUNTER"] = fhir.ReferenceID(ref)
		}
	}

	if item, found := fhir.GetMap(supply, "suppliedItem"); found {
		if cc, ccOK := fhir.GetMap(item, "itemCodeableConcept"); ccOK {
			if coding, codingOK := fhir.ConceptCoding(cc, fhir.SystemSNOMED); codingOK {
				row["CODE"], _ = fhir.GetString(coding, "code")
				row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
			}
			if row["DESCRIPTION"] == "" {
				row["DESCRIPTION"], _ = fhir.GetString(cc, "text")
			}
		}
		if qty, qtyOK := fhir.GetMap(item, "quantity"); qtyOK {
			if value, valueOK := fhir.GetFloat(qty, "value"); valueOK {
				row["QUANTITY"] = formatNumber(value)
			}
		}
	}

	return row, nil
}
