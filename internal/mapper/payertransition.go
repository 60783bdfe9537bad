package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapPayerTransition converts a payer_transitions.csv row to a FHIR
// Coverage resource. The year columns expand to an inclusive calendar
// period; a secondary payer becomes payor[1].
func MapPayerTransition(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("Patient", "PATIENT")
	payer := row.GetAny("Payer", "PAYER")
	startYear := row.GetAny("Start_Year", "START_YEAR")
	endYear := row.GetAny("End_Year", "END_YEAR")

	coverage := map[string]interface{}{
		"resourceType": "Coverage",
		"status":       "active",
	}
	if patient != "" && startYear != "" && payer != "" {
		coverage["id"] = "cov-" + patient + "-" + startYear + "-" + payer
	}

	fhir.SetReference(coverage, "beneficiary", "Patient", patient)
	var payors []interface{}
	if payer != "" {
		payors = append(payors, fhir.Reference("Organization", payer))
	}
	if secondary := row.GetAny("Secondary Payer", "SECONDARY_PAYER", "Secondary_Payer"); secondary != "" {
		payors = append(payors, fhir.Reference("Organization", secondary))
	}
	if len(payors) > 0 {
		coverage["payor"] = payors
	}

	if period := fhir.Period(yearStart(startYear), yearEnd(endYear)); period != nil {
		coverage["period"] = period
	}
	setIfPresent(coverage, "subscriberId", row.GetAny("Member ID", "MEMBER_ID"))

	if ownership := row.GetAny("Ownership", "OWNERSHIP"); ownership != "" {
		relationship := map[string]interface{}{"text": ownership}
		switch strings.ToLower(strings.TrimSpace(ownership)) {
		case "self":
			relationship["coding"] = []interface{}{fhir.Coding(fhir.SystemSubscriberRel, "self", "Self")}
		case "spouse":
			relationship["coding"] = []interface{}{fhir.Coding(fhir.SystemSubscriberRel, "spouse", "Spouse")}
		}
		coverage["relationship"] = relationship
	}

	if owner := row.GetAny("Owner Name", "OWNER_NAME"); owner != "" {
		fhir.AddExtension(coverage, fhir.Extension(extPolicyOwnerName, "valueString", owner))
	}

	return coverage
}

// PayerTransitionToRow converts a FHIR Coverage resource back to a
// payer_transitions.csv row. Only the three ownership values Synthea
// generates are restored; anything else leaves the column empty.
func PayerTransitionToRow(coverage map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(coverage, "Coverage"); err != nil {
		return nil, err
	}
	row := newRow("payer_transitions")

	row["Patient"] = fhir.ReferenceIDAt(coverage, "beneficiary")

	if payors, ok := fhir.GetArray(coverage, "payor"); ok {
		if len(payors) >= 1 {
			if ref, refOK := payors[0].(map[string]interface{}); refOK {
				row["Payer"] = fhir.ReferenceID(ref)
			}
		}
		if len(payors) >= 2 {
			if ref, refOK := payors[1].(map[string]interface{}); refOK {
				row["Secondary Payer"] = fhir.ReferenceID(ref)
			}
		}
	}

	if period, ok := fhir.GetMap(coverage, "period"); ok {
		start, _ := fhir.GetString(period, "start")
		end, _ := fhir.GetString(period, "end")
		row["Start_Year"] = yearOf(start)
		row["End_Year"] = yearOf(end)
	}

	memberID, _ := fhir.GetString(coverage, "subscriberId")
	if memberID == "" {
		if identifier, ok := fhir.FirstMap(coverage, "identifier"); ok {
			memberID, _ = fhir.GetString(identifier, "value")
		}
	}
	row["Member ID"] = memberID

	if relationship, ok := fhir.GetMap(coverage, "relationship"); ok {
		if coding, codingOK := fhir.ConceptCoding(relationship); codingOK {
			code, _ := fhir.GetString(coding, "code")
			switch strings.ToLower(code) {
			case "self":
				row["Ownership"] = "Self"
			case "spouse":
				row["Ownership"] = "Spouse"
			}
		}
		if row["Ownership"] == "" {
			if text, textOK := fhir.GetString(relationship, "text"); textOK &&
				strings.EqualFold(strings.TrimSpace(text), "guardian") {
				row["Ownership"] = "Guardian"
			}
		}
	}

	row["Owner Name"] = fhir.ExtensionString(coverage, extPolicyOwnerName)

	return row, nil
}
