package mapper

import (
	"fmt"
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapCarePlan converts a careplans.csv row to a FHIR CarePlan
// resource. R4 CarePlan has no reasonCode element, so the reason
// columns are encoded as a note of the form "Reason: <desc> (<code>)"
// that the reverse mapper parses back out.
func MapCarePlan(row synthea.Row) map[string]interface{} {
	stop := row.GetAny("STOP", "Stop")
	code := row.GetAny("CODE", "Code")
	description := row.GetAny("DESCRIPTION", "Description")

	cp := map[string]interface{}{
		"resourceType": "CarePlan",
		"intent":       "plan",
	}
	setIfPresent(cp, "id", row.GetAny("Id", "ID"))
	if stop != "" {
		cp["status"] = "completed"
	} else {
		cp["status"] = "active"
	}

	if code != "" {
		cp["category"] = []interface{}{fhir.Concept(fhir.SystemSNOMED, code, description, description)}
	}
	setIfPresent(cp, "title", description)
	setIfPresent(cp, "description", description)
	fhir.SetReference(cp, "subject", "Patient", row.GetAny("PATIENT", "Patient"))
	fhir.SetReference(cp, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))
	if period := fhir.Period(toFHIRDate(row.GetAny("START", "Start")), toFHIRDate(stop)); period != nil {
		cp["period"] = period
	}

	reasonCode := row.GetAny("REASONCODE", "ReasonCode")
	reasonDesc := row.GetAny("REASONDESCRIPTION", "ReasonDescription")
	if reasonCode != "" || reasonDesc != "" {
		var parts []string
		if reasonDesc != "" {
			parts = append(parts, reasonDesc)
		}
		if reasonCode != "" {
			parts = append(parts, fmt.Sprintf("(%s)", reasonCode))
		}
		cp["note"] = []interface{}{
			map[string]interface{}{"text": "Reason: " + strings.Join(parts, " ")},
		}
	}

	return cp
}

// reasonFromNotes parses the "Reason: <desc> (<code>)" note shape back
// into the reason columns, tolerating a missing code.
func reasonFromNotes(cp map[string]interface{}) (code, description string) {
	notes, _ := fhir.GetArray(cp, "note")
	for _, n := range notes {
		note, ok := n.(map[string]interface{})
		if !ok {
			continue
		}
		text, _ := fhir.GetString(note, "text")
		if !strings.HasPrefix(strings.ToLower(text), "reason:") {
			continue
		}
		body := strings.TrimSpace(text[len("Reason:"):])
		if strings.HasSuffix(body, ")") {
			if i := strings.LastIndex(body, "("); i >= 0 {
				return strings.TrimSpace(body[i+1 : len(body)-1]), strings.TrimSpace(body[:i])
			}
		}
		return "", body
	}
	return "", ""
}

// CarePlanToRow converts a FHIR CarePlan resource back to a
// careplans.csv row.
func CarePlanToRow(cp map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(cp, "CarePlan"); err != nil {
		return nil, err
	}
	row := newRow("careplans")

	row["Id"], _ = fhir.GetString(cp, "id")
	if period, ok := fhir.GetMap(cp, "period"); ok {
		if start, ok := fhir.GetString(period, "start"); ok {
			row["START"] = fromFHIRDate(start)
		}
		if end, ok := fhir.GetString(period, "end"); ok {
			row["STOP"] = fromFHIRDate(end)
		}
	}

	row["PATIENT"] = fhir.ReferenceIDAt(cp, "subject")
	row["ENCOUNTER"] = fhir.ReferenceIDAt(cp, "encounter")

	row["SYSTEM"] = fhir.SystemSNOMED
	row["CODE"], row["DESCRIPTION"] = firstConceptColumns(cp, "category")
	if row["DESCRIPTION"] == "" {
		if title, ok := fhir.GetString(cp, "title"); ok {
			row["DESCRIPTION"] = title
		} else if desc, ok := fhir.GetString(cp, "description"); ok {
			row["DESCRIPTION"] = desc
		}
	}

	row["REASONCODE"], row["REASONDESCRIPTION"] = reasonFromNotes(cp)
	return row, nil
}
