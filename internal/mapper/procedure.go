package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapProcedure converts a procedures.csv row to a FHIR Procedure
// resource. Rows with a STOP date get a performedPeriod, the rest a
// performedDateTime.
func MapProcedure(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	start := row.GetAny("START", "Start")
	stop := row.GetAny("STOP", "Stop")
	code := row.GetAny("CODE", "Code")
	description := row.GetAny("DESCRIPTION", "Description")

	proc := map[string]interface{}{
		"resourceType": "Procedure",
		"status":       "completed",
	}
	setIfPresent(proc, "id", resourceID("proc", patient, start, code))
	if code != "" {
		proc["code"] = fhir.Concept(fhir.SystemSNOMED, code, description, description)
	}
	fhir.SetReference(proc, "subject", "Patient", patient)
	fhir.SetReference(proc, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))

	startDT := toFHIRDateTime(start)
	stopDT := toFHIRDateTime(stop)
	switch {
	case startDT != "" && stopDT != "":
		proc["performedPeriod"] = fhir.Period(startDT, stopDT)
	case startDT != "":
		proc["performedDateTime"] = startDT
	}

	reasonCode := row.GetAny("REASONCODE", "ReasonCode")
	reasonDesc := row.GetAny("REASONDESCRIPTION", "ReasonDescription")
	if reasonCode != "" || reasonDesc != "" {
		proc["reasonCode"] = []interface{}{snomedConcept(reasonCode, reasonDesc)}
	}

	if cost, ok := parseNumeric(row.GetAny("BASE_COST", "Base_Cost")); ok {
		fhir.AddExtension(proc, fhir.Extension(extProcedureBaseCost, "valueMoney", fhir.Money(cost)))
	}

	return proc
}

// ProcedureToRow converts a FHIR Procedure resource back to a
// procedures.csv row.
func ProcedureToRow(proc map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(proc, "Procedure"); err != nil {
		return nil, err
	}
	row := newRow("procedures")

	if dt, ok := fhir.GetString(proc, "performedDateTime"); ok {
		row["START"] = fromFHIRDateTime(dt)
	} else if period, ok := fhir.GetMap(proc, "performedPeriod"); ok {
		if start, ok := fhir.GetString(period, "start"); ok {
			row["START"] = fromFHIRDateTime(start)
		}
		if end, ok := fhir.GetString(period, "end"); ok {
			row["STOP"] = fromFHIRDateTime(end)
		}
	}

	row["PATIENT"] = fhir.ReferenceIDAt(proc, "subject")
	row["ENCOUNTER"] = fhir.ReferenceIDAt(proc, "encounter")

	row["SYSTEM"] = fhir.SystemSNOMED
	if coding, ok := fhir.CodingIn(proc, "code", fhir.SystemSNOMED); ok {
		row["CODE"], _ = fhir.GetString(coding, "code")
		row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
		if system, _ := fhir.GetString(coding, "system"); system != "" {
			row["SYSTEM"] = system
		}
	}
	if row["DESCRIPTION"] == "" {
		row["DESCRIPTION"] = fhir.ConceptText(proc, "code")
	}

	row["REASONCODE"], row["REASONDESCRIPTION"] = firstConceptColumns(proc, "reasonCode")

	if ext, ok := fhir.FindExtension(proc, extProcedureBaseCost); ok {
		if money, ok := fhir.GetMap(ext, "valueMoney"); ok {
			if f, ok := fhir.GetFloat(money, "value"); ok {
				row["BASE_COST"] = formatNumber(f)
			}
		}
	}

	return row, nil
}
