package mapper

import (
	"sort"
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// claimEvents pairs the billing date columns of claims.csv with the
// event type codes carried on the Claim. The event element itself is
// an R5 backport; R4 consumers ignore it.
var claimEvents = []struct{ column, code string }{
	{"Current Illness Date", "onset"},
	{"LastBilledDate1", "bill-primary"},
	{"LastBilledDate2", "bill-secondary"},
	{"LastBilledDateP", "bill-patient"},
}

// MapClaim converts a claims.csv row to a FHIR Claim resource. The
// adjudication columns (Status*, Outstanding*) belong to ClaimResponse
// and only survive here as a free-text note.
func MapClaim(row synthea.Row) map[string]interface{} {
	claim := map[string]interface{}{
		"resourceType": "Claim",
	}
	if id := row.Get("Id"); id != "" {
		claim["id"] = id
		claim["identifier"] = []interface{}{
			identifier("urn:synthea:claim", id, "official", ""),
		}
	}

	if cc := claimType(row.Get("HealthcareClaimTypeID1"), row.Get("HealthcareClaimTypeID2")); cc != nil {
		claim["type"] = cc
	}
	fhir.SetReference(claim, "patient", "Patient", row.Get("Patient ID"))
	fhir.SetReference(claim, "provider", "Practitioner", row.Get("Provider ID"))

	var insurance []interface{}
	if primary := row.Get("Primary Patient Insurance ID"); primary != "" {
		insurance = append(insurance, map[string]interface{}{
			"sequence": 1,
			"focal":    true,
			"coverage": fhir.Reference("Coverage", primary),
		})
	}
	if secondary := row.Get("Secondary Patient Insurance ID"); secondary != "" {
		insurance = append(insurance, map[string]interface{}{
			"sequence": 2,
			"focal":    false,
			"coverage": fhir.Reference("Coverage", secondary),
		})
	}
	if len(insurance) > 0 {
		claim["insurance"] = insurance
	}

	if dept := row.Get("Department ID"); dept != "" {
		fhir.AddExtension(claim, fhir.Extension(extDepartmentID, "valueString", dept))
	}
	if pdept := row.Get("Patient Department ID"); pdept != "" {
		fhir.AddExtension(claim, fhir.Extension(extPatientDeptID, "valueString", pdept))
	}

	var diagnoses []interface{}
	for i := 1; i <= 8; i++ {
		code := row.Get("Diagnosis" + formatInt(int64(i)))
		if code == "" {
			continue
		}
		diagnoses = append(diagnoses, map[string]interface{}{
			"sequence": i,
			"diagnosisCodeableConcept": map[string]interface{}{
				"coding": []interface{}{
					map[string]interface{}{"system": fhir.SystemSNOMED, "code": code},
				},
			},
		})
	}
	if len(diagnoses) > 0 {
		claim["diagnosis"] = diagnoses
	}

	if supervising := row.Get("Supervising Provider ID"); supervising != "" {
		claim["careTeam"] = []interface{}{
			map[string]interface{}{
				"sequence": 1,
				"provider": fhir.Reference("Practitioner", supervising),
				"role":     map[string]interface{}{"text": "supervising"},
			},
		}
	}

	item := map[string]interface{}{}
	if appt := row.Get("Appointment ID"); appt != "" {
		item["encounter"] = []interface{}{fhir.Reference("Encounter", appt)}
	}
	if serviced := toFHIRDate(row.Get("Service Date")); serviced != "" {
		item["servicedDate"] = serviced
		claim["billablePeriod"] = map[string]interface{}{
			"start": serviced,
			"end":   serviced,
		}
	}
	if len(item) > 0 {
		claim["item"] = []interface{}{item}
	}

	var events []interface{}
	for _, e := range claimEvents {
		when := toFHIRDateTime(row.Get(e.column))
		if when == "" {
			continue
		}
		events = append(events, map[string]interface{}{
			"type": map[string]interface{}{
				"coding": []interface{}{
					map[string]interface{}{"system": sysClaimEvent, "code": e.code},
				},
			},
			"whenDateTime": when,
		})
	}
	if len(events) > 0 {
		claim["event"] = events
	}

	var notes []string
	for _, col := range []string{"Status1", "Status2", "StatusP", "Outstanding1", "Outstanding2", "OutstandingP"} {
		if v := row.Get(col); v != "" {
			notes = append(notes, col+": "+v)
		}
	}
	if len(notes) > 0 {
		claim["note"] = []interface{}{
			map[string]interface{}{"text": strings.Join(notes, "; ")},
		}
	}

	return claim
}

// claimType maps the Synthea claim type ids to the FHIR claim-type
// concept: 1 is professional, 2 is institutional. The primary id wins
// when both are set.
func claimType(type1, type2 string) map[string]interface{} {
	var code string
	for _, t := range []string{type1, type2} {
		switch t {
		case "1":
			code = "professional"
		case "2":
			code = "institutional"
		}
		if code != "" {
			break
		}
	}
	if code == "" {
		return nil
	}
	return map[string]interface{}{
		"coding": []interface{}{
			map[string]interface{}{"system": fhir.SystemClaimType, "code": code},
		},
		"text": code,
	}
}

// ClaimToRow converts a FHIR Claim resource back to a claims.csv row.
// The adjudication columns stay empty; they come from ClaimResponse.
func ClaimToRow(claim map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(claim, "Claim"); err != nil {
		return nil, err
	}
	row := newRow("claims")

	row["Id"], _ = fhir.GetString(claim, "id")
	row["Patient ID"] = fhir.ReferenceIDAt(claim, "patient")
	row["Provider ID"] = fhir.ReferenceIDAt(claim, "provider")

	primary, secondary := coverageIDs(claim)
	row["Primary Patient Insurance ID"] = primary
	row["Secondary Patient Insurance ID"] = secondary

	row["Department ID"] = fhir.ExtensionString(claim, extDepartmentID)
	row["Patient Department ID"] = fhir.ExtensionString(claim, extPatientDeptID)

	if diags, ok := fhir.GetArray(claim, "diagnosis"); ok {
		for _, d := range diags {
			diag, diagOK := d.(map[string]interface{})
			if !diagOK {
				continue
			}
			seq, seqOK := fhir.GetFloat(diag, "sequence")
			if !seqOK || seq < 1 || seq > 8 {
				continue
			}
			cc, ccOK := fhir.GetMap(diag, "diagnosisCodeableConcept")
			if !ccOK {
				continue
			}
			var code string
			if coding, codingOK := fhir.ConceptCoding(cc, fhir.SystemSNOMED); codingOK {
				code, _ = fhir.GetString(coding, "code")
			}
			if code == "" {
				code, _ = fhir.GetString(cc, "text")
			}
			if code != "" {
				row["Diagnosis"+formatInt(int64(seq))] = code
			}
		}
	}

	if item, ok := fhir.FirstMap(claim, "item"); ok {
		if encs, encOK := fhir.GetArray(item, "encounter"); encOK && len(encs) > 0 {
			if ref, refOK := encs[0].(map[string]interface{}); refOK {
				row["Appointment ID"] = fhir.ReferenceID(ref)
			}
		}
	}

	if bill, ok := fhir.GetMap(claim, "billablePeriod"); ok {
		start, _ := fhir.GetString(bill, "start")
		end, _ := fhir.GetString(bill, "end")
		if date := fromFHIRDate(start); date != "" {
			row["Service Date"] = date
		} else {
			row["Service Date"] = fromFHIRDate(end)
		}
	}

	row["Current Illness Date"] = claimEventDate(claim, "onset")
	row["LastBilledDate1"] = claimEventDate(claim, "bill-primary")
	row["LastBilledDate2"] = claimEventDate(claim, "bill-secondary")
	row["LastBilledDateP"] = claimEventDate(claim, "bill-patient")

	row["Supervising Provider ID"] = supervisingProvider(claim)

	if cc, ok := fhir.GetMap(claim, "type"); ok {
		var code string
		if coding, codingOK := fhir.ConceptCoding(cc); codingOK {
			code, _ = fhir.GetString(coding, "code")
		}
		if code == "" {
			code, _ = fhir.GetString(cc, "text")
		}
		switch code {
		case "professional":
			row["HealthcareClaimTypeID1"] = "1"
		case "institutional":
			row["HealthcareClaimTypeID1"] = "2"
		}
	}

	return row, nil
}

// coverageIDs orders the insurance entries focal-first then by
// sequence and returns the first two coverage ids.
func coverageIDs(claim map[string]interface{}) (primary, secondary string) {
	arr, ok := fhir.GetArray(claim, "insurance")
	if !ok {
		return "", ""
	}
	entries := make([]map[string]interface{}, 0, len(arr))
	for _, e := range arr {
		if entry, entryOK := e.(map[string]interface{}); entryOK {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		fi, _ := fhir.GetBool(entries[i], "focal")
		fj, _ := fhir.GetBool(entries[j], "focal")
		if fi != fj {
			return fi
		}
		si, iOK := fhir.GetFloat(entries[i], "sequence")
		sj, jOK := fhir.GetFloat(entries[j], "sequence")
		if !iOK {
			si = 99
		}
		if !jOK {
			sj = 99
		}
		return si < sj
	})
	for _, entry := range entries {
		cov, covOK := fhir.GetMap(entry, "coverage")
		if !covOK {
			continue
		}
		id := fhir.ReferenceID(cov)
		if id == "" {
			continue
		}
		if primary == "" {
			primary = id
		} else if secondary == "" {
			secondary = id
		}
	}
	return primary, secondary
}

// claimEventDate finds the event with the given type code and renders
// its timestamp as a Synthea datetime.
func claimEventDate(claim map[string]interface{}, code string) string {
	events, ok := fhir.GetArray(claim, "event")
	if !ok {
		return ""
	}
	for _, e := range events {
		event, eventOK := e.(map[string]interface{})
		if !eventOK {
			continue
		}
		cc, ccOK := fhir.GetMap(event, "type")
		if !ccOK {
			continue
		}
		coding, codingOK := fhir.ConceptCoding(cc, sysClaimEvent)
		if !codingOK {
			continue
		}
		system, _ := fhir.GetString(coding, "system")
		c, _ := fhir.GetString(coding, "code")
		if system == sysClaimEvent && c == code {
			when, _ := fhir.GetString(event, "whenDateTime")
			return fromFHIRDateTime(when)
		}
	}
	return ""
}

// supervisingProvider returns the provider of the careTeam entry whose
// role text is "supervising", accepting an entry with no role text at
// all.
func supervisingProvider(claim map[string]interface{}) string {
	team, ok := fhir.GetArray(claim, "careTeam")
	if !ok {
		return ""
	}
	for _, e := range team {
		entry, entryOK := e.(map[string]interface{})
		if !entryOK {
			continue
		}
		var roleText string
		if role, roleOK := fhir.GetMap(entry, "role"); roleOK {
			roleText, _ = fhir.GetString(role, "text")
		}
		if roleText != "" && !strings.EqualFold(roleText, "supervising") {
			continue
		}
		if provider, provOK := fhir.GetMap(entry, "provider"); provOK {
			if id := fhir.ReferenceID(provider); id != "" {
				return id
			}
		}
	}
	return ""
}
