package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// payerStatDecimals and payerStatIntegers pair the payers.csv
// aggregate columns with their sub-extension URLs. Decimals and
// integers are kept apart so each side round-trips with its own
// value[x] key.
var payerStatDecimals = []struct{ column, url string }{
	{"Amount_Covered", "amountCovered"},
	{"Amount_Uncovered", "amountUncovered"},
	{"Revenue", "revenue"},
	{"QOLS_Avg", "qolsAvg"},
}

var payerStatIntegers = []struct{ column, url string }{
	{"Covered_Encounters", "coveredEncounters"},
	{"Uncovered_Encounters", "uncoveredEncounters"},
	{"Covered_Medications", "coveredMedications"},
	{"Uncovered_Medications", "uncoveredMedications"},
	{"Covered_Procedures", "coveredProcedures"},
	{"Uncovered_Procedures", "uncoveredProcedures"},
	{"Covered_Immunizations", "coveredImmunizations"},
	{"Uncovered_Immunizations", "uncoveredImmunizations"},
	{"Unique_Customers", "uniqueCustomers"},
	{"Member_Months", "memberMonths"},
}

// MapPayer converts a payers.csv row to a FHIR Organization resource
// typed as an insurance company. Ownership and the coverage aggregates
// have no FHIR element, so each rides in its own extension.
func MapPayer(row synthea.Row) map[string]interface{} {
	payer := map[string]interface{}{
		"resourceType": "Organization",
		"type": []interface{}{
			map[string]interface{}{
				"coding": []interface{}{
					fhir.Coding(fhir.SystemOrganizationType, "ins", "Insurance Company"),
				},
			},
		},
	}
	setIfPresent(payer, "id", row.Get("Id"))
	setIfPresent(payer, "name", row.Get("Name"))

	addr := map[string]interface{}{}
	if line := row.Get("Address"); line != "" {
		addr["line"] = []interface{}{line}
	}
	setIfPresent(addr, "city", row.Get("City"))
	setIfPresent(addr, "state", row.Get("State_Headquartered"))
	setIfPresent(addr, "postalCode", row.Get("Zip"))
	if len(addr) > 0 {
		payer["address"] = []interface{}{addr}
	}

	if phones := splitPhones(row.Get("Phone")); len(phones) > 0 {
		telecom := make([]interface{}, 0, len(phones))
		for _, phone := range phones {
			telecom = append(telecom, map[string]interface{}{
				"system": "phone",
				"value":  phone,
			})
		}
		payer["telecom"] = telecom
	}

	if ownership := row.Get("Ownership"); ownership != "" {
		fhir.AddExtension(payer, fhir.Extension(extPayerOwnership, "valueCode", strings.ToLower(ownership)))
	}

	var stats []map[string]interface{}
	for _, s := range payerStatDecimals {
		if f, ok := parseNumeric(row.Get(s.column)); ok {
			stats = append(stats, fhir.Extension(s.url, "valueDecimal", f))
		}
	}
	for _, s := range payerStatIntegers {
		if i, ok := parseInt(row.Get(s.column)); ok {
			stats = append(stats, fhir.Extension(s.url, "valueInteger", i))
		}
	}
	if len(stats) > 0 {
		fhir.AddExtension(payer, fhir.NestedExtension(extPayerStats, stats...))
	}

	return payer
}

// PayerToRow converts a FHIR Organization resource back to a
// payers.csv row.
func PayerToRow(payer map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(payer, "Organization"); err != nil {
		return nil, err
	}
	row := newRow("payers")

	row["Id"], _ = fhir.GetString(payer, "id")
	row["Name"], _ = fhir.GetString(payer, "name")
	row["Ownership"] = fhir.ExtensionCode(payer, extPayerOwnership)

	if addr, ok := fhir.FirstMap(payer, "address"); ok {
		row["Address"] = firstString(addr, "line")
		row["City"], _ = fhir.GetString(addr, "city")
		row["State_Headquartered"], _ = fhir.GetString(addr, "state")
		row["Zip"], _ = fhir.GetString(addr, "postalCode")
	}

	if telecom, ok := fhir.GetArray(payer, "telecom"); ok {
		var phones []string
		for _, t := range telecom {
			entry, entryOK := t.(map[string]interface{})
			if !entryOK {
				continue
			}
			system, _ := fhir.GetString(entry, "system")
			value, _ := fhir.GetString(entry, "value")
			if system == "phone" && value != "" {
				phones = append(phones, value)
			}
		}
		row["Phone"] = strings.Join(phones, "; ")
	}

	if stats, ok := fhir.FindExtension(payer, extPayerStats); ok {
		for _, s := range payerStatDecimals {
			if f, decOK := fhir.SubExtensionDecimal(stats, s.url); decOK {
				row[s.column] = formatNumber(f)
			}
		}
		for _, s := range payerStatIntegers {
			if i, intOK := fhir.SubExtensionInt(stats, s.url); intOK {
				row[s.column] = formatInt(i)
			}
		}
	}

	return row, nil
}
