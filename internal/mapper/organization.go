package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// splitPhones breaks a Synthea phone field on the separators the
// generator is known to emit.
func splitPhones(field string) []string {
	parts := strings.FieldsFunc(field, func(r rune) bool {
		return r == ';' || r == ',' || r == '/' || r == '|'
	})
	phones := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			phones = append(phones, p)
		}
	}
	return phones
}

// MapOrganization converts an organizations.csv row to a FHIR
// Organization resource typed as a healthcare provider. Revenue and
// utilization are simulation aggregates with no FHIR element, so they
// ride in a stats extension.
func MapOrganization(row synthea.Row) map[string]interface{} {
	org := map[string]interface{}{
		"resourceType": "Organization",
		"type": []interface{}{
			map[string]interface{}{
				"coding": []interface{}{
					fhir.Coding(fhir.SystemOrganizationType, "prov", "Healthcare Provider"),
				},
			},
		},
	}
	setIfPresent(org, "id", row.Get("Id"))
	setIfPresent(org, "name", row.Get("Name"))

	if addr := geoAddress("", row.Get("Address"), row.Get("City"), row.Get("State"), "",
		row.Get("Zip"), row.Get("Lat"), row.Get("Lon")); addr != nil {
		org["address"] = []interface{}{addr}
	}

	if phones := splitPhones(row.Get("Phone")); len(phones) > 0 {
		telecom := make([]interface{}, 0, len(phones))
		for _, phone := range phones {
			telecom = append(telecom, map[string]interface{}{
				"system": "phone",
				"value":  phone,
			})
		}
		org["telecom"] = telecom
	}

	var stats []map[string]interface{}
	if revenue, ok := parseNumeric(row.Get("Revenue")); ok {
		stats = append(stats, fhir.Extension("revenue", "valueDecimal", revenue))
	}
	if utilization, ok := parseInt(row.Get("Utilization")); ok {
		stats = append(stats, fhir.Extension("utilization", "valueInteger", utilization))
	}
	if len(stats) > 0 {
		fhir.AddExtension(org, fhir.NestedExtension(extOrganizationStats, stats...))
	}

	return org
}

// OrganizationToRow converts a FHIR Organization resource back to an
// organizations.csv row. Multiple phone numbers re-join with "; ".
func OrganizationToRow(org map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(org, "Organization"); err != nil {
		return nil, err
	}
	row := newRow("organizations")

	row["Id"], _ = fhir.GetString(org, "id")
	row["Name"], _ = fhir.GetString(org, "name")

	if addr, ok := fhir.FirstMap(org, "address"); ok {
		row["Address"] = firstString(addr, "line")
		row["City"], _ = fhir.GetString(addr, "city")
		row["State"], _ = fhir.GetString(addr, "state")
		row["Zip"], _ = fhir.GetString(addr, "postalCode")
		row["Lat"], row["Lon"] = geoColumns(addr)
	}

	if telecom, ok := fhir.GetArray(org, "telecom"); ok {
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

	if stats, ok := fhir.FindExtension(org, extOrganizationStats); ok {
		if revenue, revOK := fhir.SubExtensionDecimal(stats, "revenue"); revOK {
			row["Revenue"] = formatNumber(revenue)
		}
		if utilization, utilOK := fhir.SubExtensionInt(stats, "utilization"); utilOK {
			row["Utilization"] = formatInt(utilization)
		}
	}

	return row, nil
}
