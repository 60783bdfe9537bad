package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapProvider converts a providers.csv row to a FHIR Practitioner plus
// a PractitionerRole linking the practitioner to their organization.
// The role carries the speciality and the simulated encounter and
// procedure counts.
func MapProvider(row synthea.Row) (practitioner, role map[string]interface{}) {
	practitioner = map[string]interface{}{
		"resourceType": "Practitioner",
	}
	setIfPresent(practitioner, "id", row.Get("Id"))
	if name := providerName(row.Get("Name")); name != nil {
		practitioner["name"] = []interface{}{name}
	}
	if gender := row.Get("Gender"); gender != "" {
		practitioner["gender"] = genderToFHIR(gender)
	}
	if addr := geoAddress("", row.Get("Address"), row.Get("City"), row.Get("State"), "",
		row.Get("Zip"), row.Get("Lat"), row.Get("Lon")); addr != nil {
		practitioner["address"] = []interface{}{addr}
	}

	role = map[string]interface{}{
		"resourceType": "PractitionerRole",
	}
	if id, org := row.Get("Id"), row.Get("Organization"); id != "" && org != "" {
		role["id"] = "prr-" + id + "-" + org
	}
	fhir.SetReference(role, "practitioner", "Practitioner", row.Get("Id"))
	fhir.SetReference(role, "organization", "Organization", row.Get("Organization"))
	if speciality := row.Get("Speciality"); speciality != "" {
		role["code"] = []interface{}{
			map[string]interface{}{"text": speciality},
		}
	}

	var stats []map[string]interface{}
	if encounters, ok := parseInt(row.Get("Encounters")); ok {
		stats = append(stats, fhir.Extension("encounters", "valueInteger", encounters))
	}
	if procedures, ok := parseInt(row.Get("Procedures")); ok {
		stats = append(stats, fhir.Extension("procedures", "valueInteger", procedures))
	}
	if len(stats) > 0 {
		fhir.AddExtension(role, fhir.NestedExtension(extProviderStats, stats...))
	}

	return practitioner, role
}

// providerName splits the single Name column into given and family:
// first word given, last word family. One-word names carry only the
// given part.
func providerName(full string) map[string]interface{} {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return nil
	}
	name := map[string]interface{}{
		"use":   "official",
		"given": []interface{}{parts[0]},
	}
	if len(parts) > 1 {
		name["family"] = parts[len(parts)-1]
	}
	return name
}

// ProviderToRow converts a FHIR Practitioner, plus its
// PractitionerRole when available, back to a providers.csv row. Pass
// nil for the role when only the practitioner is known; the
// organization, speciality and stats columns stay empty.
func ProviderToRow(practitioner, role map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(practitioner, "Practitioner"); err != nil {
		return nil, err
	}
	if role != nil {
		if err := requireResource(role, "PractitionerRole"); err != nil {
			return nil, err
		}
	}
	row := newRow("providers")

	row["Id"], _ = fhir.GetString(practitioner, "id")
	if name, ok := fhir.FirstMap(practitioner, "name"); ok {
		given := firstString(name, "given")
		family, _ := fhir.GetString(name, "family")
		switch {
		case given != "" && family != "":
			row["Name"] = given + " " + family
		case given != "":
			row["Name"] = given
		default:
			row["Name"] = family
		}
	}
	if gender, ok := fhir.GetString(practitioner, "gender"); ok {
		row["Gender"] = genderToSynthea(gender)
	}

	if addr, ok := fhir.FirstMap(practitioner, "address"); ok {
		row["Address"] = firstString(addr, "line")
		row["City"], _ = fhir.GetString(addr, "city")
		row["State"], _ = fhir.GetString(addr, "state")
		row["Zip"], _ = fhir.GetString(addr, "postalCode")
		row["Lat"], row["Lon"] = geoColumns(addr)
	}

	if role != nil {
		row["Organization"] = fhir.ReferenceIDAt(role, "organization")
		if cc, ok := fhir.FirstMap(role, "code"); ok {
			if text, textOK := fhir.GetString(cc, "text"); textOK && text != "" {
				row["Speciality"] = text
			} else if coding, codingOK := fhir.ConceptCoding(cc); codingOK {
				display, _ := fhir.GetString(coding, "display")
				if display == "" {
					display, _ = fhir.GetString(coding, "code")
				}
				row["Speciality"] = display
			}
		}
		if stats, ok := fhir.FindExtension(role, extProviderStats); ok {
			if encounters, encOK := fhir.SubExtensionInt(stats, "encounters"); encOK {
				row["Encounters"] = formatInt(encounters)
			}
			if procedures, procOK := fhir.SubExtensionInt(stats, "procedures"); procOK {
				row["Procedures"] = formatInt(procedures)
			}
		}
	}

	return row, nil
}
