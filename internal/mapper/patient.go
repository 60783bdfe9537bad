package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// identifier builds a typed FHIR identifier. The type coding uses the
// HL7 v2-0203 identifier type table.
func identifier(system, value, use, typeCode string) map[string]interface{} {
	id := map[string]interface{}{
		"system": system,
		"value":  value,
	}
	setIfPresent(id, "use", use)
	if typeCode != "" {
		id["type"] = map[string]interface{}{
			"coding": []interface{}{fhir.Coding(fhir.SystemIdentifierType, typeCode, "")},
		}
	}
	return id
}

// identifierByType finds the identifier value carrying the given
// v2-0203 type code.
func identifierByType(resource map[string]interface{}, typeCode string) string {
	arr, _ := fhir.GetArray(resource, "identifier")
	for _, e := range arr {
		id, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		idType, ok := fhir.GetMap(id, "type")
		if !ok {
			continue
		}
		codings, _ := fhir.GetArray(idType, "coding")
		for _, c := range codings {
			coding, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			if code, _ := fhir.GetString(coding, "code"); code == typeCode {
				v, _ := fhir.GetString(id, "value")
				return v
			}
		}
	}
	return ""
}

// MapPatient converts a patients.csv row to a FHIR Patient resource.
func MapPatient(row synthea.Row) map[string]interface{} {
	patient := map[string]interface{}{
		"resourceType": "Patient",
	}
	setIfPresent(patient, "id", row.GetAny("Id", "ID"))

	var identifiers []interface{}
	if id := row.GetAny("Id", "ID"); id != "" {
		identifiers = append(identifiers, identifier(fhir.SystemSyntheaMRN, id, "official", "MR"))
	}
	if ssn := row.Get("SSN"); ssn != "" {
		identifiers = append(identifiers, identifier(fhir.SystemUSSSN, ssn, "", "SS"))
	}
	if dl := row.Get("DRIVERS"); dl != "" {
		identifiers = append(identifiers, identifier(fhir.SystemUSDL, dl, "", "DL"))
	}
	if ppn := row.Get("PASSPORT"); ppn != "" {
		identifiers = append(identifiers, identifier(fhir.SystemUSPassport, ppn, "", "PPN"))
	}
	if len(identifiers) > 0 {
		patient["identifier"] = identifiers
	}

	var names []interface{}
	if name := officialName(row); name != nil {
		names = append(names, name)
	}
	if maiden := row.Get("MAIDEN"); maiden != "" {
		names = append(names, map[string]interface{}{
			"use":    "maiden",
			"family": maiden,
		})
	}
	if len(names) > 0 {
		patient["name"] = names
	}

	if gender := row.Get("GENDER"); gender != "" {
		patient["gender"] = genderToFHIR(gender)
	}
	if birth := toFHIRDate(row.Get("BIRTHDATE")); birth != "" {
		patient["birthDate"] = birth
	}
	if death := toFHIRDateTime(row.Get("DEATHDATE")); death != "" {
		patient["deceasedDateTime"] = death
	}
	if marital := maritalToFHIR(row.Get("MARITAL")); marital != nil {
		patient["maritalStatus"] = marital
	}

	addr := geoAddress("home",
		row.Get("ADDRESS"), row.Get("CITY"), row.Get("STATE"),
		row.Get("COUNTY"), row.Get("ZIP"), row.Get("LAT"), row.Get("LON"))
	if addr != nil {
		patient["address"] = []interface{}{addr}
	}

	if race, ok := raceLexicon[strings.ToLower(row.Get("RACE"))]; ok {
		fhir.AddExtension(patient, ombExtension(extUSCoreRace, race))
	}
	if eth, ok := ethnicityLexicon[strings.ToLower(row.Get("ETHNICITY"))]; ok {
		fhir.AddExtension(patient, ombExtension(extUSCoreEthnicity, eth))
	}
	if birthplace := row.Get("BIRTHPLACE"); birthplace != "" {
		fhir.AddExtension(patient, fhir.Extension(extBirthPlace, "valueAddress",
			map[string]interface{}{"text": birthplace}))
	}

	return patient
}

func officialName(row synthea.Row) map[string]interface{} {
	name := map[string]interface{}{"use": "official"}
	if prefix := row.Get("PREFIX"); prefix != "" {
		name["prefix"] = []interface{}{prefix}
	}
	var given []interface{}
	if first := row.Get("FIRST"); first != "" {
		given = append(given, first)
	}
	if middle := row.Get("MIDDLE"); middle != "" {
		given = append(given, middle)
	}
	if len(given) > 0 {
		name["given"] = given
	}
	setIfPresent(name, "family", row.Get("LAST"))
	if suffix := row.Get("SUFFIX"); suffix != "" {
		name["suffix"] = []interface{}{suffix}
	}
	if len(name) == 1 {
		return nil
	}
	return name
}

// ombExtension builds a US Core race or ethnicity extension: the
// ombCategory coding plus the text sub-extension.
func ombExtension(url string, cat ombCategory) map[string]interface{} {
	return fhir.NestedExtension(url,
		fhir.Extension("ombCategory", "valueCoding",
			fhir.Coding(fhir.SystemCDCRaceEthnicity, cat.code, cat.display)),
		fhir.Extension("text", "valueString", cat.text),
	)
}

// ombColumn reads a US Core race or ethnicity extension back to the
// Synthea column value.
func ombColumn(resource map[string]interface{}, url string, reverse map[string]string) string {
	ext, ok := fhir.FindExtension(resource, url)
	if !ok {
		return ""
	}
	omb, ok := fhir.FindSubExtension(ext, "ombCategory")
	if !ok {
		return ""
	}
	coding, ok := fhir.GetMap(omb, "valueCoding")
	if !ok {
		return ""
	}
	code, _ := fhir.GetString(coding, "code")
	return reverse[code]
}

// PatientToRow converts a FHIR Patient resource back to a
// patients.csv row.
func PatientToRow(patient map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(patient, "Patient"); err != nil {
		return nil, err
	}
	row := newRow("patients")

	id, _ := fhir.GetString(patient, "id")
	row["Id"] = id

	if birth, ok := fhir.GetString(patient, "birthDate"); ok {
		row["BIRTHDATE"] = fromFHIRDate(birth)
	}
	if death, ok := fhir.GetString(patient, "deceasedDateTime"); ok {
		row["DEATHDATE"] = fromFHIRDateTime(death)
	}

	row["SSN"] = identifierByType(patient, "SS")
	row["DRIVERS"] = identifierByType(patient, "DL")
	row["PASSPORT"] = identifierByType(patient, "PPN")

	names, _ := fhir.GetArray(patient, "name")
	if name, ok := preferredEntry(names, "official"); ok {
		row["PREFIX"] = firstString(name, "prefix")
		given, _ := fhir.GetArray(name, "given")
		if len(given) >= 1 {
			row["FIRST"], _ = given[0].(string)
		}
		if len(given) >= 2 {
			row["MIDDLE"], _ = given[1].(string)
		}
		family, _ := fhir.GetString(name, "family")
		row["LAST"] = family
		row["SUFFIX"] = firstString(name, "suffix")
	}
	for _, e := range names {
		name, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if use, _ := fhir.GetString(name, "use"); use == "maiden" {
			row["MAIDEN"], _ = fhir.GetString(name, "family")
		}
	}

	if marital, ok := fhir.GetMap(patient, "maritalStatus"); ok {
		row["MARITAL"] = maritalToSynthea(marital)
	}
	row["RACE"] = ombColumn(patient, extUSCoreRace, raceReverse)
	row["ETHNICITY"] = ombColumn(patient, extUSCoreEthnicity, ethnicityReverse)
	if gender, ok := fhir.GetString(patient, "gender"); ok {
		row["GENDER"] = genderToSynthea(gender)
	} else {
		row["GENDER"] = "U"
	}

	if birthplaceExt, ok := fhir.FindExtension(patient, extBirthPlace); ok {
		if addr, ok := fhir.GetMap(birthplaceExt, "valueAddress"); ok {
			row["BIRTHPLACE"], _ = fhir.GetString(addr, "text")
		}
	}

	addresses, _ := fhir.GetArray(patient, "address")
	if addr, ok := preferredEntry(addresses, "home"); ok {
		row["ADDRESS"] = firstString(addr, "line")
		row["CITY"], _ = fhir.GetString(addr, "city")
		row["STATE"], _ = fhir.GetString(addr, "state")
		row["COUNTY"], _ = fhir.GetString(addr, "district")
		row["ZIP"], _ = fhir.GetString(addr, "postalCode")
		row["LAT"], row["LON"] = geoColumns(addr)
	}

	return row, nil
}

// firstString returns the first element of a string array field.
func firstString(m map[string]interface{}, key string) string {
	arr, _ := fhir.GetArray(m, key)
	if len(arr) == 0 {
		return ""
	}
	s, _ := arr[0].(string)
	return s
}
