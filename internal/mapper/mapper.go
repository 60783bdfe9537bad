// Package mapper implements the bidirectional field-level
// transformations between Synthea CSV rows and FHIR R4 resources.
//
// Forward mappers (MapX) take a synthea.Row and return a resource as a
// plain JSON tree; reverse mappers (XToRow) take a resource tree and
// return a fixed-column row with "" for absent values. Mappers are
// pure and never fail on malformed data: bad scalars are silently
// omitted or carried through as strings. The single hard error is
// passing a resource of the wrong type to a reverse mapper.
package mapper

import (
	"fmt"
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// Standard extension URLs used by the mappers.
const (
	extGeolocation       = "http://hl7.org/fhir/StructureDefinition/geolocation"
	extBirthPlace        = "http://hl7.org/fhir/StructureDefinition/patient-birthPlace"
	extResourceEncounter = "http://hl7.org/fhir/StructureDefinition/resource-encounter"
	extUSCoreRace        = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-race"
	extUSCoreEthnicity   = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-ethnicity"
)

// Synthea-specific extension URLs. Each is owned by exactly one mapper
// pair; the writer appends, the reader matches by URL.
const (
	extEncounterBaseCost  = "http://example.org/fhir/StructureDefinition/encounter-baseCost"
	extEncounterTotalCost = "http://example.org/fhir/StructureDefinition/encounter-totalClaimCost"
	extEncounterCoverage  = "http://example.org/fhir/StructureDefinition/encounter-payerCoverage"
	extEncounterPayer     = "http://example.org/fhir/StructureDefinition/encounter-payer"
	extProcedureBaseCost  = "http://example.org/fhir/StructureDefinition/baseCost"
	extProviderStats      = "http://example.org/fhir/StructureDefinition/provider-stats"

	extImmunizationCost  = "http://synthea.mitre.org/fhir/StructureDefinition/immunization-cost"
	extOrganizationStats = "http://synthea.mitre.org/fhir/StructureDefinition/organization-stats"
	extPayerOwnership    = "http://synthea.mitre.org/fhir/StructureDefinition/payer-ownership"
	extPayerStats        = "http://synthea.mitre.org/fhir/StructureDefinition/payer-stats"
	extPolicyOwnerName   = "http://synthea.mitre.org/fhir/StructureDefinition/policy-owner-name"

	extMedicationBaseCost = "http://synthea.org/fhir/StructureDefinition/medication-baseCost"
	extMedicationCoverage = "http://synthea.org/fhir/StructureDefinition/medication-payerCoverage"
	extMedicationTotal    = "http://synthea.org/fhir/StructureDefinition/medication-totalCost"

	extDeviceUsePeriod = "http://synthea.tools/fhir/StructureDefinition/device-use-period"
	extDepartmentID    = "http://synthea.tools/StructureDefinition/department-id"
	extPatientDeptID   = "http://synthea.tools/StructureDefinition/patient-department-id"

	sysClaimEvent      = "http://synthea.tools/CodeSystem/claim-event"
	sysTransactionType = "http://synthea.tools/CodeSystem/claims-transaction-type"
	sysPaymentMethod   = "http://synthea.tools/CodeSystem/payment-method"
)

// dateClean flattens a Synthea timestamp into the digit run used
// inside deterministic resource ids.
func dateClean(date string) string {
	r := strings.NewReplacer(" ", "", ":", "", "-", "", "T", "")
	return r.Replace(strings.TrimSpace(date))
}

// resourceID mints the deterministic id {prefix}-{patient}-{date}-{code}.
// Re-running the same CSV reproduces the same ids, so loads upsert
// instead of duplicating. Any missing part yields "" and the id is
// omitted.
func resourceID(prefix, patient, date, code string) string {
	if patient == "" || date == "" || code == "" {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s-%s", prefix, patient, dateClean(date), code)
}

// requireResource guards reverse mappers against being handed the
// wrong resource type.
func requireResource(resource map[string]interface{}, resourceType string) error {
	rt, _ := fhir.GetString(resource, "resourceType")
	if resource == nil || rt != resourceType {
		return fmt.Errorf("mapper: input must be a FHIR %s resource", resourceType)
	}
	return nil
}

// setIfPresent assigns a key only when the value is non-empty.
func setIfPresent(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// geoAddress builds a FHIR Address with the geolocation extension.
// The use field is the caller's: patients stamp "home", facility
// addresses carry none.
func geoAddress(use, line, city, state, district, zip, lat, lon string) map[string]interface{} {
	addr := map[string]interface{}{}
	setIfPresent(addr, "use", use)
	if line != "" {
		addr["line"] = []interface{}{line}
	}
	setIfPresent(addr, "city", city)
	setIfPresent(addr, "state", state)
	setIfPresent(addr, "district", district)
	setIfPresent(addr, "postalCode", zip)
	latF, latOK := parseNumeric(lat)
	lonF, lonOK := parseNumeric(lon)
	if latOK && lonOK {
		addr["extension"] = []interface{}{
			fhir.NestedExtension(extGeolocation,
				fhir.Extension("latitude", "valueDecimal", latF),
				fhir.Extension("longitude", "valueDecimal", lonF),
			),
		}
	}
	if len(addr) == 0 || (len(addr) == 1 && use != "") {
		return nil
	}
	return addr
}

// geoColumns extracts the LAT/LON columns from an address's
// geolocation extension.
func geoColumns(addr map[string]interface{}) (lat, lon string) {
	geo, ok := fhir.FindExtension(addr, extGeolocation)
	if !ok {
		return "", ""
	}
	if f, ok := fhir.SubExtensionDecimal(geo, "latitude"); ok {
		lat = formatNumber(f)
	}
	if f, ok := fhir.SubExtensionDecimal(geo, "longitude"); ok {
		lon = formatNumber(f)
	}
	return lat, lon
}

// preferredEntry returns the entry of a name or address array whose
// use matches, falling back to the first entry.
func preferredEntry(arr []interface{}, use string) (map[string]interface{}, bool) {
	for _, e := range arr {
		m, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if u, _ := fhir.GetString(m, "use"); u == use {
			return m, true
		}
	}
	if len(arr) > 0 {
		m, ok := arr[0].(map[string]interface{})
		return m, ok
	}
	return nil, false
}

// snomedConcept builds a SNOMED CodeableConcept tolerating an absent
// code (text only) or an absent description.
func snomedConcept(code, description string) map[string]interface{} {
	if code == "" {
		cc := map[string]interface{}{"coding": []interface{}{}}
		setIfPresent(cc, "text", description)
		return cc
	}
	return fhir.Concept(fhir.SystemSNOMED, code, description, description)
}

// addDecimalExtension appends a valueDecimal extension when the
// column parses as a number. Malformed amounts are dropped.
func addDecimalExtension(resource map[string]interface{}, url, raw string) {
	if f, ok := parseNumeric(raw); ok {
		fhir.AddExtension(resource, fhir.Extension(url, "valueDecimal", f))
	}
}

// decimalExtensionColumn renders a valueDecimal extension back to a
// Synthea numeric column.
func decimalExtensionColumn(resource map[string]interface{}, url string) string {
	if f, ok := fhir.ExtensionDecimal(resource, url); ok {
		return formatNumber(f)
	}
	return ""
}

// snomedColumns extracts the CODE and DESCRIPTION columns from a
// CodeableConcept, preferring the SNOMED coding and falling back to
// the first coding, then the concept text.
func snomedColumns(cc map[string]interface{}) (code, description string) {
	if cc == nil {
		return "", ""
	}
	if coding, ok := fhir.ConceptCoding(cc, fhir.SystemSNOMED); ok {
		code, _ = fhir.GetString(coding, "code")
		description, _ = fhir.GetString(coding, "display")
	}
	if description == "" {
		if text, ok := fhir.GetString(cc, "text"); ok {
			description = text
		}
	}
	return code, description
}

// firstConceptColumns extracts CODE and DESCRIPTION from the first
// entry of a CodeableConcept array field.
func firstConceptColumns(resource map[string]interface{}, key string) (code, description string) {
	cc, ok := fhir.FirstMap(resource, key)
	if !ok {
		return "", ""
	}
	return snomedColumns(cc)
}

// newRow builds an empty row carrying every canonical column of the
// table, so reverse output always has the full fixed column set.
func newRow(table string) synthea.Row {
	t, ok := synthea.LookupTable(table)
	if !ok {
		return synthea.Row{}
	}
	row := make(synthea.Row, len(t.Columns))
	for _, col := range t.Columns {
		row[col] = ""
	}
	return row
}
