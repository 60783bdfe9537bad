package mapper

import (
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapDevice converts a devices.csv row to a FHIR Device resource.
// Device has no encounter element or use period in R4, so both ride
// as extensions; the UDI string fills deviceIdentifier and carrierHRF.
func MapDevice(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	start := row.GetAny("START", "Start")
	stop := row.GetAny("STOP", "Stop")
	code := row.GetAny("CODE", "Code")
	description := row.GetAny("DESCRIPTION", "Description")

	device := map[string]interface{}{
		"resourceType": "Device",
	}
	setIfPresent(device, "id", resourceID("device", patient, start, code))
	if stop != "" {
		device["status"] = "inactive"
	} else {
		device["status"] = "active"
	}

	fhir.SetReference(device, "patient", "Patient", patient)
	if code != "" {
		device["type"] = fhir.Concept(fhir.SystemSNOMED, code, description, description)
	}
	if udi := row.Get("UDI"); udi != "" {
		device["udiCarrier"] = []interface{}{
			map[string]interface{}{
				"deviceIdentifier": udi,
				"carrierHRF":       udi,
			},
		}
	}

	if period := fhir.Period(toFHIRDateTime(start), toFHIRDateTime(stop)); period != nil {
		fhir.AddExtension(device, fhir.Extension(extDeviceUsePeriod, "valuePeriod", period))
	}
	if encounter := row.GetAny("ENCOUNTER", "Encounter"); encounter != "" {
		fhir.AddExtension(device, fhir.Extension(extResourceEncounter, "valueReference",
			fhir.Reference("Encounter", encounter)))
	}

	return device
}

// DeviceToRow converts a FHIR Device resource back to a devices.csv
// row.
func DeviceToRow(device map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(device, "Device"); err != nil {
		return nil, err
	}
	row := newRow("devices")

	if ext, ok := fhir.FindExtension(device, extDeviceUsePeriod); ok {
		if period, ok := fhir.GetMap(ext, "valuePeriod"); ok {
			if start, ok := fhir.GetString(period, "start"); ok {
				row["START"] = fromFHIRDateTime(start)
			}
			if end, ok := fhir.GetString(period, "end"); ok {
				row["STOP"] = fromFHIRDateTime(end)
			}
		}
	}

	row["PATIENT"] = fhir.ReferenceIDAt(device, "patient")
	if ext, ok := fhir.FindExtension(device, extResourceEncounter); ok {
		if ref, ok := fhir.GetMap(ext, "valueReference"); ok {
			row["ENCOUNTER"] = fhir.ReferenceID(ref)
		}
	}

	if coding, ok := fhir.CodingIn(device, "type", fhir.SystemSNOMED); ok {
		row["CODE"], _ = fhir.GetString(coding, "code")
		row["DESCRIPTION"], _ = fhir.GetString(coding, "display")
	}
	if row["DESCRIPTION"] == "" {
		row["DESCRIPTION"] = fhir.ConceptText(device, "type")
	}

	if carrier, ok := fhir.FirstMap(device, "udiCarrier"); ok {
		udi, _ := fhir.GetString(carrier, "deviceIdentifier")
		if udi == "" {
			udi, _ = fhir.GetString(carrier, "carrierHRF")
		}
		row["UDI"] = udi
	}

	return row, nil
}
