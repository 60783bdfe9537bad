package mapper

import (
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapImagingStudy converts an imaging_studies.csv row to a FHIR
// ImagingStudy resource. Synthea has shipped this table with several
// header spellings, so each field accepts the known variants. There is
// no reverse mapper: a study carries many series and instances and the
// one-row-per-instance CSV shape is not recoverable from the resource.
func MapImagingStudy(row synthea.Row) map[string]interface{} {
	patient := row.GetAny("PATIENT", "Patient")
	date := row.GetAny("DATE", "Date")
	seriesUID := row.GetAny("SERIES_UID", "Series UID", "SERIES UID")
	instanceUID := row.GetAny("INSTANCE_UID", "Instance UID", "INSTANCE UID")

	study := map[string]interface{}{
		"resourceType": "ImagingStudy",
		"status":       "available",
	}
	if patient != "" && date != "" && seriesUID != "" && instanceUID != "" {
		study["id"] = "imaging-" + patient + "-" + dateClean(date) + "-" + seriesUID + "-" + instanceUID
	}
	if id := row.GetAny("Id", "ID", "id"); id != "" {
		study["identifier"] = []interface{}{
			map[string]interface{}{"system": "urn:synthea:imaging_studies", "value": id},
		}
	}
	fhir.SetReference(study, "subject", "Patient", patient)
	fhir.SetReference(study, "encounter", "Encounter", row.GetAny("ENCOUNTER", "Encounter"))
	setIfPresent(study, "started", toFHIRDateTime(date))

	series := map[string]interface{}{}
	setIfPresent(series, "uid", seriesUID)

	bodySiteCode := row.GetAny("BODYSITE_CODE", "Body Site Code", "BODY_SITE_CODE")
	bodySiteDesc := row.GetAny("BODYSITE_DESCRIPTION", "Body Site Description", "BODY_SITE_DESCRIPTION")
	if bodySiteCode != "" || bodySiteDesc != "" {
		bodySite := map[string]interface{}{}
		if bodySiteCode != "" {
			bodySite["coding"] = []interface{}{fhir.Coding(fhir.SystemSNOMED, bodySiteCode, bodySiteDesc)}
		}
		setIfPresent(bodySite, "text", bodySiteDesc)
		series["bodySite"] = bodySite
	}

	modalityCode := row.GetAny("MODALITY_CODE", "Modality Code")
	modalityDesc := row.GetAny("MODALITY_DESCRIPTION", "Modality Description")
	if modalityCode != "" || modalityDesc != "" {
		modality := map[string]interface{}{"system": fhir.SystemDICOMDCM}
		setIfPresent(modality, "code", modalityCode)
		setIfPresent(modality, "display", modalityDesc)
		series["modality"] = modality
	}

	instance := map[string]interface{}{}
	setIfPresent(instance, "uid", instanceUID)
	sopCode := row.GetAny("SOP_CODE", "SOP Code", "SOP CODE")
	sopDesc := row.GetAny("SOP_DESCRIPTION", "SOP Description", "SOP DESCRIPTION")
	if sopCode != "" || sopDesc != "" {
		sopClass := map[string]interface{}{}
		if sopCode != "" {
			sopClass["system"] = "urn:ietf:rfc:3986"
			sopClass["code"] = normalizeSOPCode(sopCode)
		}
		setIfPresent(sopClass, "display", sopDesc)
		instance["sopClass"] = sopClass
	}
	if len(instance) > 0 {
		series["instance"] = []interface{}{instance}
	}

	if len(series) > 0 {
		study["series"] = []interface{}{series}
	}

	return study
}

// normalizeSOPCode renders a SOP class as a urn:oid URI; Synthea
// writes the bare OID.
func normalizeSOPCode(raw string) string {
	if strings.HasPrefix(raw, "urn:oid:") {
		return raw
	}
	return "urn:oid:" + raw
}
