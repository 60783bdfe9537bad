package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func TestMapImagingStudy(t *testing.T) {
	study := MapImagingStudy(synthea.Row{
		"Id":                   "study1",
		"DATE":                 "2019-03-09 11:47:00",
		"PATIENT":              "p1",
		"ENCOUNTER":            "e1",
		"SERIES_UID":           "1.2.840.99999999.1.90468245.1552132020556",
		"BODYSITE_CODE":        "40983000",
		"BODYSITE_DESCRIPTION": "Arm",
		"MODALITY_CODE":        "DX",
		"MODALITY_DESCRIPTION": "Digital Radiography",
		"INSTANCE_UID":         "1.2.840.99999999.1.1.92690156.1552132020556",
		"SOP_CODE":             "1.2.840.10008.5.1.4.1.1.1.1",
		"SOP_DESCRIPTION":      "Digital X-Ray Image Storage",
	})

	// The id is derived, never taken from the Id column.
	wantID := "imaging-p1-20190309114700-1.2.840.99999999.1.90468245.1552132020556-1.2.840.99999999.1.1.92690156.1552132020556"
	if study["id"] != wantID {
		t.Errorf("id: got %v", study["id"])
	}
	ident, _ := fhir.FirstMap(study, "identifier")
	if ident["system"] != "urn:synthea:imaging_studies" || ident["value"] != "study1" {
		t.Errorf("identifier: got %v", ident)
	}
	if study["started"] != "2019-03-09T11:47:00+00:00" {
		t.Errorf("started: got %v", study["started"])
	}

	series, ok := fhir.FirstMap(study, "series")
	if !ok {
		t.Fatal("expected a series")
	}
	if series["uid"] != "1.2.840.99999999.1.90468245.1552132020556" {
		t.Errorf("series uid: got %v", series["uid"])
	}
	modality, _ := fhir.GetMap(series, "modality")
	if modality["system"] != fhir.SystemDICOMDCM || modality["code"] != "DX" {
		t.Errorf("modality: got %v", modality)
	}
	bodySite, _ := fhir.GetMap(series, "bodySite")
	if text, _ := fhir.GetString(bodySite, "text"); text != "Arm" {
		t.Errorf("body site text: got %q", text)
	}

	instance, ok := fhir.FirstMap(series, "instance")
	if !ok {
		t.Fatal("expected an instance")
	}
	sopClass, _ := fhir.GetMap(instance, "sopClass")
	if sopClass["code"] != "urn:oid:1.2.840.10008.5.1.4.1.1.1.1" {
		t.Errorf("sop class code: got %v", sopClass["code"])
	}
	if sopClass["system"] != "urn:ietf:rfc:3986" {
		t.Errorf("sop class system: got %v", sopClass["system"])
	}
}

func TestMapImagingStudyHeaderVariants(t *testing.T) {
	study := MapImagingStudy(synthea.Row{
		"Patient":      "p2",
		"Date":         "2020-01-01 08:00:00",
		"Series UID":   "s1",
		"Instance UID": "i1",
		"SOP Code":     "urn:oid:1.2.840.10008.5.1.4.1.1.2",
	})
	if study["id"] != "imaging-p2-20200101080000-s1-i1" {
		t.Errorf("id: got %v", study["id"])
	}
	series, _ := fhir.FirstMap(study, "series")
	instance, _ := fhir.FirstMap(series, "instance")
	sopClass, _ := fhir.GetMap(instance, "sopClass")
	// An already prefixed SOP code stays as-is.
	if sopClass["code"] != "urn:oid:1.2.840.10008.5.1.4.1.1.2" {
		t.Errorf("sop class code: got %v", sopClass["code"])
	}
}

func TestMapImagingStudyMissingKeysOmitsID(t *testing.T) {
	study := MapImagingStudy(synthea.Row{
		"PATIENT": "p1",
		"DATE":    "2020-01-01 08:00:00",
	})
	if _, ok := study["id"]; ok {
		t.Error("id must be omitted without series and instance uids")
	}
	if study["status"] != "available" {
		t.Errorf("status: got %v", study["status"])
	}
}
