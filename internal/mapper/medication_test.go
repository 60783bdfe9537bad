package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func testMedicationRow() synthea.Row {
	return synthea.Row{
		"START":             "2018-05-20 08:00:00",
		"STOP":              "2018-06-19 08:00:00",
		"PATIENT":           "p1",
		"PAYER":             "payer1",
		"ENCOUNTER":         "e1",
		"CODE":              "308136",
		"DESCRIPTION":       "amLODIPine 2.5 MG Oral Tablet",
		"Base_Cost":         "263.49",
		"Payer_Coverage":    "254.16",
		"Dispenses":         "12",
		"TotalCost":         "3161.88",
		"ReasonCode":        "59621000",
		"ReasonDescription": "Hypertension",
	}
}

func TestMapMedication(t *testing.T) {
	mr := MapMedication(testMedicationRow())

	if mr["status"] != "stopped" {
		t.Errorf("a STOP date must mark the request stopped, got %v", mr["status"])
	}
	if mr["intent"] != "order" {
		t.Errorf("expected order, got %v", mr["intent"])
	}
	if mr["authoredOn"] != "2018-05-20T08:00:00+00:00" {
		t.Errorf("unexpected authoredOn %v", mr["authoredOn"])
	}
	if coding, ok := fhir.CodingIn(mr, "medicationCodeableConcept", fhir.SystemRxNorm); !ok {
		t.Fatal("expected RxNorm coding")
	} else if code, _ := fhir.GetString(coding, "code"); code != "308136" {
		t.Errorf("got %q", code)
	}
	insurance, ok := fhir.FirstMap(mr, "insurance")
	if !ok || fhir.ReferenceID(insurance) != "payer1" {
		t.Error("expected Coverage/payer1 insurance")
	}
}

func TestMedicationRoundTrip(t *testing.T) {
	src := testMedicationRow()
	row, err := MedicationToRow(MapMedication(src))
	if err != nil {
		t.Fatal(err)
	}
	for col, want := range src {
		if row[col] != want {
			t.Errorf("%s: got %q, want %q", col, row[col], want)
		}
	}
}

func TestMedicationActiveWithoutStop(t *testing.T) {
	src := testMedicationRow()
	src["STOP"] = ""
	mr := MapMedication(src)
	if mr["status"] != "active" {
		t.Errorf("expected active, got %v", mr["status"])
	}
}
