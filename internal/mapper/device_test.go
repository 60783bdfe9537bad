package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func TestDeviceRoundTrip(t *testing.T) {
	src := synthea.Row{
		"START":       "2019-04-01 14:00:00",
		"STOP":        "2019-06-12 14:00:00",
		"PATIENT":     "p1",
		"ENCOUNTER":   "e1",
		"CODE":        "705417005",
		"DESCRIPTION": "Coronary artery stent (physical object)",
		"UDI":         "(01)08717648200274(11)190401(17)240401(10)123(21)456",
	}
	device := MapDevice(src)

	if device["status"] != "inactive" {
		t.Errorf("a STOP date must mark the device inactive, got %v", device["status"])
	}
	carrier, ok := fhir.FirstMap(device, "udiCarrier")
	if !ok {
		t.Fatal("expected udiCarrier")
	}
	if carrier["deviceIdentifier"] != src["UDI"] || carrier["carrierHRF"] != src["UDI"] {
		t.Error("UDI must fill deviceIdentifier and carrierHRF")
	}

	row, err := DeviceToRow(device)
	if err != nil {
		t.Fatal(err)
	}
	for col, want := range src {
		if row[col] != want {
			t.Errorf("%s: got %q, want %q", col, row[col], want)
		}
	}
}

func TestDeviceActiveWithoutStop(t *testing.T) {
	device := MapDevice(synthea.Row{
		"START":   "2019-04-01 14:00:00",
		"PATIENT": "p1",
		"CODE":    "705417005",
	})
	if device["status"] != "active" {
		t.Errorf("expected active, got %v", device["status"])
	}
	if device["id"] != "device-p1-20190401140000-705417005" {
		t.Errorf("unexpected id %v", device["id"])
	}
}

func TestSupplyRoundTrip(t *testing.T) {
	src := synthea.Row{
		"DATE":        "2020-02-11",
		"PATIENT":     "p1",
		"ENCOUNTER":   "e1",
		"CODE":        "409534007",
		"DESCRIPTION": "Air filter device (physical object)",
		"QUANTITY":    "16",
	}
	supply := MapSupply(src)

	if supply["status"] != "completed" {
		t.Errorf("expected completed, got %v", supply["status"])
	}
	if supply["id"] != "supply-p1-20200211-409534007" {
		t.Errorf("unexpected id %v", supply["id"])
	}

	row, err := SupplyToRow(supply)
	if err != nil {
		t.Fatal(err)
	}
	for col, want := range src {
		if row[col] != want {
			t.Errorf("%s: got %q, want %q", col, row[col], want)
		}
	}
}

func TestSupplyDateTruncatesToDay(t *testing.T) {
	supply := MapSupply(synthea.Row{
		"DATE":    "2020-02-11 09:30:00",
		"PATIENT": "p1",
		"CODE":    "409534007",
	})
	row, err := SupplyToRow(supply)
	if err != nil {
		t.Fatal(err)
	}
	if row["DATE"] != "2020-02-11" {
		t.Errorf("got %q", row["DATE"])
	}
}
