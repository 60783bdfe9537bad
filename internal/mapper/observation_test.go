package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func testObservationRow() synthea.Row {
	return synthea.Row{
		"DATE":        "2012-07-02 09:45:00",
		"PATIENT":     "p1",
		"ENCOUNTER":   "e1",
		"CATEGORY":    "vital-signs",
		"CODE":        "8867-4",
		"DESCRIPTION": "Heart rate",
		"VALUE":       "72",
		"UNITS":       "/min",
		"TYPE":        "numeric",
	}
}

func TestMapObservation(t *testing.T) {
	obs := MapObservation(testObservationRow())

	if obs["id"] != "obs-p1-20120702094500-8867-4" {
		t.Errorf("unexpected id %v", obs["id"])
	}
	if obs["status"] != "final" {
		t.Errorf("expected final, got %v", obs["status"])
	}
	if obs["effectiveDateTime"] != "2012-07-02T09:45:00+00:00" {
		t.Errorf("unexpected effectiveDateTime %v", obs["effectiveDateTime"])
	}
	if obs["issued"] != obs["effectiveDateTime"] {
		t.Error("issued must mirror effectiveDateTime")
	}
	if fhir.ReferenceIDAt(obs, "subject") != "p1" || fhir.ReferenceIDAt(obs, "encounter") != "e1" {
		t.Error("references must carry the row ids")
	}
	q, ok := fhir.GetMap(obs, "valueQuantity")
	if !ok {
		t.Fatal("expected valueQuantity")
	}
	if q["value"] != 72.0 || q["unit"] != "/min" {
		t.Errorf("unexpected quantity %v", q)
	}
}

func TestObservationRoundTrip(t *testing.T) {
	src := testObservationRow()
	row, err := ObservationToRow(MapObservation(src))
	if err != nil {
		t.Fatal(err)
	}
	for col, want := range src {
		if row[col] != want {
			t.Errorf("%s: got %q, want %q", col, row[col], want)
		}
	}
}

func TestObservationTextValue(t *testing.T) {
	src := testObservationRow()
	src["VALUE"] = "Never smoker"
	src["UNITS"] = ""
	src["CATEGORY"] = "social-history"

	obs := MapObservation(src)
	if obs["valueString"] != "Never smoker" {
		t.Fatalf("expected valueString, got %v", obs)
	}

	row, err := ObservationToRow(obs)
	if err != nil {
		t.Fatal(err)
	}
	if row["VALUE"] != "Never smoker" || row["TYPE"] != "text" {
		t.Errorf("got VALUE=%q TYPE=%q", row["VALUE"], row["TYPE"])
	}
	if row["CATEGORY"] != "social-history" {
		t.Errorf("got CATEGORY=%q", row["CATEGORY"])
	}
}

func TestObservationCategoryFromLegacyTypeColumn(t *testing.T) {
	// Older exports carried the category under TYPE.
	obs := MapObservation(synthea.Row{
		"DATE":    "2012-07-02",
		"PATIENT": "p1",
		"CODE":    "8867-4",
		"TYPE":    "laboratory",
	})
	categories, ok := fhir.GetArray(obs, "category")
	if !ok {
		t.Fatal("expected category")
	}
	if got := observationCategoryToSynthea(categories); got != "laboratory" {
		t.Errorf("got %q", got)
	}
}
