package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func TestConditionRoundTrip(t *testing.T) {
	src := synthea.Row{
		"START":       "2010-03-15",
		"STOP":        "2010-04-20",
		"PATIENT":     "p1",
		"ENCOUNTER":   "e1",
		"SYSTEM":      fhir.SystemSNOMED,
		"CODE":        "444814009",
		"DESCRIPTION": "Viral sinusitis (disorder)",
	}
	cond := MapCondition(src)

	if cond["id"] != "cond-p1-20100315-444814009" {
		t.Errorf("unexpected id %v", cond["id"])
	}
	clinical, _ := fhir.GetMap(cond, "clinicalStatus")
	if coding, ok := fhir.ConceptCoding(clinical); !ok {
		t.Fatal("expected clinicalStatus coding")
	} else if code, _ := fhir.GetString(coding, "code"); code != "resolved" {
		t.Errorf("stopped condition must be resolved, got %q", code)
	}

	row, err := ConditionToRow(cond)
	if err != nil {
		t.Fatal(err)
	}
	for col, want := range src {
		if row[col] != want {
			t.Errorf("%s: got %q, want %q", col, row[col], want)
		}
	}
}

func TestConditionActiveWithoutStop(t *testing.T) {
	cond := MapCondition(synthea.Row{
		"START":   "2010-03-15",
		"PATIENT": "p1",
		"CODE":    "44054006",
	})
	clinical, _ := fhir.GetMap(cond, "clinicalStatus")
	coding, _ := fhir.ConceptCoding(clinical)
	if code, _ := fhir.GetString(coding, "code"); code != "active" {
		t.Errorf("expected active, got %q", code)
	}
	if _, exists := cond["abatementDateTime"]; exists {
		t.Error("no STOP must mean no abatement")
	}
}
