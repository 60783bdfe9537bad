package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func TestCarePlanRoundTrip(t *testing.T) {
	src := synthea.Row{
		"Id":                "cp1",
		"START":             "2011-08-25",
		"STOP":              "2012-02-18",
		"PATIENT":           "p1",
		"ENCOUNTER":         "e1",
		"SYSTEM":            fhir.SystemSNOMED,
		"CODE":              "53950000",
		"DESCRIPTION":       "Respiratory therapy",
		"REASONCODE":        "10509002",
		"REASONDESCRIPTION": "Acute bronchitis (disorder)",
	}
	cp := MapCarePlan(src)

	if cp["status"] != "completed" || cp["intent"] != "plan" {
		t.Errorf("unexpected envelope %v/%v", cp["status"], cp["intent"])
	}
	note, ok := fhir.FirstMap(cp, "note")
	if !ok {
		t.Fatal("expected reason note")
	}
	if text, _ := fhir.GetString(note, "text"); text != "Reason: Acute bronchitis (disorder) (10509002)" {
		t.Errorf("unexpected note %q", text)
	}

	row, err := CarePlanToRow(cp)
	if err != nil {
		t.Fatal(err)
	}
	for col, want := range src {
		if row[col] != want {
			t.Errorf("%s: got %q, want %q", col, row[col], want)
		}
	}
}

func TestReasonFromNotesWithoutCode(t *testing.T) {
	code, description := reasonFromNotes(map[string]interface{}{
		"note": []interface{}{
			map[string]interface{}{"text": "Reason: Acute bronchitis"},
		},
	})
	if code != "" || description != "Acute bronchitis" {
		t.Errorf("got (%q, %q)", code, description)
	}
}
