package convert

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

const patientsCSV = `Id,BIRTHDATE,DEATHDATE,SSN,DRIVERS,PASSPORT,PREFIX,FIRST,MIDDLE,LAST,SUFFIX,MAIDEN,MARITAL,RACE,ETHNICITY,GENDER,BIRTHPLACE,ADDRESS,CITY,STATE,COUNTY,ZIP,LAT,LON
p1,1985-03-15,,999-12-3456,,,Mr.,John,,Smith,,,M,white,nonhispanic,M,Boston MA US,12 Main St,Boston,Massachusetts,Suffolk County,02101,42.3601,-71.0589
p2,1990-07-22,,999-65-4321,,,Ms.,Jane,,Doe,,,S,asian,nonhispanic,F,Quincy MA US,9 Elm St,Quincy,Massachusetts,Norfolk County,02169,42.2529,-71.0023
`

func TestConvertFileNDJSON(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "patients.csv")
	if err := os.WriteFile(csvPath, []byte(patientsCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := testService().ConvertFile(context.Background(), csvPath, "", dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "patients.ndjson") {
		t.Errorf("unexpected output path %s", out)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 NDJSON lines, got %d", len(lines))
	}
	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first["resourceType"] != "Patient" || first["id"] != "p1" {
		t.Errorf("first resource: got %v/%v", first["resourceType"], first["id"])
	}
}

func TestConvertFileBundle(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "patients.csv")
	if err := os.WriteFile(csvPath, []byte(patientsCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := testService().ConvertFile(context.Background(), csvPath, "", dir, true)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var bundle map[string]interface{}
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatal(err)
	}
	if bundle["type"] != "transaction" {
		t.Errorf("expected a transaction bundle, got %v", bundle["type"])
	}
	entries := bundle["entry"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	entry := entries[0].(map[string]interface{})
	request := entry["request"].(map[string]interface{})
	if request["method"] != "PUT" || request["url"] != "Patient/p1" {
		t.Errorf("unexpected request %v", request)
	}
	if !strings.HasPrefix(entry["fullUrl"].(string), "urn:uuid:") {
		t.Errorf("unexpected fullUrl %v", entry["fullUrl"])
	}
}

func TestConvertDirSkipsUnknownFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "patients.csv"), []byte(patientsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "notes.csv"), []byte("A,B\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	written, err := testService().ConvertDir(context.Background(), in, out, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 {
		t.Fatalf("expected 1 output file, got %d", len(written))
	}
}

func TestReverseFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "patients.csv")
	if err := os.WriteFile(csvPath, []byte(patientsCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := testService()
	bundlePath, err := svc.ConvertFile(context.Background(), csvPath, "", dir, true)
	if err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "reversed")
	written, err := svc.ReverseFile(context.Background(), bundlePath, outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 {
		t.Fatalf("expected 1 csv written, got %d", len(written))
	}

	rows, err := synthea.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Id"] != "p1" || rows[0]["FIRST"] != "John" || rows[0]["GENDER"] != "M" {
		t.Errorf("first row: got %v", rows[0])
	}
	if rows[1]["CITY"] != "Quincy" {
		t.Errorf("second row city: got %q", rows[1]["CITY"])
	}
}

func TestWriteObservationParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "observations.parquet")

	rows := []synthea.Row{
		{"DATE": "2012-07-02 09:45:00", "PATIENT": "p1", "CODE": "8867-4", "VALUE": "72", "UNITS": "/min", "TYPE": "numeric"},
		{"DATE": "2012-07-02 09:45:00", "PATIENT": "p1", "CODE": "72166-2", "VALUE": "Never smoker", "TYPE": "text"},
	}
	n, err := WriteObservationParquet(path, rows)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 records written, got %d", n)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("expected a non-empty parquet file")
	}
}
