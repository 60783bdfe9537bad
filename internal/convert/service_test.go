package convert

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/synthea-tools/csvfhir/internal/mapper"
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func testService() *Service {
	return NewService(zerolog.Nop(), 4)
}

func TestConvertRowsPreservesOrder(t *testing.T) {
	rows := []synthea.Row{
		{"Id": "p1", "FIRST": "Ada", "LAST": "Lovelace", "GENDER": "F"},
		{"Id": "p2", "FIRST": "Alan", "LAST": "Turing", "GENDER": "M"},
		{"Id": "p3", "FIRST": "Grace", "LAST": "Hopper", "GENDER": "F"},
	}

	resources, err := testService().ConvertRows(context.Background(), "patients", rows)
	if err != nil {
		t.Fatal(err)
	}
	if len(resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(resources))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if resources[i]["id"] != want {
			t.Errorf("resource %d: expected id %s, got %v", i, want, resources[i]["id"])
		}
	}
}

func TestConvertRowsUnknownTable(t *testing.T) {
	_, err := testService().ConvertRows(context.Background(), "visits", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown table")
	}
}

func TestConvertRowsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := make([]synthea.Row, 100)
	for i := range rows {
		rows[i] = synthea.Row{"Id": "p1"}
	}
	_, err := NewService(zerolog.Nop(), 1).ConvertRows(ctx, "patients", rows)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConvertRowsProvidersEmitTwoResources(t *testing.T) {
	rows := []synthea.Row{
		{"Id": "prov1", "Organization": "org1", "Name": "Laverne Mills", "Gender": "F"},
	}
	resources, err := testService().ConvertRows(context.Background(), "providers", rows)
	if err != nil {
		t.Fatal(err)
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	if resources[0]["resourceType"] != "Practitioner" || resources[1]["resourceType"] != "PractitionerRole" {
		t.Errorf("got %v and %v", resources[0]["resourceType"], resources[1]["resourceType"])
	}
}

func TestReverseResourcesForwardOnlyTable(t *testing.T) {
	_, err := testService().ReverseResources(context.Background(), "imaging_studies", nil)
	if err == nil {
		t.Fatal("expected an error for a forward-only table")
	}
}

func TestReverseResourcesSkipsBadResource(t *testing.T) {
	good := mapper.MapPatient(synthea.Row{"Id": "p1", "FIRST": "Ada", "LAST": "Lovelace"})
	bad := map[string]interface{}{"resourceType": "Observation"}

	rows, err := testService().ReverseResources(context.Background(), "patients", []map[string]interface{}{bad, good})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the bad resource skipped, got %d rows", len(rows))
	}
	if rows[0]["Id"] != "p1" {
		t.Errorf("expected the good row, got %v", rows[0]["Id"])
	}
}

func TestReverseProvidersPairsRoles(t *testing.T) {
	practitioner, role := mapper.MapProvider(synthea.Row{
		"Id": "prov1", "Organization": "org1", "Name": "Laverne Mills",
		"Gender": "F", "Speciality": "GENERAL PRACTICE",
	})
	lone, _ := mapper.MapProvider(synthea.Row{
		"Id": "prov2", "Name": "John Doe", "Gender": "M",
	})

	// Role order must not matter for the pairing.
	rows, err := testService().ReverseResources(context.Background(), "providers",
		[]map[string]interface{}{role, practitioner, lone})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	byID := map[string]synthea.Row{}
	for _, row := range rows {
		byID[row["Id"]] = row
	}
	if byID["prov1"]["Organization"] != "org1" || byID["prov1"]["Speciality"] != "GENERAL PRACTICE" {
		t.Errorf("paired row: got %v", byID["prov1"])
	}
	if byID["prov2"]["Organization"] != "" {
		t.Errorf("lone practitioner must keep organization empty, got %q", byID["prov2"]["Organization"])
	}
}

func TestReverseClaimTransactions(t *testing.T) {
	claim, response := mapper.MapClaimTransaction(synthea.Row{
		"Id":         "txn1",
		"Claim ID":   "claim1",
		"Charge ID":  "1",
		"Patient ID": "p1",
		"Type":       "CHARGE",
		"Amount":     "100",
		"Units":      "1",
	})
	_, payment := mapper.MapClaimTransaction(synthea.Row{
		"Id":         "txn2",
		"Claim ID":   "claim1",
		"Patient ID": "p1",
		"Type":       "PAYMENT",
		"Payments":   "80",
	})
	// The charge pair's empty response must not produce a row.
	rows, err := testService().ReverseResources(context.Background(), "claims_transactions",
		[]map[string]interface{}{claim, response, payment})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Type"] != "CHARGE" || rows[0]["Id"] != "txn-claim1-1" {
		t.Errorf("charge row: got %v", rows[0])
	}
	if rows[1]["Type"] != "PAYMENT" || rows[1]["Payments"] != "80" {
		t.Errorf("payment row: got %v", rows[1])
	}
}

func TestTableForResource(t *testing.T) {
	payer := mapper.MapPayer(synthea.Row{"Id": "payer1", "Name": "Medicare"})
	org := mapper.MapOrganization(synthea.Row{"Id": "org1", "Name": "General Hospital"})
	tableClaim := mapper.MapClaim(synthea.Row{
		"Id":         "claim1",
		"Patient ID": "p1",
		"Diagnosis1": "44054006",
	})
	txnClaim, _ := mapper.MapClaimTransaction(synthea.Row{
		"Id":        "txn1",
		"Claim ID":  "claim1",
		"Charge ID": "1",
		"Type":      "CHARGE",
		"Amount":    "129.16",
	})

	cases := []struct {
		resource map[string]interface{}
		want     string
	}{
		{map[string]interface{}{"resourceType": "Patient"}, "patients"},
		{map[string]interface{}{"resourceType": "MedicationRequest"}, "medications"},
		{map[string]interface{}{"resourceType": "PractitionerRole"}, "providers"},
		{map[string]interface{}{"resourceType": "ClaimResponse"}, "claims_transactions"},
		{tableClaim, "claims"},
		{txnClaim, "claims_transactions"},
		{payer, "payers"},
		{org, "organizations"},
		{map[string]interface{}{"resourceType": "Basic"}, ""},
	}
	for _, tc := range cases {
		if got := tableForResource(tc.resource); got != tc.want {
			rt, _ := fhir.GetString(tc.resource, "resourceType")
			t.Errorf("%s: expected %q, got %q", rt, tc.want, got)
		}
	}
}
