package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func testChargeRow() synthea.Row {
	return synthea.Row{
		"Id":                      "txn1",
		"Claim ID":                "claim1",
		"Charge ID":               "1",
		"Patient ID":              "p1",
		"Type":                    "CHARGE",
		"Amount":                  "129.16",
		"Units":                   "1",
		"From Date":               "2019-05-06 09:20:00",
		"To Date":                 "2019-05-06 09:35:00",
		"Place of Service":        "org1",
		"Procedure Code":          "185345009",
		"Notes":                   "Encounter for symptom",
		"Unit Amount":             "129.16",
		"DiagnosisRef1":           "1",
		"DiagnosisRef2":           "2",
		"Appointment ID":          "e1",
		"Patient Insurance ID":    "cov1",
		"Provider ID":             "prov1",
		"Supervising Provider ID": "prov2",
	}
}

func TestMapClaimTransaction(t *testing.T) {
	claim, response := MapClaimTransaction(testChargeRow())

	if claim["id"] != "claim1" || response["id"] != "txn1" {
		t.Errorf("ids: claim=%v response=%v", claim["id"], response["id"])
	}
	if fhir.ReferenceIDAt(claim, "facility") != "org1" {
		t.Error("facility must reference the place of service")
	}

	item, ok := fhir.FirstMap(claim, "item")
	if !ok {
		t.Fatal("expected a claim item")
	}
	if item["sequence"] != 1 {
		t.Errorf("sequence: got %v", item["sequence"])
	}
	cc, _ := fhir.GetMap(item, "productOrService")
	coding, _ := fhir.ConceptCoding(cc, fhir.SystemSNOMED)
	if code, _ := fhir.GetString(coding, "code"); code != "185345009" {
		t.Errorf("procedure code: got %q", code)
	}
	if display, _ := fhir.GetString(coding, "display"); display != "Encounter for symptom" {
		t.Errorf("display must come from the notes, got %q", display)
	}
	price, _ := fhir.GetMap(item, "unitPrice")
	if price["currency"] != "USD" {
		t.Errorf("unit price currency: got %v", price["currency"])
	}
	diags, _ := fhir.GetArray(item, "diagnosisSequence")
	if len(diags) != 2 || diags[0] != 1 || diags[1] != 2 {
		t.Errorf("diagnosis sequences: got %v", diags)
	}

	if fhir.ReferenceIDAt(response, "request") != "claim1" {
		t.Error("response must reference the claim")
	}
}

func TestChargeRoundTrip(t *testing.T) {
	src := testChargeRow()
	claim, _ := MapClaimTransaction(src)
	rows, err := ClaimToTransactionRows(claim)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 charge row, got %d", len(rows))
	}
	row := rows[0]

	// The row id is rebuilt from the claim id and line sequence.
	want := src
	want["Id"] = "txn-claim1-1"
	for _, col := range []string{
		"Id", "Claim ID", "Charge ID", "Patient ID", "Type", "Amount",
		"Units", "From Date", "To Date", "Place of Service",
		"Procedure Code", "Notes", "Unit Amount", "DiagnosisRef1",
		"DiagnosisRef2", "Appointment ID", "Patient Insurance ID",
		"Provider ID", "Supervising Provider ID",
	} {
		if row[col] != want[col] {
			t.Errorf("%s: got %q, want %q", col, row[col], want[col])
		}
	}
}

func TestPaymentResponseRow(t *testing.T) {
	src := synthea.Row{
		"Id":         "txn2",
		"Claim ID":   "claim1",
		"Charge ID":  "1",
		"Patient ID": "p1",
		"Type":       "PAYMENT",
		"Method":     "CHECK",
		"To Date":    "2019-06-01 00:00:00",
		"Payments":   "100.52",
	}
	_, response := MapClaimTransaction(src)

	payment, ok := fhir.GetMap(response, "payment")
	if !ok {
		t.Fatal("expected a payment block")
	}
	amount, _ := fhir.GetMap(payment, "amount")
	if v, _ := fhir.GetFloat(amount, "value"); v != 100.52 {
		t.Errorf("payment amount: got %v", v)
	}

	row, err := ClaimResponseToTransactionRow(response)
	if err != nil {
		t.Fatal(err)
	}
	if row["Type"] != "PAYMENT" || row["Payments"] != "100.52" {
		t.Errorf("got Type=%q Payments=%q", row["Type"], row["Payments"])
	}
	if row["Method"] != "CHECK" {
		t.Errorf("method: got %q", row["Method"])
	}
	if row["To Date"] != "2019-06-01 00:00:00" {
		t.Errorf("to date: got %q", row["To Date"])
	}
}

func TestTransferResponseRow(t *testing.T) {
	src := synthea.Row{
		"Id":              "txn3",
		"Claim ID":        "claim1",
		"Patient ID":      "p1",
		"Type":            "TRANSFERIN",
		"Transfers":       "28.64",
		"Transfer Out ID": "txn2",
		"Transfer Type":   "1",
	}
	_, response := MapClaimTransaction(src)

	item, _ := fhir.FirstMap(response, "item")
	adjudications, _ := fhir.GetArray(item, "adjudication")
	if len(adjudications) != 1 {
		t.Fatalf("expected 1 adjudication, got %d", len(adjudications))
	}
	adj := adjudications[0].(map[string]interface{})
	reason, _ := fhir.GetMap(adj, "reason")
	if reason["text"] != "transfer: out_id=txn2, type=1" {
		t.Errorf("reason: got %v", reason["text"])
	}

	row, err := ClaimResponseToTransactionRow(response)
	if err != nil {
		t.Fatal(err)
	}
	if row["Type"] != "TRANSFERIN" || row["Transfers"] != "28.64" {
		t.Errorf("got Type=%q Transfers=%q", row["Type"], row["Transfers"])
	}
}

func TestAdjustmentResponseRow(t *testing.T) {
	_, response := MapClaimTransaction(synthea.Row{
		"Id":          "txn4",
		"Claim ID":    "claim1",
		"Type":        "ADJUSTMENT",
		"Adjustments": "12.5",
	})
	row, err := ClaimResponseToTransactionRow(response)
	if err != nil {
		t.Fatal(err)
	}
	if row["Type"] != "ADJUSTMENT" || row["Adjustments"] != "12.5" {
		t.Errorf("got Type=%q Adjustments=%q", row["Type"], row["Adjustments"])
	}
}
