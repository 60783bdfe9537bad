package mapper

import (
	"strconv"
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// MapClaimTransaction converts a claims_transactions.csv row to a pair
// of FHIR fragments: a Claim carrying the charge line and a
// ClaimResponse carrying the adjudication for it. Rows sharing a Claim
// ID describe lines of the same claim; consolidating them is the
// caller's concern.
func MapClaimTransaction(row synthea.Row) (claim, response map[string]interface{}) {
	return transactionClaim(row), transactionResponse(row)
}

func transactionClaim(row synthea.Row) map[string]interface{} {
	claim := map[string]interface{}{
		"resourceType": "Claim",
	}
	setIfPresent(claim, "id", row.Get("Claim ID"))
	fhir.SetReference(claim, "patient", "Patient", row.Get("Patient ID"))
	fhir.SetReference(claim, "provider", "Practitioner", row.Get("Provider ID"))
	fhir.SetReference(claim, "facility", "Organization", row.Get("Place of Service"))

	from := toFHIRDateTime(row.Get("From Date"))
	to := toFHIRDateTime(row.Get("To Date"))
	if from != "" || to != "" {
		period := map[string]interface{}{}
		setIfPresent(period, "start", from)
		setIfPresent(period, "end", to)
		claim["billablePeriod"] = period
	}

	item := map[string]interface{}{}
	if seq, ok := chargeSequence(row.Get("Charge ID")); ok {
		item["sequence"] = seq
	}
	if code := row.Get("Procedure Code"); code != "" {
		display := row.GetAny("Notes", "Line Note")
		item["productOrService"] = map[string]interface{}{
			"coding": []interface{}{fhir.Coding(fhir.SystemSNOMED, code, display)},
			"text":   code,
		}
	}
	if units, ok := parseNumeric(row.Get("Units")); ok {
		item["quantity"] = map[string]interface{}{"value": units}
	}
	if unit, ok := parseNumeric(row.Get("Unit Amount")); ok {
		item["unitPrice"] = fhir.Money(unit)
	}
	if net, ok := parseNumeric(row.Get("Amount")); ok {
		item["net"] = fhir.Money(net)
	}
	var diagRefs []interface{}
	for _, col := range []string{"DiagnosisRef1", "DiagnosisRef2", "DiagnosisRef3", "DiagnosisRef4"} {
		if ref, ok := parseInt(row.Get(col)); ok {
			diagRefs = append(diagRefs, int(ref))
		}
	}
	if len(diagRefs) > 0 {
		item["diagnosisSequence"] = diagRefs
	}
	if appt := row.Get("Appointment ID"); appt != "" {
		item["encounter"] = []interface{}{fhir.Reference("Encounter", appt)}
	}
	if len(item) > 0 {
		claim["item"] = []interface{}{item}
	}

	var notes []interface{}
	for _, col := range []string{"Notes", "Line Note"} {
		if text := row.Get(col); text != "" {
			notes = append(notes, map[string]interface{}{"text": text})
		}
	}
	if len(notes) > 0 {
		claim["note"] = notes
	}

	if coverage := row.Get("Patient Insurance ID"); coverage != "" {
		claim["insurance"] = []interface{}{
			map[string]interface{}{
				"sequence": 1,
				"focal":    true,
				"coverage": fhir.Reference("Coverage", coverage),
			},
		}
	}

	if supervising := row.Get("Supervising Provider ID"); supervising != "" {
		claim["careTeam"] = []interface{}{
			map[string]interface{}{
				"sequence": 1,
				"provider": fhir.Reference("Practitioner", supervising),
				"role":     map[string]interface{}{"text": "supervising"},
			},
		}
	}

	return claim
}

func transactionResponse(row synthea.Row) map[string]interface{} {
	response := map[string]interface{}{
		"resourceType": "ClaimResponse",
		"status":       "active",
		"outcome":      "complete",
	}
	setIfPresent(response, "id", row.Get("Id"))
	fhir.SetReference(response, "patient", "Patient", row.Get("Patient ID"))
	fhir.SetReference(response, "request", "Claim", row.Get("Claim ID"))

	payments, hasPayments := parseNumeric(row.Get("Payments"))
	adjustments, hasAdjustments := parseNumeric(row.Get("Adjustments"))
	transfers, hasTransfers := parseNumeric(row.Get("Transfers"))

	var adjudications []interface{}
	adjudication := func(code string, amount float64) map[string]interface{} {
		return map[string]interface{}{
			"category": map[string]interface{}{
				"coding": []interface{}{
					map[string]interface{}{"system": sysTransactionType, "code": code},
				},
			},
			"amount": fhir.Money(amount),
		}
	}
	if hasPayments {
		adjudications = append(adjudications, adjudication("payment", payments))
	}
	if hasAdjustments {
		adjudications = append(adjudications, adjudication("adjustment", adjustments))
	}
	if hasTransfers {
		adj := adjudication("transfer", transfers)
		outID, transferType := row.Get("Transfer Out ID"), row.Get("Transfer Type")
		if outID != "" || transferType != "" {
			adj["reason"] = map[string]interface{}{
				"text": "transfer: out_id=" + outID + ", type=" + transferType,
			}
		}
		adjudications = append(adjudications, adj)
	}

	item := map[string]interface{}{}
	if seq, ok := chargeSequence(row.Get("Charge ID")); ok {
		item["itemSequence"] = seq
	}
	if len(adjudications) > 0 {
		item["adjudication"] = adjudications
	}
	if len(item) > 0 {
		response["item"] = []interface{}{item}
	}

	if row.Get("Type") == "PAYMENT" && hasPayments {
		payment := map[string]interface{}{
			"amount": fhir.Money(payments),
		}
		if method := row.Get("Method"); method != "" {
			payment["type"] = map[string]interface{}{
				"coding": []interface{}{
					map[string]interface{}{"system": sysPaymentMethod, "code": method},
				},
				"text": method,
			}
		}
		if date := toFHIRDateTime(row.GetAny("To Date", "From Date")); date != "" {
			payment["date"] = date
		}
		response["payment"] = payment
	}

	var notes []interface{}
	if outstanding, ok := parseNumeric(row.Get("Outstanding")); ok {
		notes = append(notes, map[string]interface{}{"text": "Outstanding: " + formatNumber(outstanding)})
	}
	for _, col := range []string{"Notes", "Line Note"} {
		if text := row.Get(col); text != "" {
			notes = append(notes, map[string]interface{}{"text": text})
		}
	}
	if len(notes) > 0 {
		response["note"] = notes
	}

	return response
}

// chargeSequence parses the Charge ID column as an item sequence.
// Anything non-numeric is dropped rather than carried as a string.
func chargeSequence(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ClaimToTransactionRows converts a FHIR Claim back to
// claims_transactions.csv rows: one CHARGE row per claim item.
func ClaimToTransactionRows(claim map[string]interface{}) ([]synthea.Row, error) {
	if err := requireResource(claim, "Claim"); err != nil {
		return nil, err
	}

	claimID, _ := fhir.GetString(claim, "id")
	patientID := fhir.ReferenceIDAt(claim, "patient")
	providerID := fhir.ReferenceIDAt(claim, "provider")
	facilityID := fhir.ReferenceIDAt(claim, "facility")

	var fromDate, toDate string
	if bill, ok := fhir.GetMap(claim, "billablePeriod"); ok {
		start, _ := fhir.GetString(bill, "start")
		end, _ := fhir.GetString(bill, "end")
		fromDate = fromFHIRDateTime(start)
		toDate = fromFHIRDateTime(end)
	}

	var coverageID string
	if ins, ok := fhir.FirstMap(claim, "insurance"); ok {
		if cov, covOK := fhir.GetMap(ins, "coverage"); covOK {
			coverageID = fhir.ReferenceID(cov)
		}
	}
	supervisingID := supervisingProvider(claim)
	claimNotes := collectNoteTexts(claim)

	items, _ := fhir.GetArray(claim, "item")
	rows := make([]synthea.Row, 0, len(items))
	for _, it := range items {
		item, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		row := newRow("claims_transactions")
		row["Claim ID"] = claimID
		row["Patient ID"] = patientID
		row["Provider ID"] = providerID
		row["Place of Service"] = facilityID
		row["From Date"] = fromDate
		row["To Date"] = toDate
		row["Patient Insurance ID"] = coverageID
		row["Supervising Provider ID"] = supervisingID
		row["Notes"] = claimNotes
		row["Type"] = "CHARGE"

		if seq, seqOK := fhir.GetFloat(item, "sequence"); seqOK {
			row["Charge ID"] = formatNumber(seq)
			if claimID != "" {
				row["Id"] = "txn-" + claimID + "-" + formatNumber(seq)
			}
		}
		if cc, ccOK := fhir.GetMap(item, "productOrService"); ccOK {
			row["Procedure Code"] = conceptCodeOrText(cc)
		}
		if qty, qtyOK := fhir.GetMap(item, "quantity"); qtyOK {
			if v, vOK := fhir.GetFloat(qty, "value"); vOK {
				row["Units"] = formatNumber(v)
			}
		}
		if price, priceOK := fhir.GetMap(item, "unitPrice"); priceOK {
			if v, vOK := fhir.GetFloat(price, "value"); vOK {
				row["Unit Amount"] = formatNumber(v)
			}
		}
		if net, netOK := fhir.GetMap(item, "net"); netOK {
			if v, vOK := fhir.GetFloat(net, "value"); vOK {
				row["Amount"] = formatNumber(v)
			}
		}
		if encs, encOK := fhir.GetArray(item, "encounter"); encOK && len(encs) > 0 {
			if ref, refOK := encs[0].(map[string]interface{}); refOK {
				row["Appointment ID"] = fhir.ReferenceID(ref)
			}
		}
		if diags, diagOK := fhir.GetArray(item, "diagnosisSequence"); diagOK {
			for i, d := range diags {
				if i >= 4 {
					break
				}
				if f, fOK := fhir.ToFloat(d); fOK {
					row["DiagnosisRef"+strconv.Itoa(i+1)] = formatNumber(f)
				}
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// ClaimResponseToTransactionRow converts a FHIR ClaimResponse back to
// a single non-CHARGE claims_transactions.csv row. The transaction
// type follows the payment block when present, then the adjudication
// categories; a bare transfer defaults to TRANSFERIN since the
// direction is not recoverable.
func ClaimResponseToTransactionRow(response map[string]interface{}) (synthea.Row, error) {
	if err := requireResource(response, "ClaimResponse"); err != nil {
		return nil, err
	}
	row := newRow("claims_transactions")

	row["Id"], _ = fhir.GetString(response, "id")
	row["Patient ID"] = fhir.ReferenceIDAt(response, "patient")
	row["Claim ID"] = fhir.ReferenceIDAt(response, "request")
	row["Notes"] = collectNoteTexts(response)

	var adjudications []interface{}
	if item, ok := fhir.FirstMap(response, "item"); ok {
		if seq, seqOK := fhir.GetFloat(item, "itemSequence"); seqOK {
			row["Charge ID"] = formatNumber(seq)
		}
		adjudications, _ = fhir.GetArray(item, "adjudication")
	}

	if payment, ok := fhir.GetMap(response, "payment"); ok {
		if amount, amountOK := fhir.GetMap(payment, "amount"); amountOK {
			if v, vOK := fhir.GetFloat(amount, "value"); vOK {
				row["Type"] = "PAYMENT"
				row["Payments"] = formatNumber(v)
			}
		}
		if ptype, ptypeOK := fhir.GetMap(payment, "type"); ptypeOK {
			row["Method"] = conceptCodeOrText(ptype)
		}
		if date, dateOK := fhir.GetString(payment, "date"); dateOK {
			row["To Date"] = fromFHIRDateTime(date)
		}
	}

	if row["Type"] == "" {
		for _, a := range adjudications {
			adj, adjOK := a.(map[string]interface{})
			if !adjOK {
				continue
			}
			amount, amountOK := fhir.GetMap(adj, "amount")
			if !amountOK {
				continue
			}
			v, vOK := fhir.GetFloat(amount, "value")
			if !vOK {
				continue
			}
			category, _ := fhir.GetMap(adj, "category")
			switch conceptCodeOrText(category) {
			case "adjustment":
				row["Type"] = "ADJUSTMENT"
				row["Adjustments"] = formatNumber(v)
			case "transfer":
				row["Type"] = "TRANSFERIN"
				row["Transfers"] = formatNumber(v)
			}
			if row["Type"] != "" {
				break
			}
		}
	}
	if row["Type"] == "" {
		for _, a := range adjudications {
			adj, adjOK := a.(map[string]interface{})
			if !adjOK {
				continue
			}
			if amount, amountOK := fhir.GetMap(adj, "amount"); amountOK {
				if v, vOK := fhir.GetFloat(amount, "value"); vOK {
					row["Type"] = "PAYMENT"
					row["Payments"] = formatNumber(v)
					break
				}
			}
		}
	}

	return row, nil
}

// conceptCodeOrText returns the first coding code of a
// CodeableConcept, falling back to its text.
func conceptCodeOrText(cc map[string]interface{}) string {
	if cc == nil {
		return ""
	}
	if coding, ok := fhir.ConceptCoding(cc); ok {
		if code, _ := fhir.GetString(coding, "code"); code != "" {
			return code
		}
	}
	text, _ := fhir.GetString(cc, "text")
	return text
}

// collectNoteTexts joins a resource's note texts with "; ".
func collectNoteTexts(resource map[string]interface{}) string {
	notes, ok := fhir.GetArray(resource, "note")
	if !ok {
		return ""
	}
	var texts []string
	for _, n := range notes {
		note, noteOK := n.(map[string]interface{})
		if !noteOK {
			continue
		}
		if text, textOK := fhir.GetString(note, "text"); textOK && text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "; ")
}
