package fhir

import "testing"

func TestReferenceRoundTrip(t *testing.T) {
	ids := []string{"p1", "b58f9c02-2911-4f0c-a2b7-dcba1b0d0a45", "txn-claim1-1"}
	for _, id := range ids {
		ref := Reference("Patient", id)
		if ref == nil {
			t.Fatalf("Reference(Patient, %q) = nil", id)
		}
		if got := ReferenceID(ref); got != id {
			t.Errorf("ReferenceID(Reference(Patient, %q)) = %q", id, got)
		}
	}
}

func TestReferenceEmptyID(t *testing.T) {
	if ref := Reference("Patient", ""); ref != nil {
		t.Errorf("expected nil for empty id, got %v", ref)
	}
	if ref := Reference("Patient", "   "); ref != nil {
		t.Errorf("expected nil for blank id, got %v", ref)
	}
}

func TestReferenceID_Malformed(t *testing.T) {
	if got := ReferenceID(nil); got != "" {
		t.Errorf("ReferenceID(nil) = %q, want empty", got)
	}
	if got := ReferenceID(map[string]interface{}{}); got != "" {
		t.Errorf("ReferenceID(empty map) = %q, want empty", got)
	}
	if got := ReferenceID(map[string]interface{}{"reference": "bare-id"}); got != "bare-id" {
		t.Errorf("ReferenceID(no slash) = %q, want bare-id", got)
	}
}

func TestSetReference(t *testing.T) {
	resource := map[string]interface{}{"resourceType": "Observation"}
	SetReference(resource, "subject", "Patient", "p1")
	SetReference(resource, "encounter", "Encounter", "")

	if got := ReferenceIDAt(resource, "subject"); got != "p1" {
		t.Errorf("expected subject id p1, got %q", got)
	}
	if _, present := resource["encounter"]; present {
		t.Error("expected empty id to leave the key unset")
	}
}

func TestReferenceIDAt_MissingKey(t *testing.T) {
	resource := map[string]interface{}{"resourceType": "Observation"}
	if got := ReferenceIDAt(resource, "subject"); got != "" {
		t.Errorf("expected empty id for missing key, got %q", got)
	}
}
