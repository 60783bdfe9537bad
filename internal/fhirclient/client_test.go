package fhirclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/synthea-tools/csvfhir/internal/mapper"
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

func testBundle(t *testing.T) *fhir.Bundle {
	t.Helper()
	patient := mapper.MapPatient(synthea.Row{"Id": "p1", "FIRST": "John", "LAST": "Smith"})
	bundle, err := fhir.NewTransactionBundle([]map[string]interface{}{patient})
	if err != nil {
		t.Fatal(err)
	}
	return bundle
}

func TestPushBundle(t *testing.T) {
	var gotContentType string
	var gotBundle map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBundle); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/fhir+json")
		w.Write([]byte(`{"resourceType":"Bundle","type":"transaction-response"}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), server.URL)
	result, err := c.PushBundle(context.Background(), testBundle(t))
	if err != nil {
		t.Fatal(err)
	}

	if gotContentType != "application/fhir+json" {
		t.Errorf("content type: got %q", gotContentType)
	}
	if gotBundle["type"] != "transaction" {
		t.Errorf("posted bundle type: got %v", gotBundle["type"])
	}
	if result["type"] != "transaction-response" {
		t.Errorf("response type: got %v", result["type"])
	}
}

func TestPushBundleRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"resourceType":"Bundle","type":"transaction-response"}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), server.URL)
	if _, err := c.PushBundle(context.Background(), testBundle(t)); err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestPushBundleSurfacesOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(fhir.InvalidOutcome("missing resourceType"))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), server.URL)
	_, err := c.PushBundle(context.Background(), testBundle(t))
	if err == nil {
		t.Fatal("expected an error")
	}
	got := err.Error()
	if !strings.Contains(got, "422") || !strings.Contains(got, "missing resourceType") {
		t.Errorf("error must carry the outcome diagnostics, got %q", got)
	}
}
