package fhir

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Bundle is a FHIR R4 Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry"`
}

// BundleEntry is a single entry within a Bundle.
type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Request  *BundleRequest  `json:"request,omitempty"`
}

// BundleRequest carries the HTTP verb a transaction entry executes.
type BundleRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// NewTransactionBundle wraps resources in a transaction Bundle. The
// mappers mint deterministic ids, so each entry issues a PUT against
// ResourceType/id and reloading the same CSV upserts instead of
// duplicating. Entries without an id fall back to POST.
func NewTransactionBundle(resources []map[string]interface{}) (*Bundle, error) {
	entries := make([]BundleEntry, 0, len(resources))
	for _, resource := range resources {
		raw, err := json.Marshal(resource)
		if err != nil {
			return nil, fmt.Errorf("marshal bundle entry: %w", err)
		}
		resourceType, _ := GetString(resource, "resourceType")
		id, _ := GetString(resource, "id")
		request := &BundleRequest{Method: http.MethodPost, URL: resourceType}
		if id != "" {
			request = &BundleRequest{
				Method: http.MethodPut,
				URL:    FormatReference(resourceType, id),
			}
		}
		entries = append(entries, BundleEntry{
			FullURL:  "urn:uuid:" + uuid.New().String(),
			Resource: raw,
			Request:  request,
		})
	}
	return &Bundle{
		ResourceType: "Bundle",
		Type:         "transaction",
		Entry:        entries,
	}, nil
}

// NewCollectionBundle wraps resources in a collection Bundle for
// file output.
func NewCollectionBundle(resources []map[string]interface{}) (*Bundle, error) {
	entries := make([]BundleEntry, 0, len(resources))
	for _, resource := range resources {
		raw, err := json.Marshal(resource)
		if err != nil {
			return nil, fmt.Errorf("marshal bundle entry: %w", err)
		}
		entries = append(entries, BundleEntry{Resource: raw})
	}
	return &Bundle{
		ResourceType: "Bundle",
		Type:         "collection",
		Entry:        entries,
	}, nil
}

// DecodeBundle parses a Bundle document and returns its entry
// resources as generic JSON trees. A document that is itself a single
// resource is returned as a one-element slice, so callers can accept
// either form.
func DecodeBundle(data []byte) ([]map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	resourceType, _ := GetString(doc, "resourceType")
	if resourceType != "Bundle" {
		return []map[string]interface{}{doc}, nil
	}
	entries, _ := GetArray(doc, "entry")
	resources := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if resource, ok := GetMap(entry, "resource"); ok {
			resources = append(resources, resource)
		}
	}
	return resources, nil
}
