// Package fhirclient pushes converted resources to a FHIR server.
package fhirclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
)

// Client posts transaction bundles to a FHIR base URL. Transport
// failures and 5xx responses retry up to three times.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New builds a Client for the given FHIR base URL.
func New(log zerolog.Logger, baseURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryClient.StandardClient(),
		log:        log.With().Str("component", "fhirclient").Logger(),
	}
}

// PushBundle POSTs a transaction bundle to the server base and returns
// the response bundle.
func (c *Client) PushBundle(ctx context.Context, bundle *fhir.Bundle) (map[string]interface{}, error) {
	body, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("fhirclient: marshal bundle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fhirclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/fhir+json")
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fhirclient: post bundle: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fhirclient: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fhirclient: server returned %d: %s", resp.StatusCode, diagnostics(data))
	}

	var result map[string]interface{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("fhirclient: decode response: %w", err)
		}
	}
	c.log.Info().Int("entries", len(bundle.Entry)).Int("status", resp.StatusCode).Msg("pushed bundle")
	return result, nil
}

// diagnostics pulls the first issue diagnostics out of an
// OperationOutcome error body, falling back to the raw body.
func diagnostics(data []byte) string {
	var outcome fhir.OperationOutcome
	if err := json.Unmarshal(data, &outcome); err == nil &&
		outcome.ResourceType == "OperationOutcome" && len(outcome.Issue) > 0 {
		return outcome.Issue[0].Diagnostics
	}
	body := strings.TrimSpace(string(data))
	if len(body) > 500 {
		body = body[:500]
	}
	return body
}
