package convert

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// ConvertFile converts one Synthea CSV file and writes the result into
// outputDir: a transaction bundle JSON when asBundle is set, NDJSON
// otherwise. The table is inferred from the file name when table is
// empty. Returns the path written.
func (s *Service) ConvertFile(ctx context.Context, path, table, outputDir string, asBundle bool) (string, error) {
	if table == "" {
		table = filepath.Base(path)
	}
	t, ok := synthea.LookupTable(table)
	if !ok {
		return "", fmt.Errorf("convert: unknown table %q", table)
	}

	rows, err := synthea.ReadFile(path)
	if err != nil {
		return "", err
	}
	resources, err := s.ConvertRows(ctx, t.Name, rows)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("convert: create output dir: %w", err)
	}
	if asBundle {
		return writeBundle(filepath.Join(outputDir, t.Name+".bundle.json"), resources)
	}
	return writeNDJSON(filepath.Join(outputDir, t.Name+".ndjson"), resources)
}

// ConvertDir converts every known Synthea CSV found directly in
// inputDir. Files that do not match a registered table are skipped.
// Returns the paths written.
func (s *Service) ConvertDir(ctx context.Context, inputDir, outputDir string, asBundle bool) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("convert: read input dir: %w", err)
	}

	var written []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		if _, ok := synthea.LookupTable(entry.Name()); !ok {
			s.log.Debug().Str("file", entry.Name()).Msg("no table for file, skipping")
			continue
		}
		path, err := s.ConvertFile(ctx, filepath.Join(inputDir, entry.Name()), "", outputDir, asBundle)
		if err != nil {
			return written, err
		}
		s.log.Info().Str("file", entry.Name()).Str("output", path).Msg("converted file")
		written = append(written, path)
	}
	return written, nil
}

// ReverseFile reads FHIR resources from a bundle JSON or NDJSON file,
// routes each resource to its Synthea table, and writes one CSV per
// table into outputDir. Returns the CSV paths written.
func (s *Service) ReverseFile(ctx context.Context, path, outputDir string) ([]string, error) {
	resources, err := readResources(path)
	if err != nil {
		return nil, err
	}

	byTable := make(map[string][]map[string]interface{})
	for _, resource := range resources {
		table := tableForResource(resource)
		if table == "" {
			rt, _ := fhir.GetString(resource, "resourceType")
			s.log.Debug().Str("resourceType", rt).Msg("no table for resource, skipping")
			continue
		}
		byTable[table] = append(byTable[table], resource)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("convert: create output dir: %w", err)
	}

	var written []string
	for _, t := range synthea.Tables() {
		group := byTable[t.Name]
		if len(group) == 0 {
			continue
		}
		rows, err := s.ReverseResources(ctx, t.Name, group)
		if err != nil {
			return written, err
		}
		out, err := synthea.WriteFile(outputDir, t, rows)
		if err != nil {
			return written, err
		}
		s.log.Info().Str("table", t.Name).Int("rows", len(rows)).Msg("wrote csv")
		written = append(written, out)
	}
	return written, nil
}

// tableForResource routes a resource to the Synthea table its reverse
// mapper belongs to. Organizations split on their type coding: payers
// carry "ins", facilities "prov".
func tableForResource(resource map[string]interface{}) string {
	resourceType, _ := fhir.GetString(resource, "resourceType")
	switch resourceType {
	case "Patient":
		return "patients"
	case "Observation":
		return "observations"
	case "Condition":
		return "conditions"
	case "Encounter":
		return "encounters"
	case "Procedure":
		return "procedures"
	case "Immunization":
		return "immunizations"
	case "MedicationRequest":
		return "medications"
	case "AllergyIntolerance":
		return "allergies"
	case "CarePlan":
		return "careplans"
	case "Device":
		return "devices"
	case "SupplyDelivery":
		return "supplies"
	case "Coverage":
		return "payer_transitions"
	case "Practitioner", "PractitionerRole":
		return "providers"
	case "Claim":
		// Claims from the transaction ledger carry priced items; the
		// claims-table mapper never sets a price.
		if item, ok := fhir.FirstMap(resource, "item"); ok {
			if _, priced := fhir.GetMap(item, "net"); priced {
				return "claims_transactions"
			}
			if _, priced := fhir.GetMap(item, "unitPrice"); priced {
				return "claims_transactions"
			}
		}
		return "claims"
	case "ClaimResponse":
		return "claims_transactions"
	case "Organization":
		if cc, ok := fhir.FirstMap(resource, "type"); ok {
			if coding, codingOK := fhir.ConceptCoding(cc, fhir.SystemOrganizationType); codingOK {
				if code, _ := fhir.GetString(coding, "code"); code == "ins" {
					return "payers"
				}
			}
		}
		return "organizations"
	}
	return ""
}

// readResources loads resources from an NDJSON file (one resource per
// line) or a JSON document (bundle or single resource).
func readResources(path string) ([]map[string]interface{}, error) {
	if strings.HasSuffix(path, ".ndjson") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("convert: open %s: %w", path, err)
		}
		defer f.Close()

		var resources []map[string]interface{}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var resource map[string]interface{}
			if err := json.Unmarshal([]byte(line), &resource); err != nil {
				return nil, fmt.Errorf("convert: decode %s: %w", path, err)
			}
			resources = append(resources, resource)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("convert: read %s: %w", path, err)
		}
		return resources, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("convert: read %s: %w", path, err)
	}
	return fhir.DecodeBundle(data)
}

func writeNDJSON(path string, resources []map[string]interface{}) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("convert: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, resource := range resources {
		if err := enc.Encode(resource); err != nil {
			return "", fmt.Errorf("convert: write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("convert: write %s: %w", path, err)
	}
	return path, nil
}

func writeBundle(path string, resources []map[string]interface{}) (string, error) {
	bundle, err := fhir.NewTransactionBundle(resources)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("convert: marshal bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("convert: write %s: %w", path, err)
	}
	return path, nil
}
