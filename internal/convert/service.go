// Package convert orchestrates the row-by-row mapping between Synthea
// CSV tables and FHIR R4 resources: the worker-pool service, the file
// pipeline, the parquet export and the HTTP handler.
package convert

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/synthea-tools/csvfhir/internal/mapper"
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// Service runs conversions. Mappers are pure, so the forward direction
// fans rows out to a bounded worker pool; results keep row order.
type Service struct {
	log     zerolog.Logger
	workers int
}

// NewService builds a Service with the given pool size.
func NewService(log zerolog.Logger, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		log:     log.With().Str("component", "convert").Logger(),
		workers: workers,
	}
}

// forwardFn maps one row to its resource(s). Most tables yield one
// resource per row; providers and claims_transactions yield two.
type forwardFn func(synthea.Row) []map[string]interface{}

func single(fn func(synthea.Row) map[string]interface{}) forwardFn {
	return func(row synthea.Row) []map[string]interface{} {
		return []map[string]interface{}{fn(row)}
	}
}

func forwardFor(table string) (forwardFn, bool) {
	switch table {
	case "patients":
		return single(mapper.MapPatient), true
	case "observations":
		return single(mapper.MapObservation), true
	case "conditions":
		return single(mapper.MapCondition), true
	case "encounters":
		return single(mapper.MapEncounter), true
	case "procedures":
		return single(mapper.MapProcedure), true
	case "immunizations":
		return single(mapper.MapImmunization), true
	case "medications":
		return single(mapper.MapMedication), true
	case "allergies":
		return single(mapper.MapAllergy), true
	case "careplans":
		return single(mapper.MapCarePlan), true
	case "devices":
		return single(mapper.MapDevice), true
	case "supplies":
		return single(mapper.MapSupply), true
	case "organizations":
		return single(mapper.MapOrganization), true
	case "payers":
		return single(mapper.MapPayer), true
	case "payer_transitions":
		return single(mapper.MapPayerTransition), true
	case "claims":
		return single(mapper.MapClaim), true
	case "imaging_studies":
		return single(mapper.MapImagingStudy), true
	case "providers":
		return func(row synthea.Row) []map[string]interface{} {
			practitioner, role := mapper.MapProvider(row)
			return []map[string]interface{}{practitioner, role}
		}, true
	case "claims_transactions":
		return func(row synthea.Row) []map[string]interface{} {
			claim, response := mapper.MapClaimTransaction(row)
			return []map[string]interface{}{claim, response}
		}, true
	}
	return nil, false
}

// ConvertRows maps the rows of one table to FHIR resources, preserving
// row order. Rows are processed concurrently up to the pool size; the
// context cancels remaining work.
func (s *Service) ConvertRows(ctx context.Context, table string, rows []synthea.Row) ([]map[string]interface{}, error) {
	t, ok := synthea.LookupTable(table)
	if !ok {
		return nil, fmt.Errorf("convert: unknown table %q", table)
	}
	fn, _ := forwardFor(t.Name)

	results := make([][]map[string]interface{}, len(rows))
	jobs := make(chan int)
	workers := s.workers
	if workers > len(rows) {
		workers = len(rows)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = fn(rows[idx])
			}
		}()
	}

feed:
	for i := range rows {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resources := make([]map[string]interface{}, 0, len(rows))
	for _, rs := range results {
		resources = append(resources, rs...)
	}
	s.log.Debug().Str("table", t.Name).Int("rows", len(rows)).Int("resources", len(resources)).Msg("converted")
	return resources, nil
}

// ReverseResources maps FHIR resources back to rows of one table.
// Per-resource mapper errors are logged and the resource skipped;
// structural errors (unknown or forward-only table) are returned.
func (s *Service) ReverseResources(ctx context.Context, table string, resources []map[string]interface{}) ([]synthea.Row, error) {
	t, ok := synthea.LookupTable(table)
	if !ok {
		return nil, fmt.Errorf("convert: unknown table %q", table)
	}
	if !t.Reverse {
		return nil, fmt.Errorf("convert: table %q is forward-only", t.Name)
	}

	switch t.Name {
	case "providers":
		return s.reverseProviders(resources), nil
	case "claims_transactions":
		return s.reverseClaimTransactions(resources), nil
	}

	fn := reverseFor(t.Name)
	rows := make([]synthea.Row, 0, len(resources))
	for _, resource := range resources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := fn(resource)
		if err != nil {
			s.logSkip(t.Name, resource, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func reverseFor(table string) func(map[string]interface{}) (synthea.Row, error) {
	switch table {
	case "patients":
		return mapper.PatientToRow
	case "observations":
		return mapper.ObservationToRow
	case "conditions":
		return mapper.ConditionToRow
	case "encounters":
		return mapper.EncounterToRow
	case "procedures":
		return mapper.ProcedureToRow
	case "immunizations":
		return mapper.ImmunizationToRow
	case "medications":
		return mapper.MedicationToRow
	case "allergies":
		return mapper.AllergyToRow
	case "careplans":
		return mapper.CarePlanToRow
	case "devices":
		return mapper.DeviceToRow
	case "supplies":
		return mapper.SupplyToRow
	case "organizations":
		return mapper.OrganizationToRow
	case "payers":
		return mapper.PayerToRow
	case "payer_transitions":
		return mapper.PayerTransitionToRow
	case "claims":
		return mapper.ClaimToRow
	}
	return nil
}

// reverseProviders pairs each Practitioner with the PractitionerRole
// that references it. Practitioners without a role still produce a row
// with the organization columns empty.
func (s *Service) reverseProviders(resources []map[string]interface{}) []synthea.Row {
	roles := make(map[string]map[string]interface{})
	for _, resource := range resources {
		if rt, _ := fhir.GetString(resource, "resourceType"); rt != "PractitionerRole" {
			continue
		}
		if id := fhir.ReferenceIDAt(resource, "practitioner"); id != "" {
			roles[id] = resource
		}
	}

	var rows []synthea.Row
	for _, resource := range resources {
		if rt, _ := fhir.GetString(resource, "resourceType"); rt != "Practitioner" {
			continue
		}
		id, _ := fhir.GetString(resource, "id")
		row, err := mapper.ProviderToRow(resource, roles[id])
		if err != nil {
			s.logSkip("providers", resource, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// reverseClaimTransactions emits CHARGE rows from each Claim's items
// and one adjudication row per ClaimResponse.
func (s *Service) reverseClaimTransactions(resources []map[string]interface{}) []synthea.Row {
	var rows []synthea.Row
	for _, resource := range resources {
		rt, _ := fhir.GetString(resource, "resourceType")
		switch rt {
		case "Claim":
			charges, err := mapper.ClaimToTransactionRows(resource)
			if err != nil {
				s.logSkip("claims_transactions", resource, err)
				continue
			}
			rows = append(rows, charges...)
		case "ClaimResponse":
			row, err := mapper.ClaimResponseToTransactionRow(resource)
			if err != nil {
				s.logSkip("claims_transactions", resource, err)
				continue
			}
			// A response without adjudications (the empty half of a
			// charge pair) carries no transaction.
			if row["Type"] == "" {
				continue
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (s *Service) logSkip(table string, resource map[string]interface{}, err error) {
	id, _ := fhir.GetString(resource, "id")
	s.log.Warn().Str("table", table).Str("id", id).Err(err).Msg("skipping resource")
}
