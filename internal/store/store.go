// Package store persists converted FHIR resources in Postgres, one
// JSONB row per resource keyed by (resource_type, resource_id).
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
)

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	resource_type text NOT NULL,
	resource_id   text NOT NULL,
	patient_id    text NOT NULL DEFAULT '',
	resource      jsonb NOT NULL,
	loaded_at     timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (resource_type, resource_id)
);
CREATE INDEX IF NOT EXISTS resources_patient_idx ON resources (patient_id);
`

const upsertSQL = `
INSERT INTO resources (resource_type, resource_id, patient_id, resource, loaded_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (resource_type, resource_id)
DO UPDATE SET patient_id = EXCLUDED.patient_id,
              resource   = EXCLUDED.resource,
              loaded_at  = now()
`

// Store wraps the connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New connects to Postgres and pings it.
func New(ctx context.Context, log zerolog.Logger, databaseURL string, maxConns, minConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse database url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  log.With().Str("component", "store").Logger(),
	}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database liveness.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the resources table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// UpsertBatch writes resources in one round trip via a pgx batch.
// Resources without an id cannot be keyed and are skipped with a
// warning. Returns the number upserted.
func (s *Store) UpsertBatch(ctx context.Context, resources []map[string]interface{}) (int, error) {
	batch := &pgx.Batch{}
	queued := 0
	for _, resource := range resources {
		resourceType, _ := fhir.GetString(resource, "resourceType")
		id, _ := fhir.GetString(resource, "id")
		if resourceType == "" || id == "" {
			s.log.Warn().Str("resourceType", resourceType).Msg("skipping resource without id")
			continue
		}
		raw, err := json.Marshal(resource)
		if err != nil {
			return 0, fmt.Errorf("store: marshal %s/%s: %w", resourceType, id, err)
		}
		batch.Queue(upsertSQL, resourceType, id, patientID(resource), raw)
		queued++
	}
	if queued == 0 {
		return 0, nil
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("store: upsert batch entry %d: %w", i, err)
		}
	}
	return queued, nil
}

// Count returns the number of stored resources of one type, or of all
// types when resourceType is empty.
func (s *Store) Count(ctx context.Context, resourceType string) (int64, error) {
	var n int64
	var err error
	if resourceType == "" {
		err = s.pool.QueryRow(ctx, `SELECT count(*) FROM resources`).Scan(&n)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT count(*) FROM resources WHERE resource_type = $1`, resourceType).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// GetResource loads one resource by type and id.
func (s *Store) GetResource(ctx context.Context, resourceType, id string) (map[string]interface{}, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT resource FROM resources WHERE resource_type = $1 AND resource_id = $2`,
		resourceType, id).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("store: %s/%s not found", resourceType, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s/%s: %w", resourceType, id, err)
	}
	var resource map[string]interface{}
	if err := json.Unmarshal(raw, &resource); err != nil {
		return nil, fmt.Errorf("store: decode %s/%s: %w", resourceType, id, err)
	}
	return resource, nil
}

// patientID extracts the patient a resource belongs to, for the
// compartment index. Patients index themselves.
func patientID(resource map[string]interface{}) string {
	resourceType, _ := fhir.GetString(resource, "resourceType")
	if resourceType == "Patient" {
		id, _ := fhir.GetString(resource, "id")
		return id
	}
	for _, key := range []string{"subject", "patient", "beneficiary"} {
		if id := fhir.ReferenceIDAt(resource, key); id != "" {
			return id
		}
	}
	return ""
}
