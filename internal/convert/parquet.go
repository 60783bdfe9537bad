package convert

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// ObservationRecord is the Parquet-compatible shape of one
// observations.csv row, for analytics handoff.
type ObservationRecord struct {
	Date        string `parquet:"date"`
	Patient     string `parquet:"patient"`
	Encounter   string `parquet:"encounter"`
	Category    string `parquet:"category"`
	Code        string `parquet:"code"`
	Description string `parquet:"description"`
	Value       string `parquet:"value"`
	Units       string `parquet:"units"`
	Type        string `parquet:"type"`
}

const parquetFlushInterval = 100_000

// ObservationParquetWriter streams observation rows into a Parquet
// file, flushing row groups periodically to bound memory usage.
type ObservationParquetWriter struct {
	file   *os.File
	writer *parquet.GenericWriter[ObservationRecord]
	count  int
}

// NewObservationParquetWriter creates the Parquet file and its writer.
func NewObservationParquetWriter(filename string) (*ObservationParquetWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("convert: create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[ObservationRecord](file,
		parquet.Compression(&parquet.Snappy),
	)

	return &ObservationParquetWriter{
		file:   file,
		writer: writer,
	}, nil
}

// Write appends one observation row.
func (pw *ObservationParquetWriter) Write(row synthea.Row) error {
	record := ObservationRecord{
		Date:        row.Get("DATE"),
		Patient:     row.Get("PATIENT"),
		Encounter:   row.Get("ENCOUNTER"),
		Category:    row.Get("CATEGORY"),
		Code:        row.Get("CODE"),
		Description: row.Get("DESCRIPTION"),
		Value:       row.Get("VALUE"),
		Units:       row.Get("UNITS"),
		Type:        row.Get("TYPE"),
	}

	if _, err := pw.writer.Write([]ObservationRecord{record}); err != nil {
		return fmt.Errorf("convert: write parquet record: %w", err)
	}

	pw.count++
	if pw.count%parquetFlushInterval == 0 {
		if err := pw.writer.Flush(); err != nil {
			return fmt.Errorf("convert: flush parquet row group: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the writer and the underlying file.
func (pw *ObservationParquetWriter) Close() error {
	if err := pw.writer.Close(); err != nil {
		pw.file.Close()
		return fmt.Errorf("convert: close parquet writer: %w", err)
	}
	return pw.file.Close()
}

// Count returns the number of rows written.
func (pw *ObservationParquetWriter) Count() int {
	return pw.count
}

// WriteObservationParquet writes observation rows to filename in one
// shot.
func WriteObservationParquet(filename string, rows []synthea.Row) (int, error) {
	pw, err := NewObservationParquetWriter(filename)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			pw.Close()
			return pw.Count(), err
		}
	}
	if err := pw.Close(); err != nil {
		return pw.Count(), err
	}
	return pw.Count(), nil
}
