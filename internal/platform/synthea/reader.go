package synthea

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read decodes a Synthea CSV stream into rows. The header row drives
// the column mapping, so column order in the file does not matter.
// Records shorter than the header are tolerated; the missing columns
// are simply absent from the row.
func Read(r io.Reader) ([]Row, error) {
	var rows []Row
	err := Stream(r, func(row Row) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Stream decodes a Synthea CSV stream, delivering each row to fn as it
// is read. It stops on the first error fn returns.
func Stream(r io.Reader, fn func(Row) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return fmt.Errorf("synthea: csv has no header row")
	}
	if err != nil {
		return fmt.Errorf("synthea: read csv header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("synthea: read csv record at line %d: %w", line+1, err)
		}
		line++

		row := make(Row, len(header))
		for i, col := range header {
			if col == "" || i >= len(record) {
				continue
			}
			row[col] = record[i]
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// ReadFile decodes a Synthea CSV file into rows.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("synthea: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
