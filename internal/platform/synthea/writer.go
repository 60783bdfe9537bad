package synthea

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Write encodes rows as a Synthea CSV in the table's canonical column
// order. Columns a row does not carry are written as "".
func Write(w io.Writer, table Table, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("synthea: write csv header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range rows {
		for i, col := range table.Columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("synthea: write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("synthea: flush csv: %w", err)
	}
	return nil
}

// WriteFile encodes rows to <dir>/<table>.csv.
func WriteFile(dir string, table Table, rows []Row) (string, error) {
	path := filepath.Join(dir, table.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("synthea: create %s: %w", path, err)
	}
	if err := Write(f, table, rows); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("synthea: close %s: %w", path, err)
	}
	return path, nil
}
