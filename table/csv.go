package table

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the decoded rows, header first, as comma separated
// values.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
