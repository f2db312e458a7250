package loader

import (
	"encoding/csv"
	"io"

	"github.com/tabwell/tq/table"
)

// WriteCSV writes a table as comma-separated text with a header row.
// Nulls become empty cells.
func WriteCSV(t *table.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row.Values {
			record[i] = v.AsString()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
