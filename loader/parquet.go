package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/tabwell/tq/table"
)

func loadParquet(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", filename, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot read Parquet from %s: %w", filename, err)
	}

	fields := pf.Schema().Fields()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name()
	}

	t := table.NewTable(columns)

	buf := make([]parquet.Row, 64)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				vals := make([]table.Value, len(columns))
				for i := range vals {
					vals[i] = table.Null()
				}
				for _, pv := range row {
					col := int(pv.Column())
					if col >= 0 && col < len(vals) {
						vals[col] = parquetValue(pv)
					}
				}
				t.AddRow(vals)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("error reading Parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("error closing Parquet row reader: %w", err)
		}
	}

	return t, nil
}

func parquetValue(v parquet.Value) table.Value {
	if v.IsNull() {
		return table.Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return table.BoolVal(v.Boolean())
	case parquet.Int32, parquet.Int64:
		return table.IntVal(v.Int64())
	case parquet.Float, parquet.Double:
		return table.FloatVal(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		s := v.String()
		if d, ok := table.ParseDate(s); ok {
			return table.DateVal(d)
		}
		return table.StrVal(s)
	default:
		return table.StrVal(v.String())
	}
}
