package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/tabwell/tq/table"
)

// Options control CSV loading. The zero value means: comma separator,
// header on the first line, no skipping, full type inference.
type Options struct {
	Separator    rune
	HeaderRow    int // 1-based line of the header
	SkipFooter   int // data rows dropped at the end
	HeaderPrefix string
	Columns      []string // only load these columns
	// Formats maps "date", "number" or "text" to column names whose
	// cells are read in that format instead of being inferred.
	Formats map[string][]string
}

func (o Options) separator() rune {
	if o.Separator == 0 {
		return ','
	}
	return o.Separator
}

func (o Options) headerRow() int {
	if o.HeaderRow <= 0 {
		return 1
	}
	return o.HeaderRow
}

// formatOrder fixes the precedence when a column is listed under more
// than one format; map iteration order must not decide it.
var formatOrder = [...]string{"date", "number", "text"}

func (o Options) format(col string) string {
	for _, format := range formatOrder {
		for _, c := range o.Formats[format] {
			if c == col {
				return format
			}
		}
	}
	return ""
}

// Load reads a file and returns a Table, dispatching on extension.
// CSV files are read with default options; use LoadCSVFile for the
// full option set.
func Load(filename string) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".tsv":
		return LoadCSVFile(filename, Options{})
	case ".json":
		return loadJSON(filename)
	case ".jsonl":
		return loadJSONL(filename)
	case ".avro":
		return loadAvro(filename)
	case ".parquet":
		return loadParquet(filename)
	default:
		return nil, fmt.Errorf("unsupported file format %q (supported: .csv, .json, .jsonl, .avro, .parquet)", ext)
	}
}

// LoadCSVFile reads a delimited file with the given options.
func LoadCSVFile(filename string, opts Options) (*table.Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filename, err)
	}
	t, err := LoadCSV(strings.NewReader(string(data)), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

// LoadCSV reads delimited text into a Table.
func LoadCSV(r io.Reader, opts Options) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := string(data)

	skip := opts.headerRow() - 1
	if opts.HeaderPrefix != "" {
		n, found := lastLineWithPrefix(text, opts.HeaderPrefix)
		if !found {
			return nil, fmt.Errorf("no line starts with %q", opts.HeaderPrefix)
		}
		skip = n - 1
	}
	text = dropLines(text, skip)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = opts.separator()
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row: %w", err)
		}
		records = append(records, record)
	}
	if opts.SkipFooter > 0 {
		if opts.SkipFooter >= len(records) {
			records = nil
		} else {
			records = records[:len(records)-opts.SkipFooter]
		}
	}

	keep := keepIndices(columns, opts.Columns)
	keptColumns := make([]string, len(keep))
	for i, idx := range keep {
		keptColumns[i] = columns[idx]
	}

	t := table.NewTable(keptColumns)
	for _, record := range records {
		vals := make([]table.Value, len(keep))
		for i, idx := range keep {
			var cell string
			if idx < len(record) {
				cell = strings.TrimSpace(record[idx])
			}
			vals[i] = parseCell(cell, opts.format(keptColumns[i]))
		}
		t.AddRow(vals)
	}
	return t, nil
}

// lastLineWithPrefix returns the 1-based number of the last line
// starting with prefix.
func lastLineWithPrefix(text, prefix string) (int, bool) {
	n := 0
	found := false
	for i, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSuffix(line, "\r"), prefix) {
			n = i + 1
			found = true
		}
	}
	return n, found
}

func dropLines(text string, n int) string {
	for ; n > 0; n-- {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return ""
		}
		text = text[idx+1:]
	}
	return text
}

func keepIndices(columns, only []string) []int {
	if len(only) == 0 {
		all := make([]int, len(columns))
		for i := range columns {
			all[i] = i
		}
		return all
	}
	wanted := make(map[string]bool, len(only))
	for _, c := range only {
		wanted[c] = true
	}
	var keep []int
	for i, c := range columns {
		if wanted[c] {
			keep = append(keep, i)
		}
	}
	return keep
}

// parseCell converts one raw cell. With no declared format the type is
// inferred: null, int, float, date, then string.
func parseCell(s, format string) table.Value {
	if s == "" || strings.EqualFold(s, "null") {
		return table.Null()
	}
	switch format {
	case "text":
		return table.StrVal(s)
	case "date":
		if d, ok := table.ParseDate(s); ok {
			return table.DateVal(d)
		}
		return table.StrVal(s)
	case "number":
		cleaned := strings.ReplaceAll(s, ",", "")
		cleaned = strings.ReplaceAll(cleaned, "$", "")
		if v, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
			return table.IntVal(v)
		}
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return table.FloatVal(v)
		}
		return table.Null()
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return table.IntVal(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return table.FloatVal(v)
	}
	if d, ok := table.ParseDate(s); ok {
		return table.DateVal(d)
	}
	return table.StrVal(s)
}

func loadJSON(filename string) (*table.Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filename, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("cannot parse JSON from %s: %w (expected array of objects)", filename, err)
	}

	return buildTableFromRecords(records), nil
}

func loadJSONL(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var records []map[string]any
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}

	return buildTableFromRecords(records), nil
}

func buildTableFromRecords(records []map[string]any) *table.Table {
	if len(records) == 0 {
		return table.NewTable(nil)
	}

	colSet := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !colSet[k] {
				colSet[k] = true
				columns = append(columns, k)
			}
		}
	}

	t := table.NewTable(columns)
	for _, rec := range records {
		vals := make([]table.Value, len(columns))
		for i, col := range columns {
			v, ok := rec[col]
			if !ok || v == nil {
				vals[i] = table.Null()
				continue
			}
			vals[i] = jsonValue(v)
		}
		t.AddRow(vals)
	}

	return t
}

func jsonValue(v any) table.Value {
	switch val := v.(type) {
	case float64:
		// JSON numbers are float64; check if it's actually an integer
		if val == float64(int64(val)) {
			return table.IntVal(int64(val))
		}
		return table.FloatVal(val)
	case string:
		if d, ok := table.ParseDate(val); ok {
			return table.DateVal(d)
		}
		return table.StrVal(val)
	case nil:
		return table.Null()
	default:
		// For nested objects/arrays and booleans, stringify
		b, _ := json.Marshal(val)
		return table.StrVal(string(b))
	}
}

func loadAvro(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF from %s: %w", filename, err)
	}

	// Extract column names from the schema
	codec := ocfr.Codec()
	schema := codec.Schema()

	var schemaDef struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(schema), &schemaDef); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	columns := make([]string, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		columns[i] = field.Name
	}

	t := table.NewTable(columns)

	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}

		rec, ok := datum.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}

		vals := make([]table.Value, len(columns))
		for i, col := range columns {
			v, exists := rec[col]
			if !exists || v == nil {
				vals[i] = table.Null()
				continue
			}
			vals[i] = avroValue(v)
		}
		t.AddRow(vals)
	}

	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}

	return t, nil
}

func avroValue(v any) table.Value {
	if v == nil {
		return table.Null()
	}
	switch val := v.(type) {
	case int32:
		return table.IntVal(int64(val))
	case int64:
		return table.IntVal(val)
	case float32:
		return table.FloatVal(float64(val))
	case float64:
		return table.FloatVal(val)
	case string:
		return table.StrVal(val)
	case []byte:
		return table.StrVal(string(val))
	case map[string]any:
		// Avro unions decode as {"type": value} - extract the value
		for _, inner := range val {
			return avroValue(inner)
		}
		return table.Null()
	default:
		return table.StrVal(fmt.Sprintf("%v", val))
	}
}
