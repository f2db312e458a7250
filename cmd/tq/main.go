package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tabwell/tq/config"
	"github.com/tabwell/tq/loader"
	"github.com/tabwell/tq/table"
)

func main() {
	pretty := flag.Bool("pretty", false, "print an aligned table instead of CSV")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: tq [-pretty] <input> <rules.yaml>")
		fmt.Fprintln(os.Stderr, "input formats: .csv, .tsv, .json, .jsonl, .avro, .parquet")
		fmt.Fprintln(os.Stderr, "example: tq orders.csv rules.yaml > out.csv")
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)
	rulesPath := flag.Arg(1)

	cfg, err := config.Load(rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rules error: %v\n", err)
		os.Exit(1)
	}

	actions, err := cfg.ActionList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rules error: %v\n", err)
		os.Exit(1)
	}

	input, err := load(inputPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load error: %v\n", err)
		os.Exit(1)
	}

	result, err := actions.Apply(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *pretty {
		printTable(result)
		return
	}
	if err := loader.WriteCSV(result, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		os.Exit(1)
	}
}

// load honors the rule file's CSV settings for delimited inputs and
// falls back to the extension-based loader for the rest.
func load(path string, cfg *config.Config) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return loader.LoadCSVFile(path, cfg.LoaderOptions())
	default:
		return loader.Load(path)
	}
}

func printTable(t *table.Table) {
	if len(t.Columns) == 0 {
		return
	}

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = make([]string, len(t.Columns))
		for j := range t.Columns {
			if j < len(row.Values) {
				cells[i][j] = row.Values[j].AsString()
			} else {
				cells[i][j] = "null"
			}
			if len(cells[i][j]) > widths[j] {
				widths[j] = len(cells[i][j])
			}
		}
	}

	headerParts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headerParts[i] = padRight(col, widths[i])
	}
	fmt.Println(strings.Join(headerParts, " | "))

	sepParts := make([]string, len(t.Columns))
	for i := range t.Columns {
		sepParts[i] = strings.Repeat("-", widths[i])
	}
	fmt.Println(strings.Join(sepParts, "-+-"))

	for _, row := range cells {
		parts := make([]string, len(t.Columns))
		for i := range t.Columns {
			parts[i] = padRight(row[i], widths[i])
		}
		fmt.Println(strings.Join(parts, " | "))
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
