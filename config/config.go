package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabwell/tq/engine"
	"github.com/tabwell/tq/loader"
)

// Config is a rule file: how to read the input and which actions to
// run on it, in order.
type Config struct {
	ColumnSeparator string              `yaml:"column_separator"`
	HeaderRow       int                 `yaml:"column_headers_are_on_row_number"`
	SkipFooter      int                 `yaml:"number_of_rows_to_skip_at_file_end"`
	HeaderPrefix    string              `yaml:"read_from_row_that_starts_with"`
	OnlyLoadColumns []string            `yaml:"only_load_these_columns"`
	ColumnFormats   map[string][]string `yaml:"read_these_columns_in_these_formats"`
	Actions         []Step              `yaml:"list_of_actions"`
}

// Step is one list_of_actions entry: either a bare action name or a
// single-key mapping from name to payload.
type Step struct {
	Name    string
	Payload any
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.Name)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: action entry must have exactly one key", node.Line)
		}
		if err := node.Content[0].Decode(&s.Name); err != nil {
			return err
		}
		return node.Content[1].Decode(&s.Payload)
	default:
		return fmt.Errorf("line %d: action entry must be a name or a single-key mapping", node.Line)
	}
}

// Load reads and parses a YAML rule file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses YAML rule text.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &cfg, nil
}

// ActionList validates the configured actions and builds the
// executable pipeline.
func (c *Config) ActionList() (*engine.ActionList, error) {
	steps := make([]engine.Step, len(c.Actions))
	for i, a := range c.Actions {
		steps[i] = engine.Step{Name: a.Name, Payload: a.Payload}
	}
	return engine.NewActionList(steps)
}

// LoaderOptions translates the load settings for the CSV reader.
func (c *Config) LoaderOptions() loader.Options {
	opts := loader.Options{
		HeaderRow:    c.HeaderRow,
		SkipFooter:   c.SkipFooter,
		HeaderPrefix: c.HeaderPrefix,
		Columns:      c.OnlyLoadColumns,
		Formats:      c.ColumnFormats,
	}
	if c.ColumnSeparator != "" {
		opts.Separator = []rune(c.ColumnSeparator)[0]
	}
	return opts
}
