package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedSpec is the static, authored per-table seeding configuration. It is an
// input to the pipeline and never generated.
type SeedSpec struct {
	Tables map[string]*TableSpec `yaml:"tables"`
}

// TableSpec configures one table. A passive entry (skip_generate) is not
// synthesized but may still be imported and reset; an active entry carries
// row generation settings and an ordered column list.
type TableSpec struct {
	SkipGenerate bool `yaml:"skip_generate"`
	SkipImport   bool `yaml:"skip_import"`

	RowGeneration *RowGeneration `yaml:"row_generation"`
	Concurrent    bool           `yaml:"concurrent"`
	PrimaryKeys   []string       `yaml:"primary_keys"`

	// Columns is a list, not a map: generators run in declared order and
	// later generators may read columns produced by earlier ones.
	Columns []ColumnSpec `yaml:"columns"`
}

// Active reports whether the table participates in generation.
func (t *TableSpec) Active() bool {
	return !t.SkipGenerate
}

// Importable reports whether the table participates in import and reset.
func (t *TableSpec) Importable() bool {
	return !t.SkipImport
}

// RowGeneration is the tagged union selecting static or fan-out generation.
type RowGeneration struct {
	Kind string `yaml:"kind"` // "static" or "foreign_table"

	// static
	Count int `yaml:"count"`

	// foreign_table
	ParentTable     string     `yaml:"parent_table"`
	ParentKeyColumn string     `yaml:"parent_key_column"`
	ChildFkColumn   string     `yaml:"child_fk_column"`
	CountPerEntry   CountRange `yaml:"count_per_entry"`
}

// CountRange is either a fixed count (min == max) or an inclusive range from
// which a per-parent count is sampled. It decodes from a bare integer or a
// {min, max} mapping.
type CountRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (c *CountRange) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("count_per_entry must be an integer or {min, max}: %w", err)
		}
		c.Min, c.Max = n, n
		return nil
	}

	type rawRange struct {
		Min int `yaml:"min"`
		Max int `yaml:"max"`
	}
	var r rawRange
	if err := node.Decode(&r); err != nil {
		return fmt.Errorf("count_per_entry must be an integer or {min, max}: %w", err)
	}
	c.Min, c.Max = r.Min, r.Max
	return nil
}

type ColumnSpec struct {
	Name      string        `yaml:"name"`
	Generator GeneratorSpec `yaml:"generator"`
}

// GeneratorSpec names a built-in generator kind plus its kind-specific
// fields. Unknown kinds are rejected at load time.
type GeneratorSpec struct {
	Kind string `yaml:"kind"`

	// constant
	Value interface{} `yaml:"value"`

	// random
	Source  string        `yaml:"source"` // int, float, bool, name, email, word, sentence, url, phone, address, choice
	Min     float64       `yaml:"min"`
	Max     float64       `yaml:"max"`
	Choices []interface{} `yaml:"choices"`

	// timestamp_between
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// timestamp_after, same_row, parent_row, foreign_value
	Column string `yaml:"column"`
	Table  string `yaml:"table"`

	// text
	Prompt  string      `yaml:"prompt"`
	Include TextInclude `yaml:"include"`

	// unique_choice
	Domain      []interface{} `yaml:"domain"`
	ScopeColumn string        `yaml:"scope_column"`
}

// TextInclude selects which pieces of generation context are handed to the
// content provider.
type TextInclude struct {
	CurrentRow bool          `yaml:"current_row"`
	Snapshot   bool          `yaml:"snapshot"`
	Parent     *ParentLookup `yaml:"parent"`
}

// ParentLookup resolves a parent row by matching a local column's value
// against a key column of a foreign table's snapshot.
type ParentLookup struct {
	LocalColumn  string `yaml:"local_column"`
	ForeignTable string `yaml:"foreign_table"`
	KeyColumn    string `yaml:"key_column"`
}

var generatorKinds = map[string]bool{
	"constant":          true,
	"random":            true,
	"identifier":        true,
	"timestamp_between": true,
	"timestamp_after":   true,
	"same_row":          true,
	"parent_row":        true,
	"foreign_value":     true,
	"text":              true,
	"unique_choice":     true,
}

// LoadSeedSpec reads and validates the seed spec file.
func LoadSeedSpec(path string) (*SeedSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed spec %s: %w", path, err)
	}
	return ParseSeedSpec(data)
}

// ParseSeedSpec decodes and validates a seed spec document.
func ParseSeedSpec(data []byte) (*SeedSpec, error) {
	var spec SeedSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse seed spec: %w", err)
	}
	if spec.Tables == nil {
		spec.Tables = make(map[string]*TableSpec)
	}

	for name, table := range spec.Tables {
		if err := table.validate(name); err != nil {
			return nil, err
		}
	}
	return &spec, nil
}

func (t *TableSpec) validate(table string) error {
	if t.SkipGenerate {
		return nil
	}

	rg := t.RowGeneration
	if rg == nil {
		return fmt.Errorf("table %s: row_generation is required unless skip_generate is set", table)
	}

	switch rg.Kind {
	case "static":
		if rg.Count <= 0 {
			return fmt.Errorf("table %s: static row generation requires count > 0", table)
		}
	case "foreign_table":
		if rg.ParentTable == "" || rg.ParentKeyColumn == "" || rg.ChildFkColumn == "" {
			return fmt.Errorf("table %s: foreign_table row generation requires parent_table, parent_key_column and child_fk_column", table)
		}
		if rg.CountPerEntry.Min <= 0 || rg.CountPerEntry.Max < rg.CountPerEntry.Min {
			return fmt.Errorf("table %s: count_per_entry must satisfy 0 < min <= max", table)
		}
	default:
		return fmt.Errorf("table %s: unknown row_generation kind %q", table, rg.Kind)
	}

	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: at least one column generator is required", table)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if col.Name == "" {
			return fmt.Errorf("table %s: column entry without a name", table)
		}
		if seen[col.Name] {
			return fmt.Errorf("table %s: duplicate column %s", table, col.Name)
		}
		seen[col.Name] = true
		if !generatorKinds[col.Generator.Kind] {
			return fmt.Errorf("table %s, column %s: unknown generator kind %q", table, col.Name, col.Generator.Kind)
		}
	}
	return nil
}
