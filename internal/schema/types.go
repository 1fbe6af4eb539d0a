package schema

// Column describes a single column of a base table.
type Column struct {
	Name      string
	DataType  string
	Nullable  bool
	Default   string
	MaxLength int64
}

// ForeignKey describes one foreign-key constraint on a table.
type ForeignKey struct {
	ConstraintName string
	Column         string
	TargetTable    string
	TargetColumn   string
}

// Table holds the introspected definition of one base table.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Database is the full introspected schema. Names preserves the order in
// which tables were discovered so that downstream iteration is deterministic
// for a fixed schema.
type Database struct {
	Names  []string
	Tables map[string]*Table
}

func NewDatabase() *Database {
	return &Database{Tables: make(map[string]*Table)}
}

// AddTable registers a table, keeping Names in discovery order. Re-adding an
// existing table replaces its definition without duplicating the name.
func (d *Database) AddTable(t *Table) {
	if _, exists := d.Tables[t.Name]; !exists {
		d.Names = append(d.Names, t.Name)
	}
	d.Tables[t.Name] = t
}

// Column returns the named column of the table, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// NullableColumn reports whether the named column exists and is nullable.
func (t *Table) NullableColumn(name string) bool {
	if c := t.Column(name); c != nil {
		return c.Nullable
	}
	return false
}
