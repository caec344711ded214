package schema

import (
	"github.com/iafisher/isqlite/internal/sqlx"
)

// Table is an immutable, ordered list of columns plus table-level
// constraints. Column order is significant: it is the table's on-disk
// column order. Build one with NewTable.
type Table struct {
	name         string
	columns      []*Column
	constraints  []string
	withoutRowID bool
}

// TableSpec is the set of attributes used to build a Table.
type TableSpec struct {
	Name         string
	Columns      []*Column
	Constraints  []string
	WithoutRowID bool
}

// NewTable validates spec and returns an immutable Table, or a
// *SchemaBuildError describing the first violated invariant.
func NewTable(spec TableSpec) (*Table, error) {
	if !sqlx.ValidIdent(spec.Name) {
		return nil, buildErrf(spec.Name, "not a valid table identifier")
	}
	seen := make(map[string]bool, len(spec.Columns))
	pkSeen := false
	for _, c := range spec.Columns {
		if c == nil {
			return nil, buildErrf(spec.Name, "nil column in table definition")
		}
		if seen[c.name] {
			return nil, buildErrf(spec.Name, "duplicate column name %q", c.name)
		}
		seen[c.name] = true
		if c.primaryKey {
			if pkSeen {
				return nil, buildErrf(spec.Name, "more than one column declares primary_key")
			}
			pkSeen = true
		}
	}
	t := &Table{
		name:         spec.Name,
		columns:      append([]*Column(nil), spec.Columns...),
		constraints:  append([]string(nil), spec.Constraints...),
		withoutRowID: spec.WithoutRowID,
	}
	return t, nil
}

// Name returns the table's identifier.
func (t *Table) Name() string { return t.name }

// Columns returns the table's columns in declared (on-disk) order.
func (t *Table) Columns() []*Column { return append([]*Column(nil), t.columns...) }

// ColumnNames returns the table's column names in declared order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Constraints returns the table's opaque table-level constraint strings.
func (t *Table) Constraints() []string { return append([]string(nil), t.constraints...) }

// WithoutRowID reports whether the table renders WITHOUT ROWID.
func (t *Table) WithoutRowID() bool { return t.withoutRowID }

// withColumns returns a copy of t with a different column list. It is
// not exported, so only package schema can call it; the executor builds
// its rebuild tables with Rebuilt instead.
func (t *Table) withColumns(cols []*Column) *Table {
	cp := *t
	cp.columns = append([]*Column(nil), cols...)
	return &cp
}

// Rebuilt returns a copy of t under a new name with a new column list,
// keeping t's table-level constraints and WITHOUT ROWID setting. The
// executor uses this to describe the temporary table it creates for the
// 6-step table-rebuild protocol: same constraints as the
// live table, new column set, throwaway name.
func (t *Table) Rebuilt(name string, columns []*Column) (*Table, error) {
	return NewTable(TableSpec{
		Name:         name,
		Columns:      columns,
		Constraints:  t.constraints,
		WithoutRowID: t.withoutRowID,
	})
}

// CreateSQL renders the canonical CREATE TABLE statement for t.
func (t *Table) CreateSQL() string {
	b := sqlx.Build("CREATE TABLE")
	b.Ident(t.name)
	b.Wrap(func(b *sqlx.Builder) {
		b.MapComma(t.columns, func(i int, b *sqlx.Builder) {
			b.WriteString(t.columns[i].Render())
		})
		for _, c := range t.constraints {
			b.Comma()
			b.WriteString(c)
		}
	})
	if t.withoutRowID {
		b.P("WITHOUT ROWID")
	}
	return b.String()
}
