package schema

import (
	"strings"

	"github.com/iafisher/isqlite/internal/sqlx"
)

// OnDelete enumerates the referential actions a ForeignKey may request
// for SQLite's ON DELETE clause.
type OnDelete string

// The referential actions SQLite supports for ON DELETE.
const (
	NoAction   OnDelete = "no_action"
	Restrict   OnDelete = "restrict"
	SetNull    OnDelete = "set_null"
	SetDefault OnDelete = "set_default"
	Cascade    OnDelete = "cascade"
)

func (a OnDelete) sql() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	case Cascade:
		return "CASCADE"
	case NoAction, "":
		return "NO ACTION"
	default:
		return "NO ACTION"
	}
}

// ForeignKey describes the table a column references and what happens to
// the referencing row when the referenced row is deleted.
type ForeignKey struct {
	Table    string
	OnDelete OnDelete
}

// Column is an immutable, typed representation of a column declaration.
// Build one with NewColumn; the zero value is not valid.
type Column struct {
	name       string
	sqlType    string
	required   bool
	choices    []string
	def        string
	hasDefault bool
	unique     bool
	primaryKey bool
	fk         *ForeignKey
}

// ColumnSpec is the set of attributes used to build a Column.
type ColumnSpec struct {
	Name       string
	Type       string
	Required   bool
	Choices    []string
	Default    string
	HasDefault bool
	Unique     bool
	PrimaryKey bool
	ForeignKey *ForeignKey
}

// NewColumn validates spec and returns an immutable Column, or a
// *SchemaBuildError describing the first violated invariant.
func NewColumn(spec ColumnSpec) (*Column, error) {
	if !sqlx.ValidIdent(spec.Name) {
		return nil, buildErrf(spec.Name, "not a valid identifier")
	}
	if strings.TrimSpace(spec.Type) == "" {
		return nil, buildErrf(spec.Name, "sql_type must not be empty")
	}
	if spec.PrimaryKey && spec.ForeignKey != nil {
		return nil, buildErrf(spec.Name, "column cannot be both primary_key and foreign_key")
	}
	if spec.ForeignKey != nil {
		if !sqlx.ValidIdent(spec.ForeignKey.Table) {
			return nil, buildErrf(spec.Name, "foreign_key table %q is not a valid identifier", spec.ForeignKey.Table)
		}
		switch spec.ForeignKey.OnDelete {
		case "", NoAction, Restrict, SetNull, SetDefault, Cascade:
		default:
			return nil, buildErrf(spec.Name, "unknown on_delete action %q", spec.ForeignKey.OnDelete)
		}
	}
	if len(spec.Choices) > 0 {
		if isNumericAffinity(spec.Type) {
			for _, c := range spec.Choices {
				if !looksNumeric(c) {
					return nil, buildErrf(spec.Name, "choice %q is not compatible with sql_type %q", c, spec.Type)
				}
			}
		}
	}
	c := &Column{
		name:       spec.Name,
		sqlType:    spec.Type,
		required:   spec.Required,
		def:        spec.Default,
		hasDefault: spec.HasDefault,
		unique:     spec.Unique,
		primaryKey: spec.PrimaryKey,
		fk:         spec.ForeignKey,
	}
	if len(spec.Choices) > 0 {
		c.choices = append([]string(nil), spec.Choices...)
	}
	return c, nil
}

// Name returns the column's identifier.
func (c *Column) Name() string { return c.name }

// Type returns the column's opaque SQL type text.
func (c *Column) Type() string { return c.sqlType }

// Required reports whether the column renders NOT NULL.
func (c *Column) Required() bool { return c.required }

// Choices returns the column's CHECK(... IN (...)) value set, if any.
func (c *Column) Choices() []string { return append([]string(nil), c.choices...) }

// Default returns the column's DEFAULT expression and whether one was set.
func (c *Column) Default() (string, bool) { return c.def, c.hasDefault }

// Unique reports whether the column renders UNIQUE.
func (c *Column) Unique() bool { return c.unique }

// PrimaryKey reports whether the column renders PRIMARY KEY.
func (c *Column) PrimaryKey() bool { return c.primaryKey }

// ForeignKey returns the column's foreign-key reference, if any.
func (c *Column) ForeignKey() *ForeignKey { return c.fk }

// withName returns a copy of c with a new name. It is unexported, so
// only package schema can call it.
func (c *Column) withName(name string) *Column {
	cp := *c
	cp.name = name
	cp.choices = append([]string(nil), c.choices...)
	return &cp
}

// Render returns the canonical column-definition fragment used inside a
// CREATE TABLE statement: deterministic clause order, byte-identical for
// byte-identical input.
func (c *Column) Render() string {
	b := sqlx.Build()
	b.Ident(c.name).P(c.sqlType)
	if c.required {
		b.P("NOT NULL")
	}
	if c.hasDefault {
		b.P("DEFAULT", c.def)
	}
	if c.unique {
		b.P("UNIQUE")
	}
	if c.primaryKey {
		b.P("PRIMARY KEY")
	}
	if c.fk != nil {
		b.P("REFERENCES")
		b.Ident(c.fk.Table)
		b.P("ON DELETE", c.fk.OnDelete.sql())
	}
	if len(c.choices) > 0 {
		b.P("CHECK")
		b.Wrap(func(b *sqlx.Builder) {
			b.Ident(c.name).P("IN")
			b.Wrap(func(b *sqlx.Builder) {
				b.MapComma(c.choices, func(i int, b *sqlx.Builder) {
					if isNumericAffinity(c.sqlType) {
						b.P(c.choices[i])
					} else {
						b.Lit(c.choices[i])
					}
				})
			})
		})
	}
	return b.String()
}

// Equal reports whether c and other have identical attributes, name
// included.
func (c *Column) Equal(other *Column) bool {
	return c.name == other.name && c.EqualModuloName(other)
}

// EqualModuloName reports whether c and other have identical attributes
// other than name; used by the rename-detection heuristic.
func (c *Column) EqualModuloName(other *Column) bool {
	if other == nil {
		return false
	}
	if c.sqlType != other.sqlType ||
		c.required != other.required ||
		c.unique != other.unique ||
		c.primaryKey != other.primaryKey {
		return false
	}
	if c.hasDefault != other.hasDefault || (c.hasDefault && c.def != other.def) {
		return false
	}
	if (c.fk == nil) != (other.fk == nil) {
		return false
	}
	if c.fk != nil && (c.fk.Table != other.fk.Table || normalizeOnDelete(c.fk.OnDelete) != normalizeOnDelete(other.fk.OnDelete)) {
		return false
	}
	return choicesEqual(c.choices, other.choices)
}

func normalizeOnDelete(a OnDelete) OnDelete {
	if a == "" {
		return NoAction
	}
	return a
}

func choicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isNumericAffinity(sqlType string) bool {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	for _, prefix := range []string{"INT", "REAL", "DOUBLE", "FLOAT", "NUMERIC", "DECIMAL"} {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

func looksNumeric(v string) bool {
	if v == "" {
		return false
	}
	seenDot := false
	for i, r := range v {
		switch {
		case r == '-' && i == 0:
		case r == '.' && !seenDot:
			seenDot = true
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
