package schema

// TimestampKind selects how AutoTable's created_at/last_updated_at
// columns are represented. The choice is fixed per Database and must be
// consistent across every AutoTable built for that database.
type TimestampKind int

const (
	// TimestampISO8601 stores timestamps as TEXT in ISO-8601 form.
	TimestampISO8601 TimestampKind = iota
	// TimestampEpochSeconds stores timestamps as INTEGER seconds since epoch.
	TimestampEpochSeconds
)

const (
	idColumnName            = "id"
	createdAtColumnName     = "created_at"
	lastUpdatedAtColumnName = "last_updated_at"
	iso8601NowExpr          = "(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))"
	epochSecondsNowExpr     = "(strftime('%s', 'now'))"
)

// AutoTableSpec is the set of attributes used to build an AutoTable: the
// same as TableSpec, but without id/created_at/last_updated_at, which
// AutoTable supplies itself.
type AutoTableSpec struct {
	Name        string
	Columns     []*Column
	Constraints []string
}

// NewAutoTable builds a plain Table that prepends a canonical
// "id INTEGER PRIMARY KEY" column and appends "created_at" and
// "last_updated_at" columns rendered per kind. Downstream components
// never see "auto" specially: the result is fully expanded at
// construction, indistinguishable from a hand-built Table.
func NewAutoTable(spec AutoTableSpec, kind TimestampKind) (*Table, error) {
	for _, reserved := range []string{idColumnName, createdAtColumnName, lastUpdatedAtColumnName} {
		for _, c := range spec.Columns {
			if c != nil && c.name == reserved {
				return nil, buildErrf(spec.Name, "column %q is reserved by AutoTable", reserved)
			}
		}
	}
	id, err := NewColumn(ColumnSpec{Name: idColumnName, Type: "INTEGER", PrimaryKey: true})
	if err != nil {
		return nil, err
	}
	nowExpr := iso8601NowExpr
	tsType := "TEXT"
	if kind == TimestampEpochSeconds {
		nowExpr = epochSecondsNowExpr
		tsType = "INTEGER"
	}
	createdAt, err := NewColumn(ColumnSpec{
		Name: createdAtColumnName, Type: tsType, Required: true,
		Default: nowExpr, HasDefault: true,
	})
	if err != nil {
		return nil, err
	}
	lastUpdatedAt, err := NewColumn(ColumnSpec{
		Name: lastUpdatedAtColumnName, Type: tsType, Required: true,
		Default: nowExpr, HasDefault: true,
	})
	if err != nil {
		return nil, err
	}
	cols := make([]*Column, 0, len(spec.Columns)+3)
	cols = append(cols, id)
	cols = append(cols, spec.Columns...)
	cols = append(cols, createdAt, lastUpdatedAt)
	return NewTable(TableSpec{Name: spec.Name, Columns: cols, Constraints: spec.Constraints})
}
