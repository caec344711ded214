package schema

// Schema is an ordered collection of Tables, keyed by name. Order matters
// for creation (a referenced table must exist before the table that
// references it, when foreign-key enforcement is on) but not for
// diffing. Build one with NewSchema; Schemas are immutable value types,
// built once per migration cycle and then discarded.
type Schema struct {
	order []string
	byName map[string]*Table
}

// NewSchema builds a Schema from tables, preserving their given order.
// Construction fails with a *SchemaBuildError if two tables share a name.
func NewSchema(tables ...*Table) (*Schema, error) {
	s := &Schema{byName: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if t == nil {
			return nil, buildErrf("<schema>", "nil table in schema definition")
		}
		if _, ok := s.byName[t.name]; ok {
			return nil, buildErrf(t.name, "duplicate table name in schema")
		}
		s.byName[t.name] = t
		s.order = append(s.order, t.name)
	}
	return s, nil
}

// Get looks up a table by name.
func (s *Schema) Get(name string) (*Table, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Names returns table names in declared order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.order...)
}

// Tables returns the tables in declared order.
func (s *Schema) Tables() []*Table {
	tables := make([]*Table, len(s.order))
	for i, name := range s.order {
		tables[i] = s.byName[name]
	}
	return tables
}

// Len returns the number of tables in the schema.
func (s *Schema) Len() int { return len(s.order) }
