package sqlite

import (
	"context"
	"fmt"

	"github.com/iafisher/isqlite/ddl"
	"github.com/iafisher/isqlite/schema"
)

// tablesQuery lists every user table in the database, mirroring
// ariga.io/atlas/sql/sqlite's own tablesQuery.
const tablesQuery = `SELECT "name", "sql" FROM sqlite_master WHERE "type" = 'table' AND "name" NOT LIKE 'sqlite_%' ORDER BY "name"`

// Inspect reads the live schema from conn: every row of sqlite_master,
// each fed to the ddl parser, mapped into a schema.Schema whose column
// order matches SQLite's on-disk storage order.
func Inspect(ctx context.Context, conn *Conn) (*schema.Schema, error) {
	rows, err := conn.Query(ctx, tablesQuery)
	if err != nil {
		return nil, &IntrospectionError{Table: "<all>", Err: err}
	}
	defer rows.Close()

	type row struct{ name, sql string }
	var stored []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.name, &r.sql); err != nil {
			return nil, &IntrospectionError{Table: "<all>", Err: err}
		}
		stored = append(stored, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &IntrospectionError{Table: "<all>", Err: err}
	}

	tables := make([]*schema.Table, 0, len(stored))
	for _, r := range stored {
		t, err := inspectTable(r.name, r.sql)
		if err != nil {
			return nil, &IntrospectionError{Table: r.name, Err: err}
		}
		tables = append(tables, t)
	}
	s, err := schema.NewSchema(tables...)
	if err != nil {
		return nil, &IntrospectionError{Table: "<all>", Err: err}
	}
	return s, nil
}

// tableSQLQuery fetches the stored CREATE TABLE text for a single table,
// used by the executor to re-read a table's live definition immediately
// before rebuilding it.
const tableSQLQuery = `SELECT "sql" FROM sqlite_master WHERE "type" = 'table' AND "name" = ?`

// InspectTable reads and parses the live definition of a single table.
func InspectTable(ctx context.Context, conn *Conn, name string) (*schema.Table, error) {
	rows, err := conn.Query(ctx, tableSQLQuery, name)
	if err != nil {
		return nil, &IntrospectionError{Table: name, Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, &IntrospectionError{Table: name, Err: fmt.Errorf("no such table")}
	}
	var stmt string
	if err := rows.Scan(&stmt); err != nil {
		return nil, &IntrospectionError{Table: name, Err: err}
	}
	if err := rows.Err(); err != nil {
		return nil, &IntrospectionError{Table: name, Err: err}
	}

	t, err := inspectTable(name, stmt)
	if err != nil {
		return nil, &IntrospectionError{Table: name, Err: err}
	}
	return t, nil
}

func inspectTable(name, stmt string) (*schema.Table, error) {
	parsed, err := ddl.Parse(stmt)
	if err != nil {
		return nil, fmt.Errorf("parsing stored definition: %w", err)
	}
	cols := make([]*schema.Column, 0, len(parsed.Columns))
	for _, pc := range parsed.Columns {
		spec := schema.ColumnSpec{
			Name:       pc.Name,
			Type:       pc.Type,
			Required:   pc.NotNull,
			Choices:    pc.Choices,
			Default:    pc.Default,
			HasDefault: pc.HasDefault,
			Unique:     pc.Unique,
			PrimaryKey: pc.PrimaryKey,
		}
		if pc.References != nil {
			spec.ForeignKey = &schema.ForeignKey{
				Table:    pc.References.Table,
				OnDelete: onDeleteFromSQL(pc.References.OnDelete),
			}
		}
		c, err := schema.NewColumn(spec)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", pc.Name, err)
		}
		cols = append(cols, c)
	}
	return schema.NewTable(schema.TableSpec{
		Name:         name,
		Columns:      cols,
		Constraints:  parsed.Constraints,
		WithoutRowID: parsed.WithoutRowID,
	})
}

func onDeleteFromSQL(action string) schema.OnDelete {
	switch action {
	case "RESTRICT":
		return schema.Restrict
	case "SET NULL":
		return schema.SetNull
	case "SET DEFAULT":
		return schema.SetDefault
	case "CASCADE":
		return schema.Cascade
	default:
		return schema.NoAction
	}
}
