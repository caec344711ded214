package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/iafisher/isqlite/internal/sqlx"
	"github.com/iafisher/isqlite/migrate"
	"github.com/iafisher/isqlite/schema"
)

// Apply runs ops against conn as a single migration.
// Foreign-key enforcement is disabled for the duration — SQLite only
// honors that pragma outside an open transaction, so Apply commits any
// transaction already open on conn before it begins its own. Every
// operation runs inside one transaction; if any operation fails the
// transaction is rolled back, enforcement is restored, and the first
// failure is returned wrapped in a *MigrationExecutionError. After a
// successful commit, Apply restores enforcement and runs
// PRAGMA foreign_key_check, surfacing any dangling reference as an
// *IntegrityViolation.
func Apply(ctx context.Context, conn *Conn, ops []migrate.Operation, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if conn.InTransaction() {
		if err := conn.Commit(); err != nil {
			return fmt.Errorf("isqlite: committing transaction open before migration: %w", err)
		}
	}

	fkWasOn, err := conn.PragmaBool(ctx, "foreign_keys")
	if err != nil {
		return fmt.Errorf("isqlite: reading foreign_keys pragma: %w", err)
	}
	if fkWasOn {
		if err := conn.SetPragmaBool(ctx, "foreign_keys", false); err != nil {
			return fmt.Errorf("isqlite: disabling foreign_keys: %w", err)
		}
	}
	restoreFK := func() {
		if fkWasOn {
			_ = conn.SetPragmaBool(ctx, "foreign_keys", true)
		}
	}

	if err := conn.Begin(ctx); err != nil {
		restoreFK()
		return fmt.Errorf("isqlite: beginning migration transaction: %w", err)
	}

	for _, op := range ops {
		logger.Debug("applying migration operation", "op", op.String())
		if err := applyOne(ctx, conn, op); err != nil {
			_ = conn.Rollback()
			restoreFK()
			return &MigrationExecutionError{Op: op, Err: err}
		}
	}

	if err := conn.Commit(); err != nil {
		restoreFK()
		return fmt.Errorf("isqlite: committing migration: %w", err)
	}
	restoreFK()

	violations, err := checkForeignKeys(ctx, conn)
	if err != nil {
		return fmt.Errorf("isqlite: running foreign_key_check: %w", err)
	}
	if len(violations) > 0 {
		return &IntegrityViolation{Violations: violations}
	}
	return nil
}

func applyOne(ctx context.Context, conn *Conn, op migrate.Operation) error {
	switch o := op.(type) {
	case *migrate.CreateTable:
		_, err := conn.Exec(ctx, o.T.CreateSQL())
		return err
	case *migrate.DropTable:
		_, err := conn.Exec(ctx, "DROP TABLE "+quoteIdent(o.Name))
		return err
	case *migrate.RenameTable:
		_, err := conn.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(o.OldName), quoteIdent(o.NewName)))
		return err
	case *migrate.AddColumn:
		return applyAddColumn(ctx, conn, o)
	case *migrate.DropColumn:
		return applyDropColumn(ctx, conn, o)
	case *migrate.AlterColumn:
		return applyAlterColumn(ctx, conn, o)
	case *migrate.RenameColumn:
		return applyRenameColumn(ctx, conn, o)
	case *migrate.ReorderColumns:
		return applyReorderColumns(ctx, conn, o)
	default:
		return fmt.Errorf("isqlite: unsupported operation type %T", op)
	}
}

// applyRenameColumn uses SQLite's native ALTER TABLE RENAME COLUMN rather
// than a rebuild. It does not rewrite the renamed column's name inside
// sibling CHECK or foreign-key constraints that reference it by name —
// deliberately: rewriting those references is out of scope.
func applyRenameColumn(ctx context.Context, conn *Conn, o *migrate.RenameColumn) error {
	_, err := conn.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		quoteIdent(o.TableName), quoteIdent(o.OldName), quoteIdent(o.NewName)))
	return err
}

// applyAddColumn issues a plain ALTER TABLE ADD COLUMN when SQLite allows
// it, and falls back to a full table rebuild otherwise.
func applyAddColumn(ctx context.Context, conn *Conn, o *migrate.AddColumn) error {
	if addableInPlace(o.Column) {
		b := sqlx.Build("ALTER TABLE")
		b.Ident(o.TableName)
		b.P("ADD COLUMN")
		b.WriteString(o.Column.Render())
		_, err := conn.Exec(ctx, b.String())
		return err
	}

	return rebuildTable(ctx, conn, o.TableName, func(cur *schema.Table) ([]*schema.Column, []string, []string, error) {
		if _, ok := cur.Column(o.Column.Name()); ok {
			return nil, nil, nil, &PreconditionError{Reason: fmt.Sprintf("column %q.%q already exists", o.TableName, o.Column.Name())}
		}
		cols := append(cur.Columns(), o.Column)
		insertCols := make([]string, len(cols))
		selectExprs := make([]string, len(cols))
		for i, c := range cols {
			insertCols[i] = c.Name()
			if c.Name() == o.Column.Name() {
				if def, has := c.Default(); has {
					selectExprs[i] = def
				} else {
					selectExprs[i] = "NULL"
				}
			} else {
				selectExprs[i] = quoteIdent(c.Name())
			}
		}
		return cols, insertCols, selectExprs, nil
	})
}

// addableInPlace reports whether col can be added with a plain
// ALTER TABLE ADD COLUMN. SQLite rejects ADD COLUMN for a column that is
// PRIMARY KEY or UNIQUE, that references another table, or that is
// NOT NULL without a default; it also rejects a DEFAULT that isn't a
// constant, since it would otherwise be evaluated once at ADD COLUMN
// time instead of per row. Any of those forces a rebuild.
func addableInPlace(col *schema.Column) bool {
	if col.PrimaryKey() || col.Unique() || col.ForeignKey() != nil {
		return false
	}
	def, hasDefault := col.Default()
	if col.Required() && !hasDefault {
		return false
	}
	if hasDefault && !isConstantDefault(def) {
		return false
	}
	return true
}

func isConstantDefault(expr string) bool {
	e := strings.TrimSpace(expr)
	if e == "" {
		return false
	}
	if strings.EqualFold(e, "null") {
		return true
	}
	if len(e) >= 2 && e[0] == '\'' && e[len(e)-1] == '\'' {
		return true
	}
	if _, err := strconv.ParseFloat(e, 64); err == nil {
		return true
	}
	return false
}

func applyDropColumn(ctx context.Context, conn *Conn, o *migrate.DropColumn) error {
	return rebuildTable(ctx, conn, o.TableName, func(cur *schema.Table) ([]*schema.Column, []string, []string, error) {
		if _, ok := cur.Column(o.ColumnName); !ok {
			return nil, nil, nil, &PreconditionError{Reason: fmt.Sprintf("column %q.%q does not exist", o.TableName, o.ColumnName)}
		}
		var newCols []*schema.Column
		var insertCols, selectExprs []string
		for _, c := range cur.Columns() {
			if c.Name() == o.ColumnName {
				continue
			}
			newCols = append(newCols, c)
			insertCols = append(insertCols, c.Name())
			selectExprs = append(selectExprs, quoteIdent(c.Name()))
		}
		return newCols, insertCols, selectExprs, nil
	})
}

func applyAlterColumn(ctx context.Context, conn *Conn, o *migrate.AlterColumn) error {
	return rebuildTable(ctx, conn, o.TableName, func(cur *schema.Table) ([]*schema.Column, []string, []string, error) {
		cols := cur.Columns()
		newCols := make([]*schema.Column, len(cols))
		insertCols := make([]string, len(cols))
		selectExprs := make([]string, len(cols))
		found := false
		for i, c := range cols {
			if c.Name() == o.ColumnName {
				newCols[i] = o.NewColumn
				found = true
			} else {
				newCols[i] = c
			}
			insertCols[i] = newCols[i].Name()
			selectExprs[i] = quoteIdent(c.Name())
		}
		if !found {
			return nil, nil, nil, &PreconditionError{Reason: fmt.Sprintf("column %q.%q does not exist", o.TableName, o.ColumnName)}
		}
		return newCols, insertCols, selectExprs, nil
	})
}

func applyReorderColumns(ctx context.Context, conn *Conn, o *migrate.ReorderColumns) error {
	return rebuildTable(ctx, conn, o.TableName, func(cur *schema.Table) ([]*schema.Column, []string, []string, error) {
		if len(o.NewOrder) != len(cur.Columns()) {
			return nil, nil, nil, &PreconditionError{Reason: fmt.Sprintf("reorder for %q names %d columns, table has %d", o.TableName, len(o.NewOrder), len(cur.Columns()))}
		}
		newCols := make([]*schema.Column, len(o.NewOrder))
		insertCols := make([]string, len(o.NewOrder))
		selectExprs := make([]string, len(o.NewOrder))
		for i, name := range o.NewOrder {
			c, ok := cur.Column(name)
			if !ok {
				return nil, nil, nil, &PreconditionError{Reason: fmt.Sprintf("reorder for %q references unknown column %q", o.TableName, name)}
			}
			newCols[i] = c
			insertCols[i] = name
			selectExprs[i] = quoteIdent(name)
		}
		return newCols, insertCols, selectExprs, nil
	})
}

// rebuildTable implements SQLite's 12-step (here, 6-step) table-rebuild
// protocol: re-read the table's live definition, create a throwaway
// table under planFn's new column list, copy every row across with one
// INSERT INTO ... SELECT, drop the original, rename the rebuild into
// place, and recreate whatever indexes and triggers named it.
func rebuildTable(ctx context.Context, conn *Conn, tableName string, planFn func(cur *schema.Table) (newColumns []*schema.Column, insertCols, selectExprs []string, err error)) error {
	cur, err := InspectTable(ctx, conn, tableName)
	if err != nil {
		return err
	}
	newColumns, insertCols, selectExprs, err := planFn(cur)
	if err != nil {
		return err
	}

	aux, err := auxiliaryObjects(ctx, conn, tableName)
	if err != nil {
		return fmt.Errorf("reading indexes and triggers: %w", err)
	}

	tmp := tempTableName(tableName)
	if exists, err := tableExists(ctx, conn, tmp); err != nil {
		return err
	} else if exists {
		return &PreconditionError{Reason: fmt.Sprintf("temporary rebuild table %q already exists", tmp)}
	}

	tmpTable, err := cur.Rebuilt(tmp, newColumns)
	if err != nil {
		return err
	}
	if _, err := conn.Exec(ctx, tmpTable.CreateSQL()); err != nil {
		return fmt.Errorf("creating rebuild table: %w", err)
	}
	if _, err := conn.Exec(ctx, buildInsertSelect(tmp, insertCols, tableName, selectExprs)); err != nil {
		return fmt.Errorf("copying rows into rebuild table: %w", err)
	}
	if _, err := conn.Exec(ctx, "DROP TABLE "+quoteIdent(tableName)); err != nil {
		return fmt.Errorf("dropping original table: %w", err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(tmp), quoteIdent(tableName))); err != nil {
		return fmt.Errorf("renaming rebuilt table into place: %w", err)
	}
	for _, stmt := range aux {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("recreating index or trigger: %w", err)
		}
	}
	return nil
}

func tempTableName(name string) string {
	return name + "_isqlite_tmp"
}

func tableExists(ctx context.Context, conn *Conn, name string) (bool, error) {
	rows, err := conn.Query(ctx, `SELECT 1 FROM sqlite_master WHERE "type" = 'table' AND "name" = ?`, name)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// auxiliaryObjectsQuery collects every index and trigger attached to a
// table, excluding the implicit indexes SQLite creates for UNIQUE and
// PRIMARY KEY columns (those are recreated automatically when the
// rebuilt table is created with the same constraints).
const auxiliaryObjectsQuery = `SELECT "sql" FROM sqlite_master WHERE "tbl_name" = ? AND "type" IN ('index', 'trigger') AND "sql" IS NOT NULL AND "name" NOT LIKE 'sqlite_autoindex%' ORDER BY "type", "name"`

func auxiliaryObjects(ctx context.Context, conn *Conn, tableName string) ([]string, error) {
	rows, err := conn.Query(ctx, auxiliaryObjectsQuery, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stmts []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, rows.Err()
}

func buildInsertSelect(dstTable string, dstCols []string, srcTable string, selectExprs []string) string {
	b := sqlx.Build("INSERT INTO")
	b.Ident(dstTable)
	b.Wrap(func(b *sqlx.Builder) {
		b.MapComma(dstCols, func(i int, b *sqlx.Builder) {
			b.Ident(dstCols[i])
		})
	})
	b.P("SELECT")
	b.MapComma(selectExprs, func(i int, b *sqlx.Builder) {
		b.WriteString(selectExprs[i])
	})
	b.P("FROM")
	b.Ident(srcTable)
	return b.String()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// checkForeignKeys runs PRAGMA foreign_key_check and collects every row
// it reports. A nil result means no violations were found.
func checkForeignKeys(ctx context.Context, conn *Conn) ([]ForeignKeyViolation, error) {
	rows, err := conn.Query(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []ForeignKeyViolation
	for rows.Next() {
		var table, parent string
		var rowID, fk sql.NullInt64
		if err := rows.Scan(&table, &rowID, &parent, &fk); err != nil {
			return nil, err
		}
		violations = append(violations, ForeignKeyViolation{
			Table:      table,
			RowID:      rowID.Int64,
			Parent:     parent,
			ForeignKey: fk.Int64,
		})
	}
	return violations, rows.Err()
}
