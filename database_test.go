package isqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafisher/isqlite/schema"
	"github.com/iafisher/isqlite/sqlite"
)

func mustColumn(t *testing.T, spec schema.ColumnSpec) *schema.Column {
	t.Helper()
	c, err := schema.NewColumn(spec)
	require.NoError(t, err)
	return c
}

func mustTable(t *testing.T, name string, cols ...*schema.Column) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable(schema.TableSpec{Name: name, Columns: cols})
	require.NoError(t, err)
	return tbl
}

func mustSchema(t *testing.T, tables ...*schema.Table) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema(tables...)
	require.NoError(t, err)
	return s
}

func TestOpenDefaultsToISO8601Timestamps(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, schema.TimestampISO8601, db.TimestampKind())
}

func TestOpenWithEpochTimestamps(t *testing.T) {
	db, err := Open(":memory:", WithEpochTimestamps())
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, schema.TimestampEpochSeconds, db.TimestampKind())
}

func TestMigrateCreatesDeclaredTable(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	id := mustColumn(t, schema.ColumnSpec{Name: "id", Type: "INTEGER", PrimaryKey: true})
	name := mustColumn(t, schema.ColumnSpec{Name: "name", Type: "TEXT", Required: true})
	declared := mustSchema(t, mustTable(t, "widgets", id, name))

	ctx := context.Background()
	err = db.Migrate(ctx, declared, sqlite.DiffOptions{DetectRenaming: true})
	require.NoError(t, err)

	live, err := sqlite.Inspect(ctx, db.Conn())
	require.NoError(t, err)
	tbl, ok := live.Get("widgets")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, tbl.ColumnNames())
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	id := mustColumn(t, schema.ColumnSpec{Name: "id", Type: "INTEGER", PrimaryKey: true})
	declared := mustSchema(t, mustTable(t, "widgets", id))

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, declared, sqlite.DiffOptions{DetectRenaming: true}))

	ops, err := db.Diff(ctx, declared, sqlite.DiffOptions{DetectRenaming: true})
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDatabaseRenameColumn(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.Conn().Exec(ctx, `CREATE TABLE "t" ("a" INTEGER PRIMARY KEY, "b" TEXT)`)
	require.NoError(t, err)

	require.NoError(t, db.RenameColumn(ctx, "t", "b", "c"))

	live, err := sqlite.Inspect(ctx, db.Conn())
	require.NoError(t, err)
	tbl, ok := live.Get("t")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, tbl.ColumnNames())
}

func TestDatabaseRenameTable(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.Conn().Exec(ctx, `CREATE TABLE "t" ("a" INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	require.NoError(t, db.RenameTable(ctx, "t", "u"))

	live, err := sqlite.Inspect(ctx, db.Conn())
	require.NoError(t, err)
	_, ok := live.Get("u")
	assert.True(t, ok)
	_, ok = live.Get("t")
	assert.False(t, ok)
}

func TestWithoutForeignKeysAllowsDanglingReference(t *testing.T) {
	db, err := Open(":memory:", WithoutForeignKeys())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.Conn().Exec(ctx, `CREATE TABLE "parent" ("id" INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.Conn().Exec(ctx, `CREATE TABLE "child" ("id" INTEGER PRIMARY KEY, "parent_id" INTEGER REFERENCES "parent")`)
	require.NoError(t, err)

	_, err = db.Conn().Exec(ctx, `INSERT INTO "child" ("id", "parent_id") VALUES (1, 99)`)
	assert.NoError(t, err)
}

func TestWithReadonlyOpensExistingDatabase(t *testing.T) {
	db, err := Open(":memory:", WithReadonly())
	require.NoError(t, err)
	defer db.Close()
	assert.NotNil(t, db.Conn())
}
