package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafisher/isqlite/migrate"
	"github.com/iafisher/isqlite/schema"
)

func col(t *testing.T, spec schema.ColumnSpec) *schema.Column {
	t.Helper()
	c, err := schema.NewColumn(spec)
	require.NoError(t, err)
	return c
}

func tbl(t *testing.T, name string, cols ...*schema.Column) *schema.Table {
	t.Helper()
	tb, err := schema.NewTable(schema.TableSpec{Name: name, Columns: cols})
	require.NoError(t, err)
	return tb
}

func sch(t *testing.T, tables ...*schema.Table) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema(tables...)
	require.NoError(t, err)
	return s
}

// (a) Add column.
func TestDiffAddColumn(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	b := col(t, schema.ColumnSpec{Name: "b", Type: "TEXT"})
	c := col(t, schema.ColumnSpec{Name: "c", Type: "INTEGER"})

	live := sch(t, tbl(t, "t", a, b))
	declared := sch(t, tbl(t, "t", a, b, c))

	ops, warnings, err := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, ops, 1)
	add, ok := ops[0].(*migrate.AddColumn)
	require.True(t, ok)
	assert.Equal(t, "t", add.TableName)
	assert.Equal(t, "c", add.Column.Name())
}

// (b) Rename column, rename detection on.
func TestDiffRenameColumnDetected(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	name := col(t, schema.ColumnSpec{Name: "name", Type: "TEXT", Required: true})
	legalName := col(t, schema.ColumnSpec{Name: "legal_name", Type: "TEXT", Required: true})

	live := sch(t, tbl(t, "t", a, name))
	declared := sch(t, tbl(t, "t", a, legalName))

	ops, warnings, err := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, ops, 1)
	rename, ok := ops[0].(*migrate.RenameColumn)
	require.True(t, ok)
	assert.Equal(t, "name", rename.OldName)
	assert.Equal(t, "legal_name", rename.NewName)
}

// (c) Rename detection off.
func TestDiffRenameDetectionOff(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	name := col(t, schema.ColumnSpec{Name: "name", Type: "TEXT", Required: true})
	legalName := col(t, schema.ColumnSpec{Name: "legal_name", Type: "TEXT", Required: true})

	live := sch(t, tbl(t, "t", a, name))
	declared := sch(t, tbl(t, "t", a, legalName))

	ops, warnings, err := Diff(declared, live, DiffOptions{DetectRenaming: false})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, ops, 2)
	_, isDrop := ops[0].(*migrate.DropColumn)
	_, isAdd := ops[1].(*migrate.AddColumn)
	assert.True(t, isDrop)
	assert.True(t, isAdd)
}

// (d) Reorder.
func TestDiffReorderColumns(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	b := col(t, schema.ColumnSpec{Name: "b", Type: "TEXT"})
	c := col(t, schema.ColumnSpec{Name: "c", Type: "INTEGER"})

	live := sch(t, tbl(t, "t", a, b, c))
	declared := sch(t, tbl(t, "t", a, c, b))

	ops, warnings, err := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, ops, 1)
	reorder, ok := ops[0].(*migrate.ReorderColumns)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c", "b"}, reorder.NewOrder)
}

// (e) Drop table + create table.
func TestDiffCreateAndDropTable(t *testing.T) {
	x := col(t, schema.ColumnSpec{Name: "x", Type: "INTEGER"})
	y := col(t, schema.ColumnSpec{Name: "y", Type: "TEXT"})

	live := sch(t, tbl(t, "old", x))
	declared := sch(t, tbl(t, "new", y))

	ops, warnings, err := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, ops, 2)
	create, ok := ops[0].(*migrate.CreateTable)
	require.True(t, ok)
	assert.Equal(t, "new", create.T.Name())
	drop, ok := ops[1].(*migrate.DropTable)
	require.True(t, ok)
	assert.Equal(t, "old", drop.Name)
}

// (f) Ambiguity: rename candidate's definition collides with an
// unchanged sibling column, so the differ refuses to guess.
func TestDiffAmbiguousRenameFallsBackToDropAdd(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	x := col(t, schema.ColumnSpec{Name: "x", Type: "TEXT"})
	y := col(t, schema.ColumnSpec{Name: "y", Type: "TEXT"})
	z := col(t, schema.ColumnSpec{Name: "z", Type: "TEXT"})

	live := sch(t, tbl(t, "t", a, x, y))
	declared := sch(t, tbl(t, "t", a, x, z))

	ops, warnings, err := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "y", warnings[0].OldColumn)

	require.Len(t, ops, 2)
	drop, ok := ops[0].(*migrate.DropColumn)
	require.True(t, ok)
	assert.Equal(t, "y", drop.ColumnName)
	add, ok := ops[1].(*migrate.AddColumn)
	require.True(t, ok)
	assert.Equal(t, "z", add.Column.Name())
}

// StrictRename turns the same ambiguity into a hard error.
func TestDiffStrictRenameFailsOnAmbiguity(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	x := col(t, schema.ColumnSpec{Name: "x", Type: "TEXT"})
	y := col(t, schema.ColumnSpec{Name: "y", Type: "TEXT"})
	z := col(t, schema.ColumnSpec{Name: "z", Type: "TEXT"})

	live := sch(t, tbl(t, "t", a, x, y))
	declared := sch(t, tbl(t, "t", a, x, z))

	_, warnings, err := Diff(declared, live, DiffOptions{DetectRenaming: true, StrictRename: true})
	require.Error(t, err)
	require.Len(t, warnings, 1)
	var ambiguity *DiffAmbiguityError
	assert.ErrorAs(t, err, &ambiguity)
}

// Property 6: if the old column name still appears in the declared
// schema, no rename is emitted for it even if an identical column
// exists at the same index under a new name.
func TestDiffNoRenameWhenOldNameStillDeclared(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	liveB := col(t, schema.ColumnSpec{Name: "b", Type: "TEXT"})
	declaredB := col(t, schema.ColumnSpec{Name: "b", Type: "TEXT"})
	declaredC := col(t, schema.ColumnSpec{Name: "c", Type: "TEXT"})

	live := sch(t, tbl(t, "t", a, liveB))
	declared := sch(t, tbl(t, "t", a, declaredC, declaredB))

	ops, _, err := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err)
	for _, op := range ops {
		if _, ok := op.(*migrate.RenameColumn); ok {
			t.Fatalf("unexpected rename operation: %s", op.String())
		}
	}
}

// Property 3: Diff is pure and deterministic.
func TestDiffIsPure(t *testing.T) {
	a := col(t, schema.ColumnSpec{Name: "a", Type: "INTEGER", PrimaryKey: true})
	b := col(t, schema.ColumnSpec{Name: "b", Type: "TEXT"})
	live := sch(t, tbl(t, "t", a))
	declared := sch(t, tbl(t, "t", a, b))

	ops1, _, err1 := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err1)
	ops2, _, err2 := Diff(declared, live, DiffOptions{DetectRenaming: true})
	require.NoError(t, err2)

	require.Len(t, ops1, len(ops2))
	for i := range ops1 {
		assert.Equal(t, ops1[i].String(), ops2[i].String())
	}
}
