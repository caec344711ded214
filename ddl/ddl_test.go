package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleTable(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "widgets" ("id" INTEGER PRIMARY KEY, "name" TEXT NOT NULL)`)
	require.NoError(t, err)
	assert.Equal(t, "widgets", tbl.Name)
	require.Len(t, tbl.Columns, 2)
	assert.Equal(t, "id", tbl.Columns[0].Name)
	assert.True(t, tbl.Columns[0].PrimaryKey)
	assert.Equal(t, "name", tbl.Columns[1].Name)
	assert.True(t, tbl.Columns[1].NotNull)
}

func TestParseRejectsNonCreateTable(t *testing.T) {
	_, err := Parse(`CREATE INDEX "idx" ON "widgets" ("name")`)
	require.Error(t, err)
}

func TestParseWithoutRowID(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "widgets" ("id" INTEGER PRIMARY KEY) WITHOUT ROWID`)
	require.NoError(t, err)
	assert.True(t, tbl.WithoutRowID)
}

func TestParseForeignKeyReference(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "posts" ("author_id" INTEGER REFERENCES "authors" ON DELETE CASCADE)`)
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 1)
	require.NotNil(t, tbl.Columns[0].References)
	assert.Equal(t, "authors", tbl.Columns[0].References.Table)
	assert.Equal(t, "CASCADE", tbl.Columns[0].References.OnDelete)
}

func TestParseCheckInBecomesChoices(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "widgets" ("status" TEXT NOT NULL CHECK ("status" IN ('active', 'inactive')))`)
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 1)
	assert.Equal(t, []string{"active", "inactive"}, tbl.Columns[0].Choices)
}

func TestParseParenthesizedDefaultNotOverrunByLaterParens(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "posts" ("created_at" TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')), "author_id" INTEGER REFERENCES "authors" (id))`)
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 2)
	assert.True(t, tbl.Columns[0].HasDefault)
	assert.Equal(t, `(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`, tbl.Columns[0].Default)
	assert.Equal(t, "authors", tbl.Columns[1].References.Table)
}

func TestParseQuotedStringDefault(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "widgets" ("label" TEXT NOT NULL DEFAULT 'it''s here')`)
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 1)
	assert.Equal(t, `'it''s here'`, tbl.Columns[0].Default)
}

func TestParseTableLevelConstraintKeptOpaque(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "widgets" ("id" INTEGER, "name" TEXT, CHECK (id > 0))`)
	require.NoError(t, err)
	require.Len(t, tbl.Constraints, 1)
	assert.Contains(t, tbl.Constraints[0], "CHECK")
}

func TestParseUniqueColumn(t *testing.T) {
	tbl, err := Parse(`CREATE TABLE "widgets" ("email" TEXT UNIQUE)`)
	require.NoError(t, err)
	assert.True(t, tbl.Columns[0].Unique)
}
