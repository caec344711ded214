// Package migrate defines the diff Operation types the sqlite diff engine
// produces and the sqlite executor consumes, plus the Plan wrapper used to
// print a pending migration before it runs.
package migrate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iafisher/isqlite/schema"
)

// Operation is a single structural change between a live and a declared
// schema. It is implemented by CreateTable, DropTable, AddColumn,
// DropColumn, AlterColumn, RenameColumn, ReorderColumns, and RenameTable.
// Operations are plain data: produced once by the diff engine and
// consumed once by the executor.
type Operation interface {
	// Table returns the name of the table the operation concerns.
	Table() string
	// String renders a short human-readable description, used for Plan
	// printing and log messages.
	String() string
	isOperation()
}

// CreateTable creates a new table matching T in its entirety.
type CreateTable struct{ T *schema.Table }

func (o *CreateTable) Table() string { return o.T.Name() }
func (o *CreateTable) String() string {
	return fmt.Sprintf("create table %q", o.T.Name())
}
func (*CreateTable) isOperation() {}

// DropTable drops the table named Name.
type DropTable struct{ Name string }

func (o *DropTable) Table() string  { return o.Name }
func (o *DropTable) String() string { return fmt.Sprintf("drop table %q", o.Name) }
func (*DropTable) isOperation()     {}

// AddColumn adds Column to the table named TableName.
type AddColumn struct {
	TableName string
	Column    *schema.Column
}

func (o *AddColumn) Table() string { return o.TableName }
func (o *AddColumn) String() string {
	return fmt.Sprintf("add column %q.%q", o.TableName, o.Column.Name())
}
func (*AddColumn) isOperation() {}

// DropColumn drops the column named ColumnName from the table named
// TableName.
type DropColumn struct {
	TableName  string
	ColumnName string
}

func (o *DropColumn) Table() string { return o.TableName }
func (o *DropColumn) String() string {
	return fmt.Sprintf("drop column %q.%q", o.TableName, o.ColumnName)
}
func (*DropColumn) isOperation() {}

// AlterColumn replaces the column named ColumnName with NewColumn,
// keeping its name and position.
type AlterColumn struct {
	TableName  string
	ColumnName string
	NewColumn  *schema.Column
}

func (o *AlterColumn) Table() string { return o.TableName }
func (o *AlterColumn) String() string {
	return fmt.Sprintf("alter column %q.%q", o.TableName, o.ColumnName)
}
func (*AlterColumn) isOperation() {}

// RenameColumn renames OldName to NewName within the table named
// TableName, leaving every other attribute untouched.
type RenameColumn struct {
	TableName string
	OldName   string
	NewName   string
}

func (o *RenameColumn) Table() string { return o.TableName }
func (o *RenameColumn) String() string {
	return fmt.Sprintf("rename column %q.%q to %q", o.TableName, o.OldName, o.NewName)
}
func (*RenameColumn) isOperation() {}

// ReorderColumns changes the on-disk column order of the table named
// TableName to NewOrder, a full permutation of its current column names.
type ReorderColumns struct {
	TableName string
	NewOrder  []string
}

func (o *ReorderColumns) Table() string { return o.TableName }
func (o *ReorderColumns) String() string {
	return fmt.Sprintf("reorder columns of %q to [%s]", o.TableName, strings.Join(o.NewOrder, ", "))
}
func (*ReorderColumns) isOperation() {}

// RenameTable renames OldName to NewName. It is produced only on
// explicit request; the diff engine never infers a table rename.
type RenameTable struct {
	OldName string
	NewName string
}

func (o *RenameTable) Table() string  { return o.OldName }
func (o *RenameTable) String() string { return fmt.Sprintf("rename table %q to %q", o.OldName, o.NewName) }
func (*RenameTable) isOperation()     {}

// Plan is an ordered, named list of Operations awaiting execution.
type Plan struct {
	// ID identifies one planning run, independent of Name: running the
	// same diff twice produces two Plans with the same Name but
	// different IDs, which is what a log line needs to tell them apart.
	ID         string
	Name       string
	Operations []Operation
	// Reversible is always false: this module does not compute reverse
	// operations. It is carried for API parity with migration-plan
	// conventions that do (e.g. ariga.io/atlas's migrate.Plan); nothing
	// in this module sets it to true.
	Reversible bool
}

// NewPlan builds a Plan with a fresh random ID.
func NewPlan(name string, ops []Operation) *Plan {
	return &Plan{ID: uuid.NewString(), Name: name, Operations: ops}
}

// String renders the plan as one line per operation, in application order.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan %s %q (%d operations):\n", p.ID, p.Name, len(p.Operations))
	for i, op := range p.Operations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, op.String())
	}
	return b.String()
}
