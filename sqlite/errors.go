package sqlite

import (
	"errors"
	"fmt"

	"github.com/iafisher/isqlite/migrate"
)

var (
	errAlreadyInTransaction = errors.New("isqlite: a transaction is already open on this connection")
	errNoTransaction        = errors.New("isqlite: no transaction is open on this connection")
)

// IntrospectionError reports that the live database contains SQL the ddl
// parser cannot understand, or that sqlite_master is missing rows the
// introspector expected.
type IntrospectionError struct {
	Table string
	Err   error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("isqlite: introspecting table %q: %v", e.Table, e.Err)
}
func (e *IntrospectionError) Unwrap() error { return e.Err }

// DiffAmbiguityError reports that rename detection would not commit to a
// rename for a dropped column: its one candidate at the same index has a
// definition (ignoring name) that another declared column of the table
// also has, or more than one candidate matched. It is returned as a
// warning — the engine falls back to drop+add — unless the caller asked
// for strict mode via DiffOptions.StrictRename.
type DiffAmbiguityError struct {
	Table      string
	OldColumn  string
	Candidates []string
}

func (e *DiffAmbiguityError) Error() string {
	return fmt.Sprintf("isqlite: ambiguous rename for %q.%q: candidates %v", e.Table, e.OldColumn, e.Candidates)
}

// MigrationExecutionError reports a DDL/DML failure during ApplyDiff.
// The transaction has already been rolled back and the foreign-key
// pragma restored by the time this error is returned.
type MigrationExecutionError struct {
	Op  migrate.Operation
	Err error
}

func (e *MigrationExecutionError) Error() string {
	return fmt.Sprintf("isqlite: applying operation %q: %v", e.Op.String(), e.Err)
}
func (e *MigrationExecutionError) Unwrap() error { return e.Err }

// ForeignKeyViolation names one row that PRAGMA foreign_key_check
// reported after a migration committed.
type ForeignKeyViolation struct {
	Table      string
	RowID      int64
	Parent     string
	ForeignKey int64
}

// IntegrityViolation reports that PRAGMA foreign_key_check found
// dangling references after a migration's transaction committed.
type IntegrityViolation struct {
	Violations []ForeignKeyViolation
}

func (e *IntegrityViolation) Error() string {
	return fmt.Sprintf("isqlite: migration violated referential integrity: %d row(s) affected", len(e.Violations))
}

// PreconditionError reports a precondition failure detected before any
// mutation: a temporary-name collision, a rename target that already
// exists, or a table/column named by an explicit single-operation
// command that does not exist.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("isqlite: precondition failed: %s", e.Reason)
}
