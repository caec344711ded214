package main

import (
	"errors"

	"github.com/iafisher/isqlite/schema"
	"github.com/iafisher/isqlite/sqlite"
)

// usageError marks a bad invocation: a missing flag, an unregistered
// schema name, or an invalid column definition. It always maps to exit
// code 1.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// exitCodeFor maps an error returned from a command's RunE to the
// process exit code Execute returns.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var integrity *sqlite.IntegrityViolation
	if errors.As(err, &integrity) {
		return 3
	}
	// Apply wraps a PreconditionError in a MigrationExecutionError, so the
	// precondition check must come first for it to map to 1.
	var precond *sqlite.PreconditionError
	if errors.As(err, &precond) {
		return 1
	}
	var execErr *sqlite.MigrationExecutionError
	if errors.As(err, &execErr) {
		return 2
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return 1
	}
	var buildErr *schema.SchemaBuildError
	if errors.As(err, &buildErr) {
		return 1
	}
	return 1
}
