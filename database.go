// Package isqlite ties the schema model, the live introspector, the diff
// engine, and the migration executor together behind one façade: open a
// database, diff it against a declared schema.Schema, and apply the
// resulting operations.
package isqlite

import (
	"context"
	"log/slog"

	"github.com/iafisher/isqlite/isqlitelog"
	"github.com/iafisher/isqlite/migrate"
	"github.com/iafisher/isqlite/schema"
	"github.com/iafisher/isqlite/sqlite"
)

// Database wraps one open SQLite connection plus the options it was
// opened with. It is not safe for concurrent use by multiple goroutines,
// matching the single-connection contract of sqlite.Conn.
type Database struct {
	conn           *sqlite.Conn
	logger         *slog.Logger
	readonly       bool
	foreignKeysOff bool
	timestampKind  schema.TimestampKind
}

// Option configures a Database at Open time.
type Option func(*Database)

// WithReadonly opens the database read-only; Migrate and ApplyDiff still
// run, but a read-only connection will reject the writes they issue,
// surfacing as a MigrationExecutionError.
func WithReadonly() Option {
	return func(d *Database) { d.readonly = true }
}

// WithoutForeignKeys disables foreign-key enforcement for the lifetime
// of the Database, rather than only for the duration of a migration.
func WithoutForeignKeys() Option {
	return func(d *Database) { d.foreignKeysOff = true }
}

// WithEpochTimestamps switches AutoTable's created_at/last_updated_at
// columns to integer Unix-epoch seconds instead of the ISO-8601 text
// default.
func WithEpochTimestamps() Option {
	return func(d *Database) { d.timestampKind = schema.TimestampEpochSeconds }
}

// WithLogger supplies a *slog.Logger for migration progress and
// ambiguous-rename warnings. Without it, Open falls back to
// isqlitelog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Database) { d.logger = logger }
}

// Open opens dsn with the modernc.org/sqlite driver and applies opts.
func Open(dsn string, opts ...Option) (*Database, error) {
	d := &Database{timestampKind: schema.TimestampISO8601}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = isqlitelog.Default()
	}

	openDSN := dsn
	if d.readonly {
		openDSN = dsn + "?mode=ro"
	}
	conn, err := sqlite.Open(openDSN)
	if err != nil {
		return nil, err
	}
	d.conn = conn

	if err := conn.SetPragmaBool(context.Background(), "foreign_keys", !d.foreignKeysOff); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return d, nil
}

// TimestampKind reports the TimestampKind new AutoTables built for this
// Database should use.
func (d *Database) TimestampKind() schema.TimestampKind { return d.timestampKind }

// Diff inspects the live schema and returns the operations needed to
// bring it to declared. Ambiguous-rename warnings are logged and, unless
// opts.StrictRename is set, folded into a drop+add pair rather than
// failing the call.
func (d *Database) Diff(ctx context.Context, declared *schema.Schema, opts sqlite.DiffOptions) ([]migrate.Operation, error) {
	live, err := sqlite.Inspect(ctx, d.conn)
	if err != nil {
		return nil, err
	}
	ops, warnings, err := sqlite.Diff(declared, live, opts)
	for _, w := range warnings {
		d.logger.Warn("ambiguous rename, falling back to drop+add",
			"table", w.Table, "column", w.OldColumn, "candidates", w.Candidates)
	}
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// ApplyDiff executes ops against the database in one migration.
func (d *Database) ApplyDiff(ctx context.Context, ops []migrate.Operation) error {
	return sqlite.Apply(ctx, d.conn, ops, d.logger)
}

// Migrate diffs the live schema against declared and applies the result
// in one call; it is Diff followed by ApplyDiff.
func (d *Database) Migrate(ctx context.Context, declared *schema.Schema, opts sqlite.DiffOptions) error {
	ops, err := d.Diff(ctx, declared, opts)
	if err != nil {
		return err
	}
	return d.ApplyDiff(ctx, ops)
}

// RenameColumn renames a single column as a one-operation migration,
// without running the diff engine (which can also infer a column rename
// when DiffOptions.DetectRenaming is set).
func (d *Database) RenameColumn(ctx context.Context, table, oldName, newName string) error {
	return d.ApplyDiff(ctx, []migrate.Operation{
		&migrate.RenameColumn{TableName: table, OldName: oldName, NewName: newName},
	})
}

// RenameTable renames a single table as a one-operation migration. The
// diff engine never infers a table rename.
func (d *Database) RenameTable(ctx context.Context, oldName, newName string) error {
	return d.ApplyDiff(ctx, []migrate.Operation{
		&migrate.RenameTable{OldName: oldName, NewName: newName},
	})
}

// Conn exposes the underlying connection façade for callers that need to
// run raw queries alongside schema operations (e.g. seeding test data).
func (d *Database) Conn() *sqlite.Conn { return d.conn }

// Close closes the database connection, rolling back any open
// transaction first.
func (d *Database) Close() error { return d.conn.Close() }
