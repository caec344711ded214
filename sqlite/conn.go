// Package sqlite ties the schema model, the ddl parser, and the migrate
// operation types together: it introspects a live SQLite database,
// diffs it against a declared schema.Schema, and executes the resulting
// migrate.Operation list, using the SQLite table-rebuild protocol
// whenever a plain ALTER TABLE cannot express the change.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// Rows is the narrow row-scanning surface the introspector needs; it is
// satisfied by *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// ExecQuerier is the narrow contract the introspector and executor use
// to talk to SQLite: Exec for DDL/DML, Query for reads. Both *sql.DB and
// *sql.Tx satisfy it.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn is a transaction/connection façade: a thin
// contract exposing execute, begin/commit/rollback, and pragma access.
// A *Conn owns one *sql.DB for its lifetime and is not safe for
// concurrent use — the executor assumes no concurrent writer exists on
// the same connection.
type Conn struct {
	db *sql.DB
	tx *sql.Tx
}

// Open opens dsn with the modernc.org/sqlite driver and wraps it in a Conn.
func Open(dsn string) (*Conn, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &Conn{db: db}, nil
}

// FromDB wraps an already-open *sql.DB. Used by callers that manage the
// connection pool themselves (e.g. tests sharing an in-memory database).
func FromDB(db *sql.DB) *Conn {
	return &Conn{db: db}
}

// Querier returns the current transaction if one is open, else the
// underlying database handle.
func (c *Conn) Querier() ExecQuerier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// InTransaction reports whether a transaction is currently open.
func (c *Conn) InTransaction() bool { return c.tx != nil }

// Begin starts a transaction. It is an error to call Begin while one is
// already open.
func (c *Conn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return errAlreadyInTransaction
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

// Commit commits the open transaction.
func (c *Conn) Commit() error {
	if c.tx == nil {
		return errNoTransaction
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

// Rollback rolls back the open transaction, if any. Calling Rollback
// with no open transaction is a no-op, matching sql.Tx semantics for a
// transaction already ended.
func (c *Conn) Rollback() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Rollback()
}

// Exec executes sql with the given args against the current querier.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.Querier().ExecContext(ctx, query, args...)
}

// Query runs sql with the given args against the current querier.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.Querier().QueryContext(ctx, query, args...)
}

// PragmaBool reads a boolean-valued pragma, e.g. "foreign_keys".
func (c *Conn) PragmaBool(ctx context.Context, name string) (bool, error) {
	rows, err := c.Query(ctx, "PRAGMA "+name)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	var v bool
	if rows.Next() {
		if err := rows.Scan(&v); err != nil {
			return false, err
		}
	}
	return v, rows.Err()
}

// SetPragmaBool sets a boolean pragma. Per SQLite, pragmas that toggle
// foreign-key enforcement are no-ops inside a transaction and must be
// issued outside of one.
func (c *Conn) SetPragmaBool(ctx context.Context, name string, v bool) error {
	val := "OFF"
	if v {
		val = "ON"
	}
	_, err := c.db.ExecContext(ctx, "PRAGMA "+name+" = "+val)
	return err
}

// Close closes the underlying database handle, rolling back any
// outstanding transaction first.
func (c *Conn) Close() error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	return c.db.Close()
}

// DB exposes the underlying *sql.DB for callers (e.g. tests) that need
// direct access outside the façade.
func (c *Conn) DB() *sql.DB { return c.db }
