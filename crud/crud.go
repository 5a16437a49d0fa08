// Package crud is the typed CRUD layer of spec.md §4.6: four builders
// (Insert, Query, Update, Delete) that turn a model's field descriptors and
// relation paths into the SQL a dialect.Dialect can render, and decode
// result rows back into Go values. None of the four allows executing in a
// state missing required parameters — Go has no type-state builder pattern
// (the technique original_source/rorm/src/crud/query.rs uses, chaining
// phantom-typed builder structs), so the checks that there run at compile
// time and here run at the first call that would need the missing piece.
package crud

import (
	"context"
	"database/sql"
)

// Executor is whatever a builder executes its SQL through: either a
// *sql.DB or a *sql.Tx, both of which already satisfy this interface.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
)
