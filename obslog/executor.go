package obslog

import (
	"context"
	"database/sql"
	"time"
)

// executor is the subset of crud.Executor (and of *sql.DB/*sql.Tx) Wrap
// needs; declared locally so this package never imports crud.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor decorates an executor, timing every statement it runs and
// handing the result to a Logger — a drop-in replacement for the *sql.DB/
// *sql.Tx handle a crud builder is constructed with, requiring no change to
// the crud package itself.
type Executor struct {
	inner   executor
	logger  *Logger
	verbose bool
}

// Wrap decorates exec (typically a *sql.DB or *sql.Tx) so every statement it
// runs is timed and passed to logger.Record. verbose mirrors weldctl's
// --log-queries flag: when set, every statement is logged at the ordinary
// level in addition to slow ones always being logged at the slow level.
func Wrap(exec executor, logger *Logger, verbose bool) *Executor {
	return &Executor{inner: exec, logger: logger, verbose: verbose}
}

func (e *Executor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := e.inner.ExecContext(ctx, query, args...)
	e.logger.Record(ctx, query, time.Since(start), e.verbose, err)
	return result, err
}

func (e *Executor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := e.inner.QueryContext(ctx, query, args...)
	e.logger.Record(ctx, query, time.Since(start), e.verbose, err)
	return rows, err
}

func (e *Executor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := e.inner.QueryRowContext(ctx, query, args...)
	e.logger.Record(ctx, query, time.Since(start), e.verbose, nil)
	return row
}
