package apply

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"weldorm/dialect"
	"weldorm/imr"
	"weldorm/migration"
	"weldorm/obslog"
)

// metaTableModel is the bookkeeping table's own schema, rendered through the
// same dialect.Dialect as any user model — spec.md §4.4's
// "{id int pk autoincrement, updated_at datetime auto-update-time,
// migration_name varchar not-null}".
func metaTableModel(name string) imr.Model {
	return imr.Model{
		Name: name,
		Fields: []imr.Field{
			{Name: "id", DBType: imr.Int64, Annotations: []imr.Annotation{imr.PrimaryKey(), imr.AutoIncrement()}},
			{Name: "migration_name", DBType: imr.VarChar, Annotations: []imr.Annotation{imr.NotNull(), imr.MaxLengthOf(255)}},
			{Name: "updated_at", DBType: imr.DateTime, Annotations: []imr.Annotation{imr.AutoUpdateTime()}},
		},
	}
}

// Options configures one Apply run.
type Options struct {
	MetaTable string // defaults to "weldorm_migrations"
	Unsafe    bool   // allow destructive operations without confirmation
	DryRun    bool

	// Logger, when set, receives a timed record of every statement Apply
	// executes — spec.md §5's slow-statement-logging knob. LogQueries asks
	// it to also log every statement at the ordinary level, not just slow
	// ones (weldctl's --log-queries flag).
	Logger     *obslog.Logger
	LogQueries bool
}

// Result reports what Apply did.
type Result struct {
	Applied  []migration.Migration
	Preflight *PreflightResult
}

// Applier replays a migration chain against a connected database.
type Applier struct {
	db      *sql.DB
	dialect dialect.Dialect
	opts    Options
}

// NewApplier wraps an already-open database handle.
func NewApplier(db *sql.DB, d dialect.Dialect, opts Options) *Applier {
	if opts.MetaTable == "" {
		opts.MetaTable = "weldorm_migrations"
	}
	return &Applier{db: db, dialect: d, opts: opts}
}

// Apply runs spec.md §4.4's replay algorithm: ensure the meta-table exists,
// find the last-applied migration, and execute every migration strictly
// after it, in dependency order.
func (a *Applier) Apply(ctx context.Context, chain []migration.Migration) (*Result, error) {
	ordered, err := migration.Order(chain)
	if err != nil {
		return nil, err
	}

	if err := a.ensureMetaTable(ctx); err != nil {
		return nil, err
	}

	applied, err := a.appliedMigrationNames(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := a.pendingMigrations(ordered, applied)
	if err != nil {
		return nil, err
	}

	preflight := a.preflightAll(pending)
	if HasDestructiveOperations(preflight) && !a.opts.Unsafe {
		return &Result{Preflight: preflight}, fmt.Errorf("apply: destructive operations detected; pass Unsafe to proceed")
	}
	if a.opts.DryRun {
		return &Result{Preflight: preflight}, nil
	}

	var done []migration.Migration
	for _, m := range pending {
		if err := a.applyOne(ctx, m); err != nil {
			return &Result{Applied: done, Preflight: preflight}, fmt.Errorf("apply: migration %q: %w", migration.Filename(m), err)
		}
		done = append(done, m)
	}

	return &Result{Applied: done, Preflight: preflight}, nil
}

// pendingMigrations locates the last-applied migration in ordered and
// returns everything strictly after it. An empty applied set means nothing
// has run yet, so every migration is pending. An applied name absent from
// ordered is the drift condition spec.md §4.4 says to refuse rather than
// silently skip.
func (a *Applier) pendingMigrations(ordered []migration.Migration, applied []string) ([]migration.Migration, error) {
	if len(applied) == 0 {
		return ordered, nil
	}
	last := applied[len(applied)-1]

	idx := -1
	for i, m := range ordered {
		if migration.Filename(m) == last {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("apply: last-applied migration %q is not present in the migration chain; reset the database or clear the %q table before continuing", last, a.opts.MetaTable)
	}
	return ordered[idx+1:], nil
}

func (a *Applier) applyOne(ctx context.Context, m migration.Migration) error {
	statements, err := migration.Translate(a.dialect, m)
	if err != nil {
		return err
	}

	insertSQL, insertArgs := a.dialect.Insert(dialect.InsertStatement{
		Table:   a.opts.MetaTable,
		Columns: []string{"migration_name"},
		Values:  []dialect.Value{dialect.Val(migration.Filename(m))},
	})

	if a.dialect.SupportsTransactionalDDL() {
		tx, err := a.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		for _, stmt := range statements {
			if _, err := a.execLogged(ctx, tx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing %q: %w", truncateSQL(stmt), err)
			}
		}
		if _, err := a.execLogged(ctx, tx, insertSQL, insertArgs...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration: %w", err)
		}
		return tx.Commit()
	}

	// MySQL: every DDL statement is an implicit commit, so there is no
	// transaction to wrap these in. At-most-once semantics fall entirely on
	// the meta-table record inserted last.
	for _, stmt := range statements {
		if _, err := a.execLogged(ctx, a.db, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", truncateSQL(stmt), err)
		}
	}
	if _, err := a.execLogged(ctx, a.db, insertSQL, insertArgs...); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return nil
}

func (a *Applier) preflightAll(pending []migration.Migration) *PreflightResult {
	an := newAnalyzer(a.dialect)
	var all []string
	for _, m := range pending {
		stmts, err := migration.Translate(a.dialect, m)
		if err != nil {
			continue
		}
		all = append(all, stmts...)
	}
	return an.AnalyzeStatements(all, a.opts.Unsafe)
}

func (a *Applier) ensureMetaTable(ctx context.Context) error {
	probeSQL, probeArgs := a.dialect.Select(dialect.SelectStatement{
		Table:   a.opts.MetaTable,
		Columns: []dialect.SelectColumn{{Column: "id"}},
		Limit:   intPtr(1),
	})
	if _, err := a.queryLogged(ctx, a.db, probeSQL, probeArgs...); err == nil {
		return nil
	}

	createSQL, extra := a.dialect.CreateTable(metaTableModel(a.opts.MetaTable))
	if _, err := a.execLogged(ctx, a.db, createSQL); err != nil {
		return fmt.Errorf("apply: creating meta-table %q: %w", a.opts.MetaTable, err)
	}
	for _, stmt := range extra {
		if _, err := a.execLogged(ctx, a.db, stmt); err != nil {
			return fmt.Errorf("apply: creating meta-table %q trigger: %w", a.opts.MetaTable, err)
		}
	}
	return nil
}

// appliedMigrationNames returns every recorded migration_name in insertion
// (application) order.
func (a *Applier) appliedMigrationNames(ctx context.Context) ([]string, error) {
	selectSQL, args := a.dialect.Select(dialect.SelectStatement{
		Table:   a.opts.MetaTable,
		Columns: []dialect.SelectColumn{{Column: "id"}, {Column: "migration_name"}},
		OrderBy: []dialect.OrderTerm{{Column: "id"}},
	})
	rows, err := a.queryLogged(ctx, a.db, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("apply: reading %q: %w", a.opts.MetaTable, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("apply: scanning %q: %w", a.opts.MetaTable, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// execer/queryer are the narrow slices of *sql.DB/*sql.Tx that
// execLogged/queryLogged need, local so both the transactional (tx) and
// non-transactional (a.db) call sites in applyOne/ensureMetaTable can share
// one timing wrapper.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (a *Applier) execLogged(ctx context.Context, exec execer, stmt string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := exec.ExecContext(ctx, stmt, args...)
	a.record(ctx, stmt, time.Since(start), err)
	return result, err
}

func (a *Applier) queryLogged(ctx context.Context, q queryer, stmt string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx, stmt, args...)
	a.record(ctx, stmt, time.Since(start), err)
	return rows, err
}

func (a *Applier) record(ctx context.Context, stmt string, dur time.Duration, err error) {
	a.opts.Logger.Record(ctx, stmt, dur, a.opts.LogQueries, err)
}

func intPtr(v int) *int { return &v }
