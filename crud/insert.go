package crud

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"weldorm/dialect"
	"weldorm/schema"
)

// bulkChunkSize caps the number of rows per prepared INSERT statement,
// spec.md §4.2's choice of 25 to stay clear of per-statement parameter
// limits across all three backends.
const bulkChunkSize = 25

// Patch is a structural subset of a model's fields: column name to bound
// value. Insert, Update's set() calls, and Delete's single/bulk entry
// points all operate on patches, the Go stand-in for rorm's macro-generated
// per-entity Patch structs (original_source/src/model.rs) without requiring
// code generation.
type Patch map[string]any

// Insert builds a single or bulk INSERT against one model.
type Insert struct {
	dialect   dialect.Dialect
	exec      Executor
	model     *schema.ModelDescriptor
	returning []string
}

// NewInsert starts an insert against model, executed through exec.
func NewInsert(d dialect.Dialect, exec Executor, model *schema.ModelDescriptor) *Insert {
	return &Insert{dialect: d, exec: exec, model: model}
}

// Returning requests the given columns back from the inserted row;
// defaults to the model's primary key when never called.
func (b *Insert) Returning(columns ...string) *Insert {
	b.returning = columns
	return b
}

func (b *Insert) returningColumns() []string {
	if b.returning != nil {
		return b.returning
	}
	if pk := b.model.PrimaryKey(); pk != nil {
		return []string{pk.Name}
	}
	return nil
}

// One inserts a single patch and returns the requested Returning() columns
// (primary key by default). No RETURNING clause is issued: a requested
// column present in patch is echoed from it, the primary key is otherwise
// read back via the driver's last-insert-id, and any other requested column
// absent from patch is left out of the result.
func (b *Insert) One(ctx context.Context, patch Patch) (Patch, error) {
	if len(patch) == 0 {
		return nil, newBuildError("insert into %q with an empty patch", b.model.Name)
	}
	columns, values := columnsAndValues(patch)
	sqlText, args := b.dialect.Insert(dialect.InsertStatement{Table: b.model.Name, Columns: columns, Values: values})

	result, err := b.exec.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("crud: insert into %q: %w", b.model.Name, err)
	}

	out := Patch{}
	for _, col := range b.returningColumns() {
		if v, ok := patch[col]; ok {
			out[col] = v
			continue
		}
		if pk := b.model.PrimaryKey(); pk != nil && col == pk.Name {
			if id, err := result.LastInsertId(); err == nil {
				out[col] = id
			}
		}
	}
	return out, nil
}

// Bulk chunks rows into groups of bulkChunkSize and issues one prepared
// statement per chunk inside a transaction: the one already open on exec
// (if exec is a *sql.Tx), or a fresh one this call opens and manages. A
// chunk failure rolls back everything inserted so far in the bulk —
// spec.md §8 scenario 6.
func (b *Insert) Bulk(ctx context.Context, patches []Patch) error {
	if len(patches) == 0 {
		return nil
	}
	columns := columnsOf(patches[0])

	exec := b.exec
	var managedTx *sql.Tx
	if db, ok := b.exec.(*sql.DB); ok {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("crud: opening bulk-insert transaction for %q: %w", b.model.Name, err)
		}
		managedTx = tx
		exec = tx
		defer func() {
			if managedTx != nil {
				_ = managedTx.Rollback()
			}
		}()
	}

	for start := 0; start < len(patches); start += bulkChunkSize {
		end := start + bulkChunkSize
		if end > len(patches) {
			end = len(patches)
		}
		rows := make([][]dialect.Value, 0, end-start)
		for _, p := range patches[start:end] {
			row := make([]dialect.Value, len(columns))
			for i, c := range columns {
				row[i] = dialect.Val(p[c])
			}
			rows = append(rows, row)
		}

		sqlText, args := b.dialect.InsertBulk(dialect.InsertBulkStatement{Table: b.model.Name, Columns: columns, Rows: rows})
		if _, err := exec.ExecContext(ctx, sqlText, args...); err != nil {
			return fmt.Errorf("crud: bulk insert into %q (rows %d-%d): %w", b.model.Name, start, end-1, err)
		}
	}

	if managedTx != nil {
		if err := managedTx.Commit(); err != nil {
			return fmt.Errorf("crud: committing bulk insert into %q: %w", b.model.Name, err)
		}
		managedTx = nil
	}
	return nil
}

func columnsOf(p Patch) []string {
	columns := make([]string, 0, len(p))
	for c := range p {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return columns
}

func columnsAndValues(p Patch) ([]string, []dialect.Value) {
	columns := columnsOf(p)
	values := make([]dialect.Value, len(columns))
	for i, c := range columns {
		values[i] = dialect.Val(p[c])
	}
	return columns, values
}
