package crud

import (
	"context"
	"fmt"
	"sort"

	"weldorm/dialect"
	"weldorm/query"
	"weldorm/schema"
)

// Update builds an UPDATE against one model. At least one Set call is
// required before Exec; spec.md §4.2 makes an empty column list a build
// error rather than a silent no-op UPDATE.
type Update struct {
	dialect  dialect.Dialect
	exec     Executor
	registry *schema.Registry
	model    string

	sets map[string]any
	cond Condition
}

// NewUpdate starts an update against model.
func NewUpdate(d dialect.Dialect, exec Executor, registry *schema.Registry, model string) *Update {
	return &Update{dialect: d, exec: exec, registry: registry, model: model, sets: map[string]any{}}
}

// Set stages one column assignment.
func (u *Update) Set(field string, value any) *Update {
	u.sets[field] = value
	return u
}

// Where attaches the update's condition; omitted, the update touches every
// row (same as Delete's explicit All()).
func (u *Update) Where(cond Condition) *Update {
	u.cond = cond
	return u
}

// Exec runs the update and returns the number of affected rows.
func (u *Update) Exec(ctx context.Context) (int64, error) {
	if len(u.sets) == 0 {
		return 0, newBuildError("update against %q has no set() calls", u.model)
	}

	ctxq := query.New(u.registry, u.model)
	where, err := resolveCondition(ctxq, u.cond)
	if err != nil {
		return 0, err
	}

	columns := make([]string, 0, len(u.sets))
	for c := range u.sets {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	values := make([]dialect.Value, len(columns))
	for i, c := range columns {
		values[i] = dialect.Val(u.sets[c])
	}

	sqlText, args := u.dialect.Update(dialect.UpdateStatement{
		Table:   u.model,
		Columns: columns,
		Values:  values,
		Where:   where,
	})

	result, err := u.exec.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("crud: update %q: %w", u.model, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("crud: reading affected rows for update on %q: %w", u.model, err)
	}
	return n, nil
}
