package crud

import (
	"context"
	"fmt"

	"weldorm/dialect"
	"weldorm/query"
	"weldorm/schema"
)

// Delete builds a DELETE against one model. Unlike Update, an unconditioned
// Delete is never implicit: callers must reach for All() explicitly to
// delete every row, mirroring spec.md §4.6's deliberate "plus an explicit
// all" entry point.
type Delete struct {
	dialect  dialect.Dialect
	exec     Executor
	registry *schema.Registry
	model    *schema.ModelDescriptor
}

// NewDelete starts a delete against model.
func NewDelete(d dialect.Dialect, exec Executor, registry *schema.Registry, model *schema.ModelDescriptor) *Delete {
	return &Delete{dialect: d, exec: exec, registry: registry, model: model}
}

// Single deletes the one row identified by patch's primary-key value.
func (d *Delete) Single(ctx context.Context, patch Patch) (int64, error) {
	pk := d.model.PrimaryKey()
	if pk == nil {
		return 0, newBuildError("model %q has no primary key", d.model.Name)
	}
	key, ok := patch[pk.Name]
	if !ok {
		return 0, newBuildError("patch for %q is missing its primary key %q", d.model.Name, pk.Name)
	}
	return d.Condition(ctx, Eq(schema.F(pk.Name), key))
}

// Bulk deletes every row whose primary key appears in patches, in one
// round-trip — a disjunction over primary keys.
func (d *Delete) Bulk(ctx context.Context, patches []Patch) (int64, error) {
	if len(patches) == 0 {
		return 0, nil
	}
	pk := d.model.PrimaryKey()
	if pk == nil {
		return 0, newBuildError("model %q has no primary key", d.model.Name)
	}

	keys := make([]any, 0, len(patches))
	for _, p := range patches {
		key, ok := p[pk.Name]
		if !ok {
			return 0, newBuildError("patch for %q is missing its primary key %q", d.model.Name, pk.Name)
		}
		keys = append(keys, key)
	}
	return d.Condition(ctx, In{Field: schema.F(pk.Name), Values: keys})
}

// Condition deletes every row matching cond.
func (d *Delete) Condition(ctx context.Context, cond Condition) (int64, error) {
	ctxq := query.New(d.registry, d.model.Name)
	where, err := resolveCondition(ctxq, cond)
	if err != nil {
		return 0, err
	}
	return d.exec2(ctx, where)
}

// All unconditionally deletes every row in the model's table.
func (d *Delete) All(ctx context.Context) (int64, error) {
	return d.exec2(ctx, nil)
}

func (d *Delete) exec2(ctx context.Context, where dialect.Condition) (int64, error) {
	sqlText, args := d.dialect.Delete(dialect.DeleteStatement{Table: d.model.Name, Where: where})
	result, err := d.exec.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("crud: delete from %q: %w", d.model.Name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("crud: reading affected rows for delete on %q: %w", d.model.Name, err)
	}
	return n, nil
}
