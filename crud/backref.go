package crud

import (
	"context"

	"weldorm/schema"
)

// PopulateBackRef runs one round-trip against the model q queries — the
// back-referencing side, whose fkField points back at the owning row(s) —
// fetching every row whose fkField matches one of keys, and fills dest's
// cache with the decoded result. This is spec.md §4.6's "BackRef
// population": one disjunction over the referenced keys, never one query
// per owning row. An already-populated cache is overwritten, per
// schema.BackRef.Populate's contract.
func PopulateBackRef[T any](ctx context.Context, dest *schema.BackRef[T], q *Query[T], fkField string, keys []any) error {
	return dest.Populate(ctx, func(ctx context.Context) ([]T, error) {
		return q.Where(In{Field: schema.F(fkField), Values: keys}).All(ctx)
	})
}
