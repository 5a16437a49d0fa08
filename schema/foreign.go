package schema

import "context"

// ForeignModelReference is a many-to-one link to another model's row. It is
// a true sum type — Key(primary key) or Instance(*T) — mirroring rorm's
// ForeignModelByField (original_source/src/fields/types/foreign_model.rs),
// rather than collapsing the link to a bare key the way many Go ORMs do.
type ForeignModelReference[T any] struct {
	isInstance bool
	key        any
	instance   *T
}

// KeyRef builds a reference holding only the other row's primary key.
func KeyRef[T any](key any) ForeignModelReference[T] {
	return ForeignModelReference[T]{key: key}
}

// InstanceRef builds a reference already holding the queried row.
func InstanceRef[T any](instance *T) ForeignModelReference[T] {
	return ForeignModelReference[T]{isInstance: true, instance: instance}
}

// IsInstance reports whether the reference already holds the instance.
func (r ForeignModelReference[T]) IsInstance() bool {
	return r.isInstance
}

// Instance returns the held instance, if any.
func (r ForeignModelReference[T]) Instance() (*T, bool) {
	if r.isInstance {
		return r.instance, true
	}
	return nil, false
}

// Key returns the referenced row's primary key. Callers must supply keyOf to
// extract it when the reference already holds an Instance.
func (r ForeignModelReference[T]) Key(keyOf func(*T) any) any {
	if r.isInstance {
		return keyOf(r.instance)
	}
	return r.key
}

// TakeOrQuery returns the referenced instance, fetching it through fetch if
// only a key is held, and caching the result for subsequent calls — the Go
// analogue of ForeignModelByField::take_or_query.
func (r *ForeignModelReference[T]) TakeOrQuery(ctx context.Context, fetch func(ctx context.Context, key any) (*T, error)) (*T, error) {
	if r.isInstance {
		return r.instance, nil
	}
	instance, err := fetch(ctx, r.key)
	if err != nil {
		return nil, err
	}
	r.instance = instance
	r.isInstance = true
	return instance, nil
}
