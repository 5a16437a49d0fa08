package schema

import "context"

// BackRef is the reverse side of a ForeignModelReference: every row in
// another table pointing at this one. It is never populated implicitly —
// rorm deliberately avoids hidden I/O behind a field access
// (original_source/src/fields/types/back_ref.rs), and this port keeps that
// guarantee: the cache starts unset and only Populate/TakeOrQuery touch it.
type BackRef[T any] struct {
	cached []T
	loaded bool
}

// Cached returns the currently cached rows, if Populate has run.
func (b *BackRef[T]) Cached() ([]T, bool) {
	if b.loaded {
		return b.cached, true
	}
	return nil, false
}

// Populate overwrites the cache with the result of fetch, unconditionally —
// the Go analogue of BackRef::populate.
func (b *BackRef[T]) Populate(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) error {
	rows, err := fetch(ctx)
	if err != nil {
		return err
	}
	b.cached = rows
	b.loaded = true
	return nil
}

// GetOrQuery returns the cache, populating it first if empty — the Go
// analogue of BackRef::get_or_query.
func (b *BackRef[T]) GetOrQuery(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	if !b.loaded {
		if err := b.Populate(ctx, fetch); err != nil {
			return nil, err
		}
	}
	return b.cached, nil
}

// TakeOrQuery removes and returns the cache if populated, leaving the
// BackRef unpopulated again, or queries it fresh without caching the result —
// the Go analogue of BackRef::take_or_query.
func (b *BackRef[T]) TakeOrQuery(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	if b.loaded {
		rows := b.cached
		b.cached = nil
		b.loaded = false
		return rows, nil
	}
	return fetch(ctx)
}
