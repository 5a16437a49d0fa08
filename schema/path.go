package schema

// PathStep is one hop across a foreign-key relation. For a forward hop,
// FieldName is the FK column on the near (parent) side and Model is the
// table it points at. For a back-reference hop (Reverse set), the relation
// runs the other way: FieldName is the FK column living on Model that
// points back at the parent, the runtime counterpart of rorm's symmetric
// handling of BackRef paths (original_source/src/fields/types/back_ref.rs).
// Go has no type-level equivalent of rorm's PathStep<F, P> generic chaining
// (original_source/rorm/src/internal/relation_path.rs), so a Path here is a
// plain runtime value: an ordered slice of hops from the queried model out to
// wherever the field actually lives.
type PathStep struct {
	FieldName string
	Model     string
	Reverse   bool
}

// Back builds a back-reference hop: field is the FK column on model that
// points back at the parent row.
func Back(field, model string) PathStep {
	return PathStep{FieldName: field, Model: model, Reverse: true}
}

// Path is the chain of relation hops a field is reached through. A nil/empty
// Path means the field lives directly on the model being queried.
type Path []PathStep

// Extend returns a new Path with step appended, leaving the receiver
// untouched.
func (p Path) Extend(step PathStep) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, step)
}

// FieldProxy names one column reachable from a base model, optionally
// through a relation Path — the runtime analogue of rorm's
// FieldProxy<F, P> phantom type.
type FieldProxy struct {
	Path  Path
	Field string
}

// F builds a FieldProxy for a field on the directly-queried model.
func F(field string) FieldProxy {
	return FieldProxy{Field: field}
}

// Through rebinds the proxy to be reached via an additional relation hop,
// prepended so the resulting Path still reads outward from the root model.
func (p FieldProxy) Through(step PathStep) FieldProxy {
	return FieldProxy{Path: append(Path{step}, p.Path...), Field: p.Field}
}
