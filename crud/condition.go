package crud

import (
	"weldorm/dialect"
	"weldorm/query"
	"weldorm/schema"
)

// Condition is a boolean-expression tree whose leaves reference model
// fields by schema.FieldProxy rather than already-resolved column text —
// the CRUD-layer counterpart of spec.md §3.4's Condition tree, kept
// separate from dialect.Condition because a FieldProxy's column reference
// can only be resolved once it's known which query.Context (and therefore
// which join aliases) it is being rendered against.
type Condition interface{ isCondition() }

// Compare is a binary comparison between a field and a bound value.
type Compare struct {
	Op    dialect.BinaryOp
	Field schema.FieldProxy
	Value any
}

func (Compare) isCondition() {}

// Null tests a field for IS NULL (or IS NOT NULL, if Not is set).
type Null struct {
	Field schema.FieldProxy
	Not   bool
}

func (Null) isCondition() {}

// In tests a field against a set of bound values (or its complement).
type In struct {
	Field  schema.FieldProxy
	Values []any
	Not    bool
}

func (In) isCondition() {}

// Between tests a field against an inclusive bound range (or its
// complement).
type Between struct {
	Field schema.FieldProxy
	Low   any
	High  any
	Not   bool
}

func (Between) isCondition() {}

// And conjuncts its children.
type And []Condition

func (And) isCondition() {}

// Or disjuncts its children.
type Or []Condition

func (Or) isCondition() {}

// Eq is shorthand for Compare{Op: dialect.Eq}.
func Eq(field schema.FieldProxy, value any) Condition {
	return Compare{Op: dialect.Eq, Field: field, Value: value}
}

// resolveCondition lowers a Condition into a dialect.Condition, registering
// every referenced FieldProxy (and therefore any join it needs) on ctx
// along the way.
func resolveCondition(ctx *query.Context, c Condition) (dialect.Condition, error) {
	switch v := c.(type) {
	case nil:
		return nil, nil
	case Compare:
		col, err := ctx.AddField(v.Field)
		if err != nil {
			return nil, err
		}
		return dialect.Binary{Op: v.Op, Column: col, Value: dialect.Val(v.Value)}, nil
	case Null:
		col, err := ctx.AddField(v.Field)
		if err != nil {
			return nil, err
		}
		return dialect.IsNull{Column: col, Not: v.Not}, nil
	case In:
		col, err := ctx.AddField(v.Field)
		if err != nil {
			return nil, err
		}
		values := make([]dialect.Value, len(v.Values))
		for i, val := range v.Values {
			values[i] = dialect.Val(val)
		}
		return dialect.In{Column: col, Values: values, Not: v.Not}, nil
	case Between:
		col, err := ctx.AddField(v.Field)
		if err != nil {
			return nil, err
		}
		return dialect.Between{Column: col, Low: dialect.Val(v.Low), High: dialect.Val(v.High), Not: v.Not}, nil
	case And:
		children, err := resolveChildren(ctx, v)
		if err != nil {
			return nil, err
		}
		return dialect.Conjunction(children...), nil
	case Or:
		children, err := resolveChildren(ctx, v)
		if err != nil {
			return nil, err
		}
		return dialect.Disjunction(children...), nil
	default:
		return nil, newBuildError("unknown condition type %T", c)
	}
}

func resolveChildren(ctx *query.Context, conds []Condition) ([]dialect.Condition, error) {
	out := make([]dialect.Condition, 0, len(conds))
	for _, c := range conds {
		resolved, err := resolveCondition(ctx, c)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			out = append(out, resolved)
		}
	}
	return out, nil
}
