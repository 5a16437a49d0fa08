package crud

import (
	"context"
	"database/sql"
	"fmt"

	"weldorm/dialect"
	"weldorm/query"
	"weldorm/schema"
)

// Decoder turns one row, readable by the alias a Select/SelectAggregate
// call assigned it, into a T — a patch, a tuple, or a scalar, per spec.md
// §4.6.
type Decoder[T any] func(RowReader) (T, error)

type columnSpec struct {
	proxy    schema.FieldProxy
	agg      dialect.Aggregator
	distinct bool
	alias    string
}

// OrderSpec is one ORDER BY term, most-significant first in the slice a
// caller builds.
type OrderSpec struct {
	Proxy schema.FieldProxy
	Desc  bool
}

// Query builds a typed SELECT against one model and decodes its result rows
// with decode.
type Query[T any] struct {
	dialect  dialect.Dialect
	exec     Executor
	registry *schema.Registry
	model    string
	decode   Decoder[T]

	columns  []columnSpec
	cond     Condition
	order    []OrderSpec
	limit    *int
	offset   *int
	distinct bool
}

// NewQuery starts a query against model (by registered name), executed
// through exec and decoded by decode.
func NewQuery[T any](d dialect.Dialect, exec Executor, registry *schema.Registry, model string, decode Decoder[T]) *Query[T] {
	return &Query[T]{dialect: d, exec: exec, registry: registry, model: model, decode: decode}
}

// Select projects proxy, unaggregated, under alias.
func (q *Query[T]) Select(alias string, proxy schema.FieldProxy) *Query[T] {
	q.columns = append(q.columns, columnSpec{proxy: proxy, alias: alias})
	return q
}

// SelectAggregate projects agg(proxy) under alias — the "aggregated
// scalars" terminator path of spec.md §4.6.
func (q *Query[T]) SelectAggregate(alias string, agg dialect.Aggregator, proxy schema.FieldProxy) *Query[T] {
	q.columns = append(q.columns, columnSpec{proxy: proxy, agg: agg, alias: alias})
	return q
}

// Where attaches the query's condition.
func (q *Query[T]) Where(cond Condition) *Query[T] {
	q.cond = cond
	return q
}

// OrderBy appends one ordering term.
func (q *Query[T]) OrderBy(proxy schema.FieldProxy, desc bool) *Query[T] {
	q.order = append(q.order, OrderSpec{Proxy: proxy, Desc: desc})
	return q
}

// Limit caps the number of rows returned.
func (q *Query[T]) Limit(n int) *Query[T] { q.limit = &n; return q }

// Offset skips the first n matching rows.
func (q *Query[T]) Offset(n int) *Query[T] { q.offset = &n; return q }

// Range restricts the result to the half-open row range [start, end).
func (q *Query[T]) Range(start, end int) *Query[T] {
	n := end - start
	q.offset = &start
	q.limit = &n
	return q
}

// Distinct deduplicates result rows.
func (q *Query[T]) Distinct() *Query[T] { q.distinct = true; return q }

func (q *Query[T]) build() (string, []any, error) {
	if len(q.columns) == 0 {
		return "", nil, newBuildError("query against %q has no selected columns", q.model)
	}

	ctx := query.New(q.registry, q.model)
	cols := make([]dialect.SelectColumn, 0, len(q.columns))
	for _, c := range q.columns {
		ref, err := ctx.AddField(c.proxy)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, dialect.SelectColumn{Column: ref, Aggregate: c.agg, Distinct: c.distinct, Alias: c.alias})
	}

	var orderBy []dialect.OrderTerm
	for _, o := range q.order {
		ref, err := ctx.AddField(o.Proxy)
		if err != nil {
			return "", nil, err
		}
		orderBy = append(orderBy, dialect.OrderTerm{Column: ref, Desc: o.Desc})
	}

	where, err := resolveCondition(ctx, q.cond)
	if err != nil {
		return "", nil, err
	}

	stmt := dialect.SelectStatement{
		Table:    q.model,
		Columns:  cols,
		Joins:    ctx.Joins(),
		Where:    where,
		OrderBy:  orderBy,
		Limit:    q.limit,
		Offset:   q.offset,
		Distinct: q.distinct,
	}
	sqlText, args := q.dialect.Select(stmt)
	return sqlText, args, nil
}

// All runs the query and decodes every matching row.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	sqlText, args, err := q.build()
	if err != nil {
		return nil, err
	}
	rows, err := q.exec.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("crud: querying %q: %w", q.model, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		reader, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		v, err := q.decode(reader)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crud: iterating %q rows: %w", q.model, err)
	}
	return out, nil
}

// One returns the single matching row, erroring if none matched.
func (q *Query[T]) One(ctx context.Context) (T, error) {
	var zero T
	rows, err := q.All(ctx)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("crud: query against %q matched no rows", q.model)
	}
	return rows[0], nil
}

// Optional returns the single matching row, or nil if none matched.
func (q *Query[T]) Optional(ctx context.Context) (*T, error) {
	rows, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Stream opens a lazy, pull-based cursor over the matching rows: back
// pressure comes from how fast the caller calls Next, and the underlying
// connection is held until Close or full consumption — spec.md §5's
// streaming semantics.
func (q *Query[T]) Stream(ctx context.Context) (*Stream[T], error) {
	sqlText, args, err := q.build()
	if err != nil {
		return nil, err
	}
	rows, err := q.exec.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("crud: querying %q: %w", q.model, err)
	}
	return &Stream[T]{rows: rows, decode: q.decode, model: q.model}, nil
}

// Stream is a lazily-consumed sequence of decoded rows, holding one
// connection open until Close or exhaustion.
type Stream[T any] struct {
	rows   *sql.Rows
	decode Decoder[T]
	model  string
	cur    T
	err    error
}

// Next advances to the next row, returning false at end-of-stream or on
// error (distinguish the two with Err).
func (s *Stream[T]) Next() bool {
	if s.err != nil || !s.rows.Next() {
		return false
	}
	reader, err := scanRow(s.rows)
	if err != nil {
		s.err = err
		return false
	}
	v, err := s.decode(reader)
	if err != nil {
		s.err = err
		return false
	}
	s.cur = v
	return true
}

// Value returns the row most recently produced by Next.
func (s *Stream[T]) Value() T { return s.cur }

// Err returns the first error encountered, if any, including the
// underlying *sql.Rows' terminal error.
func (s *Stream[T]) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.rows.Err()
}

// Close releases the underlying connection. Safe to call after full
// consumption or at any earlier point to abandon the stream.
func (s *Stream[T]) Close() error {
	return s.rows.Close()
}
