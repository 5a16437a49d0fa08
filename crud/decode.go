package crud

import (
	"database/sql"
	"fmt"
	"time"
)

// RowReader lets a Decoder pull scanned cells out of one row by the alias a
// Query assigned them — the Go counterpart of rorm's Selector::decode
// reading a rorm_db::Row by column name (original_source/src/crud/query.rs).
type RowReader struct {
	values map[string]any
}

// Column returns the raw scanned value for alias, or a DecodeError if the
// row carried no such column.
func (r RowReader) Column(alias string) (any, error) {
	v, ok := r.values[alias]
	if !ok {
		return nil, newDecodeError("column %q not present in row", alias)
	}
	return v, nil
}

// Int64 reads alias as an integer, widening from any driver-returned
// integer type.
func (r RowReader) Int64(alias string) (int64, error) {
	v, err := r.Column(alias)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, newDecodeError("column %q is %T, not an integer", alias, v)
	}
}

// String reads alias as a string, accepting both string and []byte (some
// drivers return TEXT columns as raw bytes).
func (r RowReader) String(alias string) (string, error) {
	v, err := r.Column(alias)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", newDecodeError("column %q is %T, not a string", alias, v)
	}
}

// Bool reads alias as a boolean.
func (r RowReader) Bool(alias string) (bool, error) {
	v, err := r.Column(alias)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	default:
		return false, newDecodeError("column %q is %T, not a boolean", alias, v)
	}
}

// Float64 reads alias as a floating-point number.
func (r RowReader) Float64(alias string) (float64, error) {
	v, err := r.Column(alias)
	if err != nil {
		return 0, err
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	default:
		return 0, newDecodeError("column %q is %T, not a float", alias, v)
	}
}

// Time reads alias as a time.Time.
func (r RowReader) Time(alias string) (time.Time, error) {
	v, err := r.Column(alias)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, newDecodeError("column %q is %T, not a time.Time", alias, v)
	}
	return t, nil
}

// IsNull reports whether alias scanned as SQL NULL.
func (r RowReader) IsNull(alias string) (bool, error) {
	v, err := r.Column(alias)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// Columnar decodes a multi-column field by reading width values starting at
// names[0], ..., names[n-1], in order, handing them to decode — the bridge
// between RowReader and schema.ColumnarType.Decode.
func (r RowReader) Columnar(names []string, decode func(values []any) error) error {
	values := make([]any, len(names))
	for i, n := range names {
		v, err := r.Column(n)
		if err != nil {
			return err
		}
		values[i] = v
	}
	if err := decode(values); err != nil {
		return newDecodeError("%s", err)
	}
	return nil
}

// scanRow pulls one row out of rows into a RowReader keyed by each
// projected column's alias (sql.Rows.Columns() returns exactly the AS
// aliases the dialect assigned, in select order).
func scanRow(rows *sql.Rows) (RowReader, error) {
	cols, err := rows.Columns()
	if err != nil {
		return RowReader{}, fmt.Errorf("crud: reading row columns: %w", err)
	}
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return RowReader{}, fmt.Errorf("crud: scanning row: %w", err)
	}
	values := make(map[string]any, len(cols))
	for i, c := range cols {
		values[c] = raw[i]
	}
	return RowReader{values: values}, nil
}
