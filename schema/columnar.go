package schema

import (
	"fmt"
	"time"
)

// ColumnarType is implemented by field value types that decompose into more
// than one physical column — the Go analogue of rorm's split between
// as_db_type.rs (naming the columns) and field/decoder.rs (encoding/decoding
// them), collapsed here into one small interface since Go lacks the
// associated-const/trait machinery the original uses to generate both at
// compile time.
type ColumnarType interface {
	// Columns returns the column-name suffixes this value occupies, appended
	// to the declaring field's name with an underscore.
	Columns() []string
	// Encode returns one value per Columns(), in the same order, ready to
	// bind into an INSERT/UPDATE statement.
	Encode() []any
	// Decode populates the receiver from scanned column values, in the same
	// order as Columns().
	Decode(values []any) error
}

// TZTimestamp is a timezone-aware instant stored as two columns: "_utc" (the
// instant, always in UTC) and "_offset" (the original zone's UTC offset in
// seconds) — the worked composite-field example of SPEC_FULL.md §D.3: two
// plain columns round-trip both "when" and "which wall-clock the caller saw".
type TZTimestamp struct {
	UTC    time.Time
	Offset int
}

// NewTZTimestamp captures t's instant and its zone's offset.
func NewTZTimestamp(t time.Time) TZTimestamp {
	_, offset := t.Zone()
	return TZTimestamp{UTC: t.UTC(), Offset: offset}
}

// Local reconstructs the original wall-clock time using the stored offset.
func (t TZTimestamp) Local() time.Time {
	loc := time.FixedZone("", t.Offset)
	return t.UTC.In(loc)
}

func (TZTimestamp) Columns() []string { return []string{"utc", "offset"} }

func (t TZTimestamp) Encode() []any {
	return []any{t.UTC, t.Offset}
}

func (t *TZTimestamp) Decode(values []any) error {
	if len(values) != 2 {
		return fmt.Errorf("schema: TZTimestamp.Decode: expected 2 values, got %d", len(values))
	}
	switch v := values[0].(type) {
	case time.Time:
		t.UTC = v.UTC()
	default:
		return fmt.Errorf("schema: TZTimestamp.Decode: column 0 is %T, not time.Time", values[0])
	}
	switch v := values[1].(type) {
	case int64:
		t.Offset = int(v)
	case int:
		t.Offset = v
	default:
		return fmt.Errorf("schema: TZTimestamp.Decode: column 1 is %T, not an integer", values[1])
	}
	return nil
}
