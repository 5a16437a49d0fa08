// Package sqlite provides the SQLite dialect.Flavor: dynamic column typing,
// "?" placeholders, unquoted identifiers (spec.md §4.2's legacy-compatible
// SQLite behavior), and an explicit AFTER UPDATE trigger to emulate MySQL's
// ON UPDATE CURRENT_TIMESTAMP clause, which SQLite has no equivalent
// column-level shorthand for.
package sqlite

import (
	"fmt"
	"strings"

	"weldorm/dialect"
	"weldorm/imr"
)

func init() {
	dialect.Register(dialect.SQLite, func() dialect.Dialect {
		return New()
	})
}

// New builds the SQLite dialect.
func New() dialect.Dialect {
	return dialect.NewBase(dialect.Flavor{
		Type:               dialect.SQLite,
		QuoteIdent:         quoteIdentifier,
		QuoteStr:           quoteString,
		Placeholder:        func(int) string { return "?" },
		ColumnDefinition:   columnDefinition,
		AutoUpdateTriggers: autoUpdateTriggers,
		TransactionalDDL:   true,
		Driver:             "sqlite3",
	})
}

// quoteIdentifier leaves the identifier bare: SQLite's legacy behavior,
// preserved for compatibility rather than the quoted form MySQL/Postgres use.
func quoteIdentifier(name string) string {
	return name
}

func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func sqlType(f imr.Field) string {
	switch f.DBType {
	case imr.VarChar, imr.Choices:
		return "TEXT"
	case imr.VarBinary:
		return "BLOB"
	case imr.Int8, imr.Int16, imr.Int32, imr.Int64, imr.UInt8, imr.UInt16, imr.UInt32:
		return "INTEGER"
	case imr.Float, imr.Double:
		return "REAL"
	case imr.Boolean:
		return "BOOLEAN"
	case imr.Date, imr.DateTime, imr.Timestamp, imr.Time:
		return "TEXT"
	case imr.Set:
		return "TEXT"
	default:
		return "TEXT"
	}
}

func columnDefinition(f imr.Field) string {
	def := sqlType(f)

	if f.HasAnnotation(imr.KindPrimaryKey) {
		// SQLite aliases a lone INTEGER PRIMARY KEY column to the table's
		// rowid, which is also the only column AUTOINCREMENT may attach to.
		def = "INTEGER PRIMARY KEY"
		if f.HasAnnotation(imr.KindAutoIncrement) {
			def += " AUTOINCREMENT"
		}
		return def
	}

	if f.HasAnnotation(imr.KindNotNull) {
		def += " NOT NULL"
	}
	if f.HasAnnotation(imr.KindAutoCreateTime) {
		def += " DEFAULT CURRENT_TIMESTAMP"
	}
	if dv := f.Annotation(imr.KindDefaultValue); dv != nil && dv.DefaultValue != nil {
		def += " DEFAULT " + defaultLiteral(*dv.DefaultValue)
	}
	if f.HasAnnotation(imr.KindUnique) {
		def += " UNIQUE"
	}

	return def
}

func defaultLiteral(dv imr.DefaultValue) string {
	switch {
	case dv.String != nil:
		return quoteString(*dv.String)
	case dv.Integer != nil:
		return fmt.Sprintf("%d", *dv.Integer)
	case dv.Float != nil:
		return fmt.Sprintf("%v", *dv.Float)
	case dv.Boolean != nil:
		if *dv.Boolean {
			return "1"
		}
		return "0"
	default:
		return "NULL"
	}
}

func autoUpdateTriggers(table string, f imr.Field) []string {
	trigger := fmt.Sprintf("weldorm_touch_%s_%s", table, f.Name)
	return []string{
		fmt.Sprintf(
			"CREATE TRIGGER %s AFTER UPDATE ON %s BEGIN UPDATE %s SET %s = CURRENT_TIMESTAMP WHERE rowid = NEW.rowid; END",
			quoteIdentifier(trigger), quoteIdentifier(table), quoteIdentifier(table), quoteIdentifier(f.Name),
		),
	}
}
