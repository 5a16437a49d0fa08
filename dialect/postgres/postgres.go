// Package postgres provides the PostgreSQL dialect.Flavor: "$N" positional
// placeholders, double-quoted identifiers, and SERIAL-style auto-increment —
// grounded on xataio-pgroll's use of lib/pq for connection handling, adapted
// here into a Flavor rather than a migration-specific tool.
package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"weldorm/dialect"
	"weldorm/imr"
)

func init() {
	dialect.Register(dialect.PostgreSQL, func() dialect.Dialect {
		return New()
	})
}

// New builds the PostgreSQL dialect.
func New() dialect.Dialect {
	return dialect.NewBase(dialect.Flavor{
		Type:             dialect.PostgreSQL,
		QuoteIdent:       quoteIdentifier,
		QuoteStr:         quoteString,
		Placeholder:        func(i int) string { return "$" + strconv.Itoa(i) },
		ColumnDefinition:   columnDefinition,
		AutoUpdateTriggers: autoUpdateTriggers,
		TransactionalDDL:   true,
		Driver:             "postgres",
	})
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func sqlType(f imr.Field) string {
	autoIncrement := f.HasAnnotation(imr.KindAutoIncrement)

	switch f.DBType {
	case imr.VarChar:
		length := 255
		if ml := f.Annotation(imr.KindMaxLength); ml != nil && ml.MaxLength != nil {
			length = int(*ml.MaxLength)
		}
		return "VARCHAR(" + strconv.Itoa(length) + ")"
	case imr.VarBinary:
		return "BYTEA"
	case imr.Int8, imr.Int16, imr.UInt8:
		if autoIncrement {
			return "SMALLSERIAL"
		}
		return "SMALLINT"
	case imr.Int32, imr.UInt16:
		if autoIncrement {
			return "SERIAL"
		}
		return "INTEGER"
	case imr.Int64, imr.UInt32:
		if autoIncrement {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case imr.Float:
		return "REAL"
	case imr.Double:
		return "DOUBLE PRECISION"
	case imr.Boolean:
		return "BOOLEAN"
	case imr.Date:
		return "DATE"
	case imr.DateTime:
		return "TIMESTAMP"
	case imr.Timestamp:
		return "TIMESTAMPTZ"
	case imr.Time:
		return "TIME"
	case imr.Choices:
		return "VARCHAR(255)"
	case imr.Set:
		return "TEXT[]"
	default:
		return "TEXT"
	}
}

func columnDefinition(f imr.Field) string {
	def := sqlType(f)

	if f.HasAnnotation(imr.KindNotNull) || f.HasAnnotation(imr.KindPrimaryKey) {
		def += " NOT NULL"
	}
	if f.HasAnnotation(imr.KindAutoCreateTime) {
		def += " DEFAULT now()"
	}
	if dv := f.Annotation(imr.KindDefaultValue); dv != nil && dv.DefaultValue != nil {
		def += " DEFAULT " + defaultLiteral(*dv.DefaultValue)
	}
	if f.HasAnnotation(imr.KindPrimaryKey) {
		def += " PRIMARY KEY"
	}
	if f.HasAnnotation(imr.KindUnique) {
		def += " UNIQUE"
	}

	return def
}

// autoUpdateTriggers emits the function+trigger pair Postgres needs, since
// unlike MySQL it has no "ON UPDATE CURRENT_TIMESTAMP" column clause.
func autoUpdateTriggers(table string, f imr.Field) []string {
	fn := fmt.Sprintf("weldorm_touch_%s_%s", table, f.Name)
	return []string{
		fmt.Sprintf(
			"CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$ BEGIN NEW.%s = now(); RETURN NEW; END; $$ LANGUAGE plpgsql",
			fn, quoteIdentifier(f.Name),
		),
		fmt.Sprintf(
			"CREATE TRIGGER %s BEFORE UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
			quoteIdentifier(fn), quoteIdentifier(table), fn,
		),
	}
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
			return "TRUE"
		}
		return "FALSE"
	default:
		return "NULL"
	}
}
