// Package mysql provides the MySQL dialect.Flavor, grounded on the teacher's
// own internal/dialect/mysql package (type spelling, quoting with
// backticks, AUTO_INCREMENT placement) but generalized from "diff an
// existing MySQL schema" to "render DDL/DML from an imr.Model."
package mysql

import (
	"fmt"
	"strconv"
	"strings"

	"weldorm/dialect"
	"weldorm/imr"
)

func init() {
	dialect.Register(dialect.MySQL, func() dialect.Dialect {
		return New()
	})
}

// New builds the MySQL dialect.
func New() dialect.Dialect {
	return dialect.NewBase(dialect.Flavor{
		Type:             dialect.MySQL,
		QuoteIdent:       quoteIdentifier,
		QuoteStr:         quoteString,
		Placeholder:      func(int) string { return "?" },
		ColumnDefinition: columnDefinition,
		TransactionalDDL: false,
		Driver:           "mysql",
	})
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func sqlType(f imr.Field) string {
	switch f.DBType {
	case imr.VarChar:
		length := 255
		if ml := f.Annotation(imr.KindMaxLength); ml != nil && ml.MaxLength != nil {
			length = int(*ml.MaxLength)
		}
		return "VARCHAR(" + strconv.Itoa(length) + ")"
	case imr.VarBinary:
		length := 255
		if ml := f.Annotation(imr.KindMaxLength); ml != nil && ml.MaxLength != nil {
			length = int(*ml.MaxLength)
		}
		return "VARBINARY(" + strconv.Itoa(length) + ")"
	case imr.Int8:
		return "TINYINT"
	case imr.Int16:
		return "SMALLINT"
	case imr.Int32:
		return "INT"
	case imr.Int64:
		return "BIGINT"
	case imr.UInt8:
		return "TINYINT UNSIGNED"
	case imr.UInt16:
		return "SMALLINT UNSIGNED"
	case imr.UInt32:
		return "INT UNSIGNED"
	case imr.Float:
		return "FLOAT"
	case imr.Double:
		return "DOUBLE"
	case imr.Boolean:
		return "BOOLEAN"
	case imr.Date:
		return "DATE"
	case imr.DateTime:
		return "DATETIME"
	case imr.Timestamp:
		return "TIMESTAMP"
	case imr.Time:
		return "TIME"
	case imr.Choices, imr.Set:
		return choicesType(f)
	default:
		return "TEXT"
	}
}

func choicesType(f imr.Field) string {
	ann := f.Annotation(imr.KindChoices)
	if ann == nil || len(ann.Choices) == 0 {
		return "VARCHAR(255)"
	}
	kind := "ENUM"
	if f.DBType == imr.Set {
		kind = "SET"
	}
	quoted := make([]string, len(ann.Choices))
	for i, c := range ann.Choices {
		quoted[i] = quoteString(c)
	}
	return kind + "(" + strings.Join(quoted, ", ") + ")"
}

func columnDefinition(f imr.Field) string {
	def := sqlType(f)

	if f.HasAnnotation(imr.KindNotNull) || f.HasAnnotation(imr.KindPrimaryKey) {
		def += " NOT NULL"
	}
	if f.HasAnnotation(imr.KindAutoCreateTime) {
		def += " DEFAULT CURRENT_TIMESTAMP"
	}
	if f.HasAnnotation(imr.KindAutoUpdateTime) {
		def += " DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"
	}
	if dv := f.Annotation(imr.KindDefaultValue); dv != nil && dv.DefaultValue != nil {
		def += " DEFAULT " + defaultLiteral(*dv.DefaultValue)
	}
	if f.HasAnnotation(imr.KindPrimaryKey) {
		def += " PRIMARY KEY"
	}
	if f.HasAnnotation(imr.KindAutoIncrement) {
		def += " AUTO_INCREMENT"
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
