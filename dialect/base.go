package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"weldorm/imr"
)

// Flavor captures everything that differs between the three supported
// databases' SQL text; Base implements the Dialect interface once in terms
// of a Flavor, instead of each dialect package re-deriving the statement
// assembly logic the teacher's per-dialect Generator structs used to
// duplicate.
type Flavor struct {
	Type Type

	QuoteIdent func(name string) string
	QuoteStr   func(value string) string

	// Placeholder renders the i'th (1-based) bound parameter marker: "?" for
	// SQLite/MySQL, "$N" for PostgreSQL.
	Placeholder func(i int) string

	// ColumnDefinition renders one column's full DDL fragment.
	ColumnDefinition func(field imr.Field) string

	// AutoUpdateTriggers renders any extra DDL a dialect needs to keep an
	// auto_update_time column current; nil where the column definition
	// alone suffices.
	AutoUpdateTriggers func(table string, field imr.Field) []string

	// TransactionalDDL reports whether this database's DDL participates in
	// transactions (SQLite, PostgreSQL) or always implicitly commits (MySQL).
	TransactionalDDL bool

	// Driver is the database/sql driver name this flavor executes through.
	Driver string
}

// Base implements Dialect generically over a Flavor.
type Base struct {
	Flavor Flavor
}

// NewBase wraps f as a Dialect.
func NewBase(f Flavor) *Base { return &Base{Flavor: f} }

func (b *Base) Type() Type                          { return b.Flavor.Type }
func (b *Base) QuoteIdentifier(name string) string  { return b.Flavor.QuoteIdent(name) }
func (b *Base) QuoteString(value string) string     { return b.Flavor.QuoteStr(value) }
func (b *Base) ColumnDefinition(f imr.Field) string { return b.Flavor.ColumnDefinition(f) }
func (b *Base) SupportsTransactionalDDL() bool      { return b.Flavor.TransactionalDDL }
func (b *Base) DriverName() string                  { return b.Flavor.Driver }

func (b *Base) CreateTable(model imr.Model) (string, []string) {
	var cols []string
	var pkCols []string
	var fkStatements []string

	for _, f := range model.Fields {
		cols = append(cols, "  "+b.QuoteIdentifier(f.Name)+" "+b.ColumnDefinition(f))
		if f.HasAnnotation(imr.KindPrimaryKey) {
			pkCols = append(pkCols, b.QuoteIdentifier(f.Name))
		}
		if fk := f.Annotation(imr.KindForeignKey); fk != nil && fk.ForeignKey != nil {
			fkStatements = append(fkStatements, b.foreignKeyClause(f.Name, *fk.ForeignKey))
		}
	}

	// SQLite's INTEGER PRIMARY KEY column already carries rowid-alias
	// semantics; a separate table-level PRIMARY KEY clause there would be
	// redundant, so flavors fold primary-key-ness into ColumnDefinition for
	// single-column keys and only need the clause for composite keys.
	var body []string
	body = append(body, cols...)
	if len(pkCols) > 1 {
		body = append(body, "  PRIMARY KEY ("+strings.Join(pkCols, ", ")+")")
	}
	body = append(body, fkStatements...)

	stmt := fmt.Sprintf("CREATE TABLE %s (\n%s\n)", b.QuoteIdentifier(model.Name), strings.Join(body, ",\n"))

	var extra []string
	for _, f := range model.Fields {
		if f.HasAnnotation(imr.KindAutoUpdateTime) {
			extra = append(extra, b.AutoUpdateTriggers(model.Name, f)...)
		}
	}

	return stmt, extra
}

func (b *Base) AutoUpdateTriggers(table string, f imr.Field) []string {
	if b.Flavor.AutoUpdateTriggers == nil {
		return nil
	}
	return b.Flavor.AutoUpdateTriggers(table, f)
}

func (b *Base) foreignKeyClause(column string, fk imr.ForeignKeyValue) string {
	clause := fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s (%s)",
		b.QuoteIdentifier(column), b.QuoteIdentifier(fk.Table), b.QuoteIdentifier(fk.Column))
	if fk.OnDelete != "" && fk.OnDelete != imr.ActionNone {
		clause += " ON DELETE " + string(fk.OnDelete)
	}
	if fk.OnUpdate != "" && fk.OnUpdate != imr.ActionNone {
		clause += " ON UPDATE " + string(fk.OnUpdate)
	}
	return clause
}

func (b *Base) DropTable(name string) string {
	return "DROP TABLE " + b.QuoteIdentifier(name)
}

func (b *Base) CreateIndex(table string, idx IndexDef) string {
	var cols []string
	for _, c := range idx.Columns {
		cols = append(cols, b.QuoteIdentifier(c))
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, b.QuoteIdentifier(idx.Name), b.QuoteIdentifier(table), strings.Join(cols, ", "))
}

func (b *Base) DropIndex(table, name string) string {
	return "DROP INDEX " + b.QuoteIdentifier(name)
}

func (b *Base) AddColumn(table string, f imr.Field) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", b.QuoteIdentifier(table), b.QuoteIdentifier(f.Name), b.ColumnDefinition(f))
}

func (b *Base) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", b.QuoteIdentifier(table), b.QuoteIdentifier(column))
}

// --- DML ---

type paramCounter struct {
	b       *Base
	args    []any
	n       int
}

func (b *Base) newParams() *paramCounter { return &paramCounter{b: b} }

func (p *paramCounter) bind(v Value) string {
	p.n++
	p.args = append(p.args, v.Raw)
	return p.b.Flavor.Placeholder(p.n)
}

func (b *Base) renderCondition(p *paramCounter, c Condition) string {
	switch v := c.(type) {
	case nil:
		return ""
	case Binary:
		return fmt.Sprintf("%s %s %s", b.qualifiedColumn(v.Column), string(v.Op), p.bind(v.Value))
	case IsNull:
		if v.Not {
			return b.qualifiedColumn(v.Column) + " IS NOT NULL"
		}
		return b.qualifiedColumn(v.Column) + " IS NULL"
	case In:
		op := "IN"
		if v.Not {
			op = "NOT IN"
		}
		placeholders := make([]string, len(v.Values))
		for i, val := range v.Values {
			placeholders[i] = p.bind(val)
		}
		return fmt.Sprintf("%s %s (%s)", b.qualifiedColumn(v.Column), op, strings.Join(placeholders, ", "))
	case Between:
		op := "BETWEEN"
		if v.Not {
			op = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s %s AND %s", b.qualifiedColumn(v.Column), op, p.bind(v.Low), p.bind(v.High))
	case DynamicCollection:
		parts := make([]string, 0, len(v.Children))
		for _, child := range v.Children {
			parts = append(parts, b.renderCondition(p, child))
		}
		joined := strings.Join(parts, " "+string(v.Operator)+" ")
		if len(parts) > 1 {
			return "(" + joined + ")"
		}
		return joined
	default:
		return ""
	}
}

// qualifiedColumn quotes a possibly alias-qualified column reference like
// "_1.name" without quoting the dot.
func (b *Base) qualifiedColumn(ref string) string {
	if idx := strings.IndexByte(ref, '.'); idx >= 0 {
		return b.QuoteIdentifier(ref[:idx]) + "." + b.QuoteIdentifier(ref[idx+1:])
	}
	return b.QuoteIdentifier(ref)
}

func (b *Base) renderSelectColumn(sc SelectColumn) string {
	col := b.qualifiedColumn(sc.Column)
	if sc.Aggregate != "" {
		if sc.Distinct {
			col = string(sc.Aggregate) + "(DISTINCT " + col + ")"
		} else {
			col = string(sc.Aggregate) + "(" + col + ")"
		}
	}
	if sc.Alias != "" {
		col += " AS " + b.QuoteIdentifier(sc.Alias)
	}
	return col
}

func (b *Base) Select(stmt SelectStatement) (string, []any) {
	p := b.newParams()

	cols := make([]string, 0, len(stmt.Columns))
	for _, c := range stmt.Columns {
		cols = append(cols, b.renderSelectColumn(c))
	}
	if len(cols) == 0 {
		cols = []string{"*"}
	}

	distinct := ""
	if stmt.Distinct {
		distinct = "DISTINCT "
	}

	table := b.QuoteIdentifier(stmt.Table)
	if stmt.Alias != "" {
		table += " AS " + b.QuoteIdentifier(stmt.Alias)
	}

	sql := fmt.Sprintf("SELECT %s%s FROM %s", distinct, strings.Join(cols, ", "), table)

	for _, j := range stmt.Joins {
		sql += fmt.Sprintf(" JOIN %s AS %s ON %s = %s",
			b.QuoteIdentifier(j.Table), b.QuoteIdentifier(j.Alias), b.qualifiedColumn(j.LeftColumn), b.qualifiedColumn(j.RightColumn))
	}

	if stmt.Where != nil {
		sql += " WHERE " + b.renderCondition(p, stmt.Where)
	}

	if len(stmt.GroupBy) > 0 {
		qualified := make([]string, 0, len(stmt.GroupBy))
		for _, c := range stmt.GroupBy {
			qualified = append(qualified, b.qualifiedColumn(c))
		}
		sql += " GROUP BY " + strings.Join(qualified, ", ")
	}

	if len(stmt.OrderBy) > 0 {
		terms := make([]string, 0, len(stmt.OrderBy))
		for _, o := range stmt.OrderBy {
			term := b.qualifiedColumn(o.Column)
			if o.Desc {
				term += " DESC"
			}
			terms = append(terms, term)
		}
		sql += " ORDER BY " + strings.Join(terms, ", ")
	}

	if stmt.Limit != nil {
		sql += " LIMIT " + strconv.Itoa(*stmt.Limit)
	}
	if stmt.Offset != nil {
		sql += " OFFSET " + strconv.Itoa(*stmt.Offset)
	}

	return sql, p.args
}

func (b *Base) Insert(stmt InsertStatement) (string, []any) {
	p := b.newParams()

	cols := make([]string, len(stmt.Columns))
	placeholders := make([]string, len(stmt.Values))
	for i, c := range stmt.Columns {
		cols[i] = b.QuoteIdentifier(c)
	}
	for i, v := range stmt.Values {
		placeholders[i] = p.bind(v)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.QuoteIdentifier(stmt.Table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return sql, p.args
}

func (b *Base) InsertBulk(stmt InsertBulkStatement) (string, []any) {
	p := b.newParams()

	cols := make([]string, len(stmt.Columns))
	for i, c := range stmt.Columns {
		cols[i] = b.QuoteIdentifier(c)
	}

	rowGroups := make([]string, len(stmt.Rows))
	for i, row := range stmt.Rows {
		placeholders := make([]string, len(row))
		for j, v := range row {
			placeholders[j] = p.bind(v)
		}
		rowGroups[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		b.QuoteIdentifier(stmt.Table), strings.Join(cols, ", "), strings.Join(rowGroups, ", "))
	return sql, p.args
}

func (b *Base) Update(stmt UpdateStatement) (string, []any) {
	p := b.newParams()

	sets := make([]string, len(stmt.Columns))
	for i, c := range stmt.Columns {
		sets[i] = b.QuoteIdentifier(c) + " = " + p.bind(stmt.Values[i])
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", b.QuoteIdentifier(stmt.Table), strings.Join(sets, ", "))
	if stmt.Where != nil {
		sql += " WHERE " + b.renderCondition(p, stmt.Where)
	}
	return sql, p.args
}

func (b *Base) Delete(stmt DeleteStatement) (string, []any) {
	p := b.newParams()

	sql := "DELETE FROM " + b.QuoteIdentifier(stmt.Table)
	if stmt.Where != nil {
		sql += " WHERE " + b.renderCondition(p, stmt.Where)
	}
	return sql, p.args
}
