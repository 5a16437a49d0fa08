package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weldorm/dialect"
	"weldorm/imr"
)

func TestRegisteredUnderSQLiteType(t *testing.T) {
	d, err := dialect.Get(dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, d.Type())
}

func TestPrimaryKeyAutoIncrementAliasesRowid(t *testing.T) {
	d := New()
	f := imr.Field{Name: "id", DBType: imr.Int64, Annotations: []imr.Annotation{imr.PrimaryKey(), imr.AutoIncrement()}}
	assert.Equal(t, "INTEGER PRIMARY KEY AUTOINCREMENT", d.ColumnDefinition(f))
}

func TestPlaceholderIsQuestionMark(t *testing.T) {
	d := New()
	sql, _ := d.Insert(dialect.InsertStatement{Table: "t", Columns: []string{"a"}, Values: []dialect.Value{dialect.Val(1)}})
	assert.Contains(t, sql, "VALUES (?)")
}

func TestAutoUpdateTimeEmitsTrigger(t *testing.T) {
	f := imr.Field{Name: "updated_at", DBType: imr.Timestamp, Annotations: []imr.Annotation{imr.AutoUpdateTime()}}
	stmts := New().AutoUpdateTriggers("post", f)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "AFTER UPDATE ON")
}
