package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weldorm/dialect"
	"weldorm/imr"
)

func TestRegisteredUnderMySQLType(t *testing.T) {
	d, err := dialect.Get(dialect.MySQL)
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, d.Type())
}

func TestColumnDefinitionAutoIncrementPrimaryKey(t *testing.T) {
	d := New()
	f := imr.Field{
		Name:   "id",
		DBType: imr.Int64,
		Annotations: []imr.Annotation{
			imr.PrimaryKey(), imr.AutoIncrement(), imr.NotNull(),
		},
	}
	assert.Equal(t, "BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT", d.ColumnDefinition(f))
}

func TestVarcharHonorsMaxLength(t *testing.T) {
	d := New()
	f := imr.Field{Name: "email", DBType: imr.VarChar, Annotations: []imr.Annotation{imr.MaxLengthOf(64)}}
	assert.Equal(t, "VARCHAR(64)", d.ColumnDefinition(f))
}

func TestQuoteIdentifierUsesBackticks(t *testing.T) {
	d := New()
	assert.Equal(t, "`user`", d.QuoteIdentifier("user"))
}

func TestPlaceholderStyle(t *testing.T) {
	d := New()
	sql, _ := d.Insert(dialect.InsertStatement{Table: "t", Columns: []string{"a"}, Values: []dialect.Value{dialect.Val(1)}})
	assert.Contains(t, sql, "VALUES (?)")
}
