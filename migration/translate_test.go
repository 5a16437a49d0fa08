package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weldorm/imr"

	_ "weldorm/dialect/sqlite"

	"weldorm/dialect"
)

func TestTranslateCreateModel(t *testing.T) {
	d, err := dialect.Get(dialect.SQLite)
	require.NoError(t, err)

	m := Migration{ID: 1, Name: "initial", Initial: true, Operations: []Operation{
		CreateModel("foo", []imr.Field{
			{Name: "id", DBType: imr.Int64, Annotations: []imr.Annotation{imr.PrimaryKey(), imr.AutoIncrement()}},
		}),
	}}

	statements, err := Translate(d, m)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "CREATE TABLE")
	assert.Contains(t, statements[0], "foo")
}

func TestTranslateCreateFieldWithAutoUpdateTimeEmitsTrigger(t *testing.T) {
	d, err := dialect.Get(dialect.SQLite)
	require.NoError(t, err)

	m := Migration{ID: 2, Name: "add_ts", Dependency: uint16Ptr(1), Operations: []Operation{
		CreateField("foo", imr.Field{Name: "updated_at", DBType: imr.DateTime, Annotations: []imr.Annotation{imr.AutoUpdateTime()}}),
	}}

	statements, err := Translate(d, m)
	require.NoError(t, err)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "ALTER TABLE")
	assert.Contains(t, statements[1], "TRIGGER")
}

func TestTranslateRawSQLPassesThrough(t *testing.T) {
	d, err := dialect.Get(dialect.SQLite)
	require.NoError(t, err)

	m := Migration{ID: 2, Name: "manual", Dependency: uint16Ptr(1), Operations: []Operation{RawSQL("DROP TABLE foo")}}
	statements, err := Translate(d, m)
	require.NoError(t, err)
	assert.Equal(t, []string{"DROP TABLE foo"}, statements)
}

func TestTranslateDeleteModel(t *testing.T) {
	d, err := dialect.Get(dialect.SQLite)
	require.NoError(t, err)

	m := Migration{ID: 2, Name: "drop", Dependency: uint16Ptr(1), Operations: []Operation{DeleteModel("foo")}}
	statements, err := Translate(d, m)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "DROP TABLE")
}
