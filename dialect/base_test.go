package dialect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weldorm/imr"
)

func testFlavor() Flavor {
	return Flavor{
		Type:        "test",
		QuoteIdent:  func(n string) string { return "`" + n + "`" },
		QuoteStr:    func(s string) string { return "'" + s + "'" },
		Placeholder: func(int) string { return "?" },
		ColumnDefinition: func(f imr.Field) string {
			return string(f.DBType)
		},
	}
}

func TestConjunctionDisjunctionCollapse(t *testing.T) {
	assert.Nil(t, Conjunction())
	single := Binary{Op: Eq, Column: "id", Value: Val(1)}
	assert.Equal(t, single, Conjunction(single))

	multi := Conjunction(single, IsNull{Column: "deleted_at"})
	_, ok := multi.(DynamicCollection)
	assert.True(t, ok)
}

func TestSelectRendersJoinsAndWhere(t *testing.T) {
	b := NewBase(testFlavor())

	limit := 10
	stmt := SelectStatement{
		Table: "user",
		Columns: []SelectColumn{
			{Column: "id"},
			{Column: "_1.name", Aggregate: AggCount, Alias: "total"},
		},
		Joins: []JoinDef{
			{Table: "group", Alias: "_1", LeftColumn: "group_id", RightColumn: "_1.id"},
		},
		Where: Binary{Op: Eq, Column: "active", Value: Val(true)},
		Limit: &limit,
	}

	sql, args := b.Select(stmt)
	require.Equal(t, []any{true}, args)
	assert.True(t, strings.Contains(sql, "JOIN `group` AS `_1` ON `group_id` = `_1`.`id`"))
	assert.True(t, strings.Contains(sql, "COUNT(`_1`.`name`) AS `total`"))
	assert.True(t, strings.Contains(sql, "WHERE `active` = ?"))
	assert.True(t, strings.HasSuffix(sql, "LIMIT 10"))
}

func TestInsertAndInsertBulk(t *testing.T) {
	b := NewBase(testFlavor())

	sql, args := b.Insert(InsertStatement{Table: "user", Columns: []string{"id", "name"}, Values: []Value{Val(1), Val("a")}})
	assert.Equal(t, "INSERT INTO `user` (`id`, `name`) VALUES (?, ?)", sql)
	assert.Equal(t, []any{1, "a"}, args)

	sql, args = b.InsertBulk(InsertBulkStatement{
		Table:   "user",
		Columns: []string{"id"},
		Rows:    [][]Value{{Val(1)}, {Val(2)}},
	})
	assert.Equal(t, "INSERT INTO `user` (`id`) VALUES (?), (?)", sql)
	assert.Equal(t, []any{1, 2}, args)
}

func TestUpdateAndDelete(t *testing.T) {
	b := NewBase(testFlavor())

	sql, args := b.Update(UpdateStatement{
		Table:   "user",
		Columns: []string{"name"},
		Values:  []Value{Val("new")},
		Where:   Binary{Op: Eq, Column: "id", Value: Val(1)},
	})
	assert.Equal(t, "UPDATE `user` SET `name` = ? WHERE `id` = ?", sql)
	assert.Equal(t, []any{"new", 1}, args)

	sql, args = b.Delete(DeleteStatement{Table: "user", Where: IsNull{Column: "name"}})
	assert.Equal(t, "DELETE FROM `user` WHERE `name` IS NULL", sql)
	assert.Empty(t, args)
}

func TestCreateTableIncludesForeignKeyClause(t *testing.T) {
	b := NewBase(testFlavor())

	model := imr.Model{
		Name: "post",
		Fields: []imr.Field{
			{Name: "id", DBType: imr.Int64, Annotations: []imr.Annotation{imr.PrimaryKey()}},
			{Name: "author_id", DBType: imr.Int64, Annotations: []imr.Annotation{
				imr.ForeignKeyOf("user", "id", imr.ActionCascade, imr.ActionNone),
			}},
		},
	}

	stmt, _ := b.CreateTable(model)
	assert.True(t, strings.Contains(stmt, "FOREIGN KEY (`author_id`) REFERENCES `user` (`id`) ON DELETE CASCADE"))
}
