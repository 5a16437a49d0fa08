package crud

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"weldorm/dialect"
	sqlitedialect "weldorm/dialect/sqlite"
	"weldorm/imr"
	"weldorm/schema"
)

// testSchema declares a tiny group/user schema (one foreign key, one
// back-reference) shared by every crud test.
func testSchema(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()

	group := schema.NewModel("user_group").
		Field("id", imr.Int64, imr.PrimaryKey(), imr.AutoIncrement()).
		Field("name", imr.VarChar, imr.NotNull(), imr.MaxLengthOf(255)).
		Build()
	require.NoError(t, r.Register(group))

	user := schema.NewModel("user").
		Field("id", imr.Int64, imr.PrimaryKey(), imr.AutoIncrement()).
		Field("username", imr.VarChar, imr.NotNull(), imr.MaxLengthOf(255)).
		ForeignKey("group_id", imr.Int64, "user_group", "id", imr.ActionCascade, imr.ActionNone, imr.NotNull()).
		Build()
	require.NoError(t, r.Register(user))

	return r
}

func openTestDB(t *testing.T, registry *schema.Registry, d dialect.Dialect) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open(d.DriverName(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, m := range []string{"user_group", "user"} {
		desc, ok := registry.Get(m)
		require.True(t, ok)
		create, extra := d.CreateTable(desc.ToIMR())
		_, err := db.Exec(create)
		require.NoError(t, err)
		for _, stmt := range extra {
			_, err := db.Exec(stmt)
			require.NoError(t, err)
		}
	}
	return db
}

func userDecoder(r RowReader) (Patch, error) {
	id, err := r.Int64("id")
	if err != nil {
		return nil, err
	}
	username, err := r.String("username")
	if err != nil {
		return nil, err
	}
	return Patch{"id": id, "username": username}, nil
}

func TestInsertOneReturnsPrimaryKey(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	g, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "admins"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), g["id"])

	userDesc, _ := registry.Get("user")
	u, err := NewInsert(d, db, userDesc).One(context.Background(), Patch{"username": "alice", "group_id": g["id"]})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u["id"])
}

func TestInsertBulkInsertsAcrossChunks(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	patches := make([]Patch, 0, 30)
	for i := 0; i < 30; i++ {
		patches = append(patches, Patch{"name": "g"})
	}
	require.NoError(t, NewInsert(d, db, groupDesc).Bulk(context.Background(), patches))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_group`).Scan(&count))
	assert.Equal(t, 30, count)
}

func TestQueryAllDecodesRows(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	userDesc, _ := registry.Get("user")
	g, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "admins"})
	require.NoError(t, err)
	_, err = NewInsert(d, db, userDesc).One(context.Background(), Patch{"username": "alice", "group_id": g["id"]})
	require.NoError(t, err)
	_, err = NewInsert(d, db, userDesc).One(context.Background(), Patch{"username": "bob", "group_id": g["id"]})
	require.NoError(t, err)

	q := NewQuery(d, db, registry, "user", userDecoder).
		Select("id", schema.F("id")).
		Select("username", schema.F("username")).
		OrderBy(schema.F("username"), false)

	rows, err := q.All(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0]["username"])
	assert.Equal(t, "bob", rows[1]["username"])
}

func TestQueryThroughForeignKeyJoin(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	userDesc, _ := registry.Get("user")
	g, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "admins"})
	require.NoError(t, err)
	_, err = NewInsert(d, db, userDesc).One(context.Background(), Patch{"username": "alice", "group_id": g["id"]})
	require.NoError(t, err)

	decode := func(r RowReader) (string, error) { return r.String("group_name") }
	q := NewQuery(d, db, registry, "user", decode).
		Select("group_name", schema.F("name").Through(schema.PathStep{FieldName: "group_id", Model: "user_group"})).
		Where(Eq(schema.F("username"), "alice"))

	name, err := q.One(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admins", name)
}

func TestQueryOptionalReturnsNilWhenAbsent(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	q := NewQuery(d, db, registry, "user", userDecoder).
		Select("id", schema.F("id")).
		Where(Eq(schema.F("username"), "nobody"))

	row, err := q.Optional(context.Background())
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestUpdateRequiresAtLeastOneSet(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	_, err := NewUpdate(d, db, registry, "user").Exec(context.Background())
	assert.Error(t, err)
}

func TestUpdateReturnsAffectedRowCount(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	userDesc, _ := registry.Get("user")
	g, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "admins"})
	require.NoError(t, err)
	_, err = NewInsert(d, db, userDesc).One(context.Background(), Patch{"username": "alice", "group_id": g["id"]})
	require.NoError(t, err)

	n, err := NewUpdate(d, db, registry, "user").
		Set("username", "alicia").
		Where(Eq(schema.F("username"), "alice")).
		Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDeleteSingleByPrimaryKey(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	userDesc, _ := registry.Get("user")
	g, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "admins"})
	require.NoError(t, err)
	u, err := NewInsert(d, db, userDesc).One(context.Background(), Patch{"username": "alice", "group_id": g["id"]})
	require.NoError(t, err)

	n, err := NewDelete(d, db, registry, userDesc).Single(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "user"`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestDeleteBulkByPrimaryKeys(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	userDesc, _ := registry.Get("user")
	g, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "admins"})
	require.NoError(t, err)

	var patches []Patch
	for i := 0; i < 3; i++ {
		u, err := NewInsert(d, db, userDesc).One(context.Background(), Patch{"username": "u", "group_id": g["id"]})
		require.NoError(t, err)
		patches = append(patches, u)
	}

	n, err := NewDelete(d, db, registry, userDesc).Bulk(context.Background(), patches)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDeleteAllUnconditional(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	_, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "admins"})
	require.NoError(t, err)
	_, err = NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "users"})
	require.NoError(t, err)

	n, err := NewDelete(d, db, registry, groupDesc).All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStreamYieldsRowsLazily(t *testing.T) {
	registry := testSchema(t)
	d := sqlitedialect.New()
	db := openTestDB(t, registry, d)

	groupDesc, _ := registry.Get("user_group")
	_, err := NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "a"})
	require.NoError(t, err)
	_, err = NewInsert(d, db, groupDesc).One(context.Background(), Patch{"name": "b"})
	require.NoError(t, err)

	decode := func(r RowReader) (string, error) { return r.String("name") }
	stream, err := NewQuery(d, db, registry, "user_group", decode).Select("name", schema.F("name")).Stream(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	var got []string
	for stream.Next() {
		got = append(got, stream.Value())
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, []string{"a", "b"}, got)
}
