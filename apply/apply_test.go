package apply

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
	"weldorm/migration"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func initialAndFollowOn() []migration.Migration {
	initial := migration.Migration{ID: 1, Name: "initial", Initial: true, Operations: []migration.Operation{
		migration.CreateModel("foo", []imr.Field{
			{Name: "id", DBType: imr.Int64, Annotations: []imr.Annotation{imr.PrimaryKey(), imr.AutoIncrement()}},
		}),
	}}
	dep := uint16(1)
	followOn := migration.Migration{ID: 2, Name: "add_age", Dependency: &dep, Operations: []migration.Operation{
		migration.CreateField("foo", imr.Field{Name: "age", DBType: imr.Int32, Annotations: []imr.Annotation{imr.NotNull(), imr.DefaultInteger(0)}}),
	}}
	return []migration.Migration{initial, followOn}
}

func TestApplierAppliesFullChainFromScratch(t *testing.T) {
	db := openTestDB(t)
	d := sqlitedialect.New()
	applier := NewApplier(db, d, Options{Unsafe: true})

	result, err := applier.Apply(context.Background(), initialAndFollowOn())
	require.NoError(t, err)
	assert.Len(t, result.Applied, 2)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM weldorm_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	_, err = db.Exec("INSERT INTO foo (age) VALUES (5)")
	assert.NoError(t, err)
}

func TestApplierSecondRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	d := sqlitedialect.New()
	applier := NewApplier(db, d, Options{Unsafe: true})

	chain := initialAndFollowOn()
	_, err := applier.Apply(context.Background(), chain)
	require.NoError(t, err)

	result, err := applier.Apply(context.Background(), chain)
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
}

func TestApplierRefusesWhenLastAppliedIsMissingFromChain(t *testing.T) {
	db := openTestDB(t)
	d := sqlitedialect.New()
	applier := NewApplier(db, d, Options{Unsafe: true})

	initial := initialAndFollowOn()[:1]
	_, err := applier.Apply(context.Background(), initial)
	require.NoError(t, err)

	unrelated := []migration.Migration{{ID: 1, Name: "different", Initial: true, Operations: []migration.Operation{
		migration.CreateModel("bar", []imr.Field{{Name: "id", DBType: imr.Int64, Annotations: []imr.Annotation{imr.PrimaryKey()}}}),
	}}}
	_, err = applier.Apply(context.Background(), unrelated)
	assert.Error(t, err)
}

func TestApplierBlocksDestructiveWithoutUnsafe(t *testing.T) {
	db := openTestDB(t)
	d := sqlitedialect.New()
	applier := NewApplier(db, d, Options{})

	initial := migration.Migration{ID: 1, Name: "initial", Initial: true, Operations: []migration.Operation{
		migration.CreateModel("foo", []imr.Field{{Name: "id", DBType: imr.Int64, Annotations: []imr.Annotation{imr.PrimaryKey()}}}),
	}}
	dep := uint16(1)
	drop := migration.Migration{ID: 2, Name: "drop_foo", Dependency: &dep, Operations: []migration.Operation{
		migration.DeleteModel("foo"),
	}}

	_, err := applier.Apply(context.Background(), []migration.Migration{initial, drop})
	assert.Error(t, err)
}

func TestApplierDryRunAppliesNothing(t *testing.T) {
	db := openTestDB(t)
	d := sqlitedialect.New()
	applier := NewApplier(db, d, Options{Unsafe: true, DryRun: true})

	result, err := applier.Apply(context.Background(), initialAndFollowOn())
	require.NoError(t, err)
	assert.Empty(t, result.Applied)

	_, err = db.Query("SELECT * FROM foo")
	assert.Error(t, err)
}

var _ = dialect.SQLite
