package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weldorm/imr"
)

func TestParseFilename(t *testing.T) {
	id, name, err := ParseFilename("0001_initial.toml")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	assert.Equal(t, "initial", name)

	_, _, err = ParseFilename("bad-name.toml")
	assert.Error(t, err)
}

func TestFilenameRoundTrip(t *testing.T) {
	m := Migration{ID: 2, Name: "add_age"}
	assert.Equal(t, "0002_add_age.toml", Filename(m))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	dep := uint16(1)
	m := Migration{
		ID:         2,
		Name:       "add_age",
		Dependency: &dep,
		Hash:       "abc123",
		Operations: []Operation{
			CreateField("foo", imr.Field{Name: "age", DBType: imr.Int32, Annotations: []imr.Annotation{imr.NotNull()}}),
		},
	}

	data, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, m.ID, decoded.ID)
	assert.Equal(t, m.Name, decoded.Name)
	require.NotNil(t, decoded.Dependency)
	assert.EqualValues(t, 1, *decoded.Dependency)
	require.Len(t, decoded.Operations, 1)
	assert.Equal(t, OpCreateField, decoded.Operations[0].Kind)
	assert.Equal(t, "age", decoded.Operations[0].Field.Name)
}

func TestOperationConstructors(t *testing.T) {
	assert.Equal(t, OpCreateModel, CreateModel("foo", nil).Kind)
	assert.Equal(t, OpDeleteModel, DeleteModel("foo").Kind)
	assert.Equal(t, OpRenameModel, RenameModel("a", "b").Kind)
	assert.Equal(t, OpDeleteField, DeleteField("foo", "x").Kind)
	assert.Equal(t, OpRenameField, RenameField("foo", "x", "y").Kind)
	assert.Equal(t, OpRawSQL, RawSQL("DROP TABLE foo").Kind)
}
