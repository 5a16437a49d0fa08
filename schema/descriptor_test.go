package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weldorm/imr"
)

func buildSampleRegistry(t *testing.T) *Registry {
	t.Helper()

	group := NewModel("group").
		Field("id", imr.Int64, imr.PrimaryKey(), imr.AutoIncrement()).
		Field("name", imr.VarChar, imr.NotNull(), imr.MaxLengthOf(255)).
		Build()

	user := NewModel("user").
		Field("id", imr.Int64, imr.PrimaryKey(), imr.AutoIncrement()).
		ForeignKey("group_id", imr.Int64, "group", "id", imr.ActionCascade, imr.ActionNone, imr.NotNull()).
		Build()

	r := NewRegistry()
	require.NoError(t, r.Register(group))
	require.NoError(t, r.Register(user))
	return r
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := buildSampleRegistry(t)
	dup := NewModel("user").Field("id", imr.Int64, imr.PrimaryKey()).Build()
	assert.Error(t, r.Register(dup))
}

func TestModelDescriptorPrimaryKeyAndField(t *testing.T) {
	r := buildSampleRegistry(t)
	user, ok := r.Get("user")
	require.True(t, ok)

	pk := user.PrimaryKey()
	require.NotNil(t, pk)
	assert.Equal(t, "id", pk.Name)

	fk := user.Field("group_id")
	require.NotNil(t, fk)
	assert.True(t, fk.IsForeignKey())
	assert.Equal(t, "group", fk.ForeignModel)
}

func TestToIMRProducesValidFormat(t *testing.T) {
	r := buildSampleRegistry(t)
	format := r.ToIMR()

	require.NoError(t, imr.Validate(format))
	assert.NotNil(t, format.FindModel("group"))
	assert.NotNil(t, format.FindModel("user"))

	userGroupID := format.FindModel("user").FindField("group_id")
	require.NotNil(t, userGroupID)
	assert.True(t, userGroupID.HasAnnotation(imr.KindForeignKey))
}

func TestColumnarBuilderExpandsToMultipleFields(t *testing.T) {
	m := NewModel("event").
		Field("id", imr.Int64, imr.PrimaryKey(), imr.AutoIncrement()).
		Columnar("occurred_at", imr.Timestamp, &TZTimestamp{}, imr.NotNull()).
		Build()

	assert.NotNil(t, m.Field("occurred_at_utc"))
	assert.NotNil(t, m.Field("occurred_at_offset"))
}
