package imr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsSampleFormat(t *testing.T) {
	assert.NoError(t, Validate(sampleFormat()))
}

func TestValidateCatchesDuplicateModelName(t *testing.T) {
	f := sampleFormat()
	f.Models = append(f.Models, f.Models[0])

	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate model name "user"`)
}

func TestValidateCatchesDuplicateFieldName(t *testing.T) {
	f := sampleFormat()
	m := f.FindModel("user")
	m.Fields = append(m.Fields, m.Fields[0])

	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate field name "id"`)
}

func TestValidateCatchesMissingPrimaryKey(t *testing.T) {
	f := &InternalModelFormat{Models: []Model{
		{Name: "no_pk", Fields: []Field{{Name: "x", DBType: Int64}}},
	}}

	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no field carries a primary_key annotation")
}

func TestValidateCatchesDanglingForeignKey(t *testing.T) {
	f := sampleFormat()
	post := f.FindModel("post")
	author := post.FindField("author")
	author.Annotations[1].ForeignKey.Table = "ghost"

	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `references unknown model "ghost"`)
}

func TestValidateCatchesChoicesTypeMismatch(t *testing.T) {
	f := &InternalModelFormat{Models: []Model{
		{Name: "m", Fields: []Field{
			{Name: "id", DBType: Int64, Annotations: []Annotation{PrimaryKey()}},
			{Name: "status", DBType: VarChar, Annotations: []Annotation{ChoicesOf("a", "b")}},
		}},
	}}

	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "choices annotation requires DbType Choices")
}
