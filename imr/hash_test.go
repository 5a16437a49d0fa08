package imr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualAnnotationIgnoresPayload(t *testing.T) {
	a := MaxLengthOf(10)
	b := MaxLengthOf(999)

	assert.True(t, EqualAnnotation(a, b), "annotations of the same kind must be equal regardless of payload")
	assert.False(t, EqualAnnotation(a, NotNull()))
}

func TestFingerprintStableUnderPayloadOnlyChange(t *testing.T) {
	base := sampleFormat()
	changed := sampleFormat()

	emailField := changed.FindModel("user").FindField("email")
	for i, a := range emailField.Annotations {
		if a.Kind == KindMaxLength {
			n := int32(1)
			emailField.Annotations[i].MaxLength = &n
		}
	}

	assert.Equal(t, Fingerprint(base), Fingerprint(changed),
		"changing only an annotation's payload must not move the fingerprint")
}

func TestFingerprintChangesOnStructuralEdit(t *testing.T) {
	base := sampleFormat()
	changed := sampleFormat()

	changed.FindModel("user").Fields = append(changed.FindModel("user").Fields, Field{
		Name: "nickname", DBType: VarChar,
	})

	assert.NotEqual(t, Fingerprint(base), Fingerprint(changed))
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := sampleFormat()
	b := &InternalModelFormat{Models: []Model{a.Models[1], a.Models[0]}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}
