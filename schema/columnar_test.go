package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTZTimestampRoundTrip(t *testing.T) {
	loc := time.FixedZone("TEST", 2*60*60)
	original := time.Date(2026, 7, 31, 14, 30, 0, 0, loc)

	tz := NewTZTimestamp(original)
	assert.Equal(t, []string{"utc", "offset"}, tz.Columns())

	values := tz.Encode()
	require.Len(t, values, 2)

	var decoded TZTimestamp
	require.NoError(t, decoded.Decode(values))

	assert.True(t, decoded.UTC.Equal(original.UTC()))
	assert.Equal(t, 2*60*60, decoded.Offset)
	assert.True(t, decoded.Local().Equal(original))
}

func TestTZTimestampDecodeRejectsWrongArity(t *testing.T) {
	var tz TZTimestamp
	assert.Error(t, tz.Decode([]any{time.Now()}))
}
