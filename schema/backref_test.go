package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type comment struct {
	ID     int64
	PostID int64
}

func TestBackRefStartsUnpopulated(t *testing.T) {
	var b BackRef[comment]
	_, ok := b.Cached()
	assert.False(t, ok, "a fresh BackRef must not silently hold a cache")
}

func TestBackRefPopulateAndCached(t *testing.T) {
	var b BackRef[comment]
	calls := 0

	fetch := func(ctx context.Context) ([]comment, error) {
		calls++
		return []comment{{ID: 1, PostID: 9}, {ID: 2, PostID: 9}}, nil
	}

	require.NoError(t, b.Populate(context.Background(), fetch))
	rows, ok := b.Cached()
	require.True(t, ok)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, calls)
}

func TestBackRefGetOrQueryFetchesOnlyOnce(t *testing.T) {
	var b BackRef[comment]
	calls := 0
	fetch := func(ctx context.Context) ([]comment, error) {
		calls++
		return []comment{{ID: 5}}, nil
	}

	_, err := b.GetOrQuery(context.Background(), fetch)
	require.NoError(t, err)
	_, err = b.GetOrQuery(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackRefTakeOrQueryClearsCache(t *testing.T) {
	var b BackRef[comment]
	require.NoError(t, b.Populate(context.Background(), func(ctx context.Context) ([]comment, error) {
		return []comment{{ID: 1}}, nil
	}))

	rows, err := b.TakeOrQuery(context.Background(), func(ctx context.Context) ([]comment, error) {
		t_ := []comment{{ID: 99}}
		return t_, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0].ID, "Take must return the cached rows, not re-query")

	_, ok := b.Cached()
	assert.False(t, ok, "Take must clear the cache after returning it")
}
