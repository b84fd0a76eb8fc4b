package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertQueryCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	x, err := New("", false, nil)
	require.NoError(t, err)

	require.NoError(t, x.Upsert(ctx, "brands",
		[]string{"brand_acme", "brand_north"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
		[]map[string]string{{"name": "Acme", "text": "Acme basics"}, {"name": "North"}},
	))

	n, err := x.Count(ctx, "brands")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := x.Query(ctx, "brands", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "brand_acme", hits[0].ID)
	assert.Equal(t, "Acme", hits[0].Metadata["name"])
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-4)
	assert.InDelta(t, 2.0, hits[1].Distance, 1e-4)
}

func TestMissingCollection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	x, err := New("", false, nil)
	require.NoError(t, err)

	hits, err := x.Query(ctx, "discussions", []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
	require.NoError(t, x.DeleteCollection(ctx, "discussions"))
}

func TestPersistentReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	x, err := New(dir, false, nil)
	require.NoError(t, err)
	require.NoError(t, x.Upsert(ctx, "clothing_items", []string{"i1"}, [][]float32{{0.6, 0.8}}, nil))

	y, err := New(dir, false, nil)
	require.NoError(t, err)
	n, err := y.Count(ctx, "clothing_items")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, y.DeleteCollection(ctx, "clothing_items"))
	n, err = y.Count(ctx, "clothing_items")
	require.NoError(t, err)
	assert.Zero(t, n)
}
