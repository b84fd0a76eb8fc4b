package qdrant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIDIsStableUUID(t *testing.T) {
	t.Parallel()

	a := PointID("brand_acme")
	assert.Equal(t, a, PointID("brand_acme"))
	assert.NotEqual(t, a, PointID("brand_north"))
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := buildPayload("item-1", map[string]string{"brand": "Acme", "colors": `list:["black"]`})
	payload["rank"] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: 3}}

	id, meta := readPayload(payload)
	assert.Equal(t, "item-1", id)
	assert.Equal(t, map[string]string{"brand": "Acme", "colors": `list:["black"]`}, meta)
}

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, buildFilter(nil))

	f := buildFilter(map[string]string{"brand": "Acme"})
	require.Len(t, f.GetMust(), 1)
	field := f.GetMust()[0].GetField()
	assert.Equal(t, "brand", field.GetKey())
	assert.Equal(t, "Acme", field.GetMatch().GetKeyword())
}
