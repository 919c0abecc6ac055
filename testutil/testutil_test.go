package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo(t *testing.T) {
	eng := OpenGraph(t)
	SeedDemo(t, eng)

	stats, err := eng.Stats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Entities)
	assert.Equal(t, 3, stats.Edges)
	assert.Equal(t, uint64(2), stats.Labels["Person"])
	assert.Equal(t, uint64(1), stats.Labels["Company"])
	assert.Equal(t, uint64(2), stats.EdgeTypes["WORKS_AT"])
	assert.Equal(t, uint64(1), stats.EdgeTypes["KNOWS"])
}

func TestSeedEntities(t *testing.T) {
	eng := OpenGraph(t)
	SeedEntities(t, eng, 10)

	stats, err := eng.Stats()
	require.NoError(t, err)

	assert.Equal(t, 10, stats.Entities)
	assert.Equal(t, 0, stats.Edges)
	assert.Equal(t, uint64(10), stats.Labels["Node"])
}
