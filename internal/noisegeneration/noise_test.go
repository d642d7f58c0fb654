package noisegeneration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annelo/go-world-streamer/internal/noisegeneration"
)

func TestTerrain_HeightIsDeterministicAndBounded(t *testing.T) {
	a := noisegeneration.NewTerrain(noisegeneration.DefaultTerrainOptions(99))
	b := noisegeneration.NewTerrain(noisegeneration.DefaultTerrainOptions(99))

	for _, p := range [][2]float64{{0, 0}, {123.5, -40}, {-900, 3000}} {
		h := a.HeightAt(p[0], p[1])
		assert.Equal(t, h, b.HeightAt(p[0], p[1]))
		assert.Equal(t, h, a.HeightAt(p[0], p[1]), "cached value must match")
		assert.GreaterOrEqual(t, h, 0.0)
		assert.LessOrEqual(t, h, 6.0)

		d := a.Density(p[0], p[1])
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, 1.0)
	}

	hits, misses, _ := a.CacheStats()
	assert.Equal(t, 3, hits)
	assert.Equal(t, 3, misses)
}

func TestNoiseCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := noisegeneration.NewNoiseCache(2)
	c.Put(1, 1, 0.1)
	c.Put(2, 2, 0.2)

	_, ok := c.Get(1, 1)
	assert.True(t, ok)

	c.Put(3, 3, 0.3)
	_, ok = c.Get(2, 2)
	assert.False(t, ok, "2:2 was least recently used")
	v, ok := c.Get(1, 1)
	assert.True(t, ok)
	assert.Equal(t, 0.1, v)
	assert.Equal(t, 2, c.Len())

	c.ClearCache()
	assert.Zero(t, c.Len())
	hits, misses, ratio := c.GetStats()
	assert.Zero(t, hits+misses)
	assert.Zero(t, ratio)
}
