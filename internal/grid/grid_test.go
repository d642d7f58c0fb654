package grid_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/annelo/go-world-streamer/internal/grid"
)

func TestChunkOf_FloorDivision(t *testing.T) {
	g := grid.New(200)

	cases := []struct {
		pos  mgl64.Vec3
		want grid.ChunkID
	}{
		{mgl64.Vec3{0, 0, 0}, grid.ChunkID{X: 0, Z: 0}},
		{mgl64.Vec3{199.9, 5, 199.9}, grid.ChunkID{X: 0, Z: 0}},
		{mgl64.Vec3{200, 0, 0}, grid.ChunkID{X: 1, Z: 0}},
		{mgl64.Vec3{-0.1, 0, 0}, grid.ChunkID{X: -1, Z: 0}},
		{mgl64.Vec3{-200, 0, -200.5}, grid.ChunkID{X: -1, Z: -2}},
		{mgl64.Vec3{195, 0, 50}, grid.ChunkID{X: 0, Z: 0}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, g.ChunkOf(c.pos), "pos %v", c.pos)
	}
}

func TestCenter_IsInverseOfChunkOf(t *testing.T) {
	g := grid.New(200)
	for _, id := range []grid.ChunkID{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: -1, Z: -1}, {X: 7, Z: -3}} {
		assert.Equal(t, id, g.ChunkOf(g.Center(id)))
	}
	assert.Equal(t, mgl64.Vec3{300, 0, 100}, g.Center(grid.ChunkID{X: 1, Z: 0}))
}

func TestLocal(t *testing.T) {
	g := grid.New(200)
	lx, lz := g.Local(mgl64.Vec3{195, 0, 50})
	assert.InDelta(t, 195, lx, 1e-9)
	assert.InDelta(t, 50, lz, 1e-9)

	lx, lz = g.Local(mgl64.Vec3{-10, 0, -390})
	assert.InDelta(t, 190, lx, 1e-9)
	assert.InDelta(t, 10, lz, 1e-9)
}

func TestNeighborAndSides(t *testing.T) {
	id := grid.ChunkID{X: 2, Z: 3}
	assert.Equal(t, grid.ChunkID{X: 3, Z: 3}, id.Neighbor(grid.East))
	assert.Equal(t, grid.ChunkID{X: 2, Z: 2}, id.Neighbor(grid.North))
	assert.Equal(t, grid.ChunkID{X: 1, Z: 4}, id.Neighbor(grid.SouthWest))

	a, b := grid.NorthEast.Sides()
	assert.Equal(t, grid.North, a)
	assert.Equal(t, grid.East, b)
}

func TestCellsCoversRect(t *testing.T) {
	g := grid.New(200)
	r := grid.Rect{Min: mgl64.Vec2{-100, -100}, Max: mgl64.Vec2{100, 100}}
	assert.ElementsMatch(t, []grid.ChunkID{{X: -1, Z: -1}, {X: 0, Z: -1}, {X: -1, Z: 0}, {X: 0, Z: 0}}, g.Cells(r))
}

func TestChebyshev(t *testing.T) {
	assert.Equal(t, 30.0, grid.Chebyshev(mgl64.Vec3{0, 100, 0}, mgl64.Vec3{-10, 0, 30}))
}

func TestRectAndCircle(t *testing.T) {
	r := grid.Rect{Min: mgl64.Vec2{-100, -100}, Max: mgl64.Vec2{100, 100}}
	assert.True(t, r.Contains(mgl64.Vec3{100, 0, -100}))
	assert.False(t, r.Contains(mgl64.Vec3{100.1, 0, 0}))
	assert.True(t, r.Expand(10).Contains(mgl64.Vec3{105, 0, 0}))
	assert.True(t, r.Intersects(grid.Rect{Min: mgl64.Vec2{100, 0}, Max: mgl64.Vec2{150, 10}}))
	assert.False(t, r.Intersects(grid.Rect{Min: mgl64.Vec2{101, 0}, Max: mgl64.Vec2{150, 10}}))

	c := grid.Circle{Center: mgl64.Vec2{10, 10}, Radius: 5}
	assert.True(t, c.Contains(mgl64.Vec3{13, 0, 14}))
	assert.False(t, c.Contains(mgl64.Vec3{16, 0, 10}))
	assert.Equal(t, grid.Rect{Min: mgl64.Vec2{5, 5}, Max: mgl64.Vec2{15, 15}}, c.BoundingRect())
}
