package content_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/annelo/go-world-streamer/internal/content"
)

func TestTypeKeys(t *testing.T) {
	assert.Equal(t, "enemy/golem", content.Enemy{Variant: "golem"}.Type())
	assert.Equal(t, "ground/forest", content.Ground{Theme: "forest"}.Type())
	assert.Equal(t, "pickup", content.Pickup{}.Type())
	assert.Equal(t, "wall", content.KindWall.String())
}

func TestWallFootprint(t *testing.T) {
	along := content.Wall{Position: mgl64.Vec3{100, 0, 0}, Width: 40, Thickness: 2}
	fp := along.Footprint()
	assert.InDelta(t, 80, fp.Min.X(), 1e-9)
	assert.InDelta(t, 120, fp.Max.X(), 1e-9)
	assert.InDelta(t, -1, fp.Min.Y(), 1e-9)

	across := content.Wall{Position: mgl64.Vec3{0, 0, 50}, Width: 40, Thickness: 2, Rotation: math.Pi / 2}
	fp = across.Footprint()
	assert.InDelta(t, -1, fp.Min.X(), 1e-9)
	assert.InDelta(t, 30, fp.Min.Y(), 1e-9)
	assert.InDelta(t, 70, fp.Max.Y(), 1e-9)
}

func TestGroupKeepsOrderWithinPhase(t *testing.T) {
	ds := []content.Descriptor{
		content.Enemy{Variant: "a"},
		content.Ground{},
		content.Enemy{Variant: "b"},
		content.Wall{},
	}
	groups := content.Group(ds)
	assert.Len(t, groups[content.PhaseGround], 1)
	assert.Len(t, groups[content.PhaseWalls], 1)
	assert.Equal(t, []content.Descriptor{content.Enemy{Variant: "a"}, content.Enemy{Variant: "b"}}, groups[content.PhaseEnemies])
	assert.Empty(t, groups[content.PhasePickups])

	counts := content.Count(ds)
	assert.Equal(t, 2, counts[content.KindEnemy])
}
