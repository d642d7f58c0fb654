package factory

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/scene"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

// DefaultBuilders возвращает билдеры по видам, строящие простые меши сцены.
func DefaultBuilders() map[string]Builder {
	return map[string]Builder{
		content.KindGround.String():   BuildGround,
		content.KindTerrain.String():  BuildTerrain,
		content.KindWall.String():     BuildWall,
		content.KindObstacle.String(): BuildObstacle,
		content.KindPickup.String():   BuildPickup,
		content.KindEnemy.String():    BuildEnemy,
	}
}

// RegisterDefaults регистрирует DefaultBuilders в фабрике
func RegisterDefaults(f *Factory) {
	for key, b := range DefaultBuilders() {
		f.Register(key, b)
	}
}

func mismatch(d content.Descriptor, want string) error {
	return fmt.Errorf("%w: ожидался %s, получен %s", ErrDescriptorMismatch, want, d.Type())
}

func BuildGround(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
	g, ok := d.(content.Ground)
	if !ok {
		return nil, nil, mismatch(d, "ground")
	}
	mesh := scene.NewMesh(content.KindGround, g.Theme, at, mgl64.Vec3{g.Size, 1, g.Size}, 0)
	mesh.Tint = g.Theme
	return mesh, nil, nil
}

func BuildTerrain(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
	f, ok := d.(content.TerrainFeature)
	if !ok {
		return nil, nil, mismatch(d, "terrain")
	}
	return scene.NewMesh(content.KindTerrain, f.Variant, at, mgl64.Vec3{f.Scale, f.Scale, f.Scale}, f.Rotation), nil, nil
}

func BuildWall(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
	w, ok := d.(content.Wall)
	if !ok {
		return nil, nil, mismatch(d, "wall")
	}
	mesh := scene.NewMesh(content.KindWall, w.Variant, at, mgl64.Vec3{w.Width, w.Height, w.Thickness}, w.Rotation)
	col := &scene.Collider{ID: uuid.New(), Variant: w.Variant, Area: w.Footprint(), Height: w.Height}
	return mesh, col, nil
}

func BuildObstacle(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
	o, ok := d.(content.Obstacle)
	if !ok {
		return nil, nil, mismatch(d, "obstacle")
	}
	mesh := scene.NewMesh(content.KindObstacle, o.Variant, at, mgl64.Vec3{o.Scale, o.Scale, o.Scale}, o.Rotation)
	col := &scene.Collider{ID: uuid.New(), Variant: o.Variant, Area: grid.RectAround(at, o.Radius, o.Radius), Height: 2 * o.Scale}
	return mesh, col, nil
}

func BuildPickup(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
	p, ok := d.(content.Pickup)
	if !ok {
		return nil, nil, mismatch(d, "pickup")
	}
	mesh := scene.NewMesh(content.KindPickup, p.Variant, at, mgl64.Vec3{0.5, 0.5, 0.5}, 0)
	return mesh, &scene.Item{ID: uuid.New(), Variant: p.Variant, Position: at, Amount: p.Amount}, nil
}

func BuildEnemy(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
	e, ok := d.(content.Enemy)
	if !ok {
		return nil, nil, mismatch(d, "enemy")
	}
	size := 1.0
	if e.Boss {
		size = 3
	}
	mesh := scene.NewMesh(content.KindEnemy, e.Variant, at, mgl64.Vec3{size, size, size}, 0)
	rec := &scene.Entity{
		ID:          uuid.New(),
		Variant:     e.Variant,
		Position:    at,
		Health:      e.Health,
		PatrolRange: e.PatrolRange,
		Boss:        e.Boss,
	}
	return mesh, rec, nil
}
