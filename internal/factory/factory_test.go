package factory_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/scene"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

type slope struct{}

func (slope) HeightAt(x, z float64) float64 { return (x + z) / 10 }

type owner struct{ objects []*factory.PlacedObject }

func (o *owner) Track(obj *factory.PlacedObject) { o.objects = append(o.objects, obj) }

type noCollections struct{}

func (noCollections) Collection(string) (worldinterfaces.Collection, bool) { return nil, false }

func newFactory(t *testing.T) (*factory.Factory, *scene.Graph, *scene.Collections) {
	t.Helper()
	g := scene.NewGraph()
	cs := scene.NewCollections()
	f := factory.New(g, cs, slope{}, nil)
	factory.RegisterDefaults(f)
	f.SetMajorThreats([]string{"golem", "troll"})
	return f, g, cs
}

func TestMaterialize_UnknownKindIsSkipped(t *testing.T) {
	g := scene.NewGraph()
	cs := scene.NewCollections()
	f := factory.New(g, cs, nil, nil)
	f.Register("enemy", factory.BuildEnemy)

	var skipped []string
	f.OnSkip(func(d content.Descriptor) { skipped = append(skipped, d.Type()) })

	own := &owner{}
	batch := []content.Descriptor{
		content.Pickup{Variant: "ammo", Amount: 2},
		content.Enemy{Variant: "wolf", Health: 50},
		content.TerrainFeature{Variant: "rock"},
	}
	placed := 0
	for _, d := range batch {
		obj, err := f.Materialize(d, own)
		require.NoError(t, err, "unknown kinds must never fail the batch")
		if obj != nil {
			placed++
		}
	}

	assert.Equal(t, 1, placed)
	assert.Equal(t, []string{"pickup/ammo", "terrain/rock"}, skipped)
	assert.Len(t, own.objects, 1)
	assert.Equal(t, 1, g.Len())
	p, s := f.Stats()
	assert.Equal(t, int64(1), p)
	assert.Equal(t, int64(2), s)
}

func TestMaterialize_SpecificBuilderWins(t *testing.T) {
	f, _, _ := newFactory(t)
	called := false
	f.Register("obstacle/totem", func(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
		called = true
		return factory.BuildObstacle(d, at)
	})

	_, err := f.Materialize(content.Obstacle{Variant: "totem", Radius: 1, Scale: 1}, nil)
	require.NoError(t, err)
	assert.True(t, called)

	called = false
	_, err = f.Materialize(content.Obstacle{Variant: "boulder", Radius: 1, Scale: 1}, nil)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRoute(t *testing.T) {
	f, _, _ := newFactory(t)
	cases := []struct {
		d    content.Descriptor
		want string
	}{
		{content.Enemy{Variant: "wolf"}, scene.Enemies},
		{content.Enemy{Variant: "golem"}, scene.MajorThreats},
		{content.Enemy{Variant: "wolf", Boss: true}, scene.MajorThreats},
		{content.Pickup{Variant: "ammo"}, "pickups/ammo"},
		{content.Wall{}, scene.StaticObstacles},
		{content.Obstacle{}, scene.StaticObstacles},
		{content.Ground{}, ""},
		{content.TerrainFeature{}, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, f.Route(c.d), c.d.Type())
	}
}

func TestMaterialize_BossClassAlwaysMajorThreat(t *testing.T) {
	f, _, cs := newFactory(t)
	obj, err := f.Materialize(content.Enemy{Variant: "golem", Health: 100}, nil)
	require.NoError(t, err)

	assert.True(t, cs.Get(scene.MajorThreats).Contains(obj.Record))
	assert.False(t, cs.Get(scene.Enemies).Contains(obj.Record))
	assert.False(t, obj.Record.(*scene.Entity).Boss, "routing does not depend on the flag")
}

func TestMaterialize_GroundsObjects(t *testing.T) {
	f, g, cs := newFactory(t)
	obj, err := f.Materialize(content.Pickup{Variant: "health", Position: mgl64.Vec3{30, 99, 70}, Amount: 1}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 10, obj.Position.Y(), 1e-9)
	assert.InDelta(t, 10, obj.Record.(*scene.Item).Position.Y(), 1e-9)
	assert.True(t, g.Contains(obj.Visual))
	assert.True(t, cs.Get("pickups/health").Contains(obj.Record))
}

func TestMaterialize_MissingCollectionIsAnError(t *testing.T) {
	g := scene.NewGraph()
	f := factory.New(g, noCollections{}, nil, nil)
	factory.RegisterDefaults(f)
	own := &owner{}

	_, err := f.Materialize(content.Enemy{Variant: "wolf"}, own)
	assert.True(t, errors.Is(err, factory.ErrNoTarget))
	assert.Zero(t, g.Len(), "nothing is inserted when routing fails")
	assert.Empty(t, own.objects)

	// Visual-only content does not need a collection.
	obj, err := f.Materialize(content.Ground{Size: 200}, own)
	require.NoError(t, err)
	assert.Nil(t, obj.Record)
	assert.Equal(t, 1, g.Len())
}

func TestBuilder_RejectsForeignDescriptor(t *testing.T) {
	_, _, err := factory.BuildWall(content.Enemy{}, mgl64.Vec3{})
	assert.ErrorIs(t, err, factory.ErrDescriptorMismatch)
}

func TestPlacedObject_DisposeRemovesBothParts(t *testing.T) {
	f, g, cs := newFactory(t)
	keep, err := f.Materialize(content.Wall{Width: 20, Thickness: 2, Height: 5}, nil)
	require.NoError(t, err)
	drop, err := f.Materialize(content.Wall{Width: 20, Thickness: 2, Height: 5}, nil)
	require.NoError(t, err)

	drop.Dispose(g)

	obstacles := cs.Get(scene.StaticObstacles)
	assert.False(t, g.Contains(drop.Visual))
	assert.False(t, obstacles.Contains(drop.Record))
	assert.True(t, g.Contains(keep.Visual))
	assert.True(t, obstacles.Contains(keep.Record))
}
