package registry_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/registry"
	"github.com/annelo/go-world-streamer/internal/scene"
)

type fixture struct {
	graph *scene.Graph
	cols  *scene.Collections
	fac   *factory.Factory
	reg   *registry.Registry
}

func newFixture() *fixture {
	g := scene.NewGraph()
	cs := scene.NewCollections()
	f := factory.New(g, cs, nil, nil)
	factory.RegisterDefaults(f)
	return &fixture{graph: g, cols: cs, fac: f, reg: registry.New(g, nil)}
}

func (fx *fixture) place(t *testing.T, rec *registry.ChunkRecord, ds ...content.Descriptor) {
	t.Helper()
	for _, d := range ds {
		_, err := fx.fac.Materialize(d, rec)
		require.NoError(t, err)
	}
}

func TestUnload_RemovesOnlyOwnedObjects(t *testing.T) {
	fx := newFixture()
	level := scene.NewStaticLevel([]grid.Rect{{Min: mgl64.Vec2{-50, -50}, Max: mgl64.Vec2{50, 50}}}, nil)
	level.Populate(fx.graph, fx.cols)

	a, err := fx.reg.Open(grid.ChunkID{X: 1, Z: 0})
	require.NoError(t, err)
	b, err := fx.reg.Open(grid.ChunkID{X: 2, Z: 0})
	require.NoError(t, err)

	same := []content.Descriptor{
		content.Ground{Size: 200},
		content.Enemy{Variant: "guard", Health: 10},
		content.Pickup{Variant: "health", Amount: 1},
		content.Wall{Variant: "stone", Width: 30, Thickness: 2},
	}
	fx.place(t, a, same...)
	fx.place(t, b, same...)

	doomed := a.Objects()
	survivors := b.Objects()

	n, err := fx.reg.Unload(a.ID)
	require.NoError(t, err)
	assert.Equal(t, len(doomed), n)

	for _, o := range doomed {
		assert.False(t, fx.graph.Contains(o.Visual))
		if o.Record != nil {
			assert.False(t, fx.cols.Get(o.Collection.Name()).Contains(o.Record))
		}
	}
	for _, o := range survivors {
		assert.True(t, fx.graph.Contains(o.Visual))
		if o.Record != nil {
			assert.True(t, fx.cols.Get(o.Collection.Name()).Contains(o.Record))
		}
	}
	// Hand-authored objects of the same kinds are untouched.
	for _, v := range level.Visuals {
		assert.True(t, fx.graph.Contains(v))
	}
	for name, recs := range level.Records {
		for _, r := range recs {
			assert.True(t, fx.cols.Get(name).Contains(r), "hand-authored record in %s removed", name)
		}
	}

	_, ok := fx.reg.Get(a.ID)
	assert.False(t, ok)
	_, err = fx.reg.Unload(a.ID)
	assert.ErrorIs(t, err, registry.ErrUnknownChunk)
}

func TestOpen_RejectsDuplicate(t *testing.T) {
	fx := newFixture()
	_, err := fx.reg.Open(grid.ChunkID{})
	require.NoError(t, err)
	_, err = fx.reg.Open(grid.ChunkID{})
	assert.ErrorIs(t, err, registry.ErrRecordExists)
	assert.Equal(t, 1, fx.reg.Len())
}

func TestRollback_DiscardsOnlyPhaseOutput(t *testing.T) {
	fx := newFixture()
	rec, err := fx.reg.Open(grid.ChunkID{X: 3})
	require.NoError(t, err)

	fx.place(t, rec, content.Ground{Size: 200}, content.TerrainFeature{Variant: "rock", Scale: 1})
	mark := rec.Mark()
	fx.place(t, rec, content.Enemy{Variant: "wolf"}, content.Enemy{Variant: "boar"})

	assert.Equal(t, 2, fx.reg.Rollback(rec, mark))
	assert.Equal(t, 2, rec.Len())
	assert.Zero(t, fx.cols.Get(scene.Enemies).Len())
	assert.Equal(t, 2, fx.graph.Len())
	assert.Len(t, rec.Ground(), 2)
	assert.Zero(t, fx.reg.Rollback(rec, rec.Mark()))
}

func TestRecordAccessors(t *testing.T) {
	fx := newFixture()
	rec, err := fx.reg.Open(grid.ChunkID{Z: 1})
	require.NoError(t, err)
	fx.place(t, rec,
		content.Ground{Size: 200},
		content.Wall{Width: 20, Thickness: 2},
		content.Wall{Width: 30, Thickness: 2},
		content.Obstacle{Variant: "log", Radius: 2, Scale: 1},
	)

	assert.Len(t, rec.Walls(), 2)
	assert.Len(t, rec.Ground(), 1)
	assert.Equal(t, 2, rec.CountByKind()[content.KindWall])
	assert.Equal(t, 3, fx.cols.Get(scene.StaticObstacles).Len())
	assert.Equal(t, 4, fx.reg.Objects())

	assert.Equal(t, 4, fx.reg.Clear())
	assert.Zero(t, fx.reg.Len())
	assert.Zero(t, fx.graph.Len())
}
