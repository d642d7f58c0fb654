package world_test

import (
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/go-world-streamer/internal/chunkmanager"
	"github.com/annelo/go-world-streamer/internal/config"
	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/gameloop"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/plugin"
	"github.com/annelo/go-world-streamer/internal/world"
)

type hookCounts struct {
	before, after, unload, premarked, reset, events atomic.Int32
}

func countingRegistry() (*plugin.DefaultRegistry, *hookCounts) {
	reg := plugin.NewDefaultRegistry()
	c := &hookCounts{}
	reg.RegisterHook(plugin.HookBeforeChunkGenerate, func(args ...interface{}) { c.before.Add(1) })
	reg.RegisterHook(plugin.HookAfterChunkGenerate, func(args ...interface{}) { c.after.Add(1) })
	reg.RegisterHook(plugin.HookAfterChunkUnload, func(args ...interface{}) { c.unload.Add(1) })
	reg.RegisterHook(plugin.HookChunkPremarked, func(args ...interface{}) { c.premarked.Add(1) })
	reg.RegisterHook(plugin.HookWorldReset, func(args ...interface{}) { c.reset.Add(1) })
	reg.RegisterHook(plugin.HookWorldEvent, func(args ...interface{}) {
		if _, ok := args[0].(gameloop.WorldEvent); ok {
			c.events.Add(1)
		}
	})
	return reg, c
}

// narrowConfig keeps the trigger below half a chunk, so an observer at a chunk
// center wants that chunk only.
func narrowConfig() *config.Config {
	cfg := config.Default()
	cfg.Streaming.TriggerDistance = 50
	return cfg
}

func TestWorld_StreamsAroundObserver(t *testing.T) {
	reg, hooks := countingRegistry()
	var seen []chunkmanager.EventType
	w, err := world.NewWorld(config.Default(), reg, world.Options{
		OnChunkEvent: func(e chunkmanager.Event) { seen = append(seen, e.Type) },
	})
	require.NoError(t, err)
	static := w.Graph().Len()
	assert.Positive(t, static, "hand-authored level is populated on creation")

	// the default level covers the centers of the four chunks around the origin;
	// each is only a quarter covered, so its uncovered part is filled once
	w.OnObserverMoved(mgl64.Vec3{0, 0, 0})
	w.Flush()
	assert.EqualValues(t, 4, hooks.premarked.Load())
	assert.EqualValues(t, 4, hooks.before.Load())
	assert.EqualValues(t, 4, hooks.after.Load())

	// offset (100,100) is within 150 of all four edges: the whole 3x3 block is wanted
	w.OnObserverMoved(mgl64.Vec3{500, 0, 500})
	w.Flush()
	for x := 1; x <= 3; x++ {
		for z := 1; z <= 3; z++ {
			c := grid.ChunkID{X: x, Z: z}
			assert.Equal(t, chunkmanager.Active, w.State(c), "chunk %s", c)
			assert.Equal(t, 1, w.CountByKind(c)[content.KindGround], "chunk %s", c)
		}
	}
	assert.EqualValues(t, 13, hooks.before.Load())
	assert.EqualValues(t, 13, hooks.after.Load())
	assert.Contains(t, seen, chunkmanager.EventAfterGenerate)

	stats := w.Stats()
	assert.Equal(t, 13, stats.Active)
	assert.Equal(t, 4, stats.HandAuthored)
	assert.Equal(t, 13, stats.Records)
	assert.Equal(t, static+stats.Objects, w.Graph().Len())

	var handAuthored int
	for _, info := range w.Chunks() {
		if info.HandAuthored {
			handAuthored++
		}
	}
	assert.Equal(t, 4, handAuthored)
}

func TestWorld_NarrowTriggerStreamsSingleChunk(t *testing.T) {
	reg, hooks := countingRegistry()
	w, err := world.NewWorld(narrowConfig(), reg, world.Options{})
	require.NoError(t, err)

	w.OnObserverMoved(mgl64.Vec3{500, 0, 500})
	w.Flush()
	before := hooks.before.Load()

	assert.Equal(t, chunkmanager.Active, w.State(grid.ChunkID{X: 2, Z: 2}))
	for _, c := range []grid.ChunkID{{X: 1, Z: 2}, {X: 3, Z: 2}, {X: 2, Z: 1}, {X: 2, Z: 3}, {X: 3, Z: 3}} {
		assert.Equal(t, chunkmanager.Unrequested, w.State(c), "chunk %s", c)
	}
	// four level fills plus 2:2
	assert.EqualValues(t, 5, before)
	assert.Equal(t, 5, w.Stats().Active)
}

func TestWorld_SweepAndReset(t *testing.T) {
	reg, hooks := countingRegistry()
	w, err := world.NewWorld(narrowConfig(), reg, world.Options{})
	require.NoError(t, err)

	w.OnObserverMoved(mgl64.Vec3{500, 0, 500})
	w.Flush()
	static := w.Graph().Len() - w.Stats().Objects

	w.OnObserverMoved(mgl64.Vec3{5100, 0, 5100})
	unloaded := w.Sweep()
	assert.Equal(t, []grid.ChunkID{{X: 2, Z: 2}}, unloaded)
	assert.EqualValues(t, 1, hooks.unload.Load())
	assert.Equal(t, chunkmanager.Unloaded, w.State(grid.ChunkID{X: 2, Z: 2}))
	assert.Equal(t, chunkmanager.Active, w.State(grid.ChunkID{X: 0, Z: 0}), "hand-authored chunks stay")

	w.ResetWorld()
	assert.EqualValues(t, 1, hooks.reset.Load())
	assert.Zero(t, w.Stats().Records)
	assert.Empty(t, w.Chunks())
	assert.Equal(t, static, w.Graph().Len(), "reset keeps the level and drops procedural content")
}

func TestWorld_EmitWorldEvent(t *testing.T) {
	reg, hooks := countingRegistry()
	w, err := world.NewWorld(nil, reg, world.Options{})
	require.NoError(t, err)

	w.EmitWorldEvent(gameloop.WorldEvent{Type: gameloop.EventDayStarted, Day: 2})
	assert.EqualValues(t, 1, hooks.events.Load())
}

func TestWorld_PluginBuildersOverrideDefaults(t *testing.T) {
	reg := plugin.NewDefaultRegistry()
	reg.RegisterBuilder("ground", nil)
	var skipped atomic.Int32
	reg.RegisterHook(plugin.HookObjectSkipped, func(args ...interface{}) {
		if d, ok := args[0].(content.Descriptor); ok && d.Kind() == content.KindGround {
			skipped.Add(1)
		}
	})

	w, err := world.NewWorld(narrowConfig(), reg, world.Options{})
	require.NoError(t, err)
	assert.NotContains(t, w.Factory().Keys(), "ground")

	// level fills drop their ground tiles at the filter, only 2:2 reaches the factory
	w.OnObserverMoved(mgl64.Vec3{500, 0, 500})
	w.Flush()
	assert.EqualValues(t, 1, skipped.Load())
	assert.Zero(t, w.CountByKind(grid.ChunkID{X: 2, Z: 2})[content.KindGround])
}

func TestNewWorld_RejectsUnknownTheme(t *testing.T) {
	cfg := config.Default()
	cfg.Theme = "swamp"
	_, err := world.NewWorld(cfg, nil, world.Options{})
	assert.Error(t, err)
}

func TestNewWorld_RejectsUnloadInsideRequestReach(t *testing.T) {
	cfg := config.Default()
	cfg.Streaming.UnloadDistance = 220
	require.Error(t, cfg.Validate())

	_, err := world.NewWorld(cfg, nil, world.Options{})
	assert.ErrorIs(t, err, chunkmanager.ErrUnloadTooClose)
}
