package plugin_test

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/plugin"
	"github.com/annelo/go-world-streamer/internal/scene"
	"github.com/annelo/go-world-streamer/plugins/sampleplugin"
)

func TestIntegration_SamplePlugin(t *testing.T) {
	reg := plugin.NewDefaultRegistry()
	// Plugin directory relative to this test file
	pluginDir := filepath.Join("..", "..", "plugins", "sampleplugin", "so")
	pm := plugin.NewPluginManager(pluginDir)

	loaded := 0
	reg.RegisterHook(plugin.HookAfterPluginLoad, func(args ...interface{}) { loaded++ })
	reg.MarkCore()

	err := pm.LoadStatic(reg, sampleplugin.Meta(), sampleplugin.Register)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	metas := reg.PluginMetas()
	require.Len(t, metas, 1, "expected one plugin metadata")
	assert.Equal(t, "sampleplugin", metas[0].Name)

	// Builder for granite golems
	graph := scene.NewGraph()
	f := factory.New(graph, scene.NewCollections(), nil, nil)
	factory.RegisterDefaults(f)
	plugin.ApplyBuilders(reg, f)

	obj, err := f.Materialize(content.Enemy{Variant: "golem", Position: mgl64.Vec3{1, 0, 1}, Health: 100}, nil)
	require.NoError(t, err)
	require.NotNil(t, obj)
	mesh := obj.Visual.(*scene.Mesh)
	assert.Equal(t, "granite", mesh.Tint)
	assert.InDelta(t, 1.5, mesh.Scale.X(), 1e-9)

	// Streaming hooks feed the sampleinfo counters
	plugin.Trigger(reg, nil, plugin.HookAfterChunkGenerate, grid.ChunkID{X: 1}, 10)
	plugin.Trigger(reg, nil, plugin.HookAfterChunkGenerate, grid.ChunkID{X: 2}, 10)
	plugin.Trigger(reg, nil, plugin.HookAfterChunkUnload, grid.ChunkID{X: 1}, 10)

	cmd, ok := reg.Command("sampleinfo")
	require.True(t, ok, "expected sampleinfo command")
	out, err := cmd.Handler(nil)
	assert.NoError(t, err)
	assert.Contains(t, out, "Greeting: Hello from SamplePlugin")
	assert.Contains(t, out, "Value: 123")
	assert.Contains(t, out, "chunks generated: 2, unloaded: 1")

	assert.Len(t, reg.GameSystems(), 1)

	// Reload drops everything the plugin registered
	reg.ClearPlugins()
	assert.Empty(t, reg.Builders())
	assert.Empty(t, reg.Commands())
	assert.Empty(t, reg.Hooks(plugin.HookAfterChunkGenerate))
}

func TestLoadStatic_VersionMismatch(t *testing.T) {
	reg := plugin.NewDefaultRegistry()
	pm := plugin.NewPluginManager("")
	meta := sampleplugin.Meta()
	meta.Version = "0"

	err := pm.LoadStatic(reg, meta, sampleplugin.Register)
	assert.Error(t, err)
	assert.Empty(t, reg.PluginMetas())
	assert.Empty(t, reg.Commands())
}
