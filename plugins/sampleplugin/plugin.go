// Package sampleplugin - пример плагина: свой билдер голема, хуки стриминга,
// игровая система и админ-команда.
package sampleplugin

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/gameloop"
	"github.com/annelo/go-world-streamer/internal/plugin"
	"github.com/annelo/go-world-streamer/internal/scene"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

// Name - имя плагина, оно же имя файла конфигурации.
const Name = "sampleplugin"

// Config - конфигурация плагина
type Config struct {
	Greeting   string  `yaml:"greeting"`
	Value      int     `yaml:"value"`
	GolemScale float64 `yaml:"golem_scale"`
	GolemTint  string  `yaml:"golem_tint"`
}

// Meta возвращает метаданные для статической загрузки
func Meta() plugin.PluginMeta {
	return plugin.PluginMeta{
		Name:        Name,
		Version:     plugin.PluginAPIVersion,
		Author:      "annelo",
		Description: "Sample plugin: granite golems and streaming counters",
	}
}

type counters struct {
	generated atomic.Int64
	unloaded  atomic.Int64
	skipped   atomic.Int64
	ticks     atomic.Int64
}

// heartbeat считает тики цикла.
type heartbeat struct{ c *counters }

func (h heartbeat) Init(gameloop.Dependencies) error { return nil }
func (h heartbeat) Name() string                     { return "sample-heartbeat" }

func (h heartbeat) Tick(ctx context.Context, dt time.Duration) { h.c.ticks.Add(1) }

// Register is invoked by PluginManager to register builders, hooks, systems and commands
func Register(reg plugin.PluginRegistry) {
	c := &counters{}
	reg.RegisterPluginConfig(Name, &Config{Greeting: "Hello", GolemScale: 1.5, GolemTint: "granite"})

	config := func() *Config {
		if cfg, ok := reg.PluginConfig(Name).(*Config); ok {
			return cfg
		}
		return &Config{}
	}

	// Голем из гранита вместо стандартного меша противника
	reg.RegisterBuilder("enemy/golem", func(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error) {
		visual, record, err := factory.BuildEnemy(d, at)
		if err != nil {
			return nil, nil, err
		}
		cfg := config()
		if mesh, ok := visual.(*scene.Mesh); ok {
			if cfg.GolemScale > 0 {
				mesh.Scale = mesh.Scale.Mul(cfg.GolemScale)
			}
			mesh.Tint = cfg.GolemTint
		}
		return visual, record, nil
	})

	reg.RegisterHook(plugin.HookAfterChunkGenerate, func(args ...interface{}) { c.generated.Add(1) })
	reg.RegisterHook(plugin.HookAfterChunkUnload, func(args ...interface{}) { c.unloaded.Add(1) })
	reg.RegisterHook(plugin.HookObjectSkipped, func(args ...interface{}) { c.skipped.Add(1) })

	reg.RegisterGameSystem(heartbeat{c: c})

	reg.RegisterCommand("sampleinfo", "Show sample plugin info", func(args []string) (string, error) {
		cfg := config()
		return fmt.Sprintf("Greeting: %s, Value: %d\nchunks generated: %d, unloaded: %d, skipped objects: %d, ticks: %d\n",
			cfg.Greeting, cfg.Value, c.generated.Load(), c.unloaded.Load(), c.skipped.Load(), c.ticks.Load()), nil
	})
}
