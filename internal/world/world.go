// Package world отвечает за инициализацию и связывание компонентов игрового мира
package world

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/annelo/go-world-streamer/internal/chunkmanager"
	"github.com/annelo/go-world-streamer/internal/config"
	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/exclusion"
	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/gameloop"
	"github.com/annelo/go-world-streamer/internal/generator"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/noisegeneration"
	"github.com/annelo/go-world-streamer/internal/plugin"
	"github.com/annelo/go-world-streamer/internal/registry"
	"github.com/annelo/go-world-streamer/internal/scene"
	"github.com/annelo/go-world-streamer/internal/scheduler"
)

// World представляет полный игровой мир: сцену, базовый уровень и стример чанков.
// Все методы потокобезопасны, игровой цикл и консоль администратора могут вызывать их одновременно.
type World struct {
	mu sync.Mutex

	graph       *scene.Graph
	collections *scene.Collections
	level       *scene.StaticLevel
	terrain     *noisegeneration.Terrain
	factory     *factory.Factory
	chunks      *chunkmanager.Manager

	reg    plugin.PluginRegistry
	logger *zap.SugaredLogger
}

// Options - необязательные параметры мира.
type Options struct {
	Logger *zap.SugaredLogger
	// Scheduler заменяет планировщик по умолчанию, например с тестовыми часами.
	Scheduler *scheduler.Scheduler
	// OnChunkEvent получает события жизненного цикла после хуков плагинов.
	OnChunkEvent func(chunkmanager.Event)
}

// NewWorld собирает мир по конфигурации. Билдеры из реестра плагинов регистрируются
// в фабрике поверх встроенных, а события чанков транслируются в хуки реестра.
func NewWorld(cfg *config.Config, reg plugin.PluginRegistry, opts Options) (*World, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = plugin.NewDefaultRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.Named("world")

	w := &World{
		graph:       scene.NewGraph(),
		collections: scene.NewCollections(),
		level:       levelFromConfig(cfg.Level),
		reg:         reg,
		logger:      logger,
	}
	w.level.Populate(w.graph, w.collections)

	tOpts := noisegeneration.DefaultTerrainOptions(int64(cfg.Seed))
	tOpts.Amplitude = cfg.Terrain.Amplitude
	tOpts.HeightScale = cfg.Terrain.HeightScale
	tOpts.DensityScale = cfg.Terrain.DensityScale
	w.terrain = noisegeneration.NewTerrain(tOpts)

	gOpts := generator.DefaultOptions()
	gOpts.Seed = cfg.Seed
	gOpts.ChunkSize = cfg.Grid.ChunkSize
	gOpts.Theme = cfg.Theme
	gOpts.Difficulty = cfg.Difficulty
	gOpts.BossChance = cfg.Generation.BossChance
	gOpts.WallChance = cfg.Generation.WallChance
	gOpts.Density = w.terrain
	gen, err := generator.New(gOpts)
	if err != nil {
		return nil, fmt.Errorf("генератор: %w", err)
	}

	w.factory = factory.New(w.graph, w.collections, w.terrain, logger.Named("factory"))
	factory.RegisterDefaults(w.factory)
	if n := plugin.ApplyBuilders(reg, w.factory); n > 0 {
		logger.Infow("билдеры плагинов зарегистрированы", "count", n)
	}
	w.factory.SetMajorThreats(generator.BossClass())
	w.factory.OnSkip(func(d content.Descriptor) {
		plugin.Trigger(reg, logger, plugin.HookObjectSkipped, d)
	})

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.New(cfg.Scheduler.Budget.Std(), scheduler.WithLogger(logger.Named("scheduler")))
	}

	onChunkEvent := opts.OnChunkEvent
	w.chunks, err = chunkmanager.NewManager(chunkmanager.Options{
		ChunkSize:       cfg.Grid.ChunkSize,
		TriggerDistance: cfg.Streaming.TriggerDistance,
		UnloadDistance:  cfg.Streaming.UnloadDistance,
		SweepInterval:   cfg.Streaming.SweepInterval.Std(),
		BatchSize:       cfg.Streaming.BatchSize,
	}, chunkmanager.Deps{
		Generator: gen,
		Resolver:  exclusion.NewResolver(w.level, cfg.Exclusion.Margin),
		Factory:   w.factory,
		Registry:  registry.New(w.graph, logger.Named("registry")),
		Scheduler: sched,
		Logger:    logger.Named("chunks"),
		OnEvent: func(e chunkmanager.Event) {
			w.dispatch(e)
			if onChunkEvent != nil {
				onChunkEvent(e)
			}
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("мир создан",
		"seed", cfg.Seed,
		"theme", cfg.Theme,
		"difficulty", cfg.Difficulty,
		"chunk_size", cfg.Grid.ChunkSize,
		"static_objects", w.graph.Len(),
	)
	return w, nil
}

func levelFromConfig(lc config.LevelConfig) *scene.StaticLevel {
	rects := make([]grid.Rect, 0, len(lc.Rects))
	for _, r := range lc.Rects {
		rects = append(rects, grid.Rect{Min: mgl64.Vec2{r.MinX, r.MinZ}, Max: mgl64.Vec2{r.MaxX, r.MaxZ}})
	}
	circles := make([]grid.Circle, 0, len(lc.Circles))
	for _, c := range lc.Circles {
		circles = append(circles, grid.Circle{Center: mgl64.Vec2{c.X, c.Z}, Radius: c.Radius})
	}
	return scene.NewStaticLevel(rects, circles)
}

// dispatch переводит событие менеджера чанков в хук плагинов.
// Вызывается под w.mu: обработчики не должны обращаться к World.
func (w *World) dispatch(e chunkmanager.Event) {
	switch e.Type {
	case chunkmanager.EventBeforeGenerate:
		plugin.Trigger(w.reg, w.logger, plugin.HookBeforeChunkGenerate, e.Chunk)
	case chunkmanager.EventAfterGenerate:
		plugin.Trigger(w.reg, w.logger, plugin.HookAfterChunkGenerate, e.Chunk, e.Objects)
	case chunkmanager.EventAfterUnload:
		plugin.Trigger(w.reg, w.logger, plugin.HookAfterChunkUnload, e.Chunk, e.Objects)
	case chunkmanager.EventPremarked:
		plugin.Trigger(w.reg, w.logger, plugin.HookChunkPremarked, e.Chunk)
	}
}

// OnObserverMoved передает позицию наблюдателя стримеру
func (w *World) OnObserverMoved(pos mgl64.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chunks.OnObserverMoved(pos)
}

// Stats возвращает снимок счетчиков стримера
func (w *World) Stats() chunkmanager.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks.Stats()
}

// ChunkInfo - состояние одного известного чанка.
type ChunkInfo struct {
	ID           grid.ChunkID
	State        chunkmanager.State
	HandAuthored bool
	Objects      int
}

// Chunks возвращает все известные чанки в стабильном порядке
func (w *World) Chunks() []ChunkInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := w.chunks.Chunks()
	out := make([]ChunkInfo, 0, len(ids))
	for _, id := range ids {
		info := ChunkInfo{ID: id, State: w.chunks.State(id), HandAuthored: w.chunks.HandAuthored(id)}
		if rec, ok := w.chunks.Record(id); ok {
			info.Objects = rec.Len()
		}
		out = append(out, info)
	}
	return out
}

// State возвращает состояние чанка
func (w *World) State(id grid.ChunkID) chunkmanager.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks.State(id)
}

// ChunkAt возвращает чанк, содержащий точку
func (w *World) ChunkAt(pos mgl64.Vec3) grid.ChunkID {
	return w.chunks.Grid().ChunkOf(pos)
}

// CountByKind возвращает количество объектов каждого вида в чанке
func (w *World) CountByKind(id grid.ChunkID) map[content.Kind]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.chunks.Record(id)
	if !ok {
		return nil
	}
	return rec.CountByKind()
}

// Flush выполняет всю отложенную генерацию
func (w *World) Flush() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks.Flush()
}

// Sweep немедленно выгружает дальние чанки
func (w *World) Sweep() []grid.ChunkID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks.Sweep()
}

// ResetWorld удаляет весь процедурный контент и начинает новую сессию.
// Ручной контент уровня остается на месте.
func (w *World) ResetWorld() {
	w.mu.Lock()
	w.chunks.ResetWorld()
	w.mu.Unlock()
	plugin.Trigger(w.reg, w.logger, plugin.HookWorldReset)
}

// EmitWorldEvent рассылает событие игровых систем плагинам
func (w *World) EmitWorldEvent(e gameloop.WorldEvent) {
	plugin.Trigger(w.reg, w.logger, plugin.HookWorldEvent, e)
}

// HeightAt возвращает высоту рельефа в точке
func (w *World) HeightAt(x, z float64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terrain.HeightAt(x, z)
}

// Graph возвращает граф сцены
func (w *World) Graph() *scene.Graph { return w.graph }

// Collections возвращает общие коллекции сцены
func (w *World) Collections() *scene.Collections { return w.collections }

// Level возвращает базовый уровень
func (w *World) Level() *scene.StaticLevel { return w.level }

// Factory возвращает фабрику объектов
func (w *World) Factory() *factory.Factory { return w.factory }
