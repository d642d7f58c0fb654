// Package generator строит список дескрипторов контента для чанка.
//
// Generate - чистая функция от идентификатора чанка, сида мира, настроек темы
// и снимка соседей. Проходы читают один поток случайных чисел строго в порядке:
// земля, рельеф, граничные стены, препятствия, предметы, противники, бросок на босса.
// Перестановка проходов меняет весь последующий результат.
package generator

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/grid"
)

// Adjacency - битовая маска соседей, уже существующих на момент генерации.
type Adjacency uint8

// Has проверяет наличие соседа в направлении d.
func (a Adjacency) Has(d grid.Direction) bool {
	return a&(1<<d) != 0
}

// With возвращает маску с добавленным соседом.
func (a Adjacency) With(d grid.Direction) Adjacency {
	return a | 1<<d
}

// DensityField задает плотность рельефа в точке, значение в [0, 1].
type DensityField interface {
	Density(x, z float64) float64
}

// CountRange - диапазон количества объектов, включительно.
type CountRange struct {
	Min int
	Max int
}

// Options - настройки генератора.
type Options struct {
	Seed       uint64
	ChunkSize  float64
	Theme      string
	Difficulty string

	Terrain   CountRange
	Obstacles CountRange
	Pickups   CountRange
	Enemies   CountRange

	// WallChance - вероятность существования отдельного сегмента стены.
	WallChance   float64
	WallMinWidth float64
	WallMaxWidth float64
	WallMinGap   float64
	WallMaxGap   float64

	BossChance float64

	// Density смещает количество деталей рельефа. Может быть nil.
	Density DensityField
}

// DefaultOptions возвращает настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		ChunkSize:    grid.DefaultChunkSize,
		Theme:        "forest",
		Difficulty:   "normal",
		Terrain:      CountRange{Min: 4, Max: 10},
		Obstacles:    CountRange{Min: 2, Max: 6},
		Pickups:      CountRange{Min: 1, Max: 3},
		Enemies:      CountRange{Min: 2, Max: 6},
		WallChance:   0.6,
		WallMinWidth: 20,
		WallMaxWidth: 60,
		WallMinGap:   10,
		WallMaxGap:   40,
		BossChance:   0.05,
	}
}

const (
	wallThickness  = 2.0
	wallMinHeight  = 4.0
	wallMaxHeight  = 9.0
	minSegment     = 5.0
	postSize       = 3.0
	spawnInset     = 10.0
	baseHealth     = 100
	bossHealthMult = 10
)

// Generator - детерминированный генератор содержимого чанков.
type Generator struct {
	opts       Options
	grid       grid.Grid
	theme      Theme
	difficulty Difficulty
}

// New создает генератор. Неизвестная тема или сложность - ошибка.
func New(opts Options) (*Generator, error) {
	theme, ok := Themes[opts.Theme]
	if !ok {
		return nil, fmt.Errorf("неизвестная тема %q", opts.Theme)
	}
	diff, ok := Difficulties[opts.Difficulty]
	if !ok {
		return nil, fmt.Errorf("неизвестная сложность %q", opts.Difficulty)
	}
	if opts.WallMaxWidth < opts.WallMinWidth || opts.WallMaxGap < opts.WallMinGap || opts.WallMinWidth+opts.WallMinGap <= 0 {
		return nil, fmt.Errorf("некорректные размеры стен: width [%v,%v], gap [%v,%v]",
			opts.WallMinWidth, opts.WallMaxWidth, opts.WallMinGap, opts.WallMaxGap)
	}
	return &Generator{
		opts:       opts,
		grid:       grid.New(opts.ChunkSize),
		theme:      theme,
		difficulty: diff,
	}, nil
}

// Theme возвращает активную тему
func (g *Generator) Theme() Theme { return g.theme }

// Generate возвращает дескрипторы для чанка id с учетом снимка соседей adj.
func (g *Generator) Generate(id grid.ChunkID, adj Adjacency) []content.Descriptor {
	rng := NewStream(SeedFor(g.opts.Seed, id))
	origin := g.grid.Origin(id)

	out := make([]content.Descriptor, 0, 32)
	out = append(out, content.Ground{
		Position: g.grid.Center(id),
		Size:     g.grid.Size,
		Theme:    g.theme.Name,
	})
	out = g.terrain(rng, id, origin, out)
	out = g.walls(rng, origin, adj, out)
	out = g.obstacles(rng, origin, out)
	out = g.pickups(rng, origin, out)
	out = g.enemies(rng, origin, out)
	out = g.boss(rng, origin, out)
	return out
}

// spawnPoint выбирает точку внутри чанка с отступом от краев.
func (g *Generator) spawnPoint(rng *Stream, origin mgl64.Vec3) mgl64.Vec3 {
	x := rng.Range(spawnInset, g.grid.Size-spawnInset)
	z := rng.Range(spawnInset, g.grid.Size-spawnInset)
	return origin.Add(mgl64.Vec3{x, 0, z})
}

func (g *Generator) terrain(rng *Stream, id grid.ChunkID, origin mgl64.Vec3, out []content.Descriptor) []content.Descriptor {
	n := rng.IntRange(g.opts.Terrain.Min, g.opts.Terrain.Max)
	if g.opts.Density != nil {
		c := g.grid.Center(id)
		d := clamp01(g.opts.Density.Density(c.X(), c.Z()))
		n = int(math.Round(float64(n) * (0.5 + d)))
	}
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		out = append(out, content.TerrainFeature{
			Variant:  rng.Pick(g.theme.Terrain),
			Position: g.spawnPoint(rng, origin),
			Scale:    rng.Range(0.6, 1.8),
			Rotation: rng.Angle(),
		})
	}
	return out
}

// walls строит сегменты вдоль сторон без соседей. Сторона с существующим соседом
// пропускается целиком и не потребляет поток.
func (g *Generator) walls(rng *Stream, origin mgl64.Vec3, adj Adjacency, out []content.Descriptor) []content.Descriptor {
	size := g.grid.Size
	for _, edge := range grid.Edges {
		if adj.Has(edge) {
			continue
		}
		for t := 0.0; t < size; {
			width := rng.Range(g.opts.WallMinWidth, g.opts.WallMaxWidth)
			if t+width > size {
				width = size - t
			}
			gap := rng.Range(g.opts.WallMinGap, g.opts.WallMaxGap)
			exists := rng.Chance(g.opts.WallChance)
			height := rng.Range(wallMinHeight, wallMaxHeight)
			if exists && width >= minSegment {
				pos, rot := edgePoint(origin, size, edge, t+width/2)
				out = append(out, content.Wall{
					Variant:   g.theme.Wall,
					Position:  pos,
					Width:     width,
					Height:    height,
					Thickness: wallThickness,
					Rotation:  rot,
					Edge:      edge,
				})
			}
			t += width + gap
		}
	}
	for _, corner := range grid.Corners {
		a, b := corner.Sides()
		if adj.Has(corner) || adj.Has(a) || adj.Has(b) {
			continue
		}
		exists := rng.Chance(g.opts.WallChance)
		height := rng.Range(wallMinHeight, wallMaxHeight)
		if !exists {
			continue
		}
		out = append(out, content.Wall{
			Variant:   g.theme.Wall,
			Position:  cornerPoint(origin, size, corner),
			Width:     postSize,
			Height:    height,
			Thickness: postSize,
			Edge:      corner,
		})
	}
	return out
}

// edgePoint переводит смещение вдоль стороны в мировую позицию и поворот сегмента.
func edgePoint(origin mgl64.Vec3, size float64, edge grid.Direction, along float64) (mgl64.Vec3, float64) {
	switch edge {
	case grid.North:
		return origin.Add(mgl64.Vec3{along, 0, 0}), 0
	case grid.South:
		return origin.Add(mgl64.Vec3{along, 0, size}), 0
	case grid.West:
		return origin.Add(mgl64.Vec3{0, 0, along}), math.Pi / 2
	default:
		return origin.Add(mgl64.Vec3{size, 0, along}), math.Pi / 2
	}
}

func cornerPoint(origin mgl64.Vec3, size float64, corner grid.Direction) mgl64.Vec3 {
	switch corner {
	case grid.NorthEast:
		return origin.Add(mgl64.Vec3{size, 0, 0})
	case grid.SouthEast:
		return origin.Add(mgl64.Vec3{size, 0, size})
	case grid.SouthWest:
		return origin.Add(mgl64.Vec3{0, 0, size})
	default:
		return origin
	}
}

func (g *Generator) obstacles(rng *Stream, origin mgl64.Vec3, out []content.Descriptor) []content.Descriptor {
	n := rng.IntRange(g.opts.Obstacles.Min, g.opts.Obstacles.Max)
	for i := 0; i < n; i++ {
		scale := rng.Range(0.8, 1.6)
		out = append(out, content.Obstacle{
			Variant:  rng.Pick(g.theme.Obstacles),
			Position: g.spawnPoint(rng, origin),
			Scale:    scale,
			Radius:   2 * scale,
			Rotation: rng.Angle(),
		})
	}
	return out
}

func (g *Generator) pickups(rng *Stream, origin mgl64.Vec3, out []content.Descriptor) []content.Descriptor {
	n := rng.IntRange(g.opts.Pickups.Min, g.opts.Pickups.Max)
	for i := 0; i < n; i++ {
		out = append(out, content.Pickup{
			Variant:  rng.Pick(g.theme.Pickups),
			Position: g.spawnPoint(rng, origin),
			Amount:   rng.IntRange(1, 5),
		})
	}
	return out
}

func (g *Generator) enemies(rng *Stream, origin mgl64.Vec3, out []content.Descriptor) []content.Descriptor {
	n := rng.IntRange(g.opts.Enemies.Min, g.opts.Enemies.Max)
	n = int(math.Round(float64(n) * g.difficulty.EnemyScale))
	for i := 0; i < n; i++ {
		health := float64(baseHealth) * g.difficulty.HealthScale * rng.Range(0.8, 1.2)
		out = append(out, content.Enemy{
			Variant:     rng.Pick(g.theme.Enemies),
			Position:    g.spawnPoint(rng, origin),
			Health:      int(math.Round(health)),
			PatrolRange: rng.Range(10, 40),
		})
	}
	return out
}

// boss - единственный бросок на босса. Бросок выполняется всегда.
func (g *Generator) boss(rng *Stream, origin mgl64.Vec3, out []content.Descriptor) []content.Descriptor {
	if !rng.Chance(g.opts.BossChance) || len(g.theme.Bosses) == 0 {
		return out
	}
	half := g.grid.Size / 2
	jitter := mgl64.Vec3{rng.Range(-half/2, half/2), 0, rng.Range(-half/2, half/2)}
	health := float64(baseHealth*bossHealthMult) * g.difficulty.HealthScale
	return append(out, content.Enemy{
		Variant:     rng.Pick(g.theme.Bosses),
		Position:    origin.Add(mgl64.Vec3{half, 0, half}).Add(jitter),
		Health:      int(math.Round(health)),
		PatrolRange: rng.Range(20, 60),
		Boss:        true,
	})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
