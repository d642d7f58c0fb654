package noisegeneration

import (
	"container/list"
	"math"
	"sync"

	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	defaultAlpha = 2.0
	defaultBeta  = 2.0
	defaultN     = 3
)

// NoiseMap - обертка над генератором Перлина с масштабом и октавами.
type NoiseMap struct {
	noise       *perlin.Perlin
	scale       float64
	octaves     int
	persistence float64
}

// NewNoiseMap создает карту шума с заданным сидом и масштабом
func NewNoiseMap(seed int64, scale float64) *NoiseMap {
	return &NoiseMap{
		noise:       perlin.NewPerlin(defaultAlpha, defaultBeta, defaultN, seed),
		scale:       scale,
		octaves:     4,
		persistence: 0.5,
	}
}

// Get2D возвращает сырое значение шума, примерно в [-1, 1]
func (nm *NoiseMap) Get2D(x, z float64) float64 {
	return nm.noise.Noise2D(x/nm.scale, z/nm.scale)
}

// GetOctave2D суммирует несколько октав шума
func (nm *NoiseMap) GetOctave2D(x, z float64, octaves int) float64 {
	total := 0.0
	frequency := 1.0
	amplitude := 1.0
	maxValue := 0.0

	for i := 0; i < octaves; i++ {
		total += nm.noise.Noise2D(x*frequency/nm.scale, z*frequency/nm.scale) * amplitude
		maxValue += amplitude
		amplitude *= nm.persistence
		frequency *= 2
	}

	if maxValue == 0 {
		return 0
	}
	return total / maxValue
}

// GetNormalized2D приводит значение октавного шума к [0, 1]
func (nm *NoiseMap) GetNormalized2D(x, z float64) float64 {
	v := (nm.GetOctave2D(x, z, nm.octaves) + 1) / 2
	return math.Max(0, math.Min(1, v))
}

// SetOctaves задает число октав
func (nm *NoiseMap) SetOctaves(octaves int) {
	if octaves > 0 {
		nm.octaves = octaves
	}
}

// cacheKey - ключ кеша, координаты квантуются до сотых.
type cacheKey struct {
	x, z int64
}

func keyOf(x, z float64) cacheKey {
	return cacheKey{x: int64(math.Round(x * 100)), z: int64(math.Round(z * 100))}
}

type cacheEntry struct {
	key   cacheKey
	value float64
}

// NoiseCache - LRU-кеш значений шума.
type NoiseCache struct {
	mu        sync.Mutex
	capacity  int
	items     map[cacheKey]*list.Element
	order     *list.List
	hitCount  int
	missCount int
}

// NewNoiseCache создает кеш заданной емкости
func NewNoiseCache(capacity int) *NoiseCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &NoiseCache{
		capacity: capacity,
		items:    make(map[cacheKey]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get возвращает значение и флаг попадания
func (nc *NoiseCache) Get(x, z float64) (float64, bool) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if el, ok := nc.items[keyOf(x, z)]; ok {
		nc.hitCount++
		nc.order.MoveToBack(el)
		return el.Value.(*cacheEntry).value, true
	}
	nc.missCount++
	return 0, false
}

// Put сохраняет значение, вытесняя самое старое при переполнении
func (nc *NoiseCache) Put(x, z, value float64) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	k := keyOf(x, z)
	if el, ok := nc.items[k]; ok {
		el.Value.(*cacheEntry).value = value
		nc.order.MoveToBack(el)
		return
	}
	if nc.order.Len() >= nc.capacity {
		oldest := nc.order.Front()
		nc.order.Remove(oldest)
		delete(nc.items, oldest.Value.(*cacheEntry).key)
	}
	nc.items[k] = nc.order.PushBack(&cacheEntry{key: k, value: value})
}

// GetStats возвращает попадания, промахи и долю попаданий
func (nc *NoiseCache) GetStats() (int, int, float64) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	total := nc.hitCount + nc.missCount
	if total == 0 {
		return nc.hitCount, nc.missCount, 0
	}
	return nc.hitCount, nc.missCount, float64(nc.hitCount) / float64(total)
}

// Len возвращает число элементов в кеше
func (nc *NoiseCache) Len() int {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.order.Len()
}

// ClearCache очищает кеш и счетчики
func (nc *NoiseCache) ClearCache() {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	nc.items = make(map[cacheKey]*list.Element, nc.capacity)
	nc.order.Init()
	nc.hitCount = 0
	nc.missCount = 0
}
