package noisegeneration

// TerrainOptions - параметры рельефа.
type TerrainOptions struct {
	Seed          int64
	Amplitude     float64 // максимальная высота над базовым уровнем
	HeightScale   float64 // масштаб шума высоты
	DensityScale  float64 // масштаб шума плотности деталей
	CacheCapacity int
}

// DefaultTerrainOptions возвращает параметры по умолчанию
func DefaultTerrainOptions(seed int64) TerrainOptions {
	return TerrainOptions{
		Seed:          seed,
		Amplitude:     6,
		HeightScale:   400,
		DensityScale:  900,
		CacheCapacity: 4096,
	}
}

// Terrain - источник высоты и плотности рельефа на основе шума Перлина.
// Реализует worldinterfaces.HeightSource и generator.DensityField.
type Terrain struct {
	height    *NoiseMap
	density   *NoiseMap
	amplitude float64
	cache     *NoiseCache
}

// NewTerrain создает рельеф
func NewTerrain(opts TerrainOptions) *Terrain {
	if opts.HeightScale <= 0 {
		opts.HeightScale = 400
	}
	if opts.DensityScale <= 0 {
		opts.DensityScale = 900
	}
	return &Terrain{
		height:    NewNoiseMap(opts.Seed, opts.HeightScale),
		density:   NewNoiseMap(opts.Seed+1, opts.DensityScale),
		amplitude: opts.Amplitude,
		cache:     NewNoiseCache(opts.CacheCapacity),
	}
}

// HeightAt возвращает высоту земли в точке (x, z), значение в [0, Amplitude].
func (t *Terrain) HeightAt(x, z float64) float64 {
	if h, ok := t.cache.Get(x, z); ok {
		return h
	}
	h := t.height.GetNormalized2D(x, z) * t.amplitude
	t.cache.Put(x, z, h)
	return h
}

// Density возвращает плотность деталей рельефа в [0, 1].
func (t *Terrain) Density(x, z float64) float64 {
	return t.density.GetNormalized2D(x, z)
}

// CacheStats возвращает статистику кеша высот
func (t *Terrain) CacheStats() (hits, misses int, ratio float64) {
	return t.cache.GetStats()
}
