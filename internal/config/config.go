// Package config загружает настройки стримера из YAML или TOML,
// проверяет их по встроенной JSON-схеме и применяет переменные окружения STREAMER_*.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/annelo/go-world-streamer/internal/generator"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "streamer.schema.json"

// ErrUnsupportedFormat - расширение файла не .yaml/.yml/.toml.
var ErrUnsupportedFormat = errors.New("неподдерживаемый формат конфигурации")

// Duration - time.Duration, записанная строкой ("3s", "12ms").
type Duration time.Duration

// Std возвращает time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("длительность должна быть строкой: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config - полная конфигурация стримера.
type Config struct {
	Seed       uint64           `json:"seed"`
	Theme      string           `json:"theme"`
	Difficulty string           `json:"difficulty"`
	Grid       GridConfig       `json:"grid"`
	Streaming  StreamingConfig  `json:"streaming"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
	Exclusion  ExclusionConfig  `json:"exclusion"`
	Generation GenerationConfig `json:"generation"`
	Terrain    TerrainConfig    `json:"terrain"`
	Level      LevelConfig      `json:"level"`
	Logging    LoggingConfig    `json:"logging"`
	Loop       LoopConfig       `json:"loop"`
	Plugins    PluginsConfig    `json:"plugins"`
}

type GridConfig struct {
	ChunkSize float64 `json:"chunk_size"`
}

type StreamingConfig struct {
	TriggerDistance float64  `json:"trigger_distance"`
	UnloadDistance  float64  `json:"unload_distance"`
	SweepInterval   Duration `json:"sweep_interval"`
	BatchSize       int      `json:"batch_size"`
}

type SchedulerConfig struct {
	Budget Duration `json:"budget"`
}

type ExclusionConfig struct {
	Margin float64 `json:"margin"`
}

type GenerationConfig struct {
	BossChance float64 `json:"boss_chance"`
	WallChance float64 `json:"wall_chance"`
}

type TerrainConfig struct {
	Amplitude    float64 `json:"amplitude"`
	HeightScale  float64 `json:"height_scale"`
	DensityScale float64 `json:"density_scale"`
}

// LevelConfig описывает области ручного контента базового уровня.
type LevelConfig struct {
	Rects   []RectConfig   `json:"rects"`
	Circles []CircleConfig `json:"circles"`
}

type RectConfig struct {
	MinX float64 `json:"min_x"`
	MinZ float64 `json:"min_z"`
	MaxX float64 `json:"max_x"`
	MaxZ float64 `json:"max_z"`
}

type CircleConfig struct {
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Radius float64 `json:"radius"`
}

type LoggingConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
}

type LoopConfig struct {
	Tick       Duration `json:"tick"`
	StatsEvery Duration `json:"stats_every"`
}

type PluginsConfig struct {
	Dir string `json:"dir"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Seed:       1,
		Theme:      "forest",
		Difficulty: "normal",
		Grid:       GridConfig{ChunkSize: 200},
		Streaming: StreamingConfig{
			TriggerDistance: 150,
			UnloadDistance:  600,
			SweepInterval:   Duration(3 * time.Second),
			BatchSize:       16,
		},
		Scheduler:  SchedulerConfig{Budget: Duration(12 * time.Millisecond)},
		Exclusion:  ExclusionConfig{Margin: 20},
		Generation: GenerationConfig{BossChance: 0.05, WallChance: 0.6},
		Terrain:    TerrainConfig{Amplitude: 6, HeightScale: 400, DensityScale: 900},
		Level: LevelConfig{
			Rects: []RectConfig{{MinX: -100, MinZ: -100, MaxX: 100, MaxZ: 100}},
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Loop: LoopConfig{
			Tick:       Duration(50 * time.Millisecond),
			StatsEvery: Duration(10 * time.Second),
		},
		Plugins: PluginsConfig{Dir: "./plugins"},
	}
}

// Load читает конфигурацию: значения по умолчанию, затем файл (если path не пуст),
// затем .env и переменные окружения. Результат проверяется Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
		}
		if err := cfg.decode(filepath.Ext(path), data); err != nil {
			return nil, fmt.Errorf("конфигурация %s: %w", path, err)
		}
	}

	// .env необязателен
	_ = godotenv.Load()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("проверка конфигурации: %w", err)
	}
	return cfg, nil
}

// Parse разбирает документ в формате ext (".yaml", ".yml", ".toml") поверх значений по умолчанию.
func Parse(ext string, data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(ext, data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode приводит документ к JSON, проверяет по схеме и накладывает на cfg.
func (c *Config) decode(ext string, data []byte) error {
	doc := map[string]interface{}{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("разбор YAML: %w", err)
		}
	case ".toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return fmt.Errorf("разбор TOML: %w", err)
		}
		doc = tree.ToMap()
	default:
		return fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("преобразование в JSON: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var instance interface{}
	if err := dec.Decode(&instance); err != nil {
		return err
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("схема: %w", err)
	}

	if err := json.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("заполнение конфигурации: %w", err)
	}
	return nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("загрузка схемы: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ApplyEnv применяет переменные STREAMER_*. lookup обычно os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = Duration(d)
		}
	}

	if v, ok := lookup("STREAMER_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("STREAMER_SEED: %w", err))
		} else {
			c.Seed = seed
		}
	}
	num("STREAMER_CHUNK_SIZE", &c.Grid.ChunkSize)
	num("STREAMER_TRIGGER_DISTANCE", &c.Streaming.TriggerDistance)
	num("STREAMER_UNLOAD_DISTANCE", &c.Streaming.UnloadDistance)
	dur("STREAMER_SWEEP_INTERVAL", &c.Streaming.SweepInterval)
	dur("STREAMER_BUDGET", &c.Scheduler.Budget)
	str("STREAMER_THEME", &c.Theme)
	str("STREAMER_DIFFICULTY", &c.Difficulty)
	str("STREAMER_LOG_LEVEL", &c.Logging.Level)
	str("STREAMER_LOG_FORMAT", &c.Logging.Format)
	str("STREAMER_PLUGINS_DIR", &c.Plugins.Dir)

	return errors.Join(errs...)
}

// Validate проверяет согласованность значений, которые схема проверить не может.
func (c *Config) Validate() error {
	var errs []error
	if c.Grid.ChunkSize <= 0 {
		errs = append(errs, errors.New("grid.chunk_size должен быть положительным"))
	}
	if c.Streaming.TriggerDistance <= 0 || c.Streaming.TriggerDistance > c.Grid.ChunkSize {
		errs = append(errs, fmt.Errorf("streaming.trigger_distance должен быть в (0, %v]", c.Grid.ChunkSize))
	}
	// самый дальний запрашиваемый чанк имеет центр в trigger + size/2 от наблюдателя
	if reach := c.Streaming.TriggerDistance + c.Grid.ChunkSize/2; c.Streaming.UnloadDistance <= reach {
		errs = append(errs, fmt.Errorf("streaming.unload_distance должен превышать trigger_distance + chunk_size/2 (%v)", reach))
	}
	if c.Streaming.SweepInterval <= 0 {
		errs = append(errs, errors.New("streaming.sweep_interval должен быть положительным"))
	}
	if c.Scheduler.Budget <= 0 {
		errs = append(errs, errors.New("scheduler.budget должен быть положительным"))
	}
	if _, ok := generator.Themes[c.Theme]; !ok {
		errs = append(errs, fmt.Errorf("неизвестная тема %q, доступны: %s", c.Theme, strings.Join(generator.ThemeNames(), ", ")))
	}
	if _, ok := generator.Difficulties[c.Difficulty]; !ok {
		errs = append(errs, fmt.Errorf("неизвестная сложность %q", c.Difficulty))
	}
	for name, p := range map[string]float64{
		"generation.boss_chance": c.Generation.BossChance,
		"generation.wall_chance": c.Generation.WallChance,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s должен быть в [0, 1]", name))
		}
	}
	if c.Loop.Tick <= 0 {
		errs = append(errs, errors.New("loop.tick должен быть положительным"))
	}
	for i, r := range c.Level.Rects {
		if r.MaxX < r.MinX || r.MaxZ < r.MinZ {
			errs = append(errs, fmt.Errorf("level.rects[%d]: max меньше min", i))
		}
	}
	return errors.Join(errs...)
}
