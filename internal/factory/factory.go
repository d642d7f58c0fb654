// Package factory превращает дескрипторы контента в размещенные объекты:
// визуальный хэндл в графе мира плюс игровая запись в одной общей коллекции.
package factory

import (
	"errors"
	"expvar"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/scene"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

var (
	// ErrNoTarget - целевая коллекция для записи не найдена.
	ErrNoTarget = errors.New("целевая коллекция не найдена")
	// ErrDescriptorMismatch - билдер получил дескриптор чужого вида.
	ErrDescriptorMismatch = errors.New("дескриптор не подходит билдеру")
)

// Metrics
var (
	objectsPlaced  = expvar.NewInt("objects_placed")
	objectsSkipped = expvar.NewInt("objects_skipped")
)

// Builder строит визуальный хэндл и игровую запись для дескриптора, уже посаженного на землю.
// Запись может быть nil у чисто визуального контента (земля, рельеф).
type Builder func(d content.Descriptor, at mgl64.Vec3) (worldinterfaces.Visual, worldinterfaces.Record, error)

// PlacedObject - материализованный дескриптор. Визуальный хэндл и запись удаляются только вместе.
type PlacedObject struct {
	ID         uuid.UUID
	Descriptor content.Descriptor
	Position   mgl64.Vec3
	Visual     worldinterfaces.Visual
	Record     worldinterfaces.Record
	Collection worldinterfaces.Collection
}

// Kind возвращает вид исходного дескриптора
func (o *PlacedObject) Kind() content.Kind { return o.Descriptor.Kind() }

// Dispose удаляет хэндл из графа и запись из её коллекции по идентичности.
func (o *PlacedObject) Dispose(graph worldinterfaces.WorldGraph) {
	if o.Visual != nil {
		graph.Remove(o.Visual)
	}
	if o.Record != nil && o.Collection != nil {
		o.Collection.Remove(o.Record)
	}
}

// Owner получает каждый созданный объект. Реализуется записью чанка.
type Owner interface {
	Track(obj *PlacedObject)
}

// Factory хранит билдеры по ключу дескриптора и маршрутизирует записи по коллекциям.
type Factory struct {
	graph       worldinterfaces.WorldGraph
	collections worldinterfaces.Collections
	height      worldinterfaces.HeightSource
	logger      *zap.SugaredLogger

	mu           sync.RWMutex
	builders     map[string]Builder
	majorThreats map[string]bool
	onSkip       func(content.Descriptor)

	placed  int64
	skipped int64
}

// New создает фабрику без билдеров. height может быть nil, тогда объекты ставятся на y=0.
func New(graph worldinterfaces.WorldGraph, collections worldinterfaces.Collections, height worldinterfaces.HeightSource, logger *zap.SugaredLogger) *Factory {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Factory{
		graph:        graph,
		collections:  collections,
		height:       height,
		logger:       logger,
		builders:     make(map[string]Builder),
		majorThreats: make(map[string]bool),
	}
}

// Register регистрирует билдер. Ключ - либо полный тип ("enemy/golem"), либо вид ("enemy").
// nil удаляет билдер.
func (f *Factory) Register(key string, b Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b == nil {
		delete(f.builders, key)
		return
	}
	f.builders[key] = b
}

// Keys возвращает зарегистрированные ключи
func (f *Factory) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.builders))
	for k := range f.builders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetMajorThreats задает варианты класса "босс".
func (f *Factory) SetMajorThreats(variants []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.majorThreats = make(map[string]bool, len(variants))
	for _, v := range variants {
		f.majorThreats[v] = true
	}
}

// OnSkip задает обработчик пропущенных дескрипторов
func (f *Factory) OnSkip(fn func(content.Descriptor)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSkip = fn
}

// Lookup ищет билдер сначала по полному типу, затем по виду.
func (f *Factory) Lookup(d content.Descriptor) (Builder, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if b, ok := f.builders[d.Type()]; ok {
		return b, true
	}
	b, ok := f.builders[d.Kind().String()]
	return b, ok
}

// Route возвращает имя коллекции для записи дескриптора; пустая строка - записи нет.
// Варианты класса "босс" уходят в крупные угрозы независимо от флага Boss:
// системы атаки опираются на членство в коллекции, а не на флаг.
func (f *Factory) Route(d content.Descriptor) string {
	switch v := d.(type) {
	case content.Enemy:
		f.mu.RLock()
		major := f.majorThreats[v.Variant]
		f.mu.RUnlock()
		if major || v.Boss {
			return scene.MajorThreats
		}
		return scene.Enemies
	case content.Pickup:
		return scene.PickupCollection(v.Variant)
	case content.Wall, content.Obstacle:
		return scene.StaticObstacles
	default:
		return ""
	}
}

// Materialize создает объект и регистрирует его у владельца.
// Для неизвестного типа возвращает nil без ошибки: такой дескриптор просто пропускается.
func (f *Factory) Materialize(d content.Descriptor, owner Owner) (*PlacedObject, error) {
	build, ok := f.Lookup(d)
	if !ok {
		f.skip(d)
		return nil, nil
	}

	at := d.Pos()
	if f.height != nil {
		at[1] = f.height.HeightAt(at.X(), at.Z())
	}

	visual, record, err := build(d, at)
	if err != nil {
		return nil, fmt.Errorf("сборка %s: %w", d.Type(), err)
	}
	if visual == nil && record == nil {
		f.skip(d)
		return nil, nil
	}

	var target worldinterfaces.Collection
	if record != nil {
		name := f.Route(d)
		if name != "" {
			target, ok = f.collections.Collection(name)
		}
		if name == "" || !ok {
			return nil, fmt.Errorf("%s -> %q: %w", d.Type(), name, ErrNoTarget)
		}
	}

	obj := &PlacedObject{
		ID:         uuid.New(),
		Descriptor: d,
		Position:   at,
		Visual:     visual,
		Record:     record,
		Collection: target,
	}
	if visual != nil {
		f.graph.Add(visual)
	}
	if record != nil {
		target.Append(record)
	}
	if owner != nil {
		owner.Track(obj)
	}

	f.mu.Lock()
	f.placed++
	f.mu.Unlock()
	objectsPlaced.Add(1)
	return obj, nil
}

func (f *Factory) skip(d content.Descriptor) {
	f.mu.Lock()
	f.skipped++
	fn := f.onSkip
	f.mu.Unlock()
	objectsSkipped.Add(1)
	f.logger.Debugw("нет билдера для дескриптора, пропускаем", "type", d.Type())
	if fn != nil {
		fn(d)
	}
}

// Stats возвращает число созданных и пропущенных объектов
func (f *Factory) Stats() (placed, skipped int64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.placed, f.skipped
}
