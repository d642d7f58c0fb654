// Package registry ведет учет объектов, созданных для каждого чанка.
// Удалять объекты из общих коллекций можно только через запись чанка.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

var (
	// ErrRecordExists - запись для чанка уже открыта.
	ErrRecordExists = errors.New("запись чанка уже существует")
	// ErrUnknownChunk - для чанка нет записи.
	ErrUnknownChunk = errors.New("запись чанка не найдена")
)

// ChunkRecord владеет всеми объектами одного чанка.
type ChunkRecord struct {
	ID      grid.ChunkID
	objects []*factory.PlacedObject
}

// Track реализует factory.Owner
func (r *ChunkRecord) Track(obj *factory.PlacedObject) {
	r.objects = append(r.objects, obj)
}

// Objects возвращает копию списка объектов в порядке создания
func (r *ChunkRecord) Objects() []*factory.PlacedObject {
	return append([]*factory.PlacedObject(nil), r.objects...)
}

// Len возвращает число объектов
func (r *ChunkRecord) Len() int { return len(r.objects) }

// Ground возвращает хэндлы земли и рельефа.
func (r *ChunkRecord) Ground() []*factory.PlacedObject {
	return r.filter(func(k content.Kind) bool { return k == content.KindGround || k == content.KindTerrain })
}

// Walls возвращает сегменты граничных стен, добавленные в статические препятствия.
func (r *ChunkRecord) Walls() []*factory.PlacedObject {
	return r.filter(func(k content.Kind) bool { return k == content.KindWall })
}

// CountByKind считает объекты по видам
func (r *ChunkRecord) CountByKind() map[content.Kind]int {
	out := make(map[content.Kind]int)
	for _, o := range r.objects {
		out[o.Kind()]++
	}
	return out
}

func (r *ChunkRecord) filter(keep func(content.Kind) bool) []*factory.PlacedObject {
	var out []*factory.PlacedObject
	for _, o := range r.objects {
		if keep(o.Kind()) {
			out = append(out, o)
		}
	}
	return out
}

// Mark возвращает отметку для последующего отката этапа
func (r *ChunkRecord) Mark() int { return len(r.objects) }

// rollback удаляет объекты, созданные после отметки, в обратном порядке.
func (r *ChunkRecord) rollback(mark int, graph worldinterfaces.WorldGraph) int {
	if mark < 0 || mark >= len(r.objects) {
		return 0
	}
	n := 0
	for i := len(r.objects) - 1; i >= mark; i-- {
		r.objects[i].Dispose(graph)
		r.objects[i] = nil
		n++
	}
	r.objects = r.objects[:mark]
	return n
}

// Registry хранит записи активных и строящихся чанков.
// Используется только из горутины игрового цикла.
type Registry struct {
	graph   worldinterfaces.WorldGraph
	records map[grid.ChunkID]*ChunkRecord
	logger  *zap.SugaredLogger
}

// New создает реестр
func New(graph worldinterfaces.WorldGraph, logger *zap.SugaredLogger) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{
		graph:   graph,
		records: make(map[grid.ChunkID]*ChunkRecord),
		logger:  logger,
	}
}

// Open создает запись при входе чанка в Generating.
func (r *Registry) Open(id grid.ChunkID) (*ChunkRecord, error) {
	if _, exists := r.records[id]; exists {
		return nil, fmt.Errorf("чанк %s: %w", id, ErrRecordExists)
	}
	rec := &ChunkRecord{ID: id}
	r.records[id] = rec
	return rec, nil
}

// Get возвращает запись чанка
func (r *Registry) Get(id grid.ChunkID) (*ChunkRecord, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Rollback отбрасывает вывод незавершенного этапа.
func (r *Registry) Rollback(rec *ChunkRecord, mark int) int {
	n := rec.rollback(mark, r.graph)
	if n > 0 {
		r.logger.Debugw("откат этапа", "chunk", rec.ID.String(), "removed", n)
	}
	return n
}

// Unload удаляет все объекты чанка из графа и коллекций и уничтожает запись.
// Возвращает число удаленных объектов.
func (r *Registry) Unload(id grid.ChunkID) (int, error) {
	rec, ok := r.records[id]
	if !ok {
		return 0, fmt.Errorf("чанк %s: %w", id, ErrUnknownChunk)
	}
	n := rec.rollback(0, r.graph)
	delete(r.records, id)
	return n, nil
}

// Clear выгружает все записи. Возвращает число удаленных объектов.
func (r *Registry) Clear() int {
	total := 0
	for _, id := range r.IDs() {
		n, _ := r.Unload(id)
		total += n
	}
	return total
}

// IDs возвращает идентификаторы записей в стабильном порядке
func (r *Registry) IDs() []grid.ChunkID {
	ids := make([]grid.ChunkID, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Z != ids[j].Z {
			return ids[i].Z < ids[j].Z
		}
		return ids[i].X < ids[j].X
	})
	return ids
}

// Len возвращает число записей
func (r *Registry) Len() int { return len(r.records) }

// Objects возвращает суммарное число объектов во всех записях
func (r *Registry) Objects() int {
	total := 0
	for _, rec := range r.records {
		total += rec.Len()
	}
	return total
}
