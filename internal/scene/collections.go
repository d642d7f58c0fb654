package scene

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

// Имена общих коллекций.
const (
	Enemies         = "enemies"
	MajorThreats    = "major_threats"
	StaticObstacles = "static_obstacles"
	pickupsPrefix   = "pickups/"
)

// PickupCollection возвращает имя коллекции предметов заданного типа
func PickupCollection(variant string) string {
	return pickupsPrefix + variant
}

// Entity - игровая запись противника.
type Entity struct {
	ID          uuid.UUID
	Variant     string
	Position    mgl64.Vec3
	Health      int
	PatrolRange float64
	Boss        bool
}

func (e *Entity) RecordID() uuid.UUID { return e.ID }

// Item - игровая запись подбираемого предмета.
type Item struct {
	ID       uuid.UUID
	Variant  string
	Position mgl64.Vec3
	Amount   int
}

func (i *Item) RecordID() uuid.UUID { return i.ID }

// Collider - статическое препятствие для проверки коллизий.
type Collider struct {
	ID      uuid.UUID
	Variant string
	Area    grid.Rect
	Height  float64
}

func (c *Collider) RecordID() uuid.UUID { return c.ID }

// Collection - упорядоченная общая коллекция записей.
type Collection struct {
	name  string
	mu    sync.RWMutex
	items []worldinterfaces.Record
}

// NewCollection создает пустую коллекцию
func NewCollection(name string) *Collection {
	return &Collection{name: name}
}

func (c *Collection) Name() string { return c.name }

// Append добавляет запись в конец.
func (c *Collection) Append(r worldinterfaces.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, r)
}

// Remove удаляет запись по идентичности. Индексы других записей могут сдвинуться.
func (c *Collection) Remove(r worldinterfaces.Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.items) - 1; i >= 0; i-- {
		if c.items[i] == r {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains проверяет наличие записи по идентичности
func (c *Collection) Contains(r worldinterfaces.Record) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it == r {
			return true
		}
	}
	return false
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items возвращает копию записей
func (c *Collection) Items() []worldinterfaces.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]worldinterfaces.Record(nil), c.items...)
}

// Collections - набор общих коллекций. Коллекция создается при первом обращении.
type Collections struct {
	mu   sync.Mutex
	sets map[string]*Collection
}

// NewCollections создает набор с основными коллекциями
func NewCollections() *Collections {
	cs := &Collections{sets: make(map[string]*Collection)}
	for _, name := range []string{Enemies, MajorThreats, StaticObstacles} {
		cs.sets[name] = NewCollection(name)
	}
	return cs
}

// Collection реализует worldinterfaces.Collections.
func (cs *Collections) Collection(name string) (worldinterfaces.Collection, bool) {
	return cs.Get(name), true
}

// Get возвращает коллекцию, создавая её при необходимости
func (cs *Collections) Get(name string) *Collection {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	c, ok := cs.sets[name]
	if !ok {
		c = NewCollection(name)
		cs.sets[name] = c
	}
	return c
}

// Names возвращает имена коллекций в алфавитном порядке
func (cs *Collections) Names() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	names := make([]string, 0, len(cs.sets))
	for n := range cs.sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Total возвращает суммарное число записей
func (cs *Collections) Total() int {
	total := 0
	for _, n := range cs.Names() {
		total += cs.Get(n).Len()
	}
	return total
}
