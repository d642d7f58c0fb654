// Package scene - внутрипроцессный граф мира и общие игровые коллекции.
// Используется хостом и тестами как реализация внешних коллабораторов стримера.
package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

// Mesh - простой визуальный хэндл: вид, вариант, трансформация и оттенок темы.
type Mesh struct {
	ID       uuid.UUID
	Kind     content.Kind
	Variant  string
	Position mgl64.Vec3
	Scale    mgl64.Vec3
	Rotation float64
	Tint     string
}

// NewMesh создает меш с новым идентификатором
func NewMesh(kind content.Kind, variant string, pos mgl64.Vec3, scale mgl64.Vec3, rotation float64) *Mesh {
	return &Mesh{
		ID:       uuid.New(),
		Kind:     kind,
		Variant:  variant,
		Position: pos,
		Scale:    scale,
		Rotation: rotation,
	}
}

// VisualID реализует worldinterfaces.Visual
func (m *Mesh) VisualID() uuid.UUID { return m.ID }

// Graph хранит визуальные хэндлы мира.
type Graph struct {
	mu      sync.RWMutex
	visuals map[uuid.UUID]worldinterfaces.Visual
}

// NewGraph создает пустой граф
func NewGraph() *Graph {
	return &Graph{visuals: make(map[uuid.UUID]worldinterfaces.Visual)}
}

// Add добавляет хэндл в граф.
func (g *Graph) Add(v worldinterfaces.Visual) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visuals[v.VisualID()] = v
}

// Remove удаляет именно этот хэндл. Другой хэндл с тем же ID не трогается.
func (g *Graph) Remove(v worldinterfaces.Visual) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.visuals[v.VisualID()]
	if !ok || cur != v {
		return false
	}
	delete(g.visuals, v.VisualID())
	return true
}

// Contains проверяет наличие хэндла в графе
func (g *Graph) Contains(v worldinterfaces.Visual) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cur, ok := g.visuals[v.VisualID()]
	return ok && cur == v
}

// Len возвращает количество хэндлов
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.visuals)
}

// Visuals возвращает копию содержимого графа
func (g *Graph) Visuals() []worldinterfaces.Visual {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]worldinterfaces.Visual, 0, len(g.visuals))
	for _, v := range g.visuals {
		out = append(out, v)
	}
	return out
}

// Clear очищает граф
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visuals = make(map[uuid.UUID]worldinterfaces.Visual)
}
