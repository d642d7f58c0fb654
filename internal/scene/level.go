package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

// StaticLevel - рукотворный базовый уровень: границы и статичное содержимое.
// Его объекты живут в тех же общих коллекциях, что и процедурные, но не принадлежат ни одному чанку.
type StaticLevel struct {
	rects   []grid.Rect
	circles []grid.Circle

	Visuals []*Mesh
	Records map[string][]worldinterfaces.Record
}

// NewStaticLevel создает уровень из прямоугольников и кругов.
func NewStaticLevel(rects []grid.Rect, circles []grid.Circle) *StaticLevel {
	return &StaticLevel{
		rects:   rects,
		circles: circles,
		Records: make(map[string][]worldinterfaces.Record),
	}
}

func (l *StaticLevel) Rects() []grid.Rect     { return l.rects }
func (l *StaticLevel) Circles() []grid.Circle { return l.circles }

// Populate заполняет граф и коллекции содержимым уровня: стража у центра каждой
// области, колонны по углам прямоугольников и страж класса "босс" в первой области.
func (l *StaticLevel) Populate(g *Graph, cs *Collections) {
	l.Visuals = nil
	l.Records = make(map[string][]worldinterfaces.Record)

	centers := make([]mgl64.Vec3, 0, len(l.rects)+len(l.circles))
	for _, r := range l.rects {
		c := r.Min.Add(r.Max).Mul(0.5)
		centers = append(centers, mgl64.Vec3{c.X(), 0, c.Y()})
		for _, corner := range []mgl64.Vec2{r.Min, {r.Max.X(), r.Min.Y()}, r.Max, {r.Min.X(), r.Max.Y()}} {
			pos := mgl64.Vec3{corner.X(), 0, corner.Y()}
			col := &Collider{ID: uuid.New(), Variant: "pillar", Area: grid.RectAround(pos, 2, 2), Height: 12}
			l.add(g, cs, NewMesh(content.KindObstacle, "pillar", pos, mgl64.Vec3{1, 3, 1}, 0), StaticObstacles, col)
		}
	}
	for _, c := range l.circles {
		centers = append(centers, mgl64.Vec3{c.Center.X(), 0, c.Center.Y()})
	}

	for i, pos := range centers {
		guard := &Entity{ID: uuid.New(), Variant: "guard", Position: pos, Health: 100, PatrolRange: 15}
		l.add(g, cs, NewMesh(content.KindEnemy, "guard", pos, mgl64.Vec3{1, 1, 1}, 0), Enemies, guard)
		if i == 0 {
			warden := &Entity{ID: uuid.New(), Variant: "golem", Position: pos, Health: 1000, PatrolRange: 5, Boss: true}
			l.add(g, cs, NewMesh(content.KindEnemy, "golem", pos, mgl64.Vec3{2, 2, 2}, 0), MajorThreats, warden)
		}
		cache := &Item{ID: uuid.New(), Variant: "health", Position: pos, Amount: 3}
		l.add(g, cs, NewMesh(content.KindPickup, "health", pos, mgl64.Vec3{1, 1, 1}, 0), PickupCollection("health"), cache)
	}
}

func (l *StaticLevel) add(g *Graph, cs *Collections, mesh *Mesh, collection string, rec worldinterfaces.Record) {
	g.Add(mesh)
	cs.Get(collection).Append(rec)
	l.Visuals = append(l.Visuals, mesh)
	l.Records[collection] = append(l.Records[collection], rec)
}
