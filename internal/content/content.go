// Package content описывает декларативные дескрипторы контента чанка.
// Дескрипторы не содержат ссылок на состояние рендера и создаются только генератором.
package content

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annelo/go-world-streamer/internal/grid"
)

// Kind - тег вида контента.
type Kind uint8

const (
	KindGround Kind = iota
	KindTerrain
	KindWall
	KindObstacle
	KindPickup
	KindEnemy
)

var kindNames = [...]string{"ground", "terrain", "wall", "obstacle", "pickup", "enemy"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Descriptor - закрытый вариантный тип. Реализации есть только в этом пакете.
type Descriptor interface {
	Kind() Kind
	// Type - ключ билдера вида "enemy/golem".
	Type() string
	Pos() mgl64.Vec3
	sealed()
}

func typeKey(k Kind, variant string) string {
	if variant == "" {
		return k.String()
	}
	return k.String() + "/" + variant
}

// Ground - плоская плитка земли размером с чанк.
type Ground struct {
	Position mgl64.Vec3
	Size     float64
	Theme    string
}

func (Ground) Kind() Kind        { return KindGround }
func (g Ground) Type() string    { return typeKey(KindGround, g.Theme) }
func (g Ground) Pos() mgl64.Vec3 { return g.Position }
func (Ground) sealed()           {}

// TerrainFeature - декоративная деталь рельефа (камни, кусты, деревья).
type TerrainFeature struct {
	Variant  string
	Position mgl64.Vec3
	Scale    float64
	Rotation float64
}

func (TerrainFeature) Kind() Kind        { return KindTerrain }
func (f TerrainFeature) Type() string    { return typeKey(KindTerrain, f.Variant) }
func (f TerrainFeature) Pos() mgl64.Vec3 { return f.Position }
func (TerrainFeature) sealed()           {}

// Wall - сегмент граничной стены. Position - центр сегмента,
// Rotation 0 означает стену вдоль оси X, π/2 - вдоль оси Z.
type Wall struct {
	Variant   string
	Position  mgl64.Vec3
	Width     float64
	Height    float64
	Thickness float64
	Rotation  float64
	Edge      grid.Direction
}

func (Wall) Kind() Kind        { return KindWall }
func (w Wall) Type() string    { return typeKey(KindWall, w.Variant) }
func (w Wall) Pos() mgl64.Vec3 { return w.Position }
func (Wall) sealed()           {}

// Footprint возвращает описанный прямоугольник сегмента на плоскости XZ.
func (w Wall) Footprint() grid.Rect {
	c, s := math.Abs(math.Cos(w.Rotation)), math.Abs(math.Sin(w.Rotation))
	halfX := (c*w.Width + s*w.Thickness) / 2
	halfZ := (s*w.Width + c*w.Thickness) / 2
	return grid.RectAround(w.Position, halfX, halfZ)
}

// Obstacle - статическое препятствие с коллизией.
type Obstacle struct {
	Variant  string
	Position mgl64.Vec3
	Scale    float64
	Radius   float64
	Rotation float64
}

func (Obstacle) Kind() Kind        { return KindObstacle }
func (o Obstacle) Type() string    { return typeKey(KindObstacle, o.Variant) }
func (o Obstacle) Pos() mgl64.Vec3 { return o.Position }
func (Obstacle) sealed()           {}

// Pickup - подбираемый предмет.
type Pickup struct {
	Variant  string
	Position mgl64.Vec3
	Amount   int
}

func (Pickup) Kind() Kind        { return KindPickup }
func (p Pickup) Type() string    { return typeKey(KindPickup, p.Variant) }
func (p Pickup) Pos() mgl64.Vec3 { return p.Position }
func (Pickup) sealed()           {}

// Enemy - точка появления противника. Boss выставляется только броском на босса.
type Enemy struct {
	Variant     string
	Position    mgl64.Vec3
	Health      int
	PatrolRange float64
	Boss        bool
}

func (Enemy) Kind() Kind        { return KindEnemy }
func (e Enemy) Type() string    { return typeKey(KindEnemy, e.Variant) }
func (e Enemy) Pos() mgl64.Vec3 { return e.Position }
func (Enemy) sealed()           {}
