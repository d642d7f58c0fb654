// Package grid переводит непрерывные мировые координаты в дискретные чанки.
package grid

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultChunkSize - сторона чанка в мировых единицах.
const DefaultChunkSize = 200.0

// ChunkID идентифицирует клетку сетки. Используется как ключ map.
type ChunkID struct {
	X int
	Z int
}

// String возвращает ключ чанка в формате "x:z"
func (id ChunkID) String() string {
	return fmt.Sprintf("%d:%d", id.X, id.Z)
}

// Neighbor возвращает соседа в заданном направлении
func (id ChunkID) Neighbor(d Direction) ChunkID {
	off := offsets[d]
	return ChunkID{X: id.X + off[0], Z: id.Z + off[1]}
}

// Direction - одно из восьми направлений на соседний чанк.
type Direction uint8

const (
	North Direction = iota // -Z
	East                   // +X
	South                  // +Z
	West                   // -X
	NorthEast
	SouthEast
	SouthWest
	NorthWest
)

// Edges - стороны чанка в порядке обхода генератором стен.
var Edges = [4]Direction{North, East, South, West}

// Corners - диагональные соседи.
var Corners = [4]Direction{NorthEast, SouthEast, SouthWest, NorthWest}

var offsets = [8][2]int{
	North:     {0, -1},
	East:      {1, 0},
	South:     {0, 1},
	West:      {-1, 0},
	NorthEast: {1, -1},
	SouthEast: {1, 1},
	SouthWest: {-1, 1},
	NorthWest: {-1, -1},
}

var directionNames = [8]string{"north", "east", "south", "west", "northeast", "southeast", "southwest", "northwest"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Sides возвращает две стороны, образующие угол. Для стороны возвращает её саму дважды.
func (d Direction) Sides() (Direction, Direction) {
	switch d {
	case NorthEast:
		return North, East
	case SouthEast:
		return South, East
	case SouthWest:
		return South, West
	case NorthWest:
		return North, West
	default:
		return d, d
	}
}

// Grid описывает сетку чанков заданного размера.
type Grid struct {
	Size float64
}

// New создает сетку; неположительный размер заменяется DefaultChunkSize
func New(size float64) Grid {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return Grid{Size: size}
}

// ChunkOf возвращает чанк, содержащий позицию (деление с округлением вниз).
func (g Grid) ChunkOf(pos mgl64.Vec3) ChunkID {
	return ChunkID{
		X: int(math.Floor(pos.X() / g.Size)),
		Z: int(math.Floor(pos.Z() / g.Size)),
	}
}

// Origin возвращает угол чанка с минимальными координатами.
func (g Grid) Origin(id ChunkID) mgl64.Vec3 {
	return mgl64.Vec3{float64(id.X) * g.Size, 0, float64(id.Z) * g.Size}
}

// Center - обратная к ChunkOf операция для проверок расстояния.
func (g Grid) Center(id ChunkID) mgl64.Vec3 {
	half := g.Size / 2
	return g.Origin(id).Add(mgl64.Vec3{half, 0, half})
}

// Bounds возвращает прямоугольник чанка на плоскости XZ.
func (g Grid) Bounds(id ChunkID) Rect {
	o := g.Origin(id)
	return Rect{
		Min: mgl64.Vec2{o.X(), o.Z()},
		Max: mgl64.Vec2{o.X() + g.Size, o.Z() + g.Size},
	}
}

// Local возвращает смещение позиции внутри её чанка, оба значения в [0, Size).
func (g Grid) Local(pos mgl64.Vec3) (lx, lz float64) {
	o := g.Origin(g.ChunkOf(pos))
	return pos.X() - o.X(), pos.Z() - o.Z()
}

// Cells перечисляет все чанки, пересекающие прямоугольник.
func (g Grid) Cells(r Rect) []ChunkID {
	minX := int(math.Floor(r.Min.X() / g.Size))
	maxX := int(math.Floor(r.Max.X() / g.Size))
	minZ := int(math.Floor(r.Min.Y() / g.Size))
	maxZ := int(math.Floor(r.Max.Y() / g.Size))
	ids := make([]ChunkID, 0, (maxX-minX+1)*(maxZ-minZ+1))
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			ids = append(ids, ChunkID{X: x, Z: z})
		}
	}
	return ids
}

// Chebyshev - максимум модулей разностей по осям X и Z.
func Chebyshev(a, b mgl64.Vec3) float64 {
	return math.Max(math.Abs(a.X()-b.X()), math.Abs(a.Z()-b.Z()))
}
