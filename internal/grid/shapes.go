package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rect - прямоугольник на плоскости XZ. Вектор хранит (x, z).
type Rect struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// RectAround строит прямоугольник по центру и полуразмерам
func RectAround(center mgl64.Vec3, halfX, halfZ float64) Rect {
	return Rect{
		Min: mgl64.Vec2{center.X() - halfX, center.Z() - halfZ},
		Max: mgl64.Vec2{center.X() + halfX, center.Z() + halfZ},
	}
}

// Contains проверяет попадание точки, границы включительно.
func (r Rect) Contains(pos mgl64.Vec3) bool {
	return pos.X() >= r.Min.X() && pos.X() <= r.Max.X() &&
		pos.Z() >= r.Min.Y() && pos.Z() <= r.Max.Y()
}

// Intersects проверяет пересечение прямоугольников (касание считается пересечением).
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X() <= o.Max.X() && o.Min.X() <= r.Max.X() &&
		r.Min.Y() <= o.Max.Y() && o.Min.Y() <= r.Max.Y()
}

// Expand расширяет прямоугольник на margin во все стороны.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		Min: r.Min.Sub(mgl64.Vec2{margin, margin}),
		Max: r.Max.Add(mgl64.Vec2{margin, margin}),
	}
}

// Empty истинно для вырожденного прямоугольника
func (r Rect) Empty() bool {
	return r.Max.X() < r.Min.X() || r.Max.Y() < r.Min.Y()
}

// Circle - окружность на плоскости XZ.
type Circle struct {
	Center mgl64.Vec2
	Radius float64
}

// Contains проверяет попадание точки в круг, граница включительно.
func (c Circle) Contains(pos mgl64.Vec3) bool {
	dx := pos.X() - c.Center.X()
	dz := pos.Z() - c.Center.Y()
	return math.Hypot(dx, dz) <= c.Radius
}

// BoundingRect возвращает описанный квадрат.
func (c Circle) BoundingRect() Rect {
	return Rect{
		Min: c.Center.Sub(mgl64.Vec2{c.Radius, c.Radius}),
		Max: c.Center.Add(mgl64.Vec2{c.Radius, c.Radius}),
	}
}
