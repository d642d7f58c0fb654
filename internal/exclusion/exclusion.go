// Package exclusion не дает процедурному контенту пересекаться с рукотворным уровнем.
package exclusion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/worldinterfaces"
)

// DefaultMargin - запас вокруг рукотворного контента.
const DefaultMargin = 20.0

// Bounds - области рукотворного контента. Неизменяемы после построения.
type Bounds struct {
	raw      []grid.Rect
	circles  []grid.Circle
	expanded []grid.Rect
	margin   float64
}

// Compute строит границы по заявленным размерам уровня, расширенным на margin.
// Круги переводятся в описанные прямоугольники.
func Compute(level worldinterfaces.BaseLevel, margin float64) *Bounds {
	b := &Bounds{margin: margin}
	if level == nil {
		return b
	}
	for _, r := range level.Rects() {
		if r.Empty() {
			continue
		}
		b.raw = append(b.raw, r)
		b.expanded = append(b.expanded, r.Expand(margin))
	}
	for _, c := range level.Circles() {
		if c.Radius <= 0 {
			continue
		}
		b.circles = append(b.circles, c)
		b.expanded = append(b.expanded, c.BoundingRect().Expand(margin))
	}
	return b
}

// IsExcluded истинно, когда позиция попадает в расширенные границы.
func (b *Bounds) IsExcluded(pos mgl64.Vec3) bool {
	for _, r := range b.expanded {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

// Blocks истинно, когда прямоугольник задевает расширенные границы.
func (b *Bounds) Blocks(area grid.Rect) bool {
	for _, r := range b.expanded {
		if r.Intersects(area) {
			return true
		}
	}
	return false
}

// Encloses истинно, когда прямоугольник целиком лежит в одной из расширенных областей.
func (b *Bounds) Encloses(area grid.Rect) bool {
	for _, r := range b.expanded {
		if area.Min.X() >= r.Min.X() && area.Min.Y() >= r.Min.Y() &&
			area.Max.X() <= r.Max.X() && area.Max.Y() <= r.Max.Y() {
			return true
		}
	}
	return false
}

// Covers проверяет попадание точки в исходные, нерасширенные области.
func (b *Bounds) Covers(pos mgl64.Vec3) bool {
	for _, r := range b.raw {
		if r.Contains(pos) {
			return true
		}
	}
	for _, c := range b.circles {
		if c.Contains(pos) {
			return true
		}
	}
	return false
}

// Areas возвращает описанные прямоугольники исходных областей.
func (b *Bounds) Areas() []grid.Rect {
	out := make([]grid.Rect, 0, len(b.raw)+len(b.circles))
	out = append(out, b.raw...)
	for _, c := range b.circles {
		out = append(out, c.BoundingRect())
	}
	return out
}

// Expanded возвращает расширенные прямоугольники
func (b *Bounds) Expanded() []grid.Rect {
	return append([]grid.Rect(nil), b.expanded...)
}

// Empty истинно, если уровень не заявил ни одной области.
func (b *Bounds) Empty() bool { return len(b.expanded) == 0 }

// Resolver лениво строит Bounds при первом обращении в рамках сессии мира.
type Resolver struct {
	level  worldinterfaces.BaseLevel
	margin float64
	bounds *Bounds
}

// NewResolver создает резолвер для уровня. level может быть nil.
func NewResolver(level worldinterfaces.BaseLevel, margin float64) *Resolver {
	return &Resolver{level: level, margin: margin}
}

// Bounds возвращает границы, вычисляя их при первом вызове.
func (r *Resolver) Bounds() *Bounds {
	if r.bounds == nil {
		r.bounds = Compute(r.level, r.margin)
	}
	return r.bounds
}

// Computed сообщает, были ли границы уже вычислены в текущей сессии.
func (r *Resolver) Computed() bool { return r.bounds != nil }

// Reset сбрасывает границы; они будут пересчитаны при следующем обращении.
func (r *Resolver) Reset() { r.bounds = nil }

// IsExcluded проверяет позицию по границам текущей сессии.
func (r *Resolver) IsExcluded(pos mgl64.Vec3) bool {
	return r.Bounds().IsExcluded(pos)
}

// Allows решает судьбу одного дескриптора. Стена отбрасывается целиком,
// если любой её участок задевает границы; обрезка не выполняется.
func (r *Resolver) Allows(d content.Descriptor) bool {
	b := r.Bounds()
	switch v := d.(type) {
	case content.Wall:
		return !b.Blocks(v.Footprint())
	default:
		return !b.IsExcluded(d.Pos())
	}
}

// Filter возвращает дескрипторы, пережившие проверку, и число отброшенных.
func (r *Resolver) Filter(ds []content.Descriptor) ([]content.Descriptor, int) {
	if r.Bounds().Empty() {
		return ds, 0
	}
	kept := make([]content.Descriptor, 0, len(ds))
	for _, d := range ds {
		if r.Allows(d) {
			kept = append(kept, d)
		}
	}
	return kept, len(ds) - len(kept)
}
