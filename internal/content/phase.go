package content

import "fmt"

// Phase - этап материализации чанка. Порядок констант совпадает с порядком выполнения.
type Phase uint8

const (
	PhaseGround Phase = iota
	PhaseTerrain
	PhaseWalls
	PhaseObstacles
	PhasePickups
	PhaseEnemies

	phaseCount
)

// Phases перечисляет этапы в порядке выполнения.
var Phases = [phaseCount]Phase{PhaseGround, PhaseTerrain, PhaseWalls, PhaseObstacles, PhasePickups, PhaseEnemies}

var phaseNames = [phaseCount]string{"ground", "terrain", "walls", "obstacles", "pickups", "enemies"}

func (p Phase) String() string {
	if p < phaseCount {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// PhaseOf возвращает этап, на котором материализуется дескриптор.
func PhaseOf(d Descriptor) (Phase, bool) {
	switch d.(type) {
	case Ground:
		return PhaseGround, true
	case TerrainFeature:
		return PhaseTerrain, true
	case Wall:
		return PhaseWalls, true
	case Obstacle:
		return PhaseObstacles, true
	case Pickup:
		return PhasePickups, true
	case Enemy:
		return PhaseEnemies, true
	default:
		return 0, false
	}
}

// Group раскладывает дескрипторы по этапам, сохраняя исходный порядок внутри этапа.
func Group(ds []Descriptor) [phaseCount][]Descriptor {
	var out [phaseCount][]Descriptor
	for _, d := range ds {
		p, ok := PhaseOf(d)
		if !ok {
			continue
		}
		out[p] = append(out[p], d)
	}
	return out
}

// Count считает дескрипторы по видам.
func Count(ds []Descriptor) map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range ds {
		counts[d.Kind()]++
	}
	return counts
}
