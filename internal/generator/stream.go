package generator

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/annelo/go-world-streamer/internal/grid"
)

// SeedFor смешивает сид мира с координатами чанка.
func SeedFor(worldSeed uint64, id grid.ChunkID) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], worldSeed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(id.X)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(id.Z)))
	return xxhash.Sum64(buf[:])
}

// Stream - детерминированный поток случайных чисел одного чанка.
// Все проходы генератора читают один и тот же поток в фиксированном порядке.
type Stream struct {
	r *rand.Rand
}

// NewStream создает поток PCG из 64-битного сида
func NewStream(seed uint64) *Stream {
	return &Stream{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float возвращает число в [0, 1).
func (s *Stream) Float() float64 {
	return s.r.Float64()
}

// Range возвращает число в [lo, hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}

// IntRange возвращает целое в [lo, hi] включительно.
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Chance возвращает true с вероятностью p.
func (s *Stream) Chance(p float64) bool {
	return s.r.Float64() < p
}

// Angle возвращает угол поворота в [0, 2π).
func (s *Stream) Angle() float64 {
	return s.Range(0, 2*math.Pi)
}

// Pick выбирает элемент списка. Пустой список не потребляет поток.
func (s *Stream) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[s.r.IntN(len(options))]
}
