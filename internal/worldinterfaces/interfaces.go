// Package worldinterfaces содержит общие интерфейсы внешних коллабораторов
// стримера и служит для избегания циклических зависимостей.
package worldinterfaces

import (
	"github.com/google/uuid"

	"github.com/annelo/go-world-streamer/internal/grid"
)

// HeightSource отвечает на запрос высоты рельефа. Используется при посадке объектов на землю.
type HeightSource interface {
	HeightAt(x, z float64) float64
}

// BaseLevel - рукотворный уровень. Стример видит только его пространственные границы.
type BaseLevel interface {
	Rects() []grid.Rect
	Circles() []grid.Circle
}

// Visual - визуальный хэндл, которым владеет граф мира.
type Visual interface {
	VisualID() uuid.UUID
}

// WorldGraph - граф сцены: добавление и удаление визуальных хэндлов.
type WorldGraph interface {
	Add(v Visual)
	// Remove удаляет хэндл по идентичности и сообщает, был ли он в графе.
	Remove(v Visual) bool
}

// Record - игровая запись, живущая в общей коллекции.
type Record interface {
	RecordID() uuid.UUID
}

// Collection - общая игровая коллекция. Изменяется и другими системами,
// поэтому удаление выполняется только по идентичности, а не по индексу.
type Collection interface {
	Name() string
	Append(r Record)
	Remove(r Record) bool
	Len() int
}

// Collections выдает коллекцию по имени.
type Collections interface {
	Collection(name string) (Collection, bool)
}
