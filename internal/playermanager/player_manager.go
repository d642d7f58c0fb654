package playermanager

import (
	"errors"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	// ErrObserverExists - наблюдатель с таким ID уже зарегистрирован.
	ErrObserverExists = errors.New("наблюдатель с таким ID уже существует")
	// ErrObserverNotFound - наблюдатель не найден.
	ErrObserverNotFound = errors.New("наблюдатель не найден")
	// ErrNoFocus - нет наблюдателя, за которым следует стриминг.
	ErrNoFocus = errors.New("нет наблюдателя в фокусе")
)

// Observer содержит информацию о наблюдателе (игроке или камере)
type Observer struct {
	ID       uuid.UUID
	Name     string
	Position mgl64.Vec3
}

// PlayerManager хранит наблюдателей и выбирает того, вокруг кого стримится мир.
type PlayerManager struct {
	observers map[uuid.UUID]*Observer
	focus     uuid.UUID
	mu        sync.RWMutex
}

// NewPlayerManager создает новый экземпляр менеджера
func NewPlayerManager() *PlayerManager {
	return &PlayerManager{
		observers: make(map[uuid.UUID]*Observer),
	}
}

// AddObserver регистрирует наблюдателя. Первый добавленный получает фокус.
func (pm *PlayerManager) AddObserver(id uuid.UUID, name string, position mgl64.Vec3) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.observers[id]; exists {
		return ErrObserverExists
	}
	pm.observers[id] = &Observer{ID: id, Name: name, Position: position}
	if pm.focus == uuid.Nil {
		pm.focus = id
	}
	return nil
}

// Spawn создает наблюдателя с новым ID
func (pm *PlayerManager) Spawn(name string, position mgl64.Vec3) uuid.UUID {
	id := uuid.New()
	// uuid.New не повторяется, ошибки дубликата не будет
	_ = pm.AddObserver(id, name, position)
	return id
}

// GetObserver возвращает копию данных наблюдателя
func (pm *PlayerManager) GetObserver(id uuid.UUID) (Observer, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	o, exists := pm.observers[id]
	if !exists {
		return Observer{}, ErrObserverNotFound
	}
	return *o, nil
}

// UpdatePosition обновляет позицию наблюдателя
func (pm *PlayerManager) UpdatePosition(id uuid.UUID, position mgl64.Vec3) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	o, exists := pm.observers[id]
	if !exists {
		return ErrObserverNotFound
	}
	o.Position = position
	return nil
}

// Move смещает наблюдателя на delta
func (pm *PlayerManager) Move(id uuid.UUID, delta mgl64.Vec3) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	o, exists := pm.observers[id]
	if !exists {
		return ErrObserverNotFound
	}
	o.Position = o.Position.Add(delta)
	return nil
}

// SetFocus переключает стриминг на другого наблюдателя
func (pm *PlayerManager) SetFocus(id uuid.UUID) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.observers[id]; !exists {
		return ErrObserverNotFound
	}
	pm.focus = id
	return nil
}

// Focus возвращает наблюдателя в фокусе
func (pm *PlayerManager) Focus() (Observer, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	o, exists := pm.observers[pm.focus]
	if !exists {
		return Observer{}, ErrNoFocus
	}
	return *o, nil
}

// RemoveObserver удаляет наблюдателя. Если он был в фокусе,
// фокус переходит к наблюдателю с наименьшим ID.
func (pm *PlayerManager) RemoveObserver(id uuid.UUID) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.observers[id]; !exists {
		return ErrObserverNotFound
	}
	delete(pm.observers, id)

	if pm.focus == id {
		pm.focus = uuid.Nil
		for _, o := range pm.sortedLocked() {
			pm.focus = o.ID
			break
		}
	}
	return nil
}

// GetAllObservers возвращает копии всех наблюдателей, отсортированные по ID
func (pm *PlayerManager) GetAllObservers() []Observer {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make([]Observer, 0, len(pm.observers))
	for _, o := range pm.sortedLocked() {
		out = append(out, *o)
	}
	return out
}

func (pm *PlayerManager) sortedLocked() []*Observer {
	list := make([]*Observer, 0, len(pm.observers))
	for _, o := range pm.observers {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID.String() < list[j].ID.String()
	})
	return list
}
