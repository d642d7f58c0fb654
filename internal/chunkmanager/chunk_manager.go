package chunkmanager

import (
	"errors"
	"expvar"
	"fmt"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/exclusion"
	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/generator"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/registry"
	"github.com/annelo/go-world-streamer/internal/scheduler"
)

// Значения по умолчанию
const (
	DefaultTriggerDistance = 150.0
	DefaultUnloadDistance  = 600.0
	DefaultSweepInterval   = 3 * time.Second
	DefaultBatchSize       = 16
)

var (
	// ErrNotActive - выгрузить можно только активный чанк.
	ErrNotActive = errors.New("чанк не активен")
	// ErrHandAuthored - чанк принадлежит ручному контенту и не выгружается.
	ErrHandAuthored = errors.New("чанк принадлежит ручному контенту")
	// ErrUnloadTooClose - дистанция выгрузки не покрывает запрашиваемых соседей.
	ErrUnloadTooClose = errors.New("дистанция выгрузки не превышает радиус запроса соседей")
)

// Metrics
var (
	chunksGenerated = expvar.NewInt("chunks_generated")
	chunksUnloaded  = expvar.NewInt("chunks_unloaded")
	chunksPremarked = expvar.NewInt("chunks_premarked")
)

// State - состояние чанка в жизненном цикле.
type State uint8

const (
	Unrequested State = iota
	Queued
	Generating
	Active
	Unloaded
)

var stateNames = [...]string{"unrequested", "queued", "generating", "active", "unloaded"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// EventType - тип события жизненного цикла.
type EventType string

const (
	EventBeforeGenerate EventType = "before_chunk_generate"
	EventAfterGenerate  EventType = "after_chunk_generate"
	EventAfterUnload    EventType = "after_chunk_unload"
	EventPremarked      EventType = "chunk_premarked"
)

// Event передается обработчику событий менеджера.
type Event struct {
	Type     EventType
	Chunk    grid.ChunkID
	Objects  int
	Failures []*scheduler.PhaseError
}

// Options - параметры стриминга.
type Options struct {
	ChunkSize       float64
	TriggerDistance float64
	UnloadDistance  float64
	SweepInterval   time.Duration
	// BatchSize - сколько дескрипторов материализует один шаг планировщика.
	BatchSize int
	Clock     func() time.Time
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		ChunkSize:       grid.DefaultChunkSize,
		TriggerDistance: DefaultTriggerDistance,
		UnloadDistance:  DefaultUnloadDistance,
		SweepInterval:   DefaultSweepInterval,
		BatchSize:       DefaultBatchSize,
		Clock:           time.Now,
	}
}

// Deps - компоненты, с которыми работает менеджер.
type Deps struct {
	Generator *generator.Generator
	Resolver  *exclusion.Resolver
	Factory   *factory.Factory
	Registry  *registry.Registry
	Scheduler *scheduler.Scheduler
	Logger    *zap.SugaredLogger
	// OnEvent вызывается синхронно на каждом переходе жизненного цикла.
	OnEvent func(Event)
}

// Stats - снимок состояния менеджера.
type Stats struct {
	Queued       int
	Generating   int
	Active       int
	Unloaded     int
	HandAuthored int
	Records      int
	Objects      int
	Pending      int
}

// Manager управляет жизненным циклом чанков вокруг наблюдателя.
// Не потокобезопасен: все методы вызываются из горутины игрового цикла.
type Manager struct {
	opts Options
	grid grid.Grid

	gen      *generator.Generator
	resolver *exclusion.Resolver
	factory  *factory.Factory
	registry *registry.Registry
	sched    *scheduler.Scheduler
	logger   *zap.SugaredLogger
	onEvent  func(Event)

	states       map[grid.ChunkID]State
	handAuthored map[grid.ChunkID]bool

	sessionReady bool
	lastSweep    time.Time
	observer     mgl64.Vec3
	hasObserver  bool
}

// NewManager создает менеджер чанков. Все зависимости кроме логгера и OnEvent обязательны.
func NewManager(opts Options, deps Deps) (*Manager, error) {
	if deps.Generator == nil || deps.Resolver == nil || deps.Factory == nil || deps.Registry == nil || deps.Scheduler == nil {
		return nil, errors.New("chunkmanager: не заданы обязательные зависимости")
	}
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.TriggerDistance <= 0 {
		opts.TriggerDistance = def.TriggerDistance
	}
	if opts.UnloadDistance <= 0 {
		opts.UnloadDistance = def.UnloadDistance
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = def.SweepInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	// иначе сосед наблюдателя выгружается и тут же запрашивается снова
	if reach := opts.TriggerDistance + opts.ChunkSize/2; opts.UnloadDistance <= reach {
		return nil, fmt.Errorf("chunkmanager: unload %v <= %v: %w", opts.UnloadDistance, reach, ErrUnloadTooClose)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Manager{
		opts:         opts,
		grid:         grid.New(opts.ChunkSize),
		gen:          deps.Generator,
		resolver:     deps.Resolver,
		factory:      deps.Factory,
		registry:     deps.Registry,
		sched:        deps.Scheduler,
		logger:       logger,
		onEvent:      deps.OnEvent,
		states:       make(map[grid.ChunkID]State),
		handAuthored: make(map[grid.ChunkID]bool),
	}, nil
}

// Grid возвращает сетку чанков
func (m *Manager) Grid() grid.Grid { return m.grid }

// OnObserverMoved вызывается хостом раз в тик с позицией наблюдателя.
// Ставит в очередь нужные чанки, дает планировщику поработать в рамках бюджета
// и периодически запускает выгрузку дальних чанков.
func (m *Manager) OnObserverMoved(pos mgl64.Vec3) {
	m.ensureSession()
	m.observer = pos
	m.hasObserver = true

	for _, id := range m.Wanted(pos) {
		m.Request(id)
	}

	m.sched.Run()

	if m.opts.Clock().Sub(m.lastSweep) >= m.opts.SweepInterval {
		m.Sweep()
	}
}

// Wanted возвращает текущий чанк наблюдателя и соседей, к краю которых он ближе
// дистанции срабатывания. Близость к двум перпендикулярным краям добавляет диагональ.
func (m *Manager) Wanted(pos mgl64.Vec3) []grid.ChunkID {
	current := m.grid.ChunkOf(pos)
	lx, lz := m.grid.Local(pos)
	size, trigger := m.grid.Size, m.opts.TriggerDistance

	near := map[grid.Direction]bool{
		grid.West:  lx < trigger,
		grid.East:  size-lx < trigger,
		grid.North: lz < trigger,
		grid.South: size-lz < trigger,
	}

	out := []grid.ChunkID{current}
	for _, edge := range grid.Edges {
		if near[edge] {
			out = append(out, current.Neighbor(edge))
		}
	}
	for _, corner := range grid.Corners {
		a, b := corner.Sides()
		if near[a] && near[b] {
			out = append(out, current.Neighbor(corner))
		}
	}
	return out
}

// Request ставит чанк в очередь генерации. Повторный запрос для чанка в очереди,
// в генерации или активного - тихий no-op, возвращается false.
func (m *Manager) Request(id grid.ChunkID) bool {
	m.ensureSession()
	switch m.states[id] {
	case Unrequested, Unloaded:
	default:
		return false
	}
	m.states[id] = Queued
	m.enqueue(id, false)
	m.logger.Debugw("чанк поставлен в очередь", "chunk", id.String())
	return true
}

// enqueue ставит задание чанка. fill - досыпка непокрытой части чанка ручного контента.
func (m *Manager) enqueue(id grid.ChunkID, fill bool) {
	name := "chunk " + id.String()
	if fill {
		name += " fill"
	}
	m.sched.Enqueue(scheduler.Job{
		Name:     name,
		Prepare:  func() []scheduler.Phase { return m.prepare(id, fill) },
		Complete: func(r scheduler.Report) { m.complete(id, fill, r) },
	})
}

// ensureSession один раз за сессию вычисляет границы ручного контента
// и помечает покрытые им чанки как уже сгенерированные. Чанк, который границы
// закрывают лишь частично, один раз заполняется в непокрытой части.
func (m *Manager) ensureSession() {
	if m.sessionReady {
		return
	}
	m.sessionReady = true
	m.lastSweep = m.opts.Clock()

	bounds := m.resolver.Bounds()
	fills := 0
	for _, area := range bounds.Areas() {
		for _, id := range m.grid.Cells(area) {
			if m.handAuthored[id] || !bounds.Covers(m.grid.Center(id)) {
				continue
			}
			m.handAuthored[id] = true
			m.states[id] = Active
			chunksPremarked.Add(1)
			m.emit(Event{Type: EventPremarked, Chunk: id})
			if !bounds.Encloses(m.grid.Bounds(id)) {
				m.enqueue(id, true)
				fills++
			}
		}
	}
	if len(m.handAuthored) > 0 {
		m.logger.Infow("чанки ручного контента помечены", "count", len(m.handAuthored), "fills", fills)
	}
}

// prepare выполняется при извлечении задания из очереди: снимок соседей,
// генерация, фильтрация и разбиение на этапы принимаются один раз на чанк.
func (m *Manager) prepare(id grid.ChunkID, fill bool) []scheduler.Phase {
	if fill {
		if !m.handAuthored[id] {
			return nil
		}
	} else {
		if m.states[id] != Queued {
			return nil
		}
		m.states[id] = Generating
	}
	m.emit(Event{Type: EventBeforeGenerate, Chunk: id})

	rec, err := m.registry.Open(id)
	if err != nil {
		m.logger.Errorw("не удалось открыть запись чанка", "chunk", id.String(), "error", err)
		return nil
	}

	descriptors := m.gen.Generate(id, m.adjacency(id))
	kept, dropped := m.resolver.Filter(descriptors)
	if dropped > 0 {
		m.logger.Debugw("дескрипторы отброшены границами", "chunk", id.String(), "dropped", dropped)
	}

	groups := content.Group(kept)
	phases := make([]scheduler.Phase, 0, len(content.Phases))
	for _, p := range content.Phases {
		phases = append(phases, m.phase(rec, p, groups[p]))
	}
	return phases
}

// phase строит этап материализации с откатом своего вывода при сбое.
func (m *Manager) phase(rec *registry.ChunkRecord, p content.Phase, ds []content.Descriptor) scheduler.Phase {
	mark := 0
	steps := make([]scheduler.Step, 0, len(ds)/m.opts.BatchSize+1)
	for start := 0; start < len(ds); start += m.opts.BatchSize {
		end := min(start+m.opts.BatchSize, len(ds))
		batch := ds[start:end]
		steps = append(steps, func() error {
			for _, d := range batch {
				if _, err := m.factory.Materialize(d, rec); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return scheduler.Phase{
		Name:    p.String(),
		Steps:   steps,
		OnStart: func() { mark = rec.Mark() },
		OnFail: func(perr *scheduler.PhaseError) {
			n := m.registry.Rollback(rec, mark)
			m.logger.Warnw("этап чанка откатан", "chunk", rec.ID.String(), "phase", perr.Phase, "removed", n)
		},
	}
}

// adjacency - снимок соседей, которые уже существуют или строятся.
func (m *Manager) adjacency(id grid.ChunkID) generator.Adjacency {
	var adj generator.Adjacency
	for d := grid.North; d <= grid.NorthWest; d++ {
		switch m.states[id.Neighbor(d)] {
		case Generating, Active:
			adj = adj.With(d)
		}
	}
	return adj
}

func (m *Manager) complete(id grid.ChunkID, fill bool, r scheduler.Report) {
	if fill {
		if !m.handAuthored[id] {
			return
		}
	} else if m.states[id] != Generating {
		return
	}
	rec, ok := m.registry.Get(id)
	if !ok {
		if !fill {
			delete(m.states, id)
		}
		return
	}
	m.states[id] = Active
	chunksGenerated.Add(1)
	m.logger.Debugw("чанк активен", "chunk", id.String(), "objects", rec.Len(), "steps", r.Steps, "failures", len(r.Failures))
	m.emit(Event{Type: EventAfterGenerate, Chunk: id, Objects: rec.Len(), Failures: r.Failures})
}

// Unload выгружает активный процедурный чанк.
func (m *Manager) Unload(id grid.ChunkID) error {
	if m.handAuthored[id] {
		return fmt.Errorf("чанк %s: %w", id, ErrHandAuthored)
	}
	if m.states[id] != Active {
		return fmt.Errorf("чанк %s (%s): %w", id, m.states[id], ErrNotActive)
	}
	n, err := m.registry.Unload(id)
	if err != nil {
		return err
	}
	m.states[id] = Unloaded
	chunksUnloaded.Add(1)
	m.emit(Event{Type: EventAfterUnload, Chunk: id, Objects: n})
	return nil
}

// Sweep выгружает процедурные активные чанки, центр которых дальше дистанции
// выгрузки от наблюдателя по Чебышёву. Возвращает выгруженные чанки.
func (m *Manager) Sweep() []grid.ChunkID {
	m.lastSweep = m.opts.Clock()
	if !m.hasObserver {
		return nil
	}

	var far []grid.ChunkID
	for id, st := range m.states {
		if st != Active || m.handAuthored[id] {
			continue
		}
		if grid.Chebyshev(m.grid.Center(id), m.observer) > m.opts.UnloadDistance {
			far = append(far, id)
		}
	}
	sortIDs(far)

	unloaded := far[:0]
	for _, id := range far {
		if err := m.Unload(id); err != nil {
			m.logger.Warnw("не удалось выгрузить чанк", "chunk", id.String(), "error", err)
			continue
		}
		unloaded = append(unloaded, id)
	}
	if len(unloaded) > 0 {
		m.logger.Infow("дальние чанки выгружены", "count", len(unloaded))
	}
	return unloaded
}

// Flush выполняет всю работу в очереди без учета бюджета.
func (m *Manager) Flush() int {
	return m.sched.Drain()
}

// ResetWorld сбрасывает сессию: очередь, все записи, состояния и границы.
func (m *Manager) ResetWorld() {
	m.sched.Reset()
	removed := m.registry.Clear()
	m.states = make(map[grid.ChunkID]State)
	m.handAuthored = make(map[grid.ChunkID]bool)
	m.resolver.Reset()
	m.sessionReady = false
	m.hasObserver = false
	m.logger.Infow("мир сброшен", "removed", removed)
}

// State возвращает состояние чанка
func (m *Manager) State(id grid.ChunkID) State { return m.states[id] }

// HandAuthored сообщает, помечен ли чанк как ручной контент
func (m *Manager) HandAuthored(id grid.ChunkID) bool { return m.handAuthored[id] }

// Record возвращает запись процедурного чанка
func (m *Manager) Record(id grid.ChunkID) (*registry.ChunkRecord, bool) {
	return m.registry.Get(id)
}

// Observer возвращает последнюю известную позицию наблюдателя
func (m *Manager) Observer() (mgl64.Vec3, bool) { return m.observer, m.hasObserver }

// Chunks возвращает все известные чанки, кроме Unrequested, в стабильном порядке.
func (m *Manager) Chunks() []grid.ChunkID {
	ids := make([]grid.ChunkID, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Stats возвращает снимок счетчиков
func (m *Manager) Stats() Stats {
	s := Stats{
		HandAuthored: len(m.handAuthored),
		Records:      m.registry.Len(),
		Objects:      m.registry.Objects(),
		Pending:      m.sched.Pending(),
	}
	for _, st := range m.states {
		switch st {
		case Queued:
			s.Queued++
		case Generating:
			s.Generating++
		case Active:
			s.Active++
		case Unloaded:
			s.Unloaded++
		}
	}
	return s
}

func (m *Manager) emit(e Event) {
	if m.onEvent != nil {
		m.onEvent(e)
	}
}

func sortIDs(ids []grid.ChunkID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Z != ids[j].Z {
			return ids[i].Z < ids[j].Z
		}
		return ids[i].X < ids[j].X
	})
}
