// Package scheduler - кооперативный исполнитель работ с бюджетом времени на тик.
//
// Работа разбита на задания (Job), задания на этапы (Phase), этапы на шаги (Step).
// Run вызывается хостом раз в тик и выполняет шаги, пока не исчерпан бюджет.
// Одновременно выполняется не более одного задания; очередь FIFO.
package scheduler

import (
	"errors"
	"expvar"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultBudget - бюджет работы на один тик хоста.
const DefaultBudget = 12 * time.Millisecond

// Metrics
var (
	stepsExecuted = expvar.NewInt("scheduler_steps")
	phaseFailures = expvar.NewInt("phase_failures")
)

// Step - единица работы. Ошибка или паника прерывает только свой этап.
type Step func() error

// Phase - именованная последовательность шагов.
type Phase struct {
	Name  string
	Steps []Step
	// OnStart вызывается перед первым шагом этапа.
	OnStart func()
	// OnFail вызывается после сбоя шага и должен отбросить частичный вывод этапа.
	OnFail func(err *PhaseError)
}

// Job - задание. Prepare вызывается при извлечении из очереди, а не при постановке,
// поэтому решения, зависящие от состояния мира, принимаются один раз на старте задания.
type Job struct {
	Name     string
	Prepare  func() []Phase
	Complete func(Report)
}

// Report - итог задания.
type Report struct {
	Job      string
	Steps    int
	Failures []*PhaseError
	Started  time.Time
	Finished time.Time
}

// Failed истинно, если хотя бы один этап завершился сбоем
func (r Report) Failed() bool { return len(r.Failures) > 0 }

// PhaseError описывает сбой этапа.
type PhaseError struct {
	Job   string
	Phase string
	Err   error
	Panic any
}

func (e *PhaseError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s/%s: panic: %v", e.Job, e.Phase, e.Panic)
	}
	return fmt.Sprintf("%s/%s: %v", e.Job, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// ErrPanic оборачивается в PhaseError при панике в шаге.
var ErrPanic = errors.New("panic in step")

type running struct {
	job    Job
	phases []Phase
	phase  int
	step   int
	report Report
}

// Scheduler не потокобезопасен: Enqueue и Run вызываются из одной горутины игрового цикла.
type Scheduler struct {
	budget time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger

	queue   []Job
	current *running
}

// Option настраивает планировщик.
type Option func(*Scheduler)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger задает логгер.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New создает планировщик с бюджетом на тик.
func New(budget time.Duration, opts ...Option) *Scheduler {
	if budget <= 0 {
		budget = DefaultBudget
	}
	s := &Scheduler{
		budget: budget,
		now:    time.Now,
		logger: zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Budget возвращает бюджет на тик
func (s *Scheduler) Budget() time.Duration { return s.budget }

// Enqueue ставит задание в конец очереди.
func (s *Scheduler) Enqueue(job Job) {
	s.queue = append(s.queue, job)
}

// Pending - число заданий в очереди, не считая текущего.
func (s *Scheduler) Pending() int { return len(s.queue) }

// Busy истинно, пока выполняется задание
func (s *Scheduler) Busy() bool { return s.current != nil }

// Idle истинно, когда нет ни текущего задания, ни очереди
func (s *Scheduler) Idle() bool { return s.current == nil && len(s.queue) == 0 }

// Current возвращает имя выполняемого задания
func (s *Scheduler) Current() (string, bool) {
	if s.current == nil {
		return "", false
	}
	return s.current.job.Name, true
}

// Reset сбрасывает очередь и текущее задание без вызова Complete.
func (s *Scheduler) Reset() {
	s.queue = nil
	s.current = nil
}

// Run выполняет работу, пока не исчерпан бюджет. Хотя бы одна единица работы
// выполняется за вызов, если она есть. Возвращает число выполненных единиц.
func (s *Scheduler) Run() int {
	start := s.now()
	done := 0
	for {
		if !s.advance() {
			return done
		}
		done++
		if s.now().Sub(start) >= s.budget {
			return done
		}
	}
}

// Drain выполняет всю работу без учета бюджета. Для тестов и инструментов.
func (s *Scheduler) Drain() int {
	done := 0
	for s.advance() {
		done++
	}
	return done
}

// advance выполняет одну единицу работы: запуск задания, шаг или завершение.
func (s *Scheduler) advance() bool {
	if s.current == nil {
		if len(s.queue) == 0 {
			return false
		}
		job := s.queue[0]
		s.queue[0] = Job{}
		s.queue = s.queue[1:]
		s.start(job)
		return true
	}

	r := s.current
	for r.phase < len(r.phases) && r.step >= len(r.phases[r.phase].Steps) {
		r.phase++
		r.step = 0
		s.enterPhase(r)
	}
	if r.phase >= len(r.phases) {
		s.finish(r)
		return true
	}

	ph := &r.phases[r.phase]
	err := s.runStep(r.job.Name, ph, ph.Steps[r.step])
	r.step++
	r.report.Steps++
	stepsExecuted.Add(1)
	if err != nil {
		phaseFailures.Add(1)
		r.report.Failures = append(r.report.Failures, err)
		s.logger.Warnw("сбой этапа, переходим к следующему", "job", r.job.Name, "phase", ph.Name, "error", err)
		if ph.OnFail != nil {
			s.safeCall(r.job.Name, ph.Name, func() { ph.OnFail(err) })
		}
		r.step = len(ph.Steps)
	}
	return true
}

func (s *Scheduler) start(job Job) {
	r := &running{job: job, report: Report{Job: job.Name, Started: s.now()}}
	if job.Prepare != nil {
		s.safeCall(job.Name, "prepare", func() { r.phases = job.Prepare() })
	}
	s.current = r
	s.enterPhase(r)
}

func (s *Scheduler) enterPhase(r *running) {
	if r.phase < len(r.phases) && r.step == 0 && r.phases[r.phase].OnStart != nil {
		s.safeCall(r.job.Name, r.phases[r.phase].Name, r.phases[r.phase].OnStart)
	}
}

func (s *Scheduler) finish(r *running) {
	s.current = nil
	r.report.Finished = s.now()
	if r.job.Complete != nil {
		s.safeCall(r.job.Name, "complete", func() { r.job.Complete(r.report) })
	}
}

// runStep выполняет шаг, превращая панику в PhaseError.
func (s *Scheduler) runStep(job string, ph *Phase, step Step) (perr *PhaseError) {
	defer func() {
		if rec := recover(); rec != nil {
			perr = &PhaseError{Job: job, Phase: ph.Name, Err: ErrPanic, Panic: rec}
		}
	}()
	if err := step(); err != nil {
		return &PhaseError{Job: job, Phase: ph.Name, Err: err}
	}
	return nil
}

func (s *Scheduler) safeCall(job, where string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			phaseFailures.Add(1)
			s.logger.Errorw("паника в обработчике", "job", job, "where", where, "panic", rec)
		}
	}()
	fn()
}
