package gameloop

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Loop - главный цикл, вызывающий Tick всех зарегистрированных систем.
type Loop struct {
	systems []System
	tickDur time.Duration
	logger  *zap.SugaredLogger
	last    time.Time
}

// NewLoop создаёт цикл с заданной длительностью тика.
func NewLoop(tick time.Duration, deps Dependencies, systems ...System) *Loop {
	logger := deps.logger().Named("gameloop")
	// Инициализируем все системы
	for _, s := range systems {
		if err := s.Init(deps); err != nil {
			logger.Errorw("ошибка инициализации системы", "system", s.Name(), "error", err)
		}
	}
	return &Loop{systems: systems, tickDur: tick, logger: logger}
}

// Systems возвращает системы в порядке вызова
func (l *Loop) Systems() []System { return l.systems }

// Run запускает бесконечный цикл до отмены ctx.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tickDur)
	defer ticker.Stop()

	l.last = time.Now()
	for {
		select {
		case t := <-ticker.C:
			dt := t.Sub(l.last)
			l.last = t
			l.Step(ctx, dt)
		case <-ctx.Done():
			l.logger.Info("цикл остановлен")
			return
		}
	}
}

// Step выполняет один тик всех систем. Паника в системе не останавливает остальные.
func (l *Loop) Step(ctx context.Context, dt time.Duration) {
	for _, s := range l.systems {
		func(sys System) {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Errorw("паника в системе", "system", sys.Name(), "panic", r)
				}
			}()
			sys.Tick(ctx, dt)
		}(s)
	}
}
