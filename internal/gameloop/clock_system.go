package gameloop

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ClockSystem отвечает за ход игрового времени.
type ClockSystem struct {
	deps   Dependencies
	logger *zap.SugaredLogger
	ticks  int64
	day    int32

	ticksPerDay    int64
	broadcastEvery int64
}

const (
	defaultTicksPerDay    = 1200 // ~60 секунд при 20 TPS
	defaultBroadcastEvery = 100  // каждые 5 секунд
)

func NewClockSystem() *ClockSystem {
	return &ClockSystem{ticksPerDay: defaultTicksPerDay, broadcastEvery: defaultBroadcastEvery}
}

func (c *ClockSystem) Name() string { return "clock" }

func (c *ClockSystem) Init(deps Dependencies) error {
	c.deps = deps
	c.logger = deps.logger().Named("clock")
	return nil
}

// Ticks возвращает число прошедших тиков
func (c *ClockSystem) Ticks() int64 { return c.ticks }

// Day возвращает номер игрового дня
func (c *ClockSystem) Day() int32 { return c.day }

func (c *ClockSystem) Tick(ctx context.Context, dt time.Duration) {
	// Один Tick цикла == 1 игровой тик
	c.ticks++
	if c.ticks%c.ticksPerDay == 0 {
		c.day++
		c.emit(EventDayStarted)
	}

	// Периодически оповещаем подписчиков
	if c.ticks%c.broadcastEvery == 0 {
		c.logger.Debugw("рассылка времени", "tick", c.ticks, "dayTime", c.ticks%c.ticksPerDay, "day", c.day)
		c.emit(EventTimeChanged)
	}
}

func (c *ClockSystem) emit(t WorldEventType) {
	if c.deps.EmitWorldEvent == nil {
		return
	}
	c.deps.EmitWorldEvent(WorldEvent{
		Type:    t,
		Tick:    c.ticks,
		Day:     c.day,
		DayTime: c.ticks % c.ticksPerDay,
	})
}
