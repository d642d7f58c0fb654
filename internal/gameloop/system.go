package gameloop

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/annelo/go-world-streamer/internal/chunkmanager"
	"github.com/annelo/go-world-streamer/internal/playermanager"
)

// System описывает логику, выполняемую каждый тик цикла.
type System interface {
	// Init вызывается один раз перед запуском цикла.
	Init(deps Dependencies) error
	// Tick вызывается каждый игровой тик.
	Tick(ctx context.Context, dt time.Duration)
	// Name возвращает читаемое имя системы.
	Name() string
}

// Streamer - мир, который подгружается вокруг наблюдателя.
type Streamer interface {
	OnObserverMoved(pos mgl64.Vec3)
	Stats() chunkmanager.Stats
}

// WorldEventType - тип события мира.
type WorldEventType string

const (
	EventTimeChanged WorldEventType = "time_changed"
	EventDayStarted  WorldEventType = "day_started"
)

// WorldEvent - событие, которое системы рассылают подписчикам.
type WorldEvent struct {
	Type    WorldEventType
	Tick    int64
	Day     int32
	DayTime int64
}

// Dependencies передаются системам при инициализации.
type Dependencies struct {
	Players  *playermanager.PlayerManager
	Streamer Streamer
	Logger   *zap.SugaredLogger
	// EmitWorldEvent используется системами для широковещательных событий.
	EmitWorldEvent func(event WorldEvent)
}

func (d Dependencies) logger() *zap.SugaredLogger {
	if d.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return d.Logger
}
