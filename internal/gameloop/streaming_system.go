package gameloop

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/annelo/go-world-streamer/internal/playermanager"
)

// StreamingSystem каждый тик сообщает миру позицию наблюдателя в фокусе.
type StreamingSystem struct {
	deps      Dependencies
	logger    *zap.SugaredLogger
	statsLog  rate.Sometimes
	lastFocus bool
}

// NewStreamingSystem создает систему; статистика пишется в лог не чаще statsEvery.
func NewStreamingSystem(statsEvery time.Duration) *StreamingSystem {
	if statsEvery <= 0 {
		statsEvery = 10 * time.Second
	}
	return &StreamingSystem{statsLog: rate.Sometimes{Interval: statsEvery}}
}

func (s *StreamingSystem) Name() string { return "streaming" }

func (s *StreamingSystem) Init(deps Dependencies) error {
	if deps.Streamer == nil {
		return errors.New("streaming: мир не задан")
	}
	if deps.Players == nil {
		return errors.New("streaming: менеджер наблюдателей не задан")
	}
	s.deps = deps
	s.logger = deps.logger().Named("streaming")
	return nil
}

func (s *StreamingSystem) Tick(ctx context.Context, dt time.Duration) {
	if s.deps.Streamer == nil {
		return
	}
	focus, err := s.deps.Players.Focus()
	if err != nil {
		if s.lastFocus && errors.Is(err, playermanager.ErrNoFocus) {
			s.logger.Info("наблюдателей нет, стриминг приостановлен")
		}
		s.lastFocus = false
		return
	}
	s.lastFocus = true

	s.deps.Streamer.OnObserverMoved(focus.Position)

	s.statsLog.Do(func() {
		st := s.deps.Streamer.Stats()
		s.logger.Infow("стриминг",
			"observer", focus.Name,
			"active", st.Active,
			"queued", st.Queued,
			"generating", st.Generating,
			"unloaded", st.Unloaded,
			"objects", st.Objects,
		)
	})
}
