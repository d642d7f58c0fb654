package gameloop_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/go-world-streamer/internal/chunkmanager"
	"github.com/annelo/go-world-streamer/internal/gameloop"
	"github.com/annelo/go-world-streamer/internal/playermanager"
)

type fakeStreamer struct {
	positions []mgl64.Vec3
}

func (f *fakeStreamer) OnObserverMoved(pos mgl64.Vec3) { f.positions = append(f.positions, pos) }
func (f *fakeStreamer) Stats() chunkmanager.Stats      { return chunkmanager.Stats{Active: len(f.positions)} }

type panicSystem struct{ ticks int }

func (p *panicSystem) Init(gameloop.Dependencies) error { return nil }
func (p *panicSystem) Name() string                     { return "panic" }
func (p *panicSystem) Tick(context.Context, time.Duration) {
	p.ticks++
	panic("boom")
}

func TestStreamingSystem_FollowsFocus(t *testing.T) {
	players := playermanager.NewPlayerManager()
	streamer := &fakeStreamer{}
	loop := gameloop.NewLoop(time.Millisecond, gameloop.Dependencies{
		Players:  players,
		Streamer: streamer,
	}, gameloop.NewStreamingSystem(time.Second))

	// no observers yet: nothing is streamed
	loop.Step(context.Background(), time.Millisecond)
	assert.Empty(t, streamer.positions)

	id := players.Spawn("camera", mgl64.Vec3{10, 0, 20})
	loop.Step(context.Background(), time.Millisecond)
	require.NoError(t, players.Move(id, mgl64.Vec3{5, 0, 0}))
	loop.Step(context.Background(), time.Millisecond)

	assert.Equal(t, []mgl64.Vec3{{10, 0, 20}, {15, 0, 20}}, streamer.positions)
}

func TestLoop_PanicInSystemDoesNotStopOthers(t *testing.T) {
	players := playermanager.NewPlayerManager()
	players.Spawn("camera", mgl64.Vec3{})
	streamer := &fakeStreamer{}
	bad := &panicSystem{}
	clock := gameloop.NewClockSystem()

	loop := gameloop.NewLoop(time.Millisecond, gameloop.Dependencies{
		Players:  players,
		Streamer: streamer,
	}, bad, gameloop.NewStreamingSystem(time.Second), clock)

	for i := 0; i < 3; i++ {
		loop.Step(context.Background(), time.Millisecond)
	}
	assert.Equal(t, 3, bad.ticks)
	assert.Len(t, streamer.positions, 3)
	assert.EqualValues(t, 3, clock.Ticks())
}

func TestClockSystem_EmitsEvents(t *testing.T) {
	var events []gameloop.WorldEvent
	clock := gameloop.NewClockSystem()
	require.NoError(t, clock.Init(gameloop.Dependencies{
		EmitWorldEvent: func(e gameloop.WorldEvent) { events = append(events, e) },
	}))

	for i := 0; i < 1200; i++ {
		clock.Tick(context.Background(), 50*time.Millisecond)
	}

	assert.EqualValues(t, 1, clock.Day())
	require.Len(t, events, 13, "12 time broadcasts and one day start")
	assert.Equal(t, gameloop.EventTimeChanged, events[0].Type)
	assert.EqualValues(t, 100, events[0].Tick)
	assert.Equal(t, gameloop.EventDayStarted, events[11].Type)
	assert.EqualValues(t, 0, events[11].DayTime)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	players := playermanager.NewPlayerManager()
	clock := gameloop.NewClockSystem()
	loop := gameloop.NewLoop(time.Millisecond, gameloop.Dependencies{Players: players}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}
