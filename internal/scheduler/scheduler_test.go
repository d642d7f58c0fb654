package scheduler_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/go-world-streamer/internal/scheduler"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func work(clock *fakeClock, cost time.Duration, counter *int) scheduler.Step {
	return func() error {
		clock.Advance(cost)
		*counter++
		return nil
	}
}

func TestRun_RespectsBudget(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	s := scheduler.New(12*time.Millisecond, scheduler.WithClock(clock.Now))

	executed := 0
	steps := make([]scheduler.Step, 10)
	for i := range steps {
		steps[i] = work(clock, 5*time.Millisecond, &executed)
	}
	s.Enqueue(scheduler.Job{Name: "chunk", Prepare: func() []scheduler.Phase {
		return []scheduler.Phase{{Name: "all", Steps: steps}}
	}})

	s.Run()
	assert.Equal(t, 3, executed, "third step crosses the 12ms budget")
	assert.True(t, s.Busy())

	s.Run()
	assert.Equal(t, 6, executed)
}

func TestRun_AlwaysMakesProgress(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	s := scheduler.New(time.Millisecond, scheduler.WithClock(clock.Now))

	executed := 0
	s.Enqueue(scheduler.Job{Name: "slow", Prepare: func() []scheduler.Phase {
		return []scheduler.Phase{{Name: "p", Steps: []scheduler.Step{
			work(clock, 100*time.Millisecond, &executed),
			work(clock, 100*time.Millisecond, &executed),
		}}}
	}})

	for i := 1; i <= 2; i++ {
		assert.Positive(t, s.Run())
		assert.Equal(t, i, executed, "one slow step per tick")
	}
	assert.Equal(t, 1, s.Run(), "completion takes one unit")
	assert.True(t, s.Idle())
	assert.Zero(t, s.Run())
}

func TestJobs_RunOneAtATimeInOrder(t *testing.T) {
	s := scheduler.New(time.Hour)
	var events []string

	for _, name := range []string{"a", "b", "c"} {
		name := name
		s.Enqueue(scheduler.Job{
			Name: name,
			Prepare: func() []scheduler.Phase {
				events = append(events, "prepare "+name)
				return []scheduler.Phase{{Name: "only", Steps: []scheduler.Step{func() error {
					events = append(events, "step "+name)
					return nil
				}}}}
			},
			Complete: func(r scheduler.Report) {
				events = append(events, "complete "+name)
			},
		})
	}
	assert.Equal(t, 3, s.Pending())

	s.Drain()
	assert.Equal(t, []string{
		"prepare a", "step a", "complete a",
		"prepare b", "step b", "complete b",
		"prepare c", "step c", "complete c",
	}, events)
}

func TestPhaseFailure_IsIsolated(t *testing.T) {
	s := scheduler.New(time.Hour)
	var (
		output   []string
		failed   []*scheduler.PhaseError
		report   scheduler.Report
		finished bool
	)
	step := func(v string) scheduler.Step {
		return func() error { output = append(output, v); return nil }
	}

	s.Enqueue(scheduler.Job{
		Name: "chunk 1:0",
		Prepare: func() []scheduler.Phase {
			return []scheduler.Phase{
				{Name: "terrain", Steps: []scheduler.Step{step("t1")}},
				{
					Name: "walls",
					Steps: []scheduler.Step{
						step("w1"),
						func() error { panic("malformed wall") },
						step("w3"),
					},
					OnFail: func(err *scheduler.PhaseError) {
						failed = append(failed, err)
						output = output[:1]
					},
				},
				{
					Name:   "enemies",
					Steps:  []scheduler.Step{func() error { return errors.New("bad enemy") }, step("e2")},
					OnFail: func(err *scheduler.PhaseError) { failed = append(failed, err) },
				},
				{Name: "pickups", Steps: []scheduler.Step{step("p1")}},
			}
		},
		Complete: func(r scheduler.Report) {
			report = r
			finished = true
		},
	})
	s.Drain()

	require.True(t, finished, "a failing phase must not leave the job stuck")
	assert.Equal(t, []string{"t1", "p1"}, output)
	require.Len(t, failed, 2)
	assert.Equal(t, "walls", failed[0].Phase)
	assert.Equal(t, "malformed wall", failed[0].Panic)
	assert.ErrorIs(t, failed[0], scheduler.ErrPanic)
	assert.Equal(t, "enemies", failed[1].Phase)
	assert.EqualError(t, failed[1].Err, "bad enemy")
	assert.True(t, report.Failed())
	assert.Len(t, report.Failures, 2)
}

func TestOnStart_CalledPerPhase(t *testing.T) {
	s := scheduler.New(time.Hour)
	var started []string
	s.Enqueue(scheduler.Job{Name: "j", Prepare: func() []scheduler.Phase {
		return []scheduler.Phase{
			{Name: "a", OnStart: func() { started = append(started, "a") }, Steps: []scheduler.Step{func() error { return nil }}},
			{Name: "empty", OnStart: func() { started = append(started, "empty") }},
			{Name: "b", OnStart: func() { started = append(started, "b") }, Steps: []scheduler.Step{func() error { return nil }}},
		}
	}})
	s.Drain()
	assert.Equal(t, []string{"a", "empty", "b"}, started)
}

func TestReset_DropsQueue(t *testing.T) {
	s := scheduler.New(time.Hour)
	completed := 0
	for i := 0; i < 3; i++ {
		s.Enqueue(scheduler.Job{Name: "j", Complete: func(scheduler.Report) { completed++ }})
	}
	assert.Equal(t, 3, s.Pending())
	s.Reset()
	assert.True(t, s.Idle())
	assert.Zero(t, s.Drain())
	assert.Zero(t, completed)
}
