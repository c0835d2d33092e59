// Package scheduler drives the paced tap loop for a single run.
package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/adbtap/internal/model"
	"github.com/verte-zerg/adbtap/internal/stats"
)

// DefaultStatsEvery is the number of taps between progress snapshots.
const DefaultStatsEvery = 200

// ErrAlreadyRun is returned when Run is called on a finished scheduler.
var ErrAlreadyRun = errors.New("scheduler already ran")

// Tapper issues a single tap on the device.
type Tapper interface {
	Tap(ctx context.Context, x, y int) error
}

// Options configure a Scheduler.
type Options struct {
	Tapper     Tapper
	Plan       []model.TapPoint
	Target     model.Point
	Config     model.RunConfig
	Rand       *rand.Rand
	Clock      func() time.Time
	Sleeper    func(context.Context, time.Duration) error
	OnSnapshot func(model.Snapshot)
	Logger     zerolog.Logger
}

// Scheduler owns the run state and is its only mutator.
type Scheduler struct {
	tapper     Tapper
	plan       []model.TapPoint
	jitter     int
	goal       int
	duration   time.Duration
	statsEvery int
	limiter    *rate.Limiter
	rnd        *rand.Rand
	clock      func() time.Time
	sleeper    func(context.Context, time.Duration) error
	onSnapshot func(model.Snapshot)
	log        zerolog.Logger

	state runState
}

type runState struct {
	status   model.State
	tapCount int
	failures int
	start    time.Time
	cursor   int
}

// New validates options and returns an idle scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Tapper == nil {
		return nil, errors.New("tapper must not be nil")
	}
	cfg := opts.Config
	if cfg.Jitter < 0 {
		return nil, errors.New("jitter radius must be >= 0")
	}
	if cfg.TotalTaps < 0 {
		return nil, errors.New("total taps must be >= 0")
	}
	if cfg.Duration < 0 {
		return nil, errors.New("duration must be >= 0")
	}

	plan := opts.Plan
	if cfg.SinglePoint {
		if cfg.Interval <= 0 {
			return nil, errors.New("tap interval must be positive")
		}
		plan = []model.TapPoint{{X: opts.Target.X, Y: opts.Target.Y, Interval: cfg.Interval}}
	}
	if len(plan) == 0 {
		return nil, errors.New("tap plan must not be empty")
	}
	plan = append([]model.TapPoint(nil), plan...)

	statsEvery := cfg.StatsEvery
	if statsEvery <= 0 {
		statsEvery = DefaultStatsEvery
	}
	var limiter *rate.Limiter
	if cfg.MaxRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRate), 1)
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = defaultSleeper
	}
	onSnapshot := opts.OnSnapshot
	if onSnapshot == nil {
		onSnapshot = func(model.Snapshot) {}
	}

	return &Scheduler{
		tapper:     opts.Tapper,
		plan:       plan,
		jitter:     cfg.Jitter,
		goal:       cfg.TotalTaps,
		duration:   cfg.Duration,
		statsEvery: statsEvery,
		limiter:    limiter,
		rnd:        rnd,
		clock:      clock,
		sleeper:    sleeper,
		onSnapshot: onSnapshot,
		log:        opts.Logger,
		state:      runState{status: model.StateIdle},
	}, nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() model.State {
	return s.state.status
}

// Run taps until the goal is reached, the duration elapses or ctx is
// cancelled, then returns the session summary. Cancellation is observed at
// cycle boundaries only.
func (s *Scheduler) Run(ctx context.Context) (model.Summary, error) {
	if s.state.status != model.StateIdle {
		return model.Summary{}, ErrAlreadyRun
	}
	s.state.status = model.StateRunning
	s.state.start = s.clock()
	var deadline time.Time
	if s.duration > 0 {
		deadline = s.state.start.Add(s.duration)
	}
	// Taps run to completion even when ctx is cancelled mid-call.
	tapCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			s.state.status = model.StateCancelled
			break
		}

		pt := s.plan[s.state.cursor]
		x := Jitter(s.rnd, pt.X, s.jitter)
		y := Jitter(s.rnd, pt.Y, s.jitter)
		if err := s.tapper.Tap(tapCtx, x, y); err != nil {
			s.state.failures++
			s.log.Warn().Err(err).Int("x", x).Int("y", y).Msg("tap failed, continuing")
		}
		s.state.tapCount++

		if s.state.tapCount%s.statsEvery == 0 {
			s.onSnapshot(s.snapshot())
		}

		s.state.cursor = (s.state.cursor + 1) % len(s.plan)

		if err := s.sleeper(ctx, s.pacing(pt.Interval)); err != nil {
			s.log.Debug().Err(err).Msg("pacing interrupted")
		}

		if s.goal > 0 && s.state.tapCount >= s.goal {
			s.state.status = model.StateCompleted
			break
		}
		if !deadline.IsZero() && !s.clock().Before(deadline) {
			s.state.status = model.StateDurationExpired
			break
		}
	}

	summary := stats.Finalize(s.state.status, s.state.tapCount, s.state.failures, s.goal, s.state.start, s.clock())
	s.log.Debug().
		Str("state", string(summary.State)).
		Int("taps", summary.TapCount).
		Int("failures", summary.Failures).
		Dur("elapsed", summary.Elapsed).
		Msg("run finished")
	return summary, nil
}

// snapshot reports progress at the current clock reading.
func (s *Scheduler) snapshot() model.Snapshot {
	return stats.Compute(s.state.tapCount, s.state.failures, s.goal, s.state.start, s.clock())
}

func (s *Scheduler) pacing(interval time.Duration) time.Duration {
	if s.limiter == nil {
		return interval
	}
	now := s.clock()
	if wait := s.limiter.ReserveN(now, 1).DelayFrom(now); wait > interval {
		return wait
	}
	return interval
}

// Jitter offsets coord by a uniform integer in [-radius, radius].
func Jitter(rnd *rand.Rand, coord, radius int) int {
	if radius <= 0 {
		return coord
	}
	return coord + rnd.Intn(2*radius+1) - radius
}

func defaultSleeper(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
