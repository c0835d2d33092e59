// Package model defines shared data structures.
package model

import "time"

// Point is a device-pixel coordinate.
type Point struct {
	X int
	Y int
}

// TapPoint is a planned tap location plus the pacing delay applied after it.
type TapPoint struct {
	X        int
	Y        int
	Interval time.Duration
}

// Pos returns the coordinate of the tap point.
func (p TapPoint) Pos() Point {
	return Point{X: p.X, Y: p.Y}
}

// RunConfig defines tapping settings for a single run.
type RunConfig struct {
	X           *int
	Y           *int
	Interval    time.Duration
	Jitter      int
	Duration    time.Duration
	TotalTaps   int
	SinglePoint bool
	Preset      bool
	Radius      int
	MaxRate     float64
	StatsEvery  int
	Seed        int64
}

// HasExplicitTarget reports whether both coordinates were supplied by the caller.
func (c RunConfig) HasExplicitTarget() bool {
	return c.X != nil && c.Y != nil
}

// State is a scheduler lifecycle state.
type State string

const (
	StateIdle            State = "idle"
	StateRunning         State = "running"
	StateCompleted       State = "completed"
	StateDurationExpired State = "duration_expired"
	StateCancelled       State = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateDurationExpired, StateCancelled:
		return true
	default:
		return false
	}
}

// Snapshot captures progress at a point in a run.
type Snapshot struct {
	TapCount     int
	Failures     int
	Elapsed      time.Duration
	Rate         float64
	Goal         int
	Remaining    int
	HasETA       bool
	ETA          time.Duration
	CompletionAt time.Time
}

// Summary is the finalization report of a run.
type Summary struct {
	State         State
	TapCount      int
	Failures      int
	Elapsed       time.Duration
	Rate          float64
	Goal          int
	CompletionPct float64
}
