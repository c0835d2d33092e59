// Package stats contains rate, ETA and session report calculations.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/adbtap/internal/model"
)

const (
	secondsPerDay  = 86400
	secondsPerHour = 3600
)

// Rate returns taps per second, or 0 when no time has elapsed.
func Rate(tapCount int, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(tapCount) / secs
}

// Compute builds a progress snapshot at now for a run started at start.
func Compute(tapCount, failures, goal int, start, now time.Time) model.Snapshot {
	elapsed := now.Sub(start)
	snap := model.Snapshot{
		TapCount: tapCount,
		Failures: failures,
		Elapsed:  elapsed,
		Rate:     Rate(tapCount, elapsed),
		Goal:     goal,
	}
	if goal <= 0 {
		return snap
	}
	snap.Remaining = goal - tapCount
	if snap.Remaining < 0 {
		snap.Remaining = 0
	}
	if snap.Rate > 0 {
		eta := float64(snap.Remaining) / snap.Rate
		snap.HasETA = true
		snap.ETA = time.Duration(eta * float64(time.Second))
		snap.CompletionAt = now.Add(snap.ETA)
	}
	return snap
}

// FormatETA renders seconds as "Nd Nh", "Nh Nm" or "Nm Ns" using floor division.
func FormatETA(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds > secondsPerDay:
		days := math.Floor(seconds / secondsPerDay)
		hours := math.Floor(math.Mod(seconds, secondsPerDay) / secondsPerHour)
		return fmt.Sprintf("%dd %dh", int64(days), int64(hours))
	case seconds > secondsPerHour:
		hours := math.Floor(seconds / secondsPerHour)
		minutes := math.Floor(math.Mod(seconds, secondsPerHour) / 60)
		return fmt.Sprintf("%dh %dm", int64(hours), int64(minutes))
	default:
		minutes := math.Floor(seconds / 60)
		secs := math.Floor(math.Mod(seconds, 60))
		return fmt.Sprintf("%dm %ds", int64(minutes), int64(secs))
	}
}

// Finalize computes the end-of-run summary.
func Finalize(state model.State, tapCount, failures, goal int, start, now time.Time) model.Summary {
	elapsed := now.Sub(start)
	summary := model.Summary{
		State:    state,
		TapCount: tapCount,
		Failures: failures,
		Elapsed:  elapsed,
		Rate:     Rate(tapCount, elapsed),
		Goal:     goal,
	}
	if goal > 0 {
		summary.CompletionPct = 100 * float64(tapCount) / float64(goal)
	}
	return summary
}
