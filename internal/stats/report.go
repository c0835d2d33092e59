package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/adbtap/internal/model"
)

const clockFormat = "15:04:05"

// SnapshotLine renders a one-line progress report.
func SnapshotLine(snap model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Taps: %s, Rate: %.2f taps/sec", humanize.Comma(int64(snap.TapCount)), snap.Rate)
	if snap.Failures > 0 {
		fmt.Fprintf(&b, ", Failed: %s", humanize.Comma(int64(snap.Failures)))
	}
	if snap.Goal > 0 && snap.HasETA {
		fmt.Fprintf(&b, ", Remaining: %s taps", humanize.Comma(int64(snap.Remaining)))
		fmt.Fprintf(&b, ", Est. completion: %s (%s)", FormatETA(snap.ETA.Seconds()), snap.CompletionAt.Format(clockFormat))
	}
	return b.String()
}

// RenderSnapshot writes a progress report line.
func RenderSnapshot(w io.Writer, snap model.Snapshot) error {
	_, err := fmt.Fprintln(w, SnapshotLine(snap))
	return err
}

// RenderSummary prints the session summary.
func RenderSummary(w io.Writer, summary model.Summary) error {
	lines := []string{
		"",
		"Stopping auto-tapper...",
		"Session summary:",
		fmt.Sprintf("Outcome: %s", describeState(summary.State)),
		fmt.Sprintf("Total taps: %s", humanize.Comma(int64(summary.TapCount))),
	}
	if summary.Failures > 0 {
		lines = append(lines, fmt.Sprintf("Failed taps: %s", humanize.Comma(int64(summary.Failures))))
	}
	if summary.Goal > 0 {
		lines = append(lines, fmt.Sprintf("Progress: %.1f%% complete", summary.CompletionPct))
	}
	lines = append(lines,
		fmt.Sprintf("Time elapsed: %.2f seconds", summary.Elapsed.Seconds()),
		fmt.Sprintf("Average rate: %.2f taps per second", summary.Rate),
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func describeState(state model.State) string {
	switch state {
	case model.StateCompleted:
		return "goal reached"
	case model.StateDurationExpired:
		return "duration elapsed"
	case model.StateCancelled:
		return "cancelled"
	default:
		return string(state)
	}
}
