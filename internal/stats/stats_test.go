package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/adbtap/internal/model"
)

func TestFormatETA(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{seconds: 100, want: "1m 40s"},
		{seconds: 90000, want: "1d 1h"},
		{seconds: 5400, want: "1h 30m"},
		{seconds: 0, want: "0m 0s"},
		{seconds: 59.9, want: "0m 59s"},
		{seconds: 3600, want: "60m 0s"},
		{seconds: 86400, want: "24h 0m"},
		{seconds: 3*86400 + 7*3600 + 59, want: "3d 7h"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.seconds); got != tt.want {
			t.Fatalf("FormatETA(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestComputeWithGoal(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(100 * time.Second)
	snap := Compute(100, 2, 200, start, now)
	if snap.Rate != 1.0 {
		t.Fatalf("expected rate 1.0, got %v", snap.Rate)
	}
	if snap.Remaining != 100 {
		t.Fatalf("expected 100 remaining, got %d", snap.Remaining)
	}
	if !snap.HasETA || snap.ETA != 100*time.Second {
		t.Fatalf("expected 100s ETA, got %v (has=%v)", snap.ETA, snap.HasETA)
	}
	if got := FormatETA(snap.ETA.Seconds()); got != "1m 40s" {
		t.Fatalf("unexpected ETA format %q", got)
	}
	if !snap.CompletionAt.Equal(now.Add(100 * time.Second)) {
		t.Fatalf("unexpected completion time %v", snap.CompletionAt)
	}
}

func TestComputeRemainingNeverNegative(t *testing.T) {
	start := time.Unix(0, 0)
	snap := Compute(300, 0, 200, start, start.Add(10*time.Second))
	if snap.Remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", snap.Remaining)
	}
	if !snap.HasETA || snap.ETA != 0 {
		t.Fatalf("expected zero ETA, got %v", snap.ETA)
	}
}

func TestComputeWithoutElapsedTime(t *testing.T) {
	start := time.Unix(0, 0)
	snap := Compute(10, 0, 100, start, start)
	if snap.Rate != 0 {
		t.Fatalf("expected zero rate, got %v", snap.Rate)
	}
	if snap.HasETA {
		t.Fatalf("expected ETA to be omitted when rate is zero")
	}
}

func TestComputeWithoutGoal(t *testing.T) {
	start := time.Unix(0, 0)
	snap := Compute(50, 0, 0, start, start.Add(5*time.Second))
	if snap.Rate != 10 {
		t.Fatalf("expected rate 10, got %v", snap.Rate)
	}
	if snap.HasETA || snap.Remaining != 0 {
		t.Fatalf("expected no ETA without a goal: %+v", snap)
	}
}

func TestFinalizeCompletionPercentage(t *testing.T) {
	start := time.Unix(0, 0)
	summary := Finalize(model.StateCancelled, 25, 1, 50, start, start.Add(5*time.Second))
	if summary.CompletionPct != 50 {
		t.Fatalf("expected 50%%, got %v", summary.CompletionPct)
	}
	if summary.Rate != 5 {
		t.Fatalf("expected rate 5, got %v", summary.Rate)
	}
	noGoal := Finalize(model.StateCancelled, 25, 0, 0, start, start.Add(5*time.Second))
	if noGoal.CompletionPct != 0 {
		t.Fatalf("expected no completion percentage without goal, got %v", noGoal.CompletionPct)
	}
}

func TestSnapshotLine(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	snap := Compute(1200, 0, 2400, start, start.Add(600*time.Second))
	line := SnapshotLine(snap)
	for _, want := range []string{"Taps: 1,200", "Rate: 2.00 taps/sec", "Remaining: 1,200 taps", "Est. completion: 10m 0s (12:20:00)"} {
		if !strings.Contains(line, want) {
			t.Fatalf("snapshot line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "Failed") {
		t.Fatalf("unexpected failure segment: %q", line)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	summary := model.Summary{
		State:         model.StateCompleted,
		TapCount:      50,
		Failures:      3,
		Elapsed:       2500 * time.Millisecond,
		Rate:          20,
		Goal:          50,
		CompletionPct: 100,
	}
	if err := RenderSummary(&buf, summary); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Outcome: goal reached", "Total taps: 50", "Failed taps: 3", "Progress: 100.0% complete", "Time elapsed: 2.50 seconds", "Average rate: 20.00 taps per second"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
