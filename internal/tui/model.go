// Package tui provides the Bubble Tea live progress dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/adbtap/internal/model"
	"github.com/verte-zerg/adbtap/internal/stats"
)

const (
	maxBarWidth = 60
	labelWidth  = 12
	clockFormat = "15:04:05"
)

// SnapshotMsg carries a progress snapshot from the scheduler.
type SnapshotMsg model.Snapshot

// DoneMsg carries the final summary and ends the program.
type DoneMsg model.Summary

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea dashboard. It only renders values it is
// sent; the scheduler keeps ownership of the run state.
type Model struct {
	title  string
	goal   int
	cancel context.CancelFunc

	snap     model.Snapshot
	hasSnap  bool
	summary  *model.Summary
	stopping bool

	bar   progress.Model
	width int
}

// NewModel constructs a dashboard. cancel is invoked when the user quits.
func NewModel(title string, goal int, cancel context.CancelFunc) *Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = maxBarWidth
	return &Model{
		title:  title,
		goal:   goal,
		cancel: cancel,
		bar:    bar,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(maxBarWidth, max(10, msg.Width-4))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		}
		return m, nil
	case SnapshotMsg:
		m.snap = model.Snapshot(msg)
		m.hasSnap = true
		return m, nil
	case DoneMsg:
		summary := model.Summary(msg)
		m.summary = &summary
		return m, tea.Quit
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.summary != nil {
		m.writeSummary(&b)
		return b.String()
	}
	if !m.hasSnap {
		b.WriteString(labelStyle.Render("Waiting for the first progress report..."))
		b.WriteString("\n")
	} else {
		m.writeSnapshot(&b)
	}
	b.WriteString("\n")
	if m.stopping {
		b.WriteString(warnStyle.Render("Stopping after the current tap..."))
	} else {
		b.WriteString(footerStyle.Render("q / ctrl+c to stop"))
	}
	return b.String()
}

func (m *Model) writeSnapshot(b *strings.Builder) {
	s := m.snap
	row(b, "Taps", humanize.Comma(int64(s.TapCount)))
	row(b, "Rate", fmt.Sprintf("%.2f taps/sec", s.Rate))
	row(b, "Elapsed", stats.FormatETA(s.Elapsed.Seconds()))
	if s.Failures > 0 {
		row(b, "Failed", warnStyle.Render(humanize.Comma(int64(s.Failures))))
	}
	if m.goal <= 0 {
		return
	}
	row(b, "Goal", humanize.Comma(int64(m.goal)))
	row(b, "Remaining", humanize.Comma(int64(s.Remaining)))
	if s.HasETA {
		row(b, "ETA", fmt.Sprintf("%s (%s)", stats.FormatETA(s.ETA.Seconds()), s.CompletionAt.Format(clockFormat)))
	}
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(fraction(s.TapCount, m.goal)))
	b.WriteString("\n")
}

func (m *Model) writeSummary(b *strings.Builder) {
	s := m.summary
	row(b, "Outcome", string(s.State))
	row(b, "Total taps", humanize.Comma(int64(s.TapCount)))
	if s.Failures > 0 {
		row(b, "Failed", humanize.Comma(int64(s.Failures)))
	}
	if s.Goal > 0 {
		row(b, "Progress", fmt.Sprintf("%.1f%%", s.CompletionPct))
	}
	row(b, "Elapsed", fmt.Sprintf("%.2fs", s.Elapsed.Seconds()))
	row(b, "Average", fmt.Sprintf("%.2f taps/sec", s.Rate))
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(runewidth.FillRight(label, labelWidth)))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func fraction(count, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	f := float64(count) / float64(goal)
	if f > 1 {
		return 1
	}
	return f
}
