// Package progress is the BubbleTea live progress display for `bpegpu train
// --tui` (SPEC_FULL.md §5). Its Model/Update/View shape and color palette
// follow the teacher pack's internal/tui package, scaled down to a single
// progress bar instead of a full search interface.
package progress

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/bpegpu/bpegpu/internal/train"
)

var (
	colorAccent = lipgloss.Color("#7C6AF7")
	colorMuted  = lipgloss.Color("#888888")
	colorText   = lipgloss.Color("#DDDDDD")
	colorGreen  = lipgloss.Color("#5AF078")

	sTitle = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	sMuted = lipgloss.NewStyle().Foreground(colorMuted)
	sBar   = lipgloss.NewStyle().Foreground(colorAccent)
	sDone  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

const barWidth = 40

// ProgressMsg carries one train.Progress update into the BubbleTea loop.
type ProgressMsg train.Progress

// DoneMsg signals that training has finished (successfully or not).
type DoneMsg struct{ Err error }

// Model is the BubbleTea application model for the training progress bar.
type Model struct {
	corpusLabel string
	latest      train.Progress
	started     time.Time
	done        bool
	err         error
}

// New returns a fresh Model describing a training run over a corpus
// identified by label (typically its file path or size).
func New(corpusLabel string) Model {
	return Model{corpusLabel: corpusLabel, started: time.Now()}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.latest = train.Progress(msg)
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		if m.err != nil {
			return fmt.Sprintf("training failed: %v\n", m.err)
		}
		return sDone.Render(fmt.Sprintf("done — %s merges in %s\n",
			humanize.Comma(int64(m.latest.MergeIndex)), time.Since(m.started).Round(time.Millisecond)))
	}

	pct := 0.0
	if m.latest.TotalMerges > 0 {
		pct = float64(m.latest.MergeIndex) / float64(m.latest.TotalMerges)
	}
	filled := int(pct * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := sBar.Render(repeat("█", filled)) + sMuted.Render(repeat("░", barWidth-filled))

	return fmt.Sprintf("%s\n[%s] %3.0f%%\n%s merges  %s symbols  %s merges/sec\n",
		sTitle.Render("training "+m.corpusLabel),
		bar, pct*100,
		humanize.Comma(int64(m.latest.MergeIndex)),
		humanize.Comma(int64(m.latest.SymbolCount)),
		humanize.FormatFloat("#,###.#", m.latest.MergesPerSecond),
	)
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
