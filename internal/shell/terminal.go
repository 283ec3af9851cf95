// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/relabs-tech/headtrack_logger/internal/status"
)

const refreshInterval = 100 * time.Millisecond

// Terminal is a full screen status window. Closing it (q, Esc or Ctrl+C)
// or any failure of the window stops the capture.
type Terminal struct {
	board *status.Board
	opts  []tea.ProgramOption
	stop  atomic.Bool
}

// NewTerminal creates a window over board. Program options are passed to
// bubbletea after the defaults.
func NewTerminal(board *status.Board, opts ...tea.ProgramOption) *Terminal {
	return &Terminal{board: board, opts: opts}
}

// ShouldStop implements capture.StopObserver.
func (t *Terminal) ShouldStop() bool { return t.stop.Load() }

// Run shows the window until the operator closes it, the run stops or ctx
// is done. The stop flag is set on every return.
func (t *Terminal) Run(ctx context.Context) error {
	defer t.stop.Store(true)

	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, t.opts...)
	p := tea.NewProgram(newModel(t.board), opts...)

	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		return fmt.Errorf("shell: terminal window: %w", err)
	}
	return nil
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(16)
	valueStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

type model struct {
	board *status.Board
	snap  status.Snapshot
}

func newModel(board *status.Board) model {
	return model{board: board, snap: board.Snapshot()}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.snap = m.board.Snapshot()
		if m.snap.Stopped {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	s := m.snap
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("Head tracker logger"))
	b.WriteString("\n\n")
	row("Run", s.RunID)
	row("Source", s.Source)
	row("Log file", s.LogPath)
	b.WriteString("\n")

	if !s.HasSample {
		b.WriteString("Waiting for the first frame...\n")
	} else {
		row("Frame", fmt.Sprintf("%d", s.Sample.FrameID))
		row("Roll/Pitch/Yaw", fmt.Sprintf("%+8.2f %+8.2f %+8.2f deg", s.Sample.Roll, s.Sample.Pitch, s.Sample.Yaw))
		row("X/Y/Z", fmt.Sprintf("%+8.2f %+8.2f %+8.2f", s.Sample.X, s.Sample.Y, s.Sample.Z))
	}
	b.WriteString("\n")
	row("Frames logged", fmt.Sprintf("%d", s.Stats.Logged))
	row("Frames missed", fmt.Sprintf("%d", s.Stats.Missed))
	row("Frame rate", fmt.Sprintf("%.0f Hz", s.Rate))
	row("Elapsed", (time.Duration(s.ElapsedMs) * time.Millisecond).String())
	if s.Stats.WriteFailures > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d write failures, last: %s", s.Stats.WriteFailures, s.LastError)))
		b.WriteString("\n")
	}

	return boxStyle.Render(b.String()) + "\n" + hintStyle.Render("q / esc: stop logging") + "\n"
}
