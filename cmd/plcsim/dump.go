package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/fx3usim/plcsim/scan"
	"github.com/fx3usim/plcsim/state"
)

// dumpModel is the 'd' command's single-screen snapshot view: run state,
// scan stats, error register, and the first 16 D registers. View re-reads
// the scheduler's state on every render (each key press, e.g. 'd' again), so
// a refresh always shows current state; there is no timer tick, and the view
// does not itself drive scans.
type dumpModel struct {
	sc   *scan.Scheduler
	done bool
}

func (m dumpModel) Init() tea.Cmd { return nil }

func (m dumpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m dumpModel) View() string {
	s := m.sc.State()

	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("plcsim dump — state %s, cycle %d", s.Run(), s.CycleCount()),
	)

	stats := fmt.Sprintf(
		"scan last=%dus min=%dus max=%dus  error=0x%04X",
		s.LastScanUS(), s.MinScanUS(), s.MaxScanUS(), s.Error(),
	)

	registers := spew.Sdump(firstWords(s, 16))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		stats,
		"",
		"D[0:16] =",
		registers,
		"",
		"(press q to exit)",
	)
}

func firstWords(s *state.State, n int) []int16 {
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = s.GetDIndex(i)
	}
	return out
}

// runDump starts the bubbletea dump TUI over the scheduler's current state,
// adapted from the CPU debugger's pattern of driving a small inline
// tea.Model rather than a persistent full-screen app.
func runDump(sc *scan.Scheduler) {
	if _, err := tea.NewProgram(dumpModel{sc: sc}).Run(); err != nil {
		fmt.Println("dump error:", err)
	}
}
