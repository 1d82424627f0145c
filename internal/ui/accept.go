package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ScenarioStatus is the state of one acceptance scenario in the view.
type ScenarioStatus int

const (
	ScenarioPending ScenarioStatus = iota
	ScenarioRunning
	ScenarioPassed
	ScenarioFailed
	ScenarioSkipped
)

// ScenarioRow is one line of the acceptance view.
type ScenarioRow struct {
	Suite    string
	Name     string
	Status   ScenarioStatus
	Duration time.Duration
	ErrMsg   string
}

// ScenarioMsg updates the row at Index.
type ScenarioMsg struct {
	Index    int
	Status   ScenarioStatus
	Duration time.Duration
	Err      error
}

// SuiteDoneMsg ends the acceptance view.
type SuiteDoneMsg struct{}

type suiteTickMsg struct{}

// SuiteModel is the Bubble Tea model for an acceptance run.
type SuiteModel struct {
	Network  string
	Rows     []ScenarioRow
	Frame    int
	Finished bool
	Quitting bool
}

func (m SuiteModel) Init() tea.Cmd { return suiteTick() }

func suiteTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return suiteTickMsg{}
	})
}

func (m SuiteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "q" || s == "ctrl+c" || s == "esc" {
			m.Quitting = true
			return m, tea.Quit
		}

	case suiteTickMsg:
		if m.Finished {
			return m, nil
		}
		m.Frame = (m.Frame + 1) % len(spinFrames)
		return m, suiteTick()

	case ScenarioMsg:
		if msg.Index < 0 || msg.Index >= len(m.Rows) {
			return m, nil
		}
		row := &m.Rows[msg.Index]
		row.Status = msg.Status
		row.Duration = msg.Duration
		if msg.Err != nil {
			row.ErrMsg = msg.Err.Error()
		}

	case SuiteDoneMsg:
		m.Finished = true
		return m, tea.Quit
	}
	return m, nil
}

// Counts returns passed, failed and skipped totals.
func (m SuiteModel) Counts() (passed, failed, skipped int) {
	for _, r := range m.Rows {
		switch r.Status {
		case ScenarioPassed:
			passed++
		case ScenarioFailed:
			failed++
		case ScenarioSkipped:
			skipped++
		}
	}
	return
}

func (m SuiteModel) View() string {
	if m.Quitting {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("Acceptance  ·  "+ChainName(m.Network)) + "\n")

	const (
		wSuite = 14
		wName  = 40
		wDur   = 9
	)
	sb.WriteString(
		padR(StyleDim.Render("SUITE"), wSuite) + "  " +
			padR(StyleDim.Render("SCENARIO"), wName) + "  " +
			padR(StyleDim.Render("TIME"), wDur) + "  " +
			StyleDim.Render("STATUS") + "\n",
	)
	sb.WriteString(StyleMeta.Render(strings.Repeat("─", wSuite+wName+wDur+16)) + "\n")

	suite := ""
	for _, row := range m.Rows {
		label := ""
		if row.Suite != suite {
			suite = row.Suite
			label = ChainName(row.Suite)
		}
		sb.WriteString(
			padR(label, wSuite) + "  " +
				padR(fit(row.Name, wName), wName) + "  " +
				padR(m.duration(row), wDur) + "  " +
				m.status(row) + "\n",
		)
	}

	passed, failed, skipped := m.Counts()
	summary := fmt.Sprintf("%d passed  %d failed  %d skipped", passed, failed, skipped)
	sb.WriteString("\n")
	switch {
	case failed > 0:
		sb.WriteString(StyleError.Render(summary) + "\n")
	case m.Finished:
		sb.WriteString(StyleSuccess.Render(summary) + "\n")
	default:
		sb.WriteString(StyleInfo.Render(summary) + "\n")
	}
	return sb.String()
}

func (m SuiteModel) duration(row ScenarioRow) string {
	if row.Status == ScenarioPending || row.Status == ScenarioRunning {
		return StyleMeta.Render("-")
	}
	return StyleMeta.Render(row.Duration.Truncate(time.Millisecond).String())
}

func (m SuiteModel) status(row ScenarioRow) string {
	switch row.Status {
	case ScenarioRunning:
		return StyleInfo.Render(spinFrames[m.Frame] + " running")
	case ScenarioPassed:
		return StyleSuccess.Render("✓")
	case ScenarioFailed:
		return StyleError.Render("✗ " + row.ErrMsg)
	case ScenarioSkipped:
		return StyleWarning.Render("skipped")
	}
	return StyleMeta.Render("⏳")
}
