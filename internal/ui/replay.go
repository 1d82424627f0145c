package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ReplayRow tracks one token snapshot during a holder replay.
type ReplayRow struct {
	Symbol  string
	Holders int
	Sent    int
	Last    string // last holder address
	LastTx  string
}

// ReplayProgressMsg reports one confirmed holder transfer.
type ReplayProgressMsg struct {
	Symbol string
	Index  int
	Total  int
	Holder string
	Amount string
	TxHash string
}

// ReplayDoneMsg ends the replay view.
type ReplayDoneMsg struct {
	Summary string
	Err     error
}

type replayTickMsg struct{}

// ReplayModel is the Bubble Tea model for a holder snapshot replay.
type ReplayModel struct {
	Network  string
	Rows     []ReplayRow
	RowIndex map[string]int
	Frame    int
	Finished bool
	Summary  string
	Err      error
	Quitting bool
}

// NewReplayModel builds the view for the given symbols, in replay order.
func NewReplayModel(network string, symbols []string, holders map[string]int) ReplayModel {
	m := ReplayModel{Network: network, RowIndex: make(map[string]int, len(symbols))}
	for i, sym := range symbols {
		m.Rows = append(m.Rows, ReplayRow{Symbol: sym, Holders: holders[sym]})
		m.RowIndex[sym] = i
	}
	return m
}

func (m ReplayModel) Init() tea.Cmd { return replayTick() }

func replayTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return replayTickMsg{}
	})
}

func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case replayTickMsg:
		if m.Finished {
			return m, nil
		}
		m.Frame = (m.Frame + 1) % len(spinFrames)
		return m, replayTick()

	case ReplayProgressMsg:
		idx, ok := m.RowIndex[msg.Symbol]
		if !ok {
			return m, nil
		}
		row := &m.Rows[idx]
		row.Sent = msg.Index + 1
		if msg.Total > 0 {
			row.Holders = msg.Total
		}
		row.Last = msg.Holder
		row.LastTx = msg.TxHash

	case ReplayDoneMsg:
		m.Finished = true
		m.Summary = msg.Summary
		m.Err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m ReplayModel) View() string {
	if m.Quitting {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("Holder replay  ·  "+ChainName(m.Network)) + "\n")

	t := NewTable([]Column{
		{Title: "TOKEN", Width: 8},
		{Title: "PROGRESS", Width: 32},
		{Title: "LAST HOLDER", Width: 13},
		{Title: "LAST TX", Width: 13},
	})
	for _, row := range m.Rows {
		t.AddRow(Row{
			row.Symbol,
			m.bar(row),
			TruncateAddr(row.Last),
			TruncateAddr(row.LastTx),
		})
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n")

	switch {
	case m.Err != nil:
		sb.WriteString(Err(m.Err.Error()) + "\n")
	case m.Finished:
		sb.WriteString(Success(m.Summary) + "\n")
	default:
		sb.WriteString(StyleMeta.Render("q to abort the view (transfers already sent stay sent)") + "\n")
	}
	return sb.String()
}

// bar renders "[#####.....] sent/total" for a row.
func (m ReplayModel) bar(row ReplayRow) string {
	const width = 16
	filled := 0
	if row.Holders > 0 {
		filled = row.Sent * width / row.Holders
	}
	b := "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
	label := fmt.Sprintf("%s %d/%d", b, row.Sent, row.Holders)
	if row.Sent < row.Holders && !m.Finished {
		label += " " + spinFrames[m.Frame]
	}
	return label
}
