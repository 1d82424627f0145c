package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayModelTracksProgress(t *testing.T) {
	m := NewReplayModel("goerli", []string{"TBURN", "OBURN"}, map[string]int{"TBURN": 2, "OBURN": 4})
	require.Len(t, m.Rows, 2)

	next, _ := m.Update(ReplayProgressMsg{Symbol: "OBURN", Index: 1, Total: 4, Holder: "0x1234567890abcdef1234567890abcdef12345678", TxHash: "0xaa"})
	m = next.(ReplayModel)
	assert.Equal(t, 2, m.Rows[1].Sent)
	assert.Equal(t, 0, m.Rows[0].Sent)

	view := m.View()
	assert.Contains(t, view, "OBURN")
	assert.Contains(t, view, "2/4")
	assert.Contains(t, view, "0x1234…5678")
}

func TestReplayModelIgnoresUnknownSymbol(t *testing.T) {
	m := NewReplayModel("dev", []string{"TBURN"}, nil)
	next, _ := m.Update(ReplayProgressMsg{Symbol: "USDC", Index: 0, Total: 1})
	assert.Equal(t, 0, next.(ReplayModel).Rows[0].Sent)
}

func TestReplayModelDoneQuits(t *testing.T) {
	m := NewReplayModel("dev", []string{"TBURN"}, map[string]int{"TBURN": 1})
	next, cmd := m.Update(ReplayDoneMsg{Err: errors.New("TBURN holder 0 reverted")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m = next.(ReplayModel)
	assert.True(t, m.Finished)
	assert.Contains(t, m.View(), "TBURN holder 0 reverted")
}

func suiteModel() SuiteModel {
	return SuiteModel{
		Network: "dev",
		Rows: []ScenarioRow{
			{Suite: "exchange", Name: "basic exchange"},
			{Suite: "exchange", Name: "pause"},
			{Suite: "burnswap", Name: "buy with fee"},
		},
	}
}

func TestSuiteModelStatuses(t *testing.T) {
	var model tea.Model = suiteModel()
	for _, msg := range []ScenarioMsg{
		{Index: 0, Status: ScenarioRunning},
		{Index: 0, Status: ScenarioPassed, Duration: 1500 * time.Millisecond},
		{Index: 1, Status: ScenarioFailed, Err: errors.New("expected revert")},
		{Index: 2, Status: ScenarioSkipped},
		{Index: 9, Status: ScenarioPassed},
	} {
		model, _ = model.Update(msg)
	}
	m := model.(SuiteModel)

	passed, failed, skipped := m.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)

	view := m.View()
	assert.Contains(t, view, "1.5s")
	assert.Contains(t, view, "expected revert")
	assert.Contains(t, view, "1 passed  1 failed  1 skipped")
}

func TestSuiteModelDoneQuits(t *testing.T) {
	next, cmd := suiteModel().Update(SuiteDoneMsg{})
	require.NotNil(t, cmd)
	assert.True(t, next.(SuiteModel).Finished)
}

func TestSuiteModelQuitKey(t *testing.T) {
	next, _ := suiteModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m := next.(SuiteModel)
	assert.True(t, m.Quitting)
	assert.Empty(t, m.View())
}
