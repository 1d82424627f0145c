package acceptance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/acceptance"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuitesCoverEveryScenario(t *testing.T) {
	want := map[string]int{"exchange": 5, "token": 3, "presale": 8, "burnswap": 10}
	suites := acceptance.Suites()
	require.Len(t, suites, len(want))
	for _, s := range suites {
		assert.Len(t, s.Scenarios, want[s.Name], s.Name)
		assert.Equal(t, s.Name != "burnswap", s.Local, s.Name)
	}
}

func TestSelect(t *testing.T) {
	all, err := acceptance.Select()
	require.NoError(t, err)
	assert.Len(t, all, 4)

	got, err := acceptance.Select("Presale", "token")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "presale", got[0].Name)
	assert.Equal(t, "token", got[1].Name)

	_, err = acceptance.Select("nope")
	assert.ErrorContains(t, err, `unknown suite "nope"`)
}

func TestRunReportsEveryScenario(t *testing.T) {
	boom := errors.New("boom")
	var order []string
	suites := []acceptance.Suite{
		{Name: "live", Scenarios: []acceptance.Scenario{
			{Name: "ok", Run: func(context.Context, *acceptance.Env) error { order = append(order, "ok"); return nil }},
			{Name: "bad", Run: func(context.Context, *acceptance.Env) error { order = append(order, "bad"); return boom }},
		}},
		{Name: "mocks", Local: true, Scenarios: []acceptance.Scenario{
			{Name: "never", Run: func(context.Context, *acceptance.Env) error { order = append(order, "never"); return nil }},
		}},
	}
	env := &acceptance.Env{Network: chain.Network{Name: "polygon-test"}, Logger: log.Root()}

	var events []acceptance.Event
	results := acceptance.Run(context.Background(), env, suites, func(e acceptance.Event) { events = append(events, e) })

	assert.Equal(t, []string{"ok", "bad"}, order)
	require.Len(t, results, 3)
	assert.True(t, results[0].Passed())
	assert.ErrorIs(t, results[1].Err, boom)
	assert.True(t, results[2].Skipped)
	assert.ErrorIs(t, results[2].Err, acceptance.ErrNeedsDevChain)

	require.Len(t, events, 6)
	assert.Equal(t, acceptance.ScenarioStarted, events[0].Kind)
	assert.Equal(t, acceptance.ScenarioFinished, events[5].Kind)
	assert.Equal(t, 3, events[5].Total)
	assert.Equal(t, 2, events[5].Index)

	passed, failed, skipped := acceptance.Summary(results)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{passed, failed, skipped})
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	suites := []acceptance.Suite{{Name: "s", Scenarios: []acceptance.Scenario{
		{Name: "x", Run: func(context.Context, *acceptance.Env) error { called = true; return nil }},
	}}}
	results := acceptance.Run(ctx, &acceptance.Env{Logger: log.Root()}, suites, nil)
	assert.False(t, called)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
