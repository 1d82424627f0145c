package acceptance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/contract"
)

// Scenario is one acceptance check.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, e *Env) error
}

// Suite groups the scenarios for one contract.
type Suite struct {
	Name string
	// Local suites deploy fresh mocks and need a development chain.
	Local     bool
	Scenarios []Scenario
}

// Suites returns every suite in run order.
func Suites() []Suite {
	return []Suite{ExchangeSuite(), TokenSuite(), PresaleSuite(), BurnSwapSuite()}
}

// Select returns the named suites, or all of them when names is empty.
func Select(names ...string) ([]Suite, error) {
	all := Suites()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]Suite, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	out := make([]Suite, 0, len(names))
	for _, n := range names {
		s, ok := byName[strings.ToLower(n)]
		if !ok {
			return nil, fmt.Errorf("unknown suite %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}

// Result is the outcome of one scenario.
type Result struct {
	Suite    string
	Scenario string
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Passed reports whether the scenario ran and succeeded.
func (r Result) Passed() bool { return !r.Skipped && r.Err == nil }

// EventKind distinguishes observer callbacks.
type EventKind int

const (
	ScenarioStarted EventKind = iota
	ScenarioFinished
)

// Event is passed to the observer around every scenario.
type Event struct {
	Kind   EventKind
	Index  int
	Total  int
	Result Result
}

// Observer receives run progress.
type Observer func(Event)

// Run executes suites one scenario at a time. A failing scenario does not
// stop the run. Local suites are skipped off a development chain.
func Run(ctx context.Context, env *Env, suites []Suite, observe Observer) []Result {
	if observe == nil {
		observe = func(Event) {}
	}
	total := 0
	for _, s := range suites {
		total += len(s.Scenarios)
	}

	results := make([]Result, 0, total)
	i := 0
	for _, s := range suites {
		for _, sc := range s.Scenarios {
			res := Result{Suite: s.Name, Scenario: sc.Name}
			observe(Event{Kind: ScenarioStarted, Index: i, Total: total, Result: res})

			start := time.Now()
			switch {
			case ctx.Err() != nil:
				res.Err = ctx.Err()
			case s.Local && !env.Network.Dev:
				res.Skipped = true
				res.Err = ErrNeedsDevChain
			default:
				res.Err = sc.Run(ctx, env)
				if errors.Is(res.Err, ErrNeedsDevChain) {
					res.Skipped = true
				}
			}
			res.Duration = time.Since(start)

			switch {
			case res.Skipped:
				env.Logger.Info("Scenario skipped", "suite", s.Name, "scenario", sc.Name, "reason", res.Err)
			case res.Err == nil:
				env.Logger.Info("Scenario passed", "suite", s.Name, "scenario", sc.Name, "elapsed", res.Duration)
			default:
				env.Logger.Warn("Scenario failed", "suite", s.Name, "scenario", sc.Name, "err", res.Err)
			}
			results = append(results, res)
			observe(Event{Kind: ScenarioFinished, Index: i, Total: total, Result: res})
			i++
		}
	}
	return results
}

// Summary counts passed, failed, and skipped results.
func Summary(results []Result) (passed, failed, skipped int) {
	for _, r := range results {
		switch {
		case r.Passed():
			passed++
		case r.Skipped:
			skipped++
		default:
			failed++
		}
	}
	return
}

type balance struct {
	token *contract.Token
	owner common.Address
	want  *big.Int
}

func (e *Env) expectBalances(ctx context.Context, want ...balance) error {
	var c Checks
	for _, b := range want {
		got, err := b.token.BalanceOf(ctx, b.owner)
		if err != nil {
			return err
		}
		c.Add(Equal(fmt.Sprintf("%s balance of %s", b.token.Symbol, b.owner.Hex()), got, b.want))
	}
	return c.Err()
}
