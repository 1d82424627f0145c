package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/acceptance"
	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/onlyburns/oburnctl/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	acceptList  bool
	acceptSet   []string
	acceptPlain bool
)

var acceptCmd = &cobra.Command{
	Use:   "accept [suite...]",
	Short: "Run the acceptance suites",
	Long: `Run the acceptance suites against the active network.

The exchange, token and presale suites deploy fresh contracts and mocks, so
they need a development network with the well-known funded accounts (anvil,
hardhat or ganache). The burnswap suite runs against the already deployed
BurnSwap contract; its addresses come from the burnswap address book and can
be overridden with --set role=address.

Examples:
  oburnctl accept
  oburnctl accept presale token
  oburnctl accept burnswap --network polygon-test --set burnswap=0x...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if acceptList {
			printSuites()
			return nil
		}
		suites, err := acceptance.Select(args...)
		if err != nil {
			return err
		}
		overrides, err := addrbook.ParseOverrides(acceptSet)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		n, client, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		signers, err := acceptSigners(n)
		if err != nil {
			return err
		}
		logger := log.Root()
		tui := !acceptPlain && stdoutIsTerminal()
		if tui {
			logger = log.NewLogger(log.DiscardHandler())
		}

		env, err := acceptance.NewEnv(ctx, client, n,
			contract.NewArtifactStore(cfg.ArtifactsPath()), signers,
			acceptance.WithLive(liveAddresses(production(), overrides)),
			acceptance.WithEnvLogger(logger),
			acceptance.WithTransactorOptions(transactorOptions(n)...),
		)
		if err != nil {
			return err
		}

		var results []acceptance.Result
		if tui {
			results, err = runSuitesTUI(ctx, env, suites)
			if err != nil {
				return err
			}
		} else {
			results = acceptance.Run(ctx, env, suites, plainObserver)
		}
		printFailures(results)

		passed, failed, skipped := acceptance.Summary(results)
		summary := fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
		if failed > 0 {
			return fmt.Errorf("acceptance: %s", summary)
		}
		fmt.Println(ui.Success(summary))
		return nil
	},
}

// acceptSigners returns every dev account on development networks, and the
// configured signer elsewhere.
func acceptSigners(n chain.Network) ([]*wallet.Signer, error) {
	if n.Dev {
		return acceptance.DevSigners()
	}
	s, err := resolveSigner(n)
	if err != nil {
		return nil, err
	}
	return []*wallet.Signer{s}, nil
}

// liveAddresses resolves the burnswap roles one at a time so a missing role
// only fails the scenarios that need it.
func liveAddresses(prod bool, overrides map[addrbook.Role]string) addrbook.Addresses {
	out := addrbook.Addresses{}
	for _, r := range addrbook.BurnSwapBook.Roles() {
		a, err := addrbook.BurnSwapBook.Resolve(prod, overrides, r)
		if err != nil {
			log.Debug("BurnSwap address unavailable", "role", r, "err", err)
			continue
		}
		out[r] = a.Get(r)
	}
	return out
}

func plainObserver(ev acceptance.Event) {
	if ev.Kind != acceptance.ScenarioFinished {
		return
	}
	r := ev.Result
	label := fmt.Sprintf("[%d/%d] %s / %s (%s)", ev.Index+1, ev.Total, r.Suite, r.Scenario, r.Duration.Round(time.Millisecond))
	switch {
	case r.Skipped:
		fmt.Println(ui.Warn(label + " skipped"))
	case r.Err != nil:
		fmt.Println(ui.Err(label))
	default:
		fmt.Println(ui.Success(label))
	}
}

func runSuitesTUI(ctx context.Context, env *acceptance.Env, suites []acceptance.Suite) ([]acceptance.Result, error) {
	m := ui.SuiteModel{Network: env.Network.Name}
	for _, s := range suites {
		for _, sc := range s.Scenarios {
			m.Rows = append(m.Rows, ui.ScenarioRow{Suite: s.Name, Name: sc.Name})
		}
	}
	prog := tea.NewProgram(m)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan []acceptance.Result, 1)
	go func() {
		results := acceptance.Run(runCtx, env, suites, func(ev acceptance.Event) {
			prog.Send(scenarioMsg(ev))
		})
		prog.Send(ui.SuiteDoneMsg{})
		done <- results
	}()

	_, err := prog.Run()
	cancel()
	results := <-done
	if err != nil {
		return results, fmt.Errorf("progress view: %w", err)
	}
	return results, nil
}

func scenarioMsg(ev acceptance.Event) ui.ScenarioMsg {
	msg := ui.ScenarioMsg{Index: ev.Index, Status: ui.ScenarioRunning}
	if ev.Kind != acceptance.ScenarioFinished {
		return msg
	}
	r := ev.Result
	msg.Duration = r.Duration
	switch {
	case r.Skipped:
		msg.Status = ui.ScenarioSkipped
	case r.Err != nil:
		msg.Status = ui.ScenarioFailed
		msg.Err = r.Err
	default:
		msg.Status = ui.ScenarioPassed
	}
	return msg
}

func printFailures(results []acceptance.Result) {
	for _, r := range results {
		if r.Skipped || r.Err == nil {
			continue
		}
		fmt.Println(ui.Err(r.Suite + " / " + r.Scenario))
		for _, line := range strings.Split(r.Err.Error(), "\n") {
			fmt.Println("    " + ui.Meta(line))
		}
	}
}

func printSuites() {
	for _, s := range acceptance.Suites() {
		where := "live BurnSwap"
		if s.Local {
			where = "dev chain"
		}
		fmt.Println(ui.ChainName(s.Name) + " " + ui.Meta("("+where+")"))
		for _, sc := range s.Scenarios {
			fmt.Println("  " + sc.Name)
		}
	}
}

func init() {
	f := acceptCmd.Flags()
	f.BoolVar(&acceptList, "list", false, "list suites and scenarios")
	f.StringArrayVar(&acceptSet, "set", nil, "override a burnswap role as role=address (repeatable)")
	f.BoolVar(&acceptPlain, "plain", false, "print results line by line instead of the live view")
}
