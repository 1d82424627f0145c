package cmd

import (
	"context"
	"fmt"
	"math/big"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/migrate"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	migrateDryRun  bool
	migrateToken   string
	migrateDataDir string
	migrateSymbols []string
	migratePlain   bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Replay holder snapshots onto the new OBURN token",
	Long: `Read data/TBURNHolders.csv and data/OBURNHolders.csv and send each holder
their balance of the new OBURN token from the signing account.

Every row of every snapshot is validated before the first transfer is sent.
Balances are exact decimals with at most 18 fractional digits; a balance with
more digits is rejected as malformed rather than rounded. The run is refused
when the signing account holds less OBURN than the snapshots add up to.
A failed transfer stops the run; rows already sent stay sent.

With --dry-run only the holder counts and sums are reported.

Examples:
  oburnctl migrate --dry-run
  oburnctl migrate --network bsc-main --prod
  oburnctl migrate --token 0x... --data ./snapshots`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		overrides := map[addrbook.Role]string{addrbook.OBURN: migrateToken}
		addrs, err := addrbook.Migration.Resolve(production(), overrides, addrbook.OBURN)
		if err != nil {
			return err
		}
		tok := contract.NewToken("OBURN", addrs.Get(addrbook.OBURN), s.client)

		dataDir := migrateDataDir
		if dataDir == "" {
			dataDir = cfg.DataPath()
		}
		mode := migrate.ModeTransfer
		if migrateDryRun {
			mode = migrate.ModeReport
		}

		opts := []migrate.Option{migrate.WithSymbols(migrateSymbols...)}
		loader := migrate.NewReplayer(nil, s.client, s.tx.From(), dataDir, opts...)
		snaps, err := loader.Load()
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Holder replay", replaySummary(s, tok, dataDir, mode, snaps)))

		if mode == migrate.ModeTransfer {
			if err := checkFunding(ctx, tok, s.tx.From(), snaps); err != nil {
				return err
			}
		}
		if mode == migrate.ModeTransfer && !confirmBroadcast(s.network, fmt.Sprintf("Send %d transfers", countHolders(snaps))) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		transfer := migrate.TokenTransferrer{Token: tok, Tx: s.tx}
		var rep *migrate.Report
		if mode == migrate.ModeTransfer && !migratePlain && stdoutIsTerminal() {
			rep, err = runReplayTUI(ctx, s.network, snaps, func(extra ...migrate.Option) *migrate.Replayer {
				return migrate.NewReplayer(transfer, s.client, s.tx.From(), dataDir, append(opts, extra...)...)
			})
		} else {
			r := migrate.NewReplayer(transfer, s.client, s.tx.From(), dataDir, append(opts, migrate.WithLogger(log.Root()))...)
			rep, err = r.Run(ctx, mode)
		}
		if rep != nil {
			printReport(s.network, rep)
		}
		return err
	},
}

func countHolders(snaps []*migrate.Snapshot) int {
	n := 0
	for _, s := range snaps {
		n += len(s.Holders)
	}
	return n
}

type tokenBalances interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
}

// requiredWei is what sending every snapshot costs the funder, in base units.
func requiredWei(snaps []*migrate.Snapshot) *big.Int {
	need := new(big.Int)
	for _, s := range snaps {
		need.Add(need, s.TotalWei())
	}
	return need
}

// checkFunding refuses a replay the funder's token balance cannot cover, so
// a run never stops halfway for lack of tokens.
func checkFunding(ctx context.Context, tok tokenBalances, funder common.Address, snaps []*migrate.Snapshot) error {
	need := requiredWei(snaps)
	have, err := tok.BalanceOf(ctx, funder)
	if err != nil {
		return fmt.Errorf("reading funder balance: %w", err)
	}
	if have.Cmp(need) < 0 {
		return fmt.Errorf("funder %s holds %s OBURN, the snapshots need %s",
			funder.Hex(), decimal.NewFromBigInt(have, -migrate.Decimals), decimal.NewFromBigInt(need, -migrate.Decimals))
	}
	return nil
}

func replaySummary(s *session, tok *contract.Token, dataDir string, mode migrate.Mode, snaps []*migrate.Snapshot) [][2]string {
	pairs := [][2]string{
		{"Network", s.network.Name},
		{"Mode", mode.String()},
		{"Token", tok.Address.Hex()},
		{"Funder", s.tx.From().Hex()},
		{"Data", dataDir},
	}
	for _, snap := range snaps {
		pairs = append(pairs, [2]string{
			snap.Symbol,
			fmt.Sprintf("%d holders, %s", len(snap.Holders), ui.Val(snap.Total().String())),
		})
	}
	pairs = append(pairs, [2]string{"Needed", ui.Val(decimal.NewFromBigInt(requiredWei(snaps), -migrate.Decimals).String())})
	return pairs
}

// runReplayTUI runs the replay behind the live progress view. Quitting the
// view cancels the run after the in-flight transfer.
func runReplayTUI(ctx context.Context, n chain.Network, snaps []*migrate.Snapshot, build func(...migrate.Option) *migrate.Replayer) (*migrate.Report, error) {
	symbols := make([]string, len(snaps))
	holders := make(map[string]int, len(snaps))
	for i, s := range snaps {
		symbols[i] = s.Symbol
		holders[s.Symbol] = len(s.Holders)
	}
	prog := tea.NewProgram(ui.NewReplayModel(n.Name, symbols, holders))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := build(
		migrate.WithLogger(log.NewLogger(log.DiscardHandler())),
		migrate.WithProgress(func(p migrate.Progress) {
			prog.Send(ui.ReplayProgressMsg{
				Symbol: p.Symbol,
				Index:  p.Index,
				Total:  p.Total,
				Holder: p.Holder.Address.Hex(),
				Amount: p.Holder.Balance.String(),
				TxHash: p.TxHash.Hex(),
			})
		}),
	)

	type outcome struct {
		rep *migrate.Report
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		rep, err := r.Run(runCtx, migrate.ModeTransfer)
		msg := ui.ReplayDoneMsg{Err: err}
		if rep != nil {
			msg.Summary = fmt.Sprintf("%d transfers sent", rep.Sent)
		}
		prog.Send(msg)
		done <- outcome{rep, err}
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		out := <-done
		return out.rep, fmt.Errorf("progress view: %w", err)
	}
	cancel()
	out := <-done
	return out.rep, out.err
}

func printReport(n chain.Network, rep *migrate.Report) {
	t := ui.NewTable([]ui.Column{
		{Title: "Token", Width: 8},
		{Title: "Holders", Width: 9},
		{Title: "Sum", Width: 34},
	})
	for _, tr := range rep.Tokens {
		t.AddRow(ui.Row{tr.Symbol, fmt.Sprint(tr.Holders), tr.Sum.String()})
	}
	t.AddRow(ui.Row{"total", "", rep.Total.String()})
	fmt.Println(t.Render())

	if rep.NativeBefore != nil {
		fmt.Println(ui.Meta(fmt.Sprintf("Funder balance before: %s %s", chain.FormatEther(rep.NativeBefore), n.Native)))
	}
	if rep.NativeAfter != nil {
		fmt.Println(ui.Meta(fmt.Sprintf("Funder balance after:  %s %s", chain.FormatEther(rep.NativeAfter), n.Native)))
	}
	if rep.Mode == migrate.ModeTransfer {
		fmt.Println(ui.Success(fmt.Sprintf("%d transfers sent", rep.Sent)))
	}
}

func init() {
	f := migrateCmd.Flags()
	f.BoolVar(&migrateDryRun, "dry-run", false, "report holder counts and sums without sending")
	f.StringVar(&migrateToken, "token", "", "OBURN token address (default: migration address book)")
	f.StringVar(&migrateDataDir, "data", "", "directory holding <SYMBOL>Holders.csv (default: config data_dir)")
	f.StringSliceVar(&migrateSymbols, "symbols", migrate.DefaultSymbols, "snapshots to replay, in order")
	f.BoolVar(&migratePlain, "plain", false, "log progress instead of the live view")
}
