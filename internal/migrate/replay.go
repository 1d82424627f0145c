package migrate

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/shopspring/decimal"
)

// Mode selects whether a replay sends transfers.
type Mode int

const (
	// ModeTransfer issues one transfer per holder.
	ModeTransfer Mode = iota
	// ModeReport only sums and prints holder statistics.
	ModeReport
)

func (m Mode) String() string {
	if m == ModeReport {
		return "report"
	}
	return "transfer"
}

// DefaultSymbols are the snapshots replayed onto the new token, in order.
var DefaultSymbols = []string{"TBURN", "OBURN"}

// Transferrer moves tokens from the funding account.
type Transferrer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error)
}

// BalanceReader reads native balances.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error)
}

// TokenTransferrer sends ERC20 transfers through a transactor.
type TokenTransferrer struct {
	Token *contract.Token
	Tx    *contract.Transactor
}

// Transfer implements Transferrer.
func (t TokenTransferrer) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.Token.Transfer(ctx, t.Tx, to, amount)
}

// Progress is reported once per holder.
type Progress struct {
	Symbol string
	Index  int
	Total  int
	Holder Holder
	TxHash common.Hash
}

// TokenReport summarises one snapshot.
type TokenReport struct {
	Symbol  string
	Holders int
	Sum     decimal.Decimal
}

// Report is the outcome of a replay run.
type Report struct {
	Mode         Mode
	Tokens       []TokenReport
	Total        decimal.Decimal
	Sent         int
	NativeBefore *big.Int
	NativeAfter  *big.Int
}

// Replayer replays holder snapshots from dataDir.
type Replayer struct {
	token    Transferrer
	native   BalanceReader
	funder   common.Address
	dataDir  string
	symbols  []string
	progress func(Progress)
	logger   log.Logger
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithSymbols overrides DefaultSymbols.
func WithSymbols(symbols ...string) Option {
	return func(r *Replayer) { r.symbols = symbols }
}

// WithProgress registers a per-holder callback.
func WithProgress(fn func(Progress)) Option {
	return func(r *Replayer) { r.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Replayer) { r.logger = l }
}

// NewReplayer returns a Replayer funding transfers from funder.
func NewReplayer(token Transferrer, native BalanceReader, funder common.Address, dataDir string, opts ...Option) *Replayer {
	r := &Replayer{
		token:   token,
		native:  native,
		funder:  funder,
		dataDir: dataDir,
		symbols: DefaultSymbols,
		logger:  log.Root(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads and validates every snapshot before anything is sent.
func (r *Replayer) Load() ([]*Snapshot, error) {
	snaps := make([]*Snapshot, 0, len(r.symbols))
	for _, sym := range r.symbols {
		s, err := LoadSnapshot(SnapshotPath(r.dataDir, sym))
		if err != nil {
			return nil, err
		}
		s.Symbol = sym
		snaps = append(snaps, s)
	}
	return snaps, nil
}

// Run replays every snapshot in mode. The first failed transfer stops the run.
func (r *Replayer) Run(ctx context.Context, mode Mode) (*Report, error) {
	snaps, err := r.Load()
	if err != nil {
		return nil, err
	}

	rep := &Report{Mode: mode, Total: decimal.Zero}
	if rep.NativeBefore, err = r.native.BalanceAt(ctx, r.funder, nil); err != nil {
		return nil, fmt.Errorf("reading funding balance: %w", err)
	}
	r.logger.Info("Funding account", "address", r.funder, "balance", rep.NativeBefore)

	for _, s := range snaps {
		tr := TokenReport{Symbol: s.Symbol, Holders: len(s.Holders), Sum: s.Total()}
		rep.Tokens = append(rep.Tokens, tr)
		rep.Total = rep.Total.Add(tr.Sum)

		if mode == ModeReport {
			r.logger.Info("Holder snapshot", "token", s.Symbol, "holders", tr.Holders, "sum", tr.Sum.String())
			continue
		}
		for i, h := range s.Holders {
			r.logger.Debug("Sending", "token", s.Symbol, "to", h.Address, "amount", h.Wei)
			receipt, err := r.token.Transfer(ctx, h.Address, h.Wei)
			if err != nil {
				return rep, fmt.Errorf("%s holder %d (line %d, %s): %w", s.Symbol, i+1, h.Line, h.Address.Hex(), err)
			}
			rep.Sent++
			if r.progress != nil {
				p := Progress{Symbol: s.Symbol, Index: i, Total: len(s.Holders), Holder: h}
				if receipt != nil {
					p.TxHash = receipt.TxHash
				}
				r.progress(p)
			}
		}
	}

	if rep.NativeAfter, err = r.native.BalanceAt(ctx, r.funder, nil); err != nil {
		return rep, fmt.Errorf("reading funding balance: %w", err)
	}
	r.logger.Info("Funding account", "address", r.funder, "balance", rep.NativeAfter)
	return rep, nil
}
