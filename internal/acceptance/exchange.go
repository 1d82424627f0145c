package acceptance

import (
	"context"
	"math/big"

	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/deploy"
)

func (l *local) presaleAndExchange(ctx context.Context, presaleWallet *contract.Transactor) (presale, exchange *contract.Bound, err error) {
	a := l.mocks.Addresses()
	a[addrbook.PresaleWallet] = presaleWallet.From()
	deps, err := deploy.PresaleAndExchange(ctx, l.Deployer, a)
	if err != nil {
		return nil, nil, err
	}
	return deps[0].Bound(l.Backend), deps[1].Bound(l.Backend), nil
}

// fundExchange seeds the exchange with OBURN and account 2 with TBURN.
func (l *local) fundExchange(ctx context.Context, ex *contract.Bound, oburnAmt, tburnAmt *big.Int) error {
	if _, err := l.oburn.Transfer(ctx, l.owner, ex.Address, oburnAmt); err != nil {
		return err
	}
	_, err := l.tburn.Transfer(ctx, l.owner, l.acct2.From(), tburnAmt)
	return err
}

// ExchangeSuite covers the TBURN to OBURN exchange.
func ExchangeSuite() Suite {
	return Suite{
		Name:  "exchange",
		Local: true,
		Scenarios: []Scenario{
			{"users can exchange", exchangeBasic},
			{"owner can withdraw TBURN and OBURN", exchangeWithdraw},
			{"owner can rescue tokens", exchangeRescue},
			{"owner can pause and unpause", exchangePause},
			{"users must approve TBURN", exchangeApproval},
		},
	}
}

func exchangeBasic(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	_, ex, err := l.presaleAndExchange(ctx, l.acct2)
	if err != nil {
		return err
	}
	amt := Ether(100)
	if err := l.fundExchange(ctx, ex, amt, amt); err != nil {
		return err
	}

	if _, err := l.tburn.Approve(ctx, l.acct2, ex.Address, amt); err != nil {
		return err
	}
	if _, err := ex.Transact(ctx, l.acct2, "OBURNExchange", amt); err != nil {
		return err
	}

	return l.expectBalances(ctx,
		balance{l.tburn, l.acct2.From(), big.NewInt(0)},
		balance{l.tburn, ex.Address, amt},
		balance{l.oburn, l.acct2.From(), amt},
		balance{l.oburn, ex.Address, big.NewInt(0)},
	)
}

func exchangeWithdraw(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	_, ex, err := l.presaleAndExchange(ctx, l.acct2)
	if err != nil {
		return err
	}
	amt := Ether(100)
	if err := l.fundExchange(ctx, ex, new(big.Int).Mul(amt, big.NewInt(3)), amt); err != nil {
		return err
	}
	if _, err := l.tburn.Approve(ctx, l.acct2, ex.Address, amt); err != nil {
		return err
	}
	if _, err := ex.Transact(ctx, l.acct2, "OBURNExchange", amt); err != nil {
		return err
	}

	tburnBefore, err := l.tburn.BalanceOf(ctx, l.owner.From())
	if err != nil {
		return err
	}
	oburnBefore, err := l.oburn.BalanceOf(ctx, l.owner.From())
	if err != nil {
		return err
	}

	half := new(big.Int).Quo(amt, big.NewInt(2))
	for _, step := range []struct {
		method string
		args   []any
	}{
		{"withdrawSpecifiedTBURN", []any{half}},
		{"withdrawSpecifiedOBURN", []any{amt}},
		{"withdrawAllTBURN", nil},
		{"withdrawAllOBURN", nil},
	} {
		if _, err := ex.Transact(ctx, l.owner, step.method, step.args...); err != nil {
			return err
		}
	}

	return l.expectBalances(ctx,
		balance{l.tburn, l.owner.From(), new(big.Int).Add(tburnBefore, amt)},
		balance{l.oburn, l.owner.From(), new(big.Int).Add(oburnBefore, new(big.Int).Mul(amt, big.NewInt(2)))},
	)
}

func exchangeRescue(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	_, ex, err := l.presaleAndExchange(ctx, l.acct2)
	if err != nil {
		return err
	}
	amt := Ether(100)
	if _, err := l.usdc.Transfer(ctx, l.owner, l.acct2.From(), amt); err != nil {
		return err
	}
	if _, err := l.usdc.Transfer(ctx, l.acct2, ex.Address, amt); err != nil {
		return err
	}

	before, err := l.usdc.BalanceOf(ctx, l.owner.From())
	if err != nil {
		return err
	}
	if _, err := ex.Transact(ctx, l.owner, "rescueFundsWithAmount", l.usdc.Address, new(big.Int).Quo(amt, big.NewInt(5))); err != nil {
		return err
	}
	if _, err := ex.Transact(ctx, l.owner, "rescueFunds", l.usdc.Address); err != nil {
		return err
	}

	return l.expectBalances(ctx,
		balance{l.usdc, ex.Address, big.NewInt(0)},
		balance{l.usdc, l.owner.From(), new(big.Int).Add(before, amt)},
	)
}

func exchangePause(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	_, ex, err := l.presaleAndExchange(ctx, l.acct2)
	if err != nil {
		return err
	}
	amt := Ether(655)
	fifth := new(big.Int).Quo(amt, big.NewInt(5))
	if err := l.fundExchange(ctx, ex, amt, amt); err != nil {
		return err
	}
	if _, err := l.tburn.Approve(ctx, l.acct2, ex.Address, amt); err != nil {
		return err
	}
	if _, err := ex.Transact(ctx, l.acct2, "OBURNExchange", fifth); err != nil {
		return err
	}

	if _, err := ex.Transact(ctx, l.owner, "pauseExchange"); err != nil {
		return err
	}
	_, err = ex.Transact(ctx, l.acct2, "OBURNExchange", fifth)
	if err := ExpectRevert(err, ReasonPaused); err != nil {
		return err
	}
	if _, err := ex.Transact(ctx, l.owner, "unpauseExchange"); err != nil {
		return err
	}
	if _, err := ex.Transact(ctx, l.acct2, "OBURNExchange", new(big.Int).Sub(amt, fifth)); err != nil {
		return err
	}

	return l.expectBalances(ctx,
		balance{l.tburn, l.acct2.From(), big.NewInt(0)},
		balance{l.tburn, ex.Address, amt},
		balance{l.oburn, l.acct2.From(), amt},
		balance{l.oburn, ex.Address, big.NewInt(0)},
	)
}

func exchangeApproval(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	_, ex, err := l.presaleAndExchange(ctx, l.acct2)
	if err != nil {
		return err
	}
	amt := Ether(100)
	if err := l.fundExchange(ctx, ex, amt, amt); err != nil {
		return err
	}
	allowed, err := l.tburn.Allowance(ctx, l.acct2.From(), ex.Address)
	if err != nil {
		return err
	}
	if err := Equal("TBURN allowance", allowed, big.NewInt(0)); err != nil {
		return err
	}
	_, err = ex.Transact(ctx, l.acct2, "OBURNExchange", amt)
	return ExpectRevert(err, ReasonExchangeApproval)
}
